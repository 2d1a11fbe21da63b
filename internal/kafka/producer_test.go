package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gw-bank-transfer/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEvent() models.TransferEvent {
	return models.TransferEvent{
		EventType:     models.EventTransferCommitted,
		TransferID:    uuid.New(),
		CustomerID:    uuid.New(),
		AccountNumber: "40817810000000000001",
		Recipient:     "40817810000000000002",
		Amount:        decimal.RequireFromString("250.50"),
		AuthMethod:    models.AuthStandard,
		Timestamp:     time.Now().UTC(),
	}
}

func TestKafkaProducer_SendTransferEvent_Success(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	event := testEvent()

	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != event.CustomerID.String() {
			return errors.New("unexpected key")
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var decoded models.TransferEvent
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if decoded.TransferID != event.TransferID || !decoded.Amount.Equal(event.Amount) {
			return errors.New("unexpected payload")
		}
		return nil
	})

	p := NewKafkaProducerWith(sp, "transfer-notifications", testLogger())

	err := p.SendTransferEvent(context.Background(), event)

	assert.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestKafkaProducer_SendTransferEvent_Failure(t *testing.T) {
	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaProducerWith(sp, "transfer-notifications", testLogger())

	err := p.SendTransferEvent(context.Background(), testEvent())

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, p.Close())
}

func TestNoOpProducer(t *testing.T) {
	p := NewNoOpProducer(testLogger())

	assert.NoError(t, p.SendTransferEvent(context.Background(), testEvent()))
	assert.NoError(t, p.Close())
}
