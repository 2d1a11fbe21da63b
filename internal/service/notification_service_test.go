package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gw-bank-transfer/internal/models"
)

func TestNotificationService_DeliversEvents(t *testing.T) {
	producer := new(MockKafkaProducer)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	event := models.TransferEvent{
		EventType:  models.EventTransferCommitted,
		TransferID: uuid.New(),
		CustomerID: uuid.New(),
		Timestamp:  time.Now().UTC(),
	}

	done := make(chan struct{})
	producer.On("SendTransferEvent", mock.Anything, event).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	service := NewNotificationService(producer, 1, 4, time.Second, log)
	service.Notify(event)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	require.NoError(t, service.Shutdown(context.Background()))
	producer.AssertExpectations(t)
}

func TestNotificationService_ProducerErrorIsAbsorbed(t *testing.T) {
	producer := new(MockKafkaProducer)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	first := models.TransferEvent{EventType: models.EventTransferBlockedFraud, TransferID: uuid.New()}
	second := models.TransferEvent{EventType: models.EventTransferCommitted, TransferID: uuid.New()}

	done := make(chan struct{})
	producer.On("SendTransferEvent", mock.Anything, first).Return(errors.New("kafka: client has run out of available brokers"))
	producer.On("SendTransferEvent", mock.Anything, second).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	service := NewNotificationService(producer, 1, 4, time.Second, log)
	service.Notify(first)
	service.Notify(second)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after producer error")
	}

	require.NoError(t, service.Shutdown(context.Background()))
}

func TestNotificationService_DropsWhenFull(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	// без воркеров очередь не разгружается
	service := &NotificationService{
		producer:    new(MockKafkaProducer),
		sendTimeout: time.Second,
		log:         log,
		events:      make(chan models.TransferEvent, 1),
		stopCh:      make(chan struct{}),
	}

	service.Notify(models.TransferEvent{TransferID: uuid.New()})
	service.Notify(models.TransferEvent{TransferID: uuid.New()})

	assert.Len(t, service.events, 1)
}

func TestNotificationService_ShutdownDrainsQueue(t *testing.T) {
	producer := new(MockKafkaProducer)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	service := &NotificationService{
		producer:    producer,
		sendTimeout: time.Second,
		log:         log,
		events:      make(chan models.TransferEvent, 4),
		stopCh:      make(chan struct{}),
	}

	producer.On("SendTransferEvent", mock.Anything, mock.Anything).Return(nil)

	service.Notify(models.TransferEvent{TransferID: uuid.New()})
	service.Notify(models.TransferEvent{TransferID: uuid.New()})

	// воркер стартует уже после остановки и должен дослать очередь
	service.stopOnce.Do(func() { close(service.stopCh) })
	service.wg.Add(1)
	go service.worker(0)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, service.Shutdown(ctx))

	producer.AssertNumberOfCalls(t, "SendTransferEvent", 2)
	assert.Len(t, service.events, 0)
}
