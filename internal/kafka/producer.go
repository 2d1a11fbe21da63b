package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"gw-bank-transfer/internal/models"

	"github.com/IBM/sarama"
)

// Producer публикует события о переводах для сервиса уведомлений
type Producer interface {
	SendTransferEvent(ctx context.Context, event models.TransferEvent) error
	Close() error
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	log      *slog.Logger
}

func newSaramaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Timeout = 5 * time.Second
	// события одного клиента попадают в одну партицию и сохраняют порядок
	config.Producer.Partitioner = sarama.NewHashPartitioner
	return config
}

func NewKafkaProducer(brokers []string, topic string, log *slog.Logger) (Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, newSaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Info("kafka producer создан", slog.String("topic", topic), slog.Any("brokers", brokers))

	return NewKafkaProducerWith(producer, topic, log), nil
}

// NewKafkaProducerWith оборачивает готовый sarama.SyncProducer
func NewKafkaProducerWith(producer sarama.SyncProducer, topic string, log *slog.Logger) *KafkaProducer {
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

func (p *KafkaProducer) SendTransferEvent(ctx context.Context, event models.TransferEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.CustomerID.String()),
		Value: sarama.ByteEncoder(eventData),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(event.EventType)},
		},
	}

	log := p.log.With(
		slog.String("transfer_id", event.TransferID.String()),
		slog.String("event_type", string(event.EventType)),
	)

	type result struct {
		partition int32
		offset    int64
		err       error
	}

	resultCh := make(chan result, 1)

	go func() {
		partition, offset, err := p.producer.SendMessage(msg)
		resultCh <- result{partition, offset, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			log.Error("kafka send failed", slog.String("error", res.err.Error()))
			return res.err
		}
		log.Debug("kafka send success",
			slog.Int("partition", int(res.partition)),
			slog.Int64("offset", res.offset))
		return nil

	case <-ctx.Done():
		log.Warn("kafka send cancelled")
		return ctx.Err()
	}
}

func (p *KafkaProducer) Close() error {
	if p.producer == nil {
		return nil
	}
	p.log.Info("закрытие kafka producer")
	return p.producer.Close()
}

type NoOpProducer struct {
	log *slog.Logger
}

func NewNoOpProducer(log *slog.Logger) Producer {
	return &NoOpProducer{log: log}
}

func (p *NoOpProducer) SendTransferEvent(ctx context.Context, event models.TransferEvent) error {
	p.log.Debug("kafka отключен, событие не отправлено",
		slog.String("transfer_id", event.TransferID.String()),
		slog.String("event_type", string(event.EventType)))
	return nil
}

func (p *NoOpProducer) Close() error {
	return nil
}
