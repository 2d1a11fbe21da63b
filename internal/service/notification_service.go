package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gw-bank-transfer/internal/kafka"
	"gw-bank-transfer/internal/metrics"
	"gw-bank-transfer/internal/models"
)

// Notifier доставляет события о переводах. Ошибки доставки не влияют на исход перевода.
type Notifier interface {
	Notify(event models.TransferEvent)
	Shutdown(ctx context.Context) error
}

type NotificationService struct {
	producer    kafka.Producer
	sendTimeout time.Duration
	log         *slog.Logger

	events   chan models.TransferEvent
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewNotificationService(producer kafka.Producer, workers, queueSize int, sendTimeout time.Duration, log *slog.Logger) *NotificationService {
	svc := &NotificationService{
		producer:    producer,
		sendTimeout: sendTimeout,
		log:         log,
		events:      make(chan models.TransferEvent, queueSize),
		stopCh:      make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		svc.wg.Add(1)
		go svc.worker(i)
	}

	return svc
}

func (s *NotificationService) Notify(event models.TransferEvent) {
	select {
	case <-s.stopCh:
		metrics.NotificationsDropped.Inc()
		return
	default:
	}

	select {
	case s.events <- event:
	default:
		metrics.NotificationsDropped.Inc()
		s.log.Error("очередь уведомлений переполнена, событие отброшено",
			slog.String("transfer_id", event.TransferID.String()),
			slog.String("event_type", string(event.EventType)))
	}
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case event := <-s.events:
			s.send(id, event)
		case <-s.stopCh:
			// отправляем то, что уже в очереди
			for {
				select {
				case event := <-s.events:
					s.send(id, event)
				default:
					return
				}
			}
		}
	}
}

func (s *NotificationService) send(workerID int, event models.TransferEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	if err := s.producer.SendTransferEvent(ctx, event); err != nil {
		metrics.NotificationsDropped.Inc()
		s.log.Error("не удалось отправить уведомление",
			slog.Int("worker_id", workerID),
			slog.String("transfer_id", event.TransferID.String()),
			slog.String("error", err.Error()))
	}
}

func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down notification service")

	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.log.Warn("notification shutdown timeout exceeded")
		return ctx.Err()
	}
}
