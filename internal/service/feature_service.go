package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gw-bank-transfer/internal/cache"
	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/metrics"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/storage/postgres"

	"github.com/google/uuid"
)

// FeatureStore скользящие агрегаты по клиентам и терминалам
type FeatureStore interface {
	// GetFeatures не возвращает ошибку при отсутствии истории: агрегаты будут нулевыми
	GetFeatures(ctx context.Context, customerID uuid.UUID, terminalID string) (models.Aggregates, error)
	UpdateCustomerFeatures(ctx context.Context, customerID uuid.UUID) error
	UpdateTerminalFeatures(ctx context.Context, terminalID string) error
	// ScheduleUpdate ставит пересчет в очередь и сразу возвращает управление
	ScheduleUpdate(customerID uuid.UUID, terminalID string)
	Shutdown(ctx context.Context) error
}

type featureJob struct {
	customerID uuid.UUID
	terminalID string
}

type FeatureService struct {
	repo  postgres.FeatureRepository
	cache cache.FeatureCache
	now   func() time.Time
	log   *slog.Logger

	updateTimeout time.Duration

	jobs     chan featureJob
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewFeatureService(
	repo postgres.FeatureRepository,
	featureCache cache.FeatureCache,
	workers, queueSize int,
	updateTimeout time.Duration,
	log *slog.Logger,
) *FeatureService {
	svc := &FeatureService{
		repo:          repo,
		cache:         featureCache,
		now:           time.Now,
		log:           log,
		updateTimeout: updateTimeout,
		jobs:          make(chan featureJob, queueSize),
		stopCh:        make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		svc.wg.Add(1)
		go svc.worker(i)
	}

	return svc
}

func (s *FeatureService) GetFeatures(ctx context.Context, customerID uuid.UUID, terminalID string) (models.Aggregates, error) {
	const op = "service.GetFeatures"

	customer, err := s.customerAggregate(ctx, customerID)
	if err != nil {
		return models.Aggregates{}, fmt.Errorf("%s: %w", op, err)
	}

	terminal, err := s.terminalAggregate(ctx, terminalID)
	if err != nil {
		return models.Aggregates{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Aggregates{Customer: customer, Terminal: terminal}, nil
}

func (s *FeatureService) customerAggregate(ctx context.Context, customerID uuid.UUID) (models.CustomerAggregate, error) {
	cached, err := s.cache.GetCustomer(ctx, customerID)
	if err == nil {
		metrics.FeatureCacheLookups.WithLabelValues("hit").Inc()
		return *cached, nil
	}
	s.cacheMiss(err, "customer")

	agg, err := s.repo.GetCustomerFeatures(ctx, customerID)
	switch {
	case errors.Is(err, custom_err.ErrNotFound):
		// новый клиент без истории
		agg = &models.CustomerAggregate{CustomerID: customerID}
	case err != nil:
		return models.CustomerAggregate{}, err
	}

	// пересчет мог уже положить в кэш более свежий агрегат
	if err := s.cache.FillCustomer(ctx, *agg); err != nil {
		s.log.Warn("не удалось записать признаки клиента в кэш", slog.String("error", err.Error()))
	}
	return *agg, nil
}

func (s *FeatureService) terminalAggregate(ctx context.Context, terminalID string) (models.TerminalAggregate, error) {
	cached, err := s.cache.GetTerminal(ctx, terminalID)
	if err == nil {
		metrics.FeatureCacheLookups.WithLabelValues("hit").Inc()
		return *cached, nil
	}
	s.cacheMiss(err, "terminal")

	agg, err := s.repo.GetTerminalFeatures(ctx, terminalID)
	switch {
	case errors.Is(err, custom_err.ErrNotFound):
		agg = &models.TerminalAggregate{TerminalID: terminalID}
	case err != nil:
		return models.TerminalAggregate{}, err
	}

	if err := s.cache.FillTerminal(ctx, *agg); err != nil {
		s.log.Warn("не удалось записать признаки терминала в кэш", slog.String("error", err.Error()))
	}
	return *agg, nil
}

func (s *FeatureService) cacheMiss(err error, entity string) {
	if errors.Is(err, custom_err.ErrCacheMiss) {
		metrics.FeatureCacheLookups.WithLabelValues("miss").Inc()
		return
	}
	metrics.FeatureCacheLookups.WithLabelValues("error").Inc()
	s.log.Warn("ошибка кэша признаков, читаем из БД",
		slog.String("entity", entity),
		slog.String("error", err.Error()))
}

func (s *FeatureService) UpdateCustomerFeatures(ctx context.Context, customerID uuid.UUID) error {
	const op = "service.UpdateCustomerFeatures"

	agg, err := s.repo.AggregateCustomer(ctx, customerID, s.now().UTC())
	if err != nil {
		metrics.FeatureUpdates.WithLabelValues("customer", "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpsertCustomerFeatures(ctx, agg); err != nil {
		metrics.FeatureUpdates.WithLabelValues("customer", "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetCustomer(ctx, agg); err != nil {
		s.log.Warn("не удалось обновить кэш признаков клиента", slog.String("error", err.Error()))
		_ = s.cache.Invalidate(ctx, customerID, "")
	}

	metrics.FeatureUpdates.WithLabelValues("customer", "ok").Inc()
	return nil
}

func (s *FeatureService) UpdateTerminalFeatures(ctx context.Context, terminalID string) error {
	const op = "service.UpdateTerminalFeatures"

	agg, err := s.repo.AggregateTerminal(ctx, terminalID, s.now().UTC())
	if err != nil {
		metrics.FeatureUpdates.WithLabelValues("terminal", "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.UpsertTerminalFeatures(ctx, agg); err != nil {
		metrics.FeatureUpdates.WithLabelValues("terminal", "error").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.cache.SetTerminal(ctx, agg); err != nil {
		s.log.Warn("не удалось обновить кэш признаков терминала", slog.String("error", err.Error()))
		_ = s.cache.Invalidate(ctx, uuid.Nil, terminalID)
	}

	metrics.FeatureUpdates.WithLabelValues("terminal", "ok").Inc()
	return nil
}

func (s *FeatureService) ScheduleUpdate(customerID uuid.UUID, terminalID string) {
	select {
	case <-s.stopCh:
		s.log.Warn("сервис признаков остановлен, пересчет пропущен",
			slog.String("customer_id", customerID.String()))
		return
	default:
	}

	select {
	case s.jobs <- featureJob{customerID: customerID, terminalID: terminalID}:
		s.log.Debug("пересчет признаков добавлен в очередь",
			slog.String("customer_id", customerID.String()),
			slog.String("terminal_id", terminalID))
	default:
		metrics.FeatureQueueDropped.Inc()
		s.log.Error("очередь пересчета признаков переполнена, задача отброшена",
			slog.String("customer_id", customerID.String()),
			slog.String("terminal_id", terminalID))
	}
}

func (s *FeatureService) worker(id int) {
	defer s.wg.Done()
	s.log.Info("feature worker started", slog.Int("worker_id", id))

	for {
		select {
		case job := <-s.jobs:
			s.process(id, job)
		case <-s.stopCh:
			// досчитываем то, что уже в очереди
			for {
				select {
				case job := <-s.jobs:
					s.process(id, job)
				default:
					s.log.Info("feature worker stopping", slog.Int("worker_id", id))
					return
				}
			}
		}
	}
}

func (s *FeatureService) process(workerID int, job featureJob) {
	ctx, cancel := context.WithTimeout(context.Background(), s.updateTimeout)
	defer cancel()

	if err := s.UpdateCustomerFeatures(ctx, job.customerID); err != nil {
		s.log.Error("пересчет признаков клиента не удался",
			slog.Int("worker_id", workerID),
			slog.String("customer_id", job.customerID.String()),
			slog.String("error", err.Error()))
	}

	if job.terminalID == "" {
		return
	}
	if err := s.UpdateTerminalFeatures(ctx, job.terminalID); err != nil {
		s.log.Error("пересчет признаков терминала не удался",
			slog.Int("worker_id", workerID),
			slog.String("terminal_id", job.terminalID),
			slog.String("error", err.Error()))
	}
}

func (s *FeatureService) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down feature service")

	s.stopOnce.Do(func() { close(s.stopCh) })

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info("all feature workers stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn("shutdown timeout exceeded")
		return ctx.Err()
	}
}
