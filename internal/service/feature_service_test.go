package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gw-bank-transfer/internal/cache"
	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
)

var featureTestNow = time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC)

func setupFeatureService(featureCache cache.FeatureCache, queueSize int) (*FeatureService, *MockFeatureRepository) {
	repo := new(MockFeatureRepository)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	service := &FeatureService{
		repo:          repo,
		cache:         featureCache,
		now:           func() time.Time { return featureTestNow },
		log:           log,
		updateTimeout: time.Second,
		jobs:          make(chan featureJob, queueSize),
		stopCh:        make(chan struct{}),
	}
	return service, repo
}

func TestFeatureService_GetFeatures_CacheHit(t *testing.T) {
	featureCache := new(MockFeatureCache)
	service, repo := setupFeatureService(featureCache, 1)
	ctx := context.Background()
	customerID := uuid.New()

	customer := &models.CustomerAggregate{CustomerID: customerID, NbTx30Day: 12, AvgAmount30Day: 310}
	terminal := &models.TerminalAggregate{TerminalID: "T-1", NbTx7Day: 40, Risk7Day: 0.025}

	featureCache.On("GetCustomer", ctx, customerID).Return(customer, nil)
	featureCache.On("GetTerminal", ctx, "T-1").Return(terminal, nil)

	agg, err := service.GetFeatures(ctx, customerID, "T-1")

	require.NoError(t, err)
	assert.Equal(t, *customer, agg.Customer)
	assert.Equal(t, *terminal, agg.Terminal)
	repo.AssertNotCalled(t, "GetCustomerFeatures", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "GetTerminalFeatures", mock.Anything, mock.Anything)
}

func TestFeatureService_GetFeatures_CacheMissReadsStore(t *testing.T) {
	featureCache := new(MockFeatureCache)
	service, repo := setupFeatureService(featureCache, 1)
	ctx := context.Background()
	customerID := uuid.New()

	customer := &models.CustomerAggregate{CustomerID: customerID, NbTx1Day: 2, AvgAmount1Day: 75}
	terminal := &models.TerminalAggregate{TerminalID: "T-1", NbTx30Day: 400, Risk30Day: 0.01}

	featureCache.On("GetCustomer", ctx, customerID).Return(nil, custom_err.ErrCacheMiss)
	featureCache.On("GetTerminal", ctx, "T-1").Return(nil, errors.New("redis: connection refused"))
	repo.On("GetCustomerFeatures", ctx, customerID).Return(customer, nil)
	repo.On("GetTerminalFeatures", ctx, "T-1").Return(terminal, nil)
	featureCache.On("FillCustomer", ctx, *customer).Return(nil)
	featureCache.On("FillTerminal", ctx, *terminal).Return(errors.New("redis: connection refused"))

	agg, err := service.GetFeatures(ctx, customerID, "T-1")

	require.NoError(t, err)
	assert.Equal(t, *customer, agg.Customer)
	assert.Equal(t, *terminal, agg.Terminal)
	featureCache.AssertExpectations(t)
	featureCache.AssertNotCalled(t, "SetCustomer", mock.Anything, mock.Anything)
	featureCache.AssertNotCalled(t, "SetTerminal", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

// Промах при чтении не должен перетирать агрегат, который пересчет записал
// в кэш между чтением из БД и записью в кэш.
func TestFeatureService_GetFeatures_MissDoesNotOverwriteRecompute(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	redisCache, err := cache.NewRedisFeatureCache(context.Background(), &redis.Options{Addr: mr.Addr()}, time.Minute, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisCache.Close() })

	service, repo := setupFeatureService(redisCache, 1)
	ctx := context.Background()
	customerID := uuid.New()

	stale := &models.CustomerAggregate{CustomerID: customerID, NbTx30Day: 3}
	fresh := models.CustomerAggregate{CustomerID: customerID, NbTx30Day: 4}

	repo.On("GetCustomerFeatures", ctx, customerID).
		Run(func(mock.Arguments) {
			// пересчет завершился, пока читали из БД
			require.NoError(t, redisCache.SetCustomer(ctx, fresh))
		}).
		Return(stale, nil)
	repo.On("GetTerminalFeatures", ctx, "T-1").Return(&models.TerminalAggregate{TerminalID: "T-1"}, nil)

	agg, err := service.GetFeatures(ctx, customerID, "T-1")
	require.NoError(t, err)
	assert.Equal(t, *stale, agg.Customer)

	cached, err := redisCache.GetCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, fresh, *cached)
}

func TestFeatureService_GetFeatures_NoHistoryIsZero(t *testing.T) {
	service, repo := setupFeatureService(cache.NewNoOpFeatureCache(), 1)
	ctx := context.Background()
	customerID := uuid.New()

	repo.On("GetCustomerFeatures", ctx, customerID).Return(nil, custom_err.ErrNotFound)
	repo.On("GetTerminalFeatures", ctx, "T-new").Return(nil, custom_err.ErrNotFound)

	agg, err := service.GetFeatures(ctx, customerID, "T-new")

	require.NoError(t, err)
	assert.Equal(t, models.CustomerAggregate{CustomerID: customerID}, agg.Customer)
	assert.Equal(t, models.TerminalAggregate{TerminalID: "T-new"}, agg.Terminal)
}

func TestFeatureService_GetFeatures_Idempotent(t *testing.T) {
	service, repo := setupFeatureService(cache.NewNoOpFeatureCache(), 1)
	ctx := context.Background()
	customerID := uuid.New()

	repo.On("GetCustomerFeatures", ctx, customerID).Return(&models.CustomerAggregate{CustomerID: customerID, NbTx7Day: 5, AvgAmount7Day: 120}, nil)
	repo.On("GetTerminalFeatures", ctx, "T-1").Return(&models.TerminalAggregate{TerminalID: "T-1", NbTx1Day: 3, Risk1Day: 0.33}, nil)

	first, err := service.GetFeatures(ctx, customerID, "T-1")
	require.NoError(t, err)
	second, err := service.GetFeatures(ctx, customerID, "T-1")
	require.NoError(t, err)

	at := featureTestNow
	assert.Equal(t, models.NewFeatureVector(first, 100, at), models.NewFeatureVector(second, 100, at))
}

func TestFeatureService_GetFeatures_StoreError(t *testing.T) {
	service, repo := setupFeatureService(cache.NewNoOpFeatureCache(), 1)
	ctx := context.Background()
	customerID := uuid.New()

	repo.On("GetCustomerFeatures", ctx, customerID).Return(nil, errors.New("connection refused"))

	_, err := service.GetFeatures(ctx, customerID, "T-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "service.GetFeatures")
}

func TestFeatureService_UpdateCustomerFeatures(t *testing.T) {
	featureCache := new(MockFeatureCache)
	service, repo := setupFeatureService(featureCache, 1)
	ctx := context.Background()
	customerID := uuid.New()

	agg := models.CustomerAggregate{CustomerID: customerID, NbTx1Day: 1, AvgAmount1Day: 50, UpdatedAt: featureTestNow}

	repo.On("AggregateCustomer", ctx, customerID, featureTestNow).Return(agg, nil)
	repo.On("UpsertCustomerFeatures", ctx, agg).Return(nil)
	featureCache.On("SetCustomer", ctx, agg).Return(nil)

	err := service.UpdateCustomerFeatures(ctx, customerID)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	featureCache.AssertExpectations(t)
}

func TestFeatureService_UpdateCustomerFeatures_CacheFailureInvalidates(t *testing.T) {
	featureCache := new(MockFeatureCache)
	service, repo := setupFeatureService(featureCache, 1)
	ctx := context.Background()
	customerID := uuid.New()

	agg := models.CustomerAggregate{CustomerID: customerID}

	repo.On("AggregateCustomer", ctx, customerID, featureTestNow).Return(agg, nil)
	repo.On("UpsertCustomerFeatures", ctx, agg).Return(nil)
	featureCache.On("SetCustomer", ctx, agg).Return(errors.New("timeout"))
	featureCache.On("Invalidate", ctx, customerID, "").Return(nil)

	err := service.UpdateCustomerFeatures(ctx, customerID)

	assert.NoError(t, err)
	featureCache.AssertExpectations(t)
}

func TestFeatureService_UpdateTerminalFeatures_AggregateError(t *testing.T) {
	service, repo := setupFeatureService(cache.NewNoOpFeatureCache(), 1)
	ctx := context.Background()

	repo.On("AggregateTerminal", ctx, "T-1", featureTestNow).Return(models.TerminalAggregate{}, errors.New("statement timeout"))

	err := service.UpdateTerminalFeatures(ctx, "T-1")

	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpsertTerminalFeatures", mock.Anything, mock.Anything)
}

func TestFeatureService_ScheduleUpdate_DropsWhenFull(t *testing.T) {
	service, _ := setupFeatureService(cache.NewNoOpFeatureCache(), 1)

	service.ScheduleUpdate(uuid.New(), "T-1")
	service.ScheduleUpdate(uuid.New(), "T-2")

	assert.Len(t, service.jobs, 1)
}

func TestFeatureService_ScheduleUpdate_AfterShutdown(t *testing.T) {
	service, _ := setupFeatureService(cache.NewNoOpFeatureCache(), 4)

	require.NoError(t, service.Shutdown(context.Background()))
	service.ScheduleUpdate(uuid.New(), "T-1")

	assert.Len(t, service.jobs, 0)
}

func TestFeatureService_WorkerRecomputes(t *testing.T) {
	repo := new(MockFeatureRepository)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	service := NewFeatureService(repo, cache.NewNoOpFeatureCache(), 1, 4, time.Second, log)

	customerID := uuid.New()
	done := make(chan struct{})

	repo.On("AggregateCustomer", mock.Anything, customerID, mock.AnythingOfType("time.Time")).
		Return(models.CustomerAggregate{CustomerID: customerID}, nil)
	repo.On("UpsertCustomerFeatures", mock.Anything, mock.Anything).Return(nil)
	repo.On("AggregateTerminal", mock.Anything, "T-1", mock.AnythingOfType("time.Time")).
		Return(models.TerminalAggregate{TerminalID: "T-1"}, nil)
	repo.On("UpsertTerminalFeatures", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	service.ScheduleUpdate(customerID, "T-1")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("feature update was not processed")
	}

	require.NoError(t, service.Shutdown(context.Background()))
	repo.AssertExpectations(t)
}

func TestFeatureService_WorkerFailureDoesNotStop(t *testing.T) {
	repo := new(MockFeatureRepository)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	service := NewFeatureService(repo, cache.NewNoOpFeatureCache(), 1, 4, time.Second, log)

	failing := uuid.New()
	healthy := uuid.New()
	done := make(chan struct{})

	repo.On("AggregateCustomer", mock.Anything, failing, mock.Anything).
		Return(models.CustomerAggregate{}, errors.New("deadlock detected"))
	repo.On("AggregateCustomer", mock.Anything, healthy, mock.Anything).
		Return(models.CustomerAggregate{CustomerID: healthy}, nil)
	repo.On("UpsertCustomerFeatures", mock.Anything, models.CustomerAggregate{CustomerID: healthy}).
		Run(func(mock.Arguments) { close(done) }).
		Return(nil)

	service.ScheduleUpdate(failing, "")
	service.ScheduleUpdate(healthy, "")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second job was not processed")
	}

	require.NoError(t, service.Shutdown(context.Background()))
}

func TestFeatureService_ShutdownDrainsQueue(t *testing.T) {
	service, repo := setupFeatureService(cache.NewNoOpFeatureCache(), 4)

	queued := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range queued {
		repo.On("AggregateCustomer", mock.Anything, id, mock.Anything).
			Return(models.CustomerAggregate{CustomerID: id}, nil).Once()
		repo.On("UpsertCustomerFeatures", mock.Anything, models.CustomerAggregate{CustomerID: id}).
			Return(nil).Once()
		service.ScheduleUpdate(id, "")
	}
	require.Len(t, service.jobs, len(queued))

	// воркер стартует уже после сигнала остановки
	service.stopOnce.Do(func() { close(service.stopCh) })
	service.wg.Add(1)
	go service.worker(0)

	require.NoError(t, service.Shutdown(context.Background()))
	assert.Len(t, service.jobs, 0)
	repo.AssertExpectations(t)
}
