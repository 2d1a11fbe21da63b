package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"gw-bank-transfer/internal/fraud"
	"gw-bank-transfer/internal/models"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetBalanceForUpdateTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalanceTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, newBalance int64) error {
	args := m.Called(ctx, tx, accountID, newBalance)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetPrimaryByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetCustomerAccounts(ctx context.Context, customerID uuid.UUID) ([]*models.Account, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdatePinState(ctx context.Context, accountID uuid.UUID, attempts int, lockedUntil *time.Time) error {
	args := m.Called(ctx, accountID, attempts, lockedUntil)
	return args.Error(0)
}

func (m *MockAccountRepository) SetPinHash(ctx context.Context, accountID uuid.UUID, hash string) error {
	args := m.Called(ctx, accountID, hash)
	return args.Error(0)
}

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	args := m.Called(ctx, tx, t)
	return args.Error(0)
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

type MockFeatureRepository struct {
	mock.Mock
}

func (m *MockFeatureRepository) GetCustomerFeatures(ctx context.Context, customerID uuid.UUID) (*models.CustomerAggregate, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerAggregate), args.Error(1)
}

func (m *MockFeatureRepository) GetTerminalFeatures(ctx context.Context, terminalID string) (*models.TerminalAggregate, error) {
	args := m.Called(ctx, terminalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TerminalAggregate), args.Error(1)
}

func (m *MockFeatureRepository) UpsertCustomerFeatures(ctx context.Context, agg models.CustomerAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *MockFeatureRepository) UpsertTerminalFeatures(ctx context.Context, agg models.TerminalAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *MockFeatureRepository) AggregateCustomer(ctx context.Context, customerID uuid.UUID, now time.Time) (models.CustomerAggregate, error) {
	args := m.Called(ctx, customerID, now)
	return args.Get(0).(models.CustomerAggregate), args.Error(1)
}

func (m *MockFeatureRepository) AggregateTerminal(ctx context.Context, terminalID string, now time.Time) (models.TerminalAggregate, error) {
	args := m.Called(ctx, terminalID, now)
	return args.Get(0).(models.TerminalAggregate), args.Error(1)
}

type MockRestorationRepository struct {
	mock.Mock
}

func (m *MockRestorationRepository) Get(ctx context.Context, customerID uuid.UUID) (*models.RestorationState, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RestorationState), args.Error(1)
}

func (m *MockRestorationRepository) Activate(ctx context.Context, customerID uuid.UUID, limit int64, expiresAt, restoredAt time.Time) error {
	args := m.Called(ctx, customerID, limit, expiresAt, restoredAt)
	return args.Error(0)
}

func (m *MockRestorationRepository) Clear(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockRestorationRepository) ClearExpired(ctx context.Context, customerID uuid.UUID, now time.Time) (bool, error) {
	args := m.Called(ctx, customerID, now)
	return args.Bool(0), args.Error(1)
}

type MockFeatureCache struct {
	mock.Mock
}

func (m *MockFeatureCache) GetCustomer(ctx context.Context, customerID uuid.UUID) (*models.CustomerAggregate, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerAggregate), args.Error(1)
}

func (m *MockFeatureCache) SetCustomer(ctx context.Context, agg models.CustomerAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *MockFeatureCache) FillCustomer(ctx context.Context, agg models.CustomerAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *MockFeatureCache) GetTerminal(ctx context.Context, terminalID string) (*models.TerminalAggregate, error) {
	args := m.Called(ctx, terminalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TerminalAggregate), args.Error(1)
}

func (m *MockFeatureCache) SetTerminal(ctx context.Context, agg models.TerminalAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *MockFeatureCache) FillTerminal(ctx context.Context, agg models.TerminalAggregate) error {
	args := m.Called(ctx, agg)
	return args.Error(0)
}

func (m *MockFeatureCache) Invalidate(ctx context.Context, customerID uuid.UUID, terminalID string) error {
	args := m.Called(ctx, customerID, terminalID)
	return args.Error(0)
}

func (m *MockFeatureCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(nil)
}

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) SendTransferEvent(ctx context.Context, event models.TransferEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockKafkaProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockFeatureStore struct {
	mock.Mock
}

func (m *MockFeatureStore) GetFeatures(ctx context.Context, customerID uuid.UUID, terminalID string) (models.Aggregates, error) {
	args := m.Called(ctx, customerID, terminalID)
	return args.Get(0).(models.Aggregates), args.Error(1)
}

func (m *MockFeatureStore) UpdateCustomerFeatures(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockFeatureStore) UpdateTerminalFeatures(ctx context.Context, terminalID string) error {
	args := m.Called(ctx, terminalID)
	return args.Error(0)
}

func (m *MockFeatureStore) ScheduleUpdate(customerID uuid.UUID, terminalID string) {
	m.Called(customerID, terminalID)
}

func (m *MockFeatureStore) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockRestorationLimiter struct {
	mock.Mock
}

func (m *MockRestorationLimiter) Activate(ctx context.Context, customerID uuid.UUID, limit *decimal.Decimal) error {
	args := m.Called(ctx, customerID, limit)
	return args.Error(0)
}

func (m *MockRestorationLimiter) Check(ctx context.Context, customerID uuid.UUID, amount int64) models.RestorationCheck {
	args := m.Called(ctx, customerID, amount)
	return args.Get(0).(models.RestorationCheck)
}

func (m *MockRestorationLimiter) Remove(ctx context.Context, customerID uuid.UUID) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *MockRestorationLimiter) Info(ctx context.Context, customerID uuid.UUID) (*models.RestorationInfo, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RestorationInfo), args.Error(1)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(fv models.FeatureVector) fraud.Result {
	args := m.Called(fv)
	return args.Get(0).(fraud.Result)
}

func (m *MockScorer) ModelsLoaded() bool {
	args := m.Called()
	return args.Bool(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(event models.TransferEvent) {
	m.Called(event)
}

func (m *MockNotifier) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
