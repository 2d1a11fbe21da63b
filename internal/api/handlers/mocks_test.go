package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"gw-bank-transfer/internal/models"
)

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) Transfer(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*models.TransferResponse, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferResponse), args.Error(1)
}

func (m *MockTransferService) Assess(ctx context.Context, customerID uuid.UUID, req models.TransferRequest) (*models.FraudAssessment, error) {
	args := m.Called(ctx, customerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FraudAssessment), args.Error(1)
}

type MockPinService struct {
	mock.Mock
}

func (m *MockPinService) VerifyPin(ctx context.Context, customerID uuid.UUID, accountNumber, pin string) (*models.PinVerificationResponse, error) {
	args := m.Called(ctx, customerID, accountNumber, pin)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PinVerificationResponse), args.Error(1)
}

func (m *MockPinService) SetPin(ctx context.Context, customerID uuid.UUID, accountNumber, pin string) error {
	args := m.Called(ctx, customerID, accountNumber, pin)
	return args.Error(0)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) GetAccounts(ctx context.Context, customerID uuid.UUID) ([]models.AccountResponse, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccountResponse), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, customerID uuid.UUID, accountNumber string) (*models.AccountResponse, error) {
	args := m.Called(ctx, customerID, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccountResponse), args.Error(1)
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
