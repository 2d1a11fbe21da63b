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
	"golang.org/x/crypto/bcrypt"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
)

var pinTestNow = time.Date(2026, 1, 14, 12, 0, 0, 0, time.UTC)

func setupPinService() (*PinService, *MockAccountRepository) {
	accounts := new(MockAccountRepository)
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	service := &PinService{
		accounts:    accounts,
		maxAttempts: 3,
		lockout:     30 * time.Minute,
		now:         func() time.Time { return pinTestNow },
		log:         log,
	}
	return service, accounts
}

func accountWithPin(t *testing.T, customerID uuid.UUID, pin string) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)
	return &models.Account{
		ID:            uuid.New(),
		CustomerID:    customerID,
		AccountNumber: "40817810000000000001",
		Balance:       100000,
		PinHash:       &h,
	}
}

func TestPinService_VerifyPin_Success(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := accountWithPin(t, customerID, "4321")
	account.PinAttempts = 1

	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)
	accounts.On("UpdatePinState", ctx, account.ID, 0, (*time.Time)(nil)).Return(nil)

	resp, err := service.VerifyPin(ctx, customerID, "", "4321")

	require.NoError(t, err)
	assert.True(t, resp.Verified)
	assert.Equal(t, "PIN verified successfully", resp.Message)
	assert.Equal(t, 3, *resp.AttemptsRemaining)
	accounts.AssertExpectations(t)
}

func TestPinService_VerifyPin_SuccessWithoutPriorFailures(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := accountWithPin(t, customerID, "4321")
	accounts.On("GetByNumber", ctx, account.AccountNumber).Return(account, nil)

	resp, err := service.VerifyPin(ctx, customerID, account.AccountNumber, "4321")

	require.NoError(t, err)
	assert.True(t, resp.Verified)
	accounts.AssertNotCalled(t, "UpdatePinState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPinService_VerifyPin_WrongPin(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := accountWithPin(t, customerID, "4321")

	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)
	accounts.On("UpdatePinState", ctx, account.ID, 1, (*time.Time)(nil)).Return(nil)

	resp, err := service.VerifyPin(ctx, customerID, "", "0000")

	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Equal(t, "Incorrect PIN. 2 attempts remaining.", resp.Message)
	assert.Equal(t, 2, *resp.AttemptsRemaining)
	assert.Nil(t, resp.LockedUntil)
	accounts.AssertExpectations(t)
}

func TestPinService_VerifyPin_LocksAfterMaxAttempts(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := accountWithPin(t, customerID, "4321")
	account.PinAttempts = 2

	expectedLock := pinTestNow.Add(30 * time.Minute)
	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)
	accounts.On("UpdatePinState", ctx, account.ID, 3, mock.MatchedBy(func(until *time.Time) bool {
		return until != nil && until.Equal(expectedLock)
	})).Return(nil)

	resp, err := service.VerifyPin(ctx, customerID, "", "0000")

	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Equal(t, "Too many incorrect attempts. PIN locked for 30 minutes.", resp.Message)
	assert.Equal(t, 0, *resp.AttemptsRemaining)
	require.NotNil(t, resp.LockedUntil)
	assert.True(t, resp.LockedUntil.Equal(expectedLock))
	accounts.AssertExpectations(t)
}

func TestPinService_VerifyPin_Locked(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := accountWithPin(t, customerID, "4321")
	lockedUntil := pinTestNow.Add(10 * time.Minute)
	account.PinAttempts = 3
	account.PinLockedUntil = &lockedUntil

	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)

	// даже верный PIN не принимается во время блокировки
	resp, err := service.VerifyPin(ctx, customerID, "", "4321")

	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Contains(t, resp.Message, "PIN locked due to too many failed attempts")
	assert.Equal(t, &lockedUntil, resp.LockedUntil)
	accounts.AssertNotCalled(t, "UpdatePinState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPinService_VerifyPin_ExpiredLockRestartsCounter(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := accountWithPin(t, customerID, "4321")
	expired := pinTestNow.Add(-time.Minute)
	account.PinAttempts = 3
	account.PinLockedUntil = &expired

	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)
	accounts.On("UpdatePinState", ctx, account.ID, 1, (*time.Time)(nil)).Return(nil)

	resp, err := service.VerifyPin(ctx, customerID, "", "0000")

	require.NoError(t, err)
	assert.False(t, resp.Verified)
	assert.Equal(t, 2, *resp.AttemptsRemaining)
	accounts.AssertExpectations(t)
}

func TestPinService_VerifyPin_NotSet(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := &models.Account{ID: uuid.New(), CustomerID: customerID, AccountNumber: "40817810000000000001"}
	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)

	resp, err := service.VerifyPin(ctx, customerID, "", "1234")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, custom_err.ErrPinNotSet)
}

func TestPinService_VerifyPin_ForeignAccount(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()

	account := accountWithPin(t, uuid.New(), "4321")
	accounts.On("GetByNumber", ctx, account.AccountNumber).Return(account, nil)

	resp, err := service.VerifyPin(ctx, uuid.New(), account.AccountNumber, "4321")

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, custom_err.ErrNotFound)
}

func TestPinService_VerifyPin_RepositoryError(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(nil, errors.New("connection refused"))

	resp, err := service.VerifyPin(ctx, customerID, "", "1234")

	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "service.VerifyPin")
}

func TestPinService_SetPin(t *testing.T) {
	service, accounts := setupPinService()
	ctx := context.Background()
	customerID := uuid.New()

	account := &models.Account{ID: uuid.New(), CustomerID: customerID, AccountNumber: "40817810000000000001"}
	accounts.On("GetPrimaryByCustomer", ctx, customerID).Return(account, nil)
	accounts.On("SetPinHash", ctx, account.ID, mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("2468")) == nil
	})).Return(nil)

	err := service.SetPin(ctx, customerID, "", "2468")

	assert.NoError(t, err)
	accounts.AssertExpectations(t)
}
