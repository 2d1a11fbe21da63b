package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/storage/postgres"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type Pin interface {
	// VerifyPin возвращает ответ и при неверном или заблокированном PIN, ошибка - только для сбоев
	VerifyPin(ctx context.Context, customerID uuid.UUID, accountNumber, pin string) (*models.PinVerificationResponse, error)
	SetPin(ctx context.Context, customerID uuid.UUID, accountNumber, pin string) error
}

type PinService struct {
	accounts    postgres.AccountRepository
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
	log         *slog.Logger
}

func NewPinService(accounts postgres.AccountRepository, maxAttempts int, lockout time.Duration, log *slog.Logger) Pin {
	return &PinService{
		accounts:    accounts,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		now:         time.Now,
		log:         log,
	}
}

func (s *PinService) VerifyPin(ctx context.Context, customerID uuid.UUID, accountNumber, pin string) (*models.PinVerificationResponse, error) {
	const op = "service.VerifyPin"

	account, err := resolveAccount(ctx, s.accounts, customerID, accountNumber)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	if account.PinLocked(now) {
		s.log.Warn("проверка PIN отклонена, PIN заблокирован", slog.String("customer_id", customerID.String()))
		zero := 0
		return &models.PinVerificationResponse{
			Verified:          false,
			Message:           fmt.Sprintf("PIN locked due to too many failed attempts. Try again after %s", account.PinLockedUntil.Format(time.RFC3339)),
			AttemptsRemaining: &zero,
			LockedUntil:       account.PinLockedUntil,
		}, nil
	}

	if !account.HasPin() {
		return nil, custom_err.ErrPinNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*account.PinHash), []byte(pin)); err == nil {
		if account.PinAttempts != 0 || account.PinLockedUntil != nil {
			if err := s.accounts.UpdatePinState(ctx, account.ID, 0, nil); err != nil {
				return nil, fmt.Errorf("%s: failed to reset attempts: %w", op, err)
			}
		}
		s.log.Info("PIN подтвержден", slog.String("customer_id", customerID.String()))
		remaining := s.maxAttempts
		return &models.PinVerificationResponse{
			Verified:          true,
			Message:           "PIN verified successfully",
			AttemptsRemaining: &remaining,
		}, nil
	}

	attempts := account.PinAttempts
	if account.PinLockedUntil != nil {
		// блокировка истекла, счетчик начинается заново
		attempts = 0
	}
	attempts++
	remaining := s.maxAttempts - attempts

	if attempts >= s.maxAttempts {
		lockedUntil := now.Add(s.lockout)
		if err := s.accounts.UpdatePinState(ctx, account.ID, attempts, &lockedUntil); err != nil {
			return nil, fmt.Errorf("%s: failed to lock pin: %w", op, err)
		}
		s.log.Warn("PIN заблокирован после неудачных попыток",
			slog.String("customer_id", customerID.String()),
			slog.Int("attempts", attempts))
		zero := 0
		return &models.PinVerificationResponse{
			Verified:          false,
			Message:           fmt.Sprintf("Too many incorrect attempts. PIN locked for %d minutes.", int(s.lockout.Minutes())),
			AttemptsRemaining: &zero,
			LockedUntil:       &lockedUntil,
		}, nil
	}

	if err := s.accounts.UpdatePinState(ctx, account.ID, attempts, nil); err != nil {
		return nil, fmt.Errorf("%s: failed to record attempt: %w", op, err)
	}
	s.log.Warn("неверный PIN",
		slog.String("customer_id", customerID.String()),
		slog.Int("attempts", attempts))

	return &models.PinVerificationResponse{
		Verified:          false,
		Message:           fmt.Sprintf("Incorrect PIN. %d attempts remaining.", remaining),
		AttemptsRemaining: &remaining,
	}, nil
}

func (s *PinService) SetPin(ctx context.Context, customerID uuid.UUID, accountNumber, pin string) error {
	const op = "service.SetPin"

	account, err := resolveAccount(ctx, s.accounts, customerID, accountNumber)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("failed to hash pin", slog.String("op", op), slog.String("error", err.Error()))
		return fmt.Errorf("%s: failed to hash pin: %w", op, err)
	}

	if err := s.accounts.SetPinHash(ctx, account.ID, string(hash)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("PIN установлен", slog.String("customer_id", customerID.String()))
	return nil
}

// resolveAccount находит счет клиента: указанный номер или основной счет.
// Чужой счет неотличим от несуществующего.
func resolveAccount(ctx context.Context, repo postgres.AccountRepository, customerID uuid.UUID, accountNumber string) (*models.Account, error) {
	if accountNumber == "" {
		return repo.GetPrimaryByCustomer(ctx, customerID)
	}

	account, err := repo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if account.CustomerID != customerID {
		return nil, custom_err.ErrNotFound
	}
	return account, nil
}
