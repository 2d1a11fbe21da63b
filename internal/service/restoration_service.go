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
	"github.com/shopspring/decimal"
)

const restorationCheckFailedMsg = "Unable to validate restoration limits"

// RestorationLimiter ограничение суммы одной операции после восстановления доступа.
// Совокупные суммы не учитываются: проверяется каждая операция отдельно.
type RestorationLimiter interface {
	Activate(ctx context.Context, customerID uuid.UUID, limit *decimal.Decimal) error
	// Check никогда не возвращает ошибку: при сбое хранилища операция запрещается
	Check(ctx context.Context, customerID uuid.UUID, amount int64) models.RestorationCheck
	Remove(ctx context.Context, customerID uuid.UUID) error
	Info(ctx context.Context, customerID uuid.UUID) (*models.RestorationInfo, error)
}

type RestorationService struct {
	repo         postgres.RestorationRepository
	defaultLimit int64
	window       time.Duration
	now          func() time.Time
	log          *slog.Logger
}

func NewRestorationService(
	repo postgres.RestorationRepository,
	defaultLimit int64,
	window time.Duration,
	log *slog.Logger,
) *RestorationService {
	return &RestorationService{
		repo:         repo,
		defaultLimit: defaultLimit,
		window:       window,
		now:          time.Now,
		log:          log,
	}
}

func (s *RestorationService) Activate(ctx context.Context, customerID uuid.UUID, limit *decimal.Decimal) error {
	const op = "service.RestorationService.Activate"

	amount := s.defaultLimit
	if limit != nil {
		var err error
		if amount, err = models.AmountToMinorUnits(*limit); err != nil {
			return err
		}
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.window)

	if err := s.repo.Activate(ctx, customerID, amount, expiresAt, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("ограничение после восстановления включено",
		slog.String("customer_id", customerID.String()),
		slog.String("limit", models.AmountFromMinorUnits(amount).StringFixed(2)),
		slog.Time("expires_at", expiresAt))

	return nil
}

func (s *RestorationService) Check(ctx context.Context, customerID uuid.UUID, amount int64) models.RestorationCheck {
	now := s.now()

	state, err := s.load(ctx, customerID, now)
	if err != nil {
		s.log.Error("не удалось проверить ограничение после восстановления",
			slog.String("customer_id", customerID.String()),
			slog.String("error", err.Error()))
		return models.RestorationCheck{Allowed: false, Message: restorationCheckFailedMsg}
	}

	if models.EffectiveState(state, now) == models.Unrestricted {
		return models.RestorationCheck{Allowed: true, Message: "No restoration limits active", Info: unrestrictedInfo()}
	}

	info := limitedInfo(state, now)
	limit := models.AmountFromMinorUnits(state.LimitAmount).StringFixed(2)
	requested := models.AmountFromMinorUnits(amount).StringFixed(2)

	if amount > state.LimitAmount {
		return models.RestorationCheck{
			Allowed: false,
			Message: fmt.Sprintf(
				"Transaction amount %s exceeds post-restoration limit of %s per transaction. This limit expires in %.1f hours.",
				requested, limit, info.HoursRemaining),
			Info: info,
		}
	}

	return models.RestorationCheck{
		Allowed: true,
		Message: fmt.Sprintf("Transaction allowed (%s <= %s individual limit, %.1f hours remaining)",
			requested, limit, info.HoursRemaining),
		Info: info,
	}
}

func (s *RestorationService) Remove(ctx context.Context, customerID uuid.UUID) error {
	const op = "service.RestorationService.Remove"

	if err := s.repo.Clear(ctx, customerID); err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("ограничение после восстановления снято", slog.String("customer_id", customerID.String()))
	return nil
}

func (s *RestorationService) Info(ctx context.Context, customerID uuid.UUID) (*models.RestorationInfo, error) {
	const op = "service.RestorationService.Info"

	now := s.now()
	state, err := s.load(ctx, customerID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if models.EffectiveState(state, now) == models.Unrestricted {
		return unrestrictedInfo(), nil
	}
	return limitedInfo(state, now), nil
}

// load читает состояние и лениво снимает истекшее ограничение.
// Ошибка при снятии не влияет на результат: EffectiveState уже учитывает истечение.
func (s *RestorationService) load(ctx context.Context, customerID uuid.UUID, now time.Time) (*models.RestorationState, error) {
	state, err := s.repo.Get(ctx, customerID)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if state.IsLimited && models.EffectiveState(state, now) == models.Unrestricted {
		if _, err := s.repo.ClearExpired(ctx, customerID, now); err != nil {
			s.log.Warn("не удалось снять истекшее ограничение",
				slog.String("customer_id", customerID.String()),
				slog.String("error", err.Error()))
		} else {
			s.log.Info("истекшее ограничение снято", slog.String("customer_id", customerID.String()))
		}
	}

	return state, nil
}

func unrestrictedInfo() *models.RestorationInfo {
	return &models.RestorationInfo{IsLimited: false, Message: "No restoration limits active"}
}

func limitedInfo(state *models.RestorationState, now time.Time) *models.RestorationInfo {
	limit := models.AmountFromMinorUnits(state.LimitAmount)
	remaining := limit
	hours := state.HoursRemaining(now)

	return &models.RestorationInfo{
		IsLimited:      true,
		LimitAmount:    &limit,
		RemainingLimit: &remaining,
		HoursRemaining: hours,
		ExpiresAt:      state.ExpiresAt,
		Message: fmt.Sprintf("Post-restoration limits active: %s per transaction limit, expires in %.1f hours",
			limit.StringFixed(2), hours),
	}
}
