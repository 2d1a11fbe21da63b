package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type RestorationRepository interface {
	Get(ctx context.Context, customerID uuid.UUID) (*models.RestorationState, error)
	Activate(ctx context.Context, customerID uuid.UUID, limit int64, expiresAt, restoredAt time.Time) error
	Clear(ctx context.Context, customerID uuid.UUID) error
	// ClearExpired снимает ограничение только если оно истекло к моменту now
	ClearExpired(ctx context.Context, customerID uuid.UUID, now time.Time) (bool, error)
}

type PgRestorationRepository struct {
	db DB
}

func NewRestorationRepository(db DB) RestorationRepository {
	return &PgRestorationRepository{db: db}
}

func (r *PgRestorationRepository) Get(ctx context.Context, customerID uuid.UUID) (*models.RestorationState, error) {
	const op = "storage.GetRestoration"

	var s models.RestorationState
	err := r.db.QueryRow(ctx, storage.GetRestorationQuery, customerID).Scan(
		&s.CustomerID,
		&s.IsLimited,
		&s.LimitAmount,
		&s.ExpiresAt,
		&s.LastRestoredAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &s, nil
}

func (r *PgRestorationRepository) Activate(ctx context.Context, customerID uuid.UUID, limit int64, expiresAt, restoredAt time.Time) error {
	const op = "storage.ActivateRestoration"

	if _, err := r.db.Exec(ctx, storage.ActivateRestorationQuery, customerID, limit, expiresAt, restoredAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgRestorationRepository) Clear(ctx context.Context, customerID uuid.UUID) error {
	const op = "storage.ClearRestoration"

	res, err := r.db.Exec(ctx, storage.ClearRestorationQuery, customerID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrNotFound
	}
	return nil
}

func (r *PgRestorationRepository) ClearExpired(ctx context.Context, customerID uuid.UUID, now time.Time) (bool, error) {
	const op = "storage.ClearExpiredRestoration"

	res, err := r.db.Exec(ctx, storage.ClearExpiredRestorationQuery, customerID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected() > 0, nil
}
