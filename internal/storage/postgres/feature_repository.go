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

// Окна агрегации признаков
const (
	Window1Day  = 24 * time.Hour
	Window7Day  = 7 * 24 * time.Hour
	Window30Day = 30 * 24 * time.Hour
)

type FeatureRepository interface {
	GetCustomerFeatures(ctx context.Context, customerID uuid.UUID) (*models.CustomerAggregate, error)
	GetTerminalFeatures(ctx context.Context, terminalID string) (*models.TerminalAggregate, error)
	UpsertCustomerFeatures(ctx context.Context, agg models.CustomerAggregate) error
	UpsertTerminalFeatures(ctx context.Context, agg models.TerminalAggregate) error

	// Пересчет по журналу транзакций на момент now
	AggregateCustomer(ctx context.Context, customerID uuid.UUID, now time.Time) (models.CustomerAggregate, error)
	AggregateTerminal(ctx context.Context, terminalID string, now time.Time) (models.TerminalAggregate, error)
}

type PgFeatureRepository struct {
	db DB
}

func NewFeatureRepository(db DB) FeatureRepository {
	return &PgFeatureRepository{db: db}
}

func (r *PgFeatureRepository) GetCustomerFeatures(ctx context.Context, customerID uuid.UUID) (*models.CustomerAggregate, error) {
	const op = "storage.GetCustomerFeatures"

	var a models.CustomerAggregate
	err := r.db.QueryRow(ctx, storage.GetCustomerFeaturesQuery, customerID).Scan(
		&a.CustomerID,
		&a.NbTx1Day,
		&a.AvgAmount1Day,
		&a.NbTx7Day,
		&a.AvgAmount7Day,
		&a.NbTx30Day,
		&a.AvgAmount30Day,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

func (r *PgFeatureRepository) GetTerminalFeatures(ctx context.Context, terminalID string) (*models.TerminalAggregate, error) {
	const op = "storage.GetTerminalFeatures"

	var a models.TerminalAggregate
	err := r.db.QueryRow(ctx, storage.GetTerminalFeaturesQuery, terminalID).Scan(
		&a.TerminalID,
		&a.NbTx1Day,
		&a.Risk1Day,
		&a.NbTx7Day,
		&a.Risk7Day,
		&a.NbTx30Day,
		&a.Risk30Day,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

func (r *PgFeatureRepository) UpsertCustomerFeatures(ctx context.Context, a models.CustomerAggregate) error {
	const op = "storage.UpsertCustomerFeatures"

	_, err := r.db.Exec(ctx, storage.UpsertCustomerFeaturesQuery,
		a.CustomerID, a.NbTx1Day, a.AvgAmount1Day, a.NbTx7Day, a.AvgAmount7Day, a.NbTx30Day, a.AvgAmount30Day)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgFeatureRepository) UpsertTerminalFeatures(ctx context.Context, a models.TerminalAggregate) error {
	const op = "storage.UpsertTerminalFeatures"

	_, err := r.db.Exec(ctx, storage.UpsertTerminalFeaturesQuery,
		a.TerminalID, a.NbTx1Day, a.Risk1Day, a.NbTx7Day, a.Risk7Day, a.NbTx30Day, a.Risk30Day)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *PgFeatureRepository) AggregateCustomer(ctx context.Context, customerID uuid.UUID, now time.Time) (models.CustomerAggregate, error) {
	const op = "storage.AggregateCustomer"

	a := models.CustomerAggregate{CustomerID: customerID, UpdatedAt: now}
	err := r.db.QueryRow(ctx, storage.AggregateCustomerTransactionsQuery,
		customerID, now.Add(-Window1Day), now.Add(-Window7Day), now.Add(-Window30Day), now,
	).Scan(
		&a.NbTx1Day,
		&a.AvgAmount1Day,
		&a.NbTx7Day,
		&a.AvgAmount7Day,
		&a.NbTx30Day,
		&a.AvgAmount30Day,
	)
	if err != nil {
		return models.CustomerAggregate{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (r *PgFeatureRepository) AggregateTerminal(ctx context.Context, terminalID string, now time.Time) (models.TerminalAggregate, error) {
	const op = "storage.AggregateTerminal"

	a := models.TerminalAggregate{TerminalID: terminalID, UpdatedAt: now}
	err := r.db.QueryRow(ctx, storage.AggregateTerminalTransactionsQuery,
		terminalID, now.Add(-Window1Day), now.Add(-Window7Day), now.Add(-Window30Day), now,
	).Scan(
		&a.NbTx1Day,
		&a.Risk1Day,
		&a.NbTx7Day,
		&a.Risk7Day,
		&a.NbTx30Day,
		&a.Risk30Day,
	)
	if err != nil {
		return models.TerminalAggregate{}, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}
