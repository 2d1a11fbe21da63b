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

type AccountRepository interface {
	GetBalanceForUpdateTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (int64, error)
	UpdateBalanceTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, newBalance int64) error

	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	GetPrimaryByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Account, error)
	GetCustomerAccounts(ctx context.Context, customerID uuid.UUID) ([]*models.Account, error)

	UpdatePinState(ctx context.Context, accountID uuid.UUID, attempts int, lockedUntil *time.Time) error
	SetPinHash(ctx context.Context, accountID uuid.UUID, hash string) error
}

type PgAccountRepository struct {
	db DB
}

func NewAccountRepository(db DB) AccountRepository {
	return &PgAccountRepository{db: db}
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(
		&a.ID,
		&a.CustomerID,
		&a.AccountNumber,
		&a.Balance,
		&a.PinHash,
		&a.PinAttempts,
		&a.PinLockedUntil,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgAccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	const op = "storage.GetByNumber"

	account, err := scanAccount(r.db.QueryRow(ctx, storage.GetAccountByNumberQuery, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func (r *PgAccountRepository) GetPrimaryByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Account, error) {
	const op = "storage.GetPrimaryByCustomer"

	account, err := scanAccount(r.db.QueryRow(ctx, storage.GetPrimaryAccountByCustomerQuery, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

func (r *PgAccountRepository) GetCustomerAccounts(ctx context.Context, customerID uuid.UUID) ([]*models.Account, error) {
	const op = "storage.GetCustomerAccounts"

	rows, err := r.db.Query(ctx, storage.GetCustomerAccountsQuery, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return accounts, nil
}

func (r *PgAccountRepository) UpdatePinState(ctx context.Context, accountID uuid.UUID, attempts int, lockedUntil *time.Time) error {
	const op = "storage.UpdatePinState"

	res, err := r.db.Exec(ctx, storage.UpdatePinStateQuery, attempts, lockedUntil, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrNotFound
	}
	return nil
}

func (r *PgAccountRepository) SetPinHash(ctx context.Context, accountID uuid.UUID, hash string) error {
	const op = "storage.SetPinHash"

	res, err := r.db.Exec(ctx, storage.SetPinHashQuery, hash, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.RowsAffected() == 0 {
		return custom_err.ErrNotFound
	}
	return nil
}
