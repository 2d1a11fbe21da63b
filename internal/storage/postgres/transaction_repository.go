package postgres

import (
	"context"
	"errors"
	"fmt"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type TransactionRepository interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error
	// Create пишет запись вне транзакции перевода (аудит заблокированных попыток)
	Create(ctx context.Context, t *models.Transaction) error
}

type PgTransactionRepository struct {
	db DB
}

func NewTransactionRepository(db DB) TransactionRepository {
	return &PgTransactionRepository{db: db}
}

func (r *PgTransactionRepository) CreateTx(ctx context.Context, tx pgx.Tx, t *models.Transaction) error {
	return r.execCreate(ctx, tx, t)
}

func (r *PgTransactionRepository) Create(ctx context.Context, t *models.Transaction) error {
	return r.execCreate(ctx, r.db, t)
}

func (r *PgTransactionRepository) execCreate(ctx context.Context, q DB, t *models.Transaction) error {
	const op = "storage.CreateTransaction"

	_, err := q.Exec(ctx, storage.CreateTransactionQuery,
		t.ID, t.TransferID, t.AccountID, t.TerminalID, t.Counterparty, string(t.Type), t.Amount,
		t.IsFraud, string(t.BlockReason), t.IsReauth, string(t.AuthMethod), t.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return custom_err.ErrDuplicateRequest
			case pgFKViolation:
				return custom_err.ErrNotFound
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
