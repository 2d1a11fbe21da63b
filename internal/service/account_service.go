package service

import (
	"context"
	"errors"
	"fmt"

	"gw-bank-transfer/internal/custom_err"
	"gw-bank-transfer/internal/models"
	"gw-bank-transfer/internal/storage/postgres"

	"github.com/google/uuid"
)

type Account interface {
	GetAccounts(ctx context.Context, customerID uuid.UUID) ([]models.AccountResponse, error)
	GetAccount(ctx context.Context, customerID uuid.UUID, accountNumber string) (*models.AccountResponse, error)
}

type AccountService struct {
	repo postgres.AccountRepository
}

func NewAccountService(repo postgres.AccountRepository) Account {
	return &AccountService{repo: repo}
}

func (s *AccountService) GetAccounts(ctx context.Context, customerID uuid.UUID) ([]models.AccountResponse, error) {
	const op = "service.GetAccounts"

	accounts, err := s.repo.GetCustomerAccounts(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		result = append(result, models.NewAccountResponse(a))
	}
	return result, nil
}

func (s *AccountService) GetAccount(ctx context.Context, customerID uuid.UUID, accountNumber string) (*models.AccountResponse, error) {
	const op = "service.GetAccount"

	if accountNumber == "" {
		return nil, custom_err.ErrInvalidInput
	}

	account, err := resolveAccount(ctx, s.repo, customerID, accountNumber)
	if err != nil {
		if errors.Is(err, custom_err.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp := models.NewAccountResponse(account)
	return &resp, nil
}
