package models

import (
	"math"
	"time"

	"gw-bank-transfer/internal/custom_err"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account представляет банковский счет клиента
type Account struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	CustomerID     uuid.UUID  `json:"customer_id" db:"customer_id"`
	AccountNumber  string     `json:"account_number" db:"account_number"`
	Balance        int64      `json:"balance" db:"balance"`
	PinHash        *string    `json:"-" db:"atm_pin_hash"`
	PinAttempts    int        `json:"-" db:"pin_attempts"`
	PinLockedUntil *time.Time `json:"-" db:"pin_locked_until"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// HasPin сообщает, установлен ли для счета ATM PIN
func (a *Account) HasPin() bool {
	return a.PinHash != nil && *a.PinHash != ""
}

// PinLocked сообщает, заблокирован ли PIN на момент now
func (a *Account) PinLocked(now time.Time) bool {
	return a.PinLockedUntil != nil && now.Before(*a.PinLockedUntil)
}

// AccountResponse публичное представление счета
type AccountResponse struct {
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	HasPin        bool            `json:"has_pin"`
}

func NewAccountResponse(a *Account) AccountResponse {
	return AccountResponse{
		AccountNumber: a.AccountNumber,
		Balance:       AmountFromMinorUnits(a.Balance),
		HasPin:        a.HasPin(),
	}
}

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// AmountToMinorUnits конвертирует положительную сумму в основных единицах в минимальные.
// Суммы с долями копейки и не помещающиеся в int64 отклоняются с ErrInvalidAmount.
func AmountToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Shift(2)
	if !minor.IsInteger() || minor.Sign() <= 0 || minor.GreaterThan(maxMinorUnits) {
		return 0, custom_err.ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// AmountFromMinorUnits конвертирует минимальные единицы в основные
func AmountFromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// MinorUnitsToFloat используется там, где сумма нужна как признак модели
func MinorUnitsToFloat(amount int64) float64 {
	return float64(amount) / 100.0
}
