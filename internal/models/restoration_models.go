package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RestrictionState int

const (
	Unrestricted RestrictionState = iota
	Limited
)

func (s RestrictionState) String() string {
	if s == Limited {
		return "LIMITED"
	}
	return "UNRESTRICTED"
}

// RestorationState ограничение после восстановления доступа к аккаунту
type RestorationState struct {
	CustomerID     uuid.UUID  `db:"customer_id"`
	IsLimited      bool       `db:"is_limited"`
	LimitAmount    int64      `db:"limit_amount"`
	ExpiresAt      *time.Time `db:"expires_at"`
	LastRestoredAt *time.Time `db:"last_restored_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// EffectiveState вычисляет состояние на момент now без побочных эффектов.
// Истекшее ограничение никогда не считается активным.
func EffectiveState(s *RestorationState, now time.Time) RestrictionState {
	if s == nil || !s.IsLimited {
		return Unrestricted
	}
	if s.ExpiresAt != nil && !now.Before(*s.ExpiresAt) {
		return Unrestricted
	}
	return Limited
}

// HoursRemaining часы до истечения ограничения, не меньше нуля
func (s *RestorationState) HoursRemaining(now time.Time) float64 {
	if s == nil || s.ExpiresAt == nil || !now.Before(*s.ExpiresAt) {
		return 0
	}
	return s.ExpiresAt.Sub(now).Hours()
}

// RestorationInfo сведения об ограничении для ответа клиенту
type RestorationInfo struct {
	IsLimited      bool             `json:"is_limited"`
	LimitAmount    *decimal.Decimal `json:"limit_amount,omitempty"`
	RemainingLimit *decimal.Decimal `json:"remaining_limit,omitempty"`
	HoursRemaining float64          `json:"hours_remaining"`
	ExpiresAt      *time.Time       `json:"expires_at,omitempty"`
	Message        string           `json:"message"`
}

// RestorationCheck результат проверки перевода против ограничения
type RestorationCheck struct {
	Allowed bool
	Message string
	Info    *RestorationInfo
}

// ActivateRestorationRequest запрос администратора на включение ограничения
type ActivateRestorationRequest struct {
	LimitAmount *decimal.Decimal `json:"limit_amount,omitempty"`
}
