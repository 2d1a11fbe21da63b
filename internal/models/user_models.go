package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTClaims claims токена, выданного сервисом аутентификации
type JWTClaims struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Role       string    `json:"role,omitempty"`
	jwt.RegisteredClaims
}

const RoleAdmin = "admin"

// PinVerificationRequest запрос на проверку ATM PIN
type PinVerificationRequest struct {
	AccountNumber        string  `json:"account_number,omitempty" validate:"omitempty,max=34"`
	Pin                  string  `json:"pin" validate:"required,numeric,min=4,max=6"`
	OriginalFraudAlertID *string `json:"original_fraud_alert_id,omitempty"`
}

// PinVerificationResponse результат проверки PIN
type PinVerificationResponse struct {
	Verified          bool       `json:"verified"`
	Message           string     `json:"message"`
	AttemptsRemaining *int       `json:"attempts_remaining,omitempty"`
	LockedUntil       *time.Time `json:"locked_until,omitempty"`
}

// SetPinRequest запрос на установку PIN
type SetPinRequest struct {
	AccountNumber string `json:"account_number,omitempty" validate:"omitempty,max=34"`
	Pin           string `json:"pin" validate:"required,numeric,min=4,max=6"`
}
