package custom_err

import "errors"

var (
	// Account errors
	ErrNotFound          = errors.New("resource not found")
	ErrRecipientNotFound = errors.New("recipient account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSelfTransfer      = errors.New("cannot transfer to the same account")
	ErrDuplicateRequest  = errors.New("duplicate request")

	// Re-authentication contract errors
	ErrReauthPinNotVerified = errors.New("re-authenticated transaction requires PIN verification")
	ErrReauthPinNotSet      = errors.New("ATM PIN not set for this account")

	// PIN errors
	ErrPinNotSet = errors.New("pin not set")

	// Auth errors
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrTokenNotActive = errors.New("token not active yet")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidAmount = errors.New("invalid amount")

	// Cache errors
	ErrCacheMiss = errors.New("cache miss")
)
