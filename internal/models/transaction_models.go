package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDebit   TransactionType = "debit"
	TransactionCredit  TransactionType = "credit"
	TransactionBlocked TransactionType = "blocked"
)

// BlockReason отличает блокировку политикой от блокировки антифродом
type BlockReason string

const (
	BlockReasonNone             BlockReason = ""
	BlockReasonFraud            BlockReason = "fraud"
	BlockReasonRestorationLimit BlockReason = "restoration_limit"
)

type AuthMethod string

const (
	AuthStandard           AuthMethod = "standard"
	AuthPinAndFido         AuthMethod = "pin_and_fido"
	AuthPinAndFidoRequired AuthMethod = "pin_and_fido_required"
)

type TransferStatus string

const (
	TransferSuccessful TransferStatus = "successful"
	TransferBlocked    TransferStatus = "blocked"
)

// Transaction неизменяемая запись о движении средств или заблокированной попытке.
// Amount хранится со знаком: дебет отрицательный, кредит положительный.
type Transaction struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TransferID   uuid.UUID       `json:"transfer_id" db:"transfer_id"`
	AccountID    uuid.UUID       `json:"account_id" db:"account_id"`
	TerminalID   string          `json:"terminal_id" db:"terminal_id"`
	Counterparty string          `json:"counterparty" db:"counterparty"`
	Type         TransactionType `json:"type" db:"type"`
	Amount       int64           `json:"amount" db:"amount"`
	IsFraud      bool            `json:"is_fraud" db:"is_fraud"`
	BlockReason  BlockReason     `json:"block_reason,omitempty" db:"block_reason"`
	IsReauth     bool            `json:"is_reauth_transaction" db:"is_reauth"`
	AuthMethod   AuthMethod      `json:"auth_method" db:"auth_method"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// TransferRequest запрос на перевод между счетами
type TransferRequest struct {
	AccountNumber        string          `json:"account_number,omitempty" validate:"omitempty,max=34"`
	RecipientAccount     string          `json:"recipient_account" validate:"required,max=34"`
	RecipientName        string          `json:"recipient_name,omitempty" validate:"max=128"`
	Amount               decimal.Decimal `json:"amount" validate:"gt=0"`
	TerminalID           string          `json:"terminal_id" validate:"required,max=128"`
	IsReauthTransaction  bool            `json:"is_reauth_transaction"`
	PinVerified          bool            `json:"pin_verified"`
	OriginalFraudAlertID *string         `json:"original_fraud_alert_id,omitempty"`
}

// TransferResponse результат перевода. Блокировка - успешный ответ с отрицательным решением.
type TransferResponse struct {
	Status                 TransferStatus   `json:"status"`
	TransactionID          *uuid.UUID       `json:"transaction_id,omitempty"`
	NewBalance             *decimal.Decimal `json:"new_balance,omitempty"`
	FraudPrediction        bool             `json:"fraud_prediction"`
	FraudProbability       *float64         `json:"fraud_probability,omitempty"`
	FraudDetails           *FraudDetails    `json:"fraud_details,omitempty"`
	FraudDetectionBypassed bool             `json:"fraud_detection_bypassed"`
	Blocked                bool             `json:"blocked"`
	BlockReason            BlockReason      `json:"block_reason,omitempty"`
	RestorationInfo        *RestorationInfo `json:"restoration_info,omitempty"`
	AuthMethod             AuthMethod       `json:"auth_method"`
	IsReauthTransaction    bool             `json:"is_reauth_transaction"`
	PinVerified            bool             `json:"pin_verified"`
	OriginalFraudAlertID   *string          `json:"original_fraud_alert_id,omitempty"`
	SecurityNotice         string           `json:"security_notice,omitempty"`
	Message                string           `json:"message"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevelFor переводит вероятность в уровень риска
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability > 0.8:
		return RiskHigh
	case probability > 0.6:
		return RiskMedium
	default:
		return RiskLow
	}
}

// FraudDetails подробности блокировки антифродом
type FraudDetails struct {
	AnomalyType     string        `json:"anomaly_type"`
	RiskLevel       RiskLevel     `json:"risk_level"`
	Confidence      float64       `json:"confidence"`
	DecisionScore   float64       `json:"decision_score"`
	Recommendations []string      `json:"recommendations"`
	Analysis        FraudAnalysis `json:"analysis"`
}

type FraudAnalysis struct {
	AmountVsAverageRatio *float64 `json:"amount_vs_average_ratio"`
	RecentAverage        float64  `json:"recent_average"`
	TransactionAmount    float64  `json:"transaction_amount"`
	ThresholdUsed        float64  `json:"threshold_used"`
	MLProbability        *float64 `json:"ml_probability"`
	ManualProbability    float64  `json:"manual_probability"`
	ManualReason         string   `json:"manual_reason"`
	ManualOverride       bool     `json:"manual_override"`
	ModelsLoaded         bool     `json:"models_loaded"`
	IsReauthTransaction  bool     `json:"is_reauth_transaction"`
	PinVerified          bool     `json:"pin_verified"`
	OriginalFraudAlertID *string  `json:"original_fraud_alert_id,omitempty"`
	AuthRequired         string   `json:"auth_required"`
}

// FraudAssessment результат пробной оценки без исполнения перевода
type FraudAssessment struct {
	TestMode              bool            `json:"test_mode"`
	TransactionAmount     decimal.Decimal `json:"transaction_amount"`
	Features              FeatureVector   `json:"features"`
	FraudProbability      float64         `json:"fraud_probability"`
	MLProbability         *float64        `json:"ml_probability"`
	ModelsLoaded          bool            `json:"models_loaded"`
	SuspiciousFeatures    int             `json:"suspicious_features"`
	WouldBlockAtThreshold map[string]bool `json:"would_block_at_threshold"`
	IsReauthTransaction   bool            `json:"is_reauth_transaction"`
	WouldBypassIfReauth   bool            `json:"would_bypass_if_reauth"`
	Recommendation        string          `json:"recommendation"`
	Error                 string          `json:"error,omitempty"`
}
