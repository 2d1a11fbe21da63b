package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransferEventType string

const (
	EventTransferCommitted     TransferEventType = "transfer_committed"
	EventTransferBlockedFraud  TransferEventType = "transfer_blocked_fraud"
	EventTransferBlockedPolicy TransferEventType = "transfer_blocked_policy"
)

// событие для сервиса уведомлений (SMS, журнал устройств)
type TransferEvent struct {
	EventType        TransferEventType `json:"event_type"`
	TransferID       uuid.UUID         `json:"transfer_id"`        // ID перевода (общий для обеих проводок)
	CustomerID       uuid.UUID         `json:"customer_id"`        // ID отправителя
	AccountNumber    string            `json:"account_number"`     // Счет отправителя
	Recipient        string            `json:"recipient"`          // Счет получателя
	RecipientName    string            `json:"recipient_name"`     // Имя получателя для SMS
	Amount           decimal.Decimal   `json:"amount"`             // Сумма перевода
	NewBalance       *decimal.Decimal  `json:"new_balance"`        // Баланс после списания
	FraudProbability *float64          `json:"fraud_probability"`  // Оценка антифрода
	RiskLevel        RiskLevel         `json:"risk_level"`         // Уровень риска при блокировке
	AuthMethod       AuthMethod        `json:"auth_method"`        // Способ аутентификации
	Timestamp        time.Time         `json:"timestamp"`          // Время операции
}
