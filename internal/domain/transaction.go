package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of movement being monitored.
type TransactionType string

const (
	TransactionTypeDeposit        TransactionType = "deposit"
	TransactionTypeWithdrawal     TransactionType = "withdrawal"
	TransactionTypeTransfer       TransactionType = "transfer"
	TransactionTypeCryptoPurchase TransactionType = "crypto_purchase"
	TransactionTypeCryptoSale     TransactionType = "crypto_sale"
	TransactionTypeCryptoTransfer TransactionType = "crypto_transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer,
		TransactionTypeCryptoPurchase, TransactionTypeCryptoSale, TransactionTypeCryptoTransfer:
		return true
	}
	return false
}

// Transaction is a monitored financial event. It is immutable once
// constructed; the monitor retains it in a rolling per-user history.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Type          TransactionType `json:"transaction_type"`
	Timestamp     time.Time       `json:"timestamp"`

	Counterparty      string `json:"counterparty,omitempty"`
	Jurisdiction      string `json:"jurisdiction,omitempty"`
	BlockchainAddress string `json:"blockchain_address,omitempty"`
}

// Validate checks required fields and value ranges.
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return NewValidationError("transaction_id", "must not be empty")
	}
	if t.UserID == "" {
		return NewValidationError("user_id", "must not be empty")
	}
	if t.Amount.IsNegative() {
		return NewValidationError("amount", "must not be negative")
	}
	if t.Currency == "" {
		return NewValidationError("currency", "must not be empty")
	}
	if !t.Type.Valid() {
		return NewValidationError("transaction_type", "unknown transaction type "+string(t.Type))
	}
	if t.Timestamp.IsZero() {
		return NewValidationError("timestamp", "must be set")
	}
	return nil
}

// MeetsOrExceeds reports whether the transaction amount is at or above the
// given threshold.
func (t *Transaction) MeetsOrExceeds(threshold decimal.Decimal) bool {
	return t.Amount.GreaterThanOrEqual(threshold)
}

// TransactionCreatedEvent is the event envelope consumed from the
// transaction service's Kafka topic.
type TransactionCreatedEvent struct {
	EventID     uuid.UUID    `json:"event_id"`
	EventType   string       `json:"event_type"`
	Timestamp   time.Time    `json:"timestamp"`
	Transaction *Transaction `json:"payload"`
}
