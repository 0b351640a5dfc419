package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/compliance-service/internal/domain"
)

func TestDecodeTransactionEvent(t *testing.T) {
	raw := []byte(`{
		"event_id": "3f1d9a6e-5b2c-4f7a-9d8e-1a2b3c4d5e6f",
		"event_type": "transaction.created",
		"timestamp": "2026-08-30T12:00:00Z",
		"payload": {
			"transaction_id": "tx-1",
			"user_id": "user-1",
			"amount": "2500.50",
			"currency": "USD",
			"transaction_type": "deposit",
			"timestamp": "2026-08-30T11:59:58Z",
			"jurisdiction": "DE"
		}
	}`)

	tx, err := DecodeTransactionEvent(raw)
	require.NoError(t, err)

	assert.Equal(t, "tx-1", tx.TransactionID)
	assert.Equal(t, "user-1", tx.UserID)
	assert.Equal(t, "2500.5", tx.Amount.String())
	assert.Equal(t, domain.TransactionTypeDeposit, tx.Type)
	assert.Equal(t, "DE", tx.Jurisdiction)
	assert.Equal(t, time.Date(2026, 8, 30, 11, 59, 58, 0, time.UTC), tx.Timestamp.UTC())
	require.NoError(t, tx.Validate())
}

func TestDecodeTransactionEventErrors(t *testing.T) {
	_, err := DecodeTransactionEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = DecodeTransactionEvent([]byte(`{"event_type":"transaction.created"}`))
	require.Error(t, err)
}
