package monitor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/pkg/logger"
)

func testMonitor(t *testing.T) *Monitor {
	t.Helper()
	log, err := logger.New("compliance-service-test", "development", false)
	require.NoError(t, err)
	cfg := &config.MonitoringConfig{
		CTRThreshold:           10000,
		StructuringWindowHours: 24,
		StructuringMinTxCount:  3,
		MaxTransactionsPerDay:  50,
		MaxVolumePerDay:        100000,
		RoundAmountUnit:        1000,
		RoundAmountMin:         1000,
		HighRiskJurisdictions:  []string{"IR", "KP", "SY"},
		RetentionDays:          30,
	}
	return NewMonitor(cfg, log)
}

func tx(id, userID string, amount float64, txType domain.TransactionType, ts time.Time) *domain.Transaction {
	return &domain.Transaction{
		TransactionID: id,
		UserID:        userID,
		Amount:        decimal.NewFromFloat(amount),
		Currency:      "USD",
		Type:          txType,
		Timestamp:     ts,
	}
}

func alertTypes(alerts []domain.AMLAlert) []domain.AlertType {
	out := make([]domain.AlertType, len(alerts))
	for i, a := range alerts {
		out[i] = a.AlertType
	}
	return out
}

func TestLargeTransactionAlert(t *testing.T) {
	m := testMonitor(t)
	now := time.Now().UTC()

	alerts, err := m.MonitorTransaction(tx("tx-1", "user-1", 15000, domain.TransactionTypeDeposit, now))
	require.NoError(t, err)

	require.Contains(t, alertTypes(alerts), domain.AlertTypeLargeTransaction)
	for _, a := range alerts {
		if a.AlertType == domain.AlertTypeLargeTransaction {
			assert.Equal(t, domain.SeverityHigh, a.Severity)
			assert.Equal(t, []string{"tx-1"}, a.TransactionIDs)
		}
	}
}

func TestLargeTransactionExactThreshold(t *testing.T) {
	m := testMonitor(t)
	now := time.Now().UTC()

	alerts, err := m.MonitorTransaction(tx("tx-1", "user-1", 10000, domain.TransactionTypeDeposit, now))
	require.NoError(t, err)
	assert.Contains(t, alertTypes(alerts), domain.AlertTypeLargeTransaction)

	alerts, err = m.MonitorTransaction(tx("tx-2", "user-1", 9999.99, domain.TransactionTypeDeposit, now))
	require.NoError(t, err)
	assert.NotContains(t, alertTypes(alerts), domain.AlertTypeLargeTransaction)
}

func TestStructuringDetected(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	var last []domain.AMLAlert
	for i := 0; i < 3; i++ {
		var err error
		last, err = m.MonitorTransaction(tx(
			fmt.Sprintf("tx-%d", i), "user-1", 4000,
			domain.TransactionTypeDeposit, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	// Only the third transaction completes the pattern.
	require.Contains(t, alertTypes(last), domain.AlertTypeStructuring)
	var structuring domain.AMLAlert
	for _, a := range last {
		if a.AlertType == domain.AlertTypeStructuring {
			structuring = a
		}
	}
	assert.Equal(t, domain.SeverityCritical, structuring.Severity)
	assert.ElementsMatch(t, []string{"tx-0", "tx-1", "tx-2"}, structuring.TransactionIDs)

	// No large-transaction alerts anywhere: each amount is below threshold.
	for _, a := range m.GetAlerts("user-1") {
		assert.NotEqual(t, domain.AlertTypeLargeTransaction, a.AlertType)
	}
	assert.Len(t, m.GetAlertsBySeverity("user-1", domain.SeverityCritical), 1)
}

func TestStructuringRequiresSameType(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	types := []domain.TransactionType{
		domain.TransactionTypeDeposit,
		domain.TransactionTypeWithdrawal,
		domain.TransactionTypeTransfer,
	}
	for i, tt := range types {
		alerts, err := m.MonitorTransaction(tx(
			fmt.Sprintf("tx-%d", i), "user-1", 4000, tt, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
		assert.NotContains(t, alertTypes(alerts), domain.AlertTypeStructuring)
	}
}

func TestStructuringWindowExcludesOldTransactions(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	_, err := m.MonitorTransaction(tx("tx-old", "user-1", 4000, domain.TransactionTypeDeposit, base.Add(-30*time.Hour)))
	require.NoError(t, err)
	_, err = m.MonitorTransaction(tx("tx-1", "user-1", 4000, domain.TransactionTypeDeposit, base.Add(-time.Hour)))
	require.NoError(t, err)
	alerts, err := m.MonitorTransaction(tx("tx-2", "user-1", 4000, domain.TransactionTypeDeposit, base))
	require.NoError(t, err)

	// Only two transactions fall inside the trailing 24h window.
	assert.NotContains(t, alertTypes(alerts), domain.AlertTypeStructuring)
}

func TestStructuringIgnoresReportableAmounts(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	// Two sub-threshold plus one reportable transaction must not count
	// as three structured ones.
	_, err := m.MonitorTransaction(tx("tx-0", "user-1", 4000, domain.TransactionTypeDeposit, base))
	require.NoError(t, err)
	_, err = m.MonitorTransaction(tx("tx-1", "user-1", 4000, domain.TransactionTypeDeposit, base.Add(time.Hour)))
	require.NoError(t, err)
	alerts, err := m.MonitorTransaction(tx("tx-2", "user-1", 12000, domain.TransactionTypeDeposit, base.Add(2*time.Hour)))
	require.NoError(t, err)

	assert.NotContains(t, alertTypes(alerts), domain.AlertTypeStructuring)
	assert.Contains(t, alertTypes(alerts), domain.AlertTypeLargeTransaction)
}

func TestVelocityCountExceeded(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	var last []domain.AMLAlert
	for i := 0; i < 51; i++ {
		var err error
		last, err = m.MonitorTransaction(tx(
			fmt.Sprintf("tx-%d", i), "user-1", 10,
			domain.TransactionTypeTransfer, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	require.Contains(t, alertTypes(last), domain.AlertTypeVelocity)
	for _, a := range last {
		if a.AlertType == domain.AlertTypeVelocity {
			assert.Equal(t, domain.SeverityMedium, a.Severity)
		}
	}
}

func TestVelocityVolumeExceededEscalates(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	// Three deposits pushing 24h volume past twice the daily cap.
	for i := 0; i < 2; i++ {
		_, err := m.MonitorTransaction(tx(
			fmt.Sprintf("tx-%d", i), "user-1", 90000,
			domain.TransactionTypeDeposit, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}
	alerts, err := m.MonitorTransaction(tx("tx-2", "user-1", 90000, domain.TransactionTypeDeposit, base.Add(2*time.Hour)))
	require.NoError(t, err)

	require.Contains(t, alertTypes(alerts), domain.AlertTypeVelocity)
	for _, a := range alerts {
		if a.AlertType == domain.AlertTypeVelocity {
			assert.Equal(t, domain.SeverityHigh, a.Severity)
		}
	}
}

func TestRoundAmountAlert(t *testing.T) {
	m := testMonitor(t)
	now := time.Now().UTC()

	alerts, err := m.MonitorTransaction(tx("tx-1", "user-1", 5000, domain.TransactionTypeWithdrawal, now))
	require.NoError(t, err)
	require.Contains(t, alertTypes(alerts), domain.AlertTypeRoundAmount)
	for _, a := range alerts {
		if a.AlertType == domain.AlertTypeRoundAmount {
			assert.Equal(t, domain.SeverityLow, a.Severity)
		}
	}

	alerts, err = m.MonitorTransaction(tx("tx-2", "user-1", 2500, domain.TransactionTypeWithdrawal, now))
	require.NoError(t, err)
	assert.Contains(t, alertTypes(alerts), domain.AlertTypeRoundAmount)

	alerts, err = m.MonitorTransaction(tx("tx-3", "user-1", 4321.55, domain.TransactionTypeWithdrawal, now))
	require.NoError(t, err)
	assert.NotContains(t, alertTypes(alerts), domain.AlertTypeRoundAmount)

	// Below the floor, round numbers are everyday amounts.
	alerts, err = m.MonitorTransaction(tx("tx-4", "user-1", 500, domain.TransactionTypeWithdrawal, now))
	require.NoError(t, err)
	assert.NotContains(t, alertTypes(alerts), domain.AlertTypeRoundAmount)
}

func TestHighRiskJurisdictionAlert(t *testing.T) {
	m := testMonitor(t)
	now := time.Now().UTC()

	risky := tx("tx-1", "user-1", 250, domain.TransactionTypeTransfer, now)
	risky.Jurisdiction = "IR"
	alerts, err := m.MonitorTransaction(risky)
	require.NoError(t, err)
	require.Contains(t, alertTypes(alerts), domain.AlertTypeHighRiskJurisdiction)
	for _, a := range alerts {
		if a.AlertType == domain.AlertTypeHighRiskJurisdiction {
			assert.Equal(t, domain.SeverityHigh, a.Severity)
		}
	}

	safe := tx("tx-2", "user-1", 250, domain.TransactionTypeTransfer, now)
	safe.Jurisdiction = "DE"
	alerts, err = m.MonitorTransaction(safe)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestMonitorValidation(t *testing.T) {
	m := testMonitor(t)
	now := time.Now().UTC()

	cases := []struct {
		name   string
		mutate func(*domain.Transaction)
		field  string
	}{
		{"missing id", func(tr *domain.Transaction) { tr.TransactionID = "" }, "transaction_id"},
		{"missing user", func(tr *domain.Transaction) { tr.UserID = "" }, "user_id"},
		{"negative amount", func(tr *domain.Transaction) { tr.Amount = decimal.NewFromInt(-5) }, "amount"},
		{"unknown type", func(tr *domain.Transaction) { tr.Type = "barter" }, "transaction_type"},
		{"zero timestamp", func(tr *domain.Transaction) { tr.Timestamp = time.Time{} }, "timestamp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := tx("tx-1", "user-1", 100, domain.TransactionTypeDeposit, now)
			tc.mutate(tr)
			_, err := m.MonitorTransaction(tr)
			require.Error(t, err)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	// Rejected transactions must not enter the history.
	assert.Equal(t, 0, m.TransactionCount("user-1"))
}

func TestAlertsAreScopedPerUser(t *testing.T) {
	m := testMonitor(t)
	now := time.Now().UTC()

	_, err := m.MonitorTransaction(tx("tx-a", "user-a", 15000, domain.TransactionTypeDeposit, now))
	require.NoError(t, err)
	_, err = m.MonitorTransaction(tx("tx-b", "user-b", 100, domain.TransactionTypeDeposit, now))
	require.NoError(t, err)

	assert.NotEmpty(t, m.GetAlerts("user-a"))
	assert.Empty(t, m.GetAlerts("user-b"))

	// Unknown users read as an empty, non-nil log.
	unknown := m.GetAlerts("user-unknown")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
	bySeverity := m.GetAlertsBySeverity("user-unknown", domain.SeverityCritical)
	assert.NotNil(t, bySeverity)
	assert.Empty(t, bySeverity)
}

func TestGetAlertsPreservesOrder(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	_, err := m.MonitorTransaction(tx("tx-1", "user-1", 15250, domain.TransactionTypeDeposit, base))
	require.NoError(t, err)
	risky := tx("tx-2", "user-1", 250, domain.TransactionTypeTransfer, base.Add(time.Minute))
	risky.Jurisdiction = "KP"
	_, err = m.MonitorTransaction(risky)
	require.NoError(t, err)

	alerts := m.GetAlerts("user-1")
	require.Len(t, alerts, 2)
	assert.Equal(t, domain.AlertTypeLargeTransaction, alerts[0].AlertType)
	assert.Equal(t, domain.AlertTypeHighRiskJurisdiction, alerts[1].AlertType)
}

func TestPurgeBefore(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	_, err := m.MonitorTransaction(tx("tx-old", "user-1", 100, domain.TransactionTypeDeposit, base.AddDate(0, 0, -40)))
	require.NoError(t, err)
	_, err = m.MonitorTransaction(tx("tx-new", "user-1", 100, domain.TransactionTypeDeposit, base))
	require.NoError(t, err)

	purged := m.PurgeBefore(base.AddDate(0, 0, -30))
	assert.Equal(t, 1, purged)
	assert.Equal(t, 1, m.TransactionCount("user-1"))
}

func TestConcurrentUsersDoNotInterfere(t *testing.T) {
	m := testMonitor(t)
	base := time.Now().UTC()

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(user int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", user)
			for i := 0; i < 20; i++ {
				_, err := m.MonitorTransaction(tx(
					fmt.Sprintf("tx-%d-%d", user, i), userID, 100,
					domain.TransactionTypeTransfer, base.Add(time.Duration(i)*time.Minute)))
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < 8; u++ {
		assert.Equal(t, 20, m.TransactionCount(fmt.Sprintf("user-%d", u)))
	}
}
