package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/pkg/logger"
)

// userState holds one user's rolling history and alert log. All access
// goes through the state mutex so rules see a consistent window.
type userState struct {
	mu      sync.Mutex
	history []domain.Transaction
	alerts  []domain.AMLAlert
}

// Monitor runs pattern detection rules over a per-user transaction
// stream. Different users are processed fully in parallel; transactions
// for the same user are serialized on that user's lock.
type Monitor struct {
	cfg *config.MonitoringConfig
	log *logger.Logger

	ctrThreshold    decimal.Decimal
	maxVolume       decimal.Decimal
	roundHalfUnit   decimal.Decimal
	roundMin        decimal.Decimal
	highRiskSet     map[string]struct{}
	structuringSpan time.Duration

	mu    sync.RWMutex
	users map[string]*userState
}

// NewMonitor creates a monitor from configuration.
func NewMonitor(cfg *config.MonitoringConfig, log *logger.Logger) *Monitor {
	highRisk := make(map[string]struct{}, len(cfg.HighRiskJurisdictions))
	for _, j := range cfg.HighRiskJurisdictions {
		highRisk[strings.ToUpper(j)] = struct{}{}
	}
	unit := decimal.NewFromFloat(cfg.RoundAmountUnit)
	return &Monitor{
		cfg:             cfg,
		log:             log.Named("monitor"),
		ctrThreshold:    decimal.NewFromFloat(cfg.CTRThreshold),
		maxVolume:       decimal.NewFromFloat(cfg.MaxVolumePerDay),
		roundHalfUnit:   unit.Div(decimal.NewFromInt(2)),
		roundMin:        decimal.NewFromFloat(cfg.RoundAmountMin),
		highRiskSet:     highRisk,
		structuringSpan: time.Duration(cfg.StructuringWindowHours) * time.Hour,
		users:           make(map[string]*userState),
	}
}

// MonitorTransaction records a transaction and runs every detection
// rule against the user's updated history. Generated alerts are
// appended to the user's alert log and returned in rule order.
func (m *Monitor) MonitorTransaction(tx *domain.Transaction) ([]domain.AMLAlert, error) {
	if tx == nil {
		return nil, domain.NewValidationError("transaction", "must not be nil")
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	state := m.userState(tx.UserID)
	state.mu.Lock()
	defer state.mu.Unlock()

	// Record first so the transaction is visible to its own window.
	state.history = append(state.history, *tx)

	var alerts []domain.AMLAlert
	if a := m.checkLargeTransaction(tx); a != nil {
		alerts = append(alerts, *a)
	}
	if a := m.checkStructuring(tx, state.history); a != nil {
		alerts = append(alerts, *a)
	}
	if a := m.checkVelocity(tx, state.history); a != nil {
		alerts = append(alerts, *a)
	}
	if a := m.checkRoundAmount(tx); a != nil {
		alerts = append(alerts, *a)
	}
	if a := m.checkJurisdiction(tx); a != nil {
		alerts = append(alerts, *a)
	}

	for i := range alerts {
		state.alerts = append(state.alerts, alerts[i])
		m.log.AlertCreated(alerts[i].ID.String(), string(alerts[i].AlertType), tx.UserID, string(alerts[i].Severity))
	}
	return alerts, nil
}

// GetAlerts returns a copy of the user's alert log in generation order.
// Unknown users get an empty slice, never nil.
func (m *Monitor) GetAlerts(userID string) []domain.AMLAlert {
	state := m.lookupState(userID)
	if state == nil {
		return []domain.AMLAlert{}
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	out := make([]domain.AMLAlert, len(state.alerts))
	copy(out, state.alerts)
	return out
}

// GetAlertsBySeverity returns the user's alerts with exactly the given
// severity, preserving generation order. Never returns nil.
func (m *Monitor) GetAlertsBySeverity(userID string, severity domain.AlertSeverity) []domain.AMLAlert {
	state := m.lookupState(userID)
	out := []domain.AMLAlert{}
	if state == nil {
		return out
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	for i := range state.alerts {
		if state.alerts[i].Severity == severity {
			out = append(out, state.alerts[i])
		}
	}
	return out
}

// TransactionCount returns how many transactions are retained for the user.
func (m *Monitor) TransactionCount(userID string) int {
	state := m.lookupState(userID)
	if state == nil {
		return 0
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return len(state.history)
}

// PurgeBefore drops retained transactions older than the cutoff across
// all users. Alert logs are never purged.
func (m *Monitor) PurgeBefore(cutoff time.Time) int {
	m.mu.RLock()
	states := make([]*userState, 0, len(m.users))
	for _, s := range m.users {
		states = append(states, s)
	}
	m.mu.RUnlock()

	purged := 0
	for _, s := range states {
		s.mu.Lock()
		kept := s.history[:0]
		for i := range s.history {
			if s.history[i].Timestamp.Before(cutoff) {
				purged++
				continue
			}
			kept = append(kept, s.history[i])
		}
		s.history = kept
		s.mu.Unlock()
	}
	return purged
}

func (m *Monitor) userState(userID string) *userState {
	m.mu.RLock()
	state, ok := m.users[userID]
	m.mu.RUnlock()
	if ok {
		return state
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok = m.users[userID]; ok {
		return state
	}
	state = &userState{}
	m.users[userID] = state
	return state
}

func (m *Monitor) lookupState(userID string) *userState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID]
}

func (m *Monitor) checkLargeTransaction(tx *domain.Transaction) *domain.AMLAlert {
	if !tx.MeetsOrExceeds(m.ctrThreshold) {
		return nil
	}
	return m.newAlert(tx, domain.AlertTypeLargeTransaction, domain.SeverityHigh,
		fmt.Sprintf("transaction of %s %s at or above reporting threshold %s",
			tx.Amount.String(), tx.Currency, m.ctrThreshold.String()),
		[]string{tx.TransactionID},
		map[string]string{
			"amount":    tx.Amount.String(),
			"threshold": m.ctrThreshold.String(),
		})
}

func (m *Monitor) checkStructuring(tx *domain.Transaction, history []domain.Transaction) *domain.AMLAlert {
	windowStart := tx.Timestamp.Add(-m.structuringSpan)

	var ids []string
	sum := decimal.Zero
	for i := range history {
		h := &history[i]
		if h.Type != tx.Type {
			continue
		}
		if h.Timestamp.Before(windowStart) || h.Timestamp.After(tx.Timestamp) {
			continue
		}
		// A transaction at or above the threshold is reported outright,
		// not structured.
		if h.Amount.GreaterThanOrEqual(m.ctrThreshold) {
			continue
		}
		ids = append(ids, h.TransactionID)
		sum = sum.Add(h.Amount)
	}

	if len(ids) < m.cfg.StructuringMinTxCount || sum.LessThan(m.ctrThreshold) {
		return nil
	}
	m.log.PatternDetected(tx.UserID, string(domain.AlertTypeStructuring), string(domain.SeverityCritical))
	return m.newAlert(tx, domain.AlertTypeStructuring, domain.SeverityCritical,
		fmt.Sprintf("%d %s transactions totaling %s %s within %dh, each below %s",
			len(ids), tx.Type, sum.String(), tx.Currency,
			m.cfg.StructuringWindowHours, m.ctrThreshold.String()),
		ids,
		map[string]string{
			"transaction_count": strconv.Itoa(len(ids)),
			"total_amount":      sum.String(),
			"window_hours":      strconv.Itoa(m.cfg.StructuringWindowHours),
		})
}

func (m *Monitor) checkVelocity(tx *domain.Transaction, history []domain.Transaction) *domain.AMLAlert {
	windowStart := tx.Timestamp.Add(-24 * time.Hour)

	count := 0
	volume := decimal.Zero
	for i := range history {
		h := &history[i]
		if h.Timestamp.Before(windowStart) || h.Timestamp.After(tx.Timestamp) {
			continue
		}
		count++
		volume = volume.Add(h.Amount)
	}

	countExceeded := count > m.cfg.MaxTransactionsPerDay
	volumeExceeded := volume.GreaterThan(m.maxVolume)
	if !countExceeded && !volumeExceeded {
		return nil
	}

	severity := domain.SeverityMedium
	if count >= 2*m.cfg.MaxTransactionsPerDay || volume.GreaterThanOrEqual(m.maxVolume.Mul(decimal.NewFromInt(2))) {
		severity = domain.SeverityHigh
	}
	m.log.PatternDetected(tx.UserID, string(domain.AlertTypeVelocity), string(severity))

	return m.newAlert(tx, domain.AlertTypeVelocity, severity,
		fmt.Sprintf("unusual 24h activity: %d transactions, volume %s %s",
			count, volume.String(), tx.Currency),
		[]string{tx.TransactionID},
		map[string]string{
			"count_24h":  strconv.Itoa(count),
			"volume_24h": volume.String(),
		})
}

func (m *Monitor) checkRoundAmount(tx *domain.Transaction) *domain.AMLAlert {
	if tx.Amount.LessThan(m.roundMin) {
		return nil
	}
	// Multiples of the full unit are also multiples of the half unit.
	if !tx.Amount.Mod(m.roundHalfUnit).IsZero() {
		return nil
	}
	return m.newAlert(tx, domain.AlertTypeRoundAmount, domain.SeverityLow,
		fmt.Sprintf("round amount transaction of %s %s", tx.Amount.String(), tx.Currency),
		[]string{tx.TransactionID},
		map[string]string{"amount": tx.Amount.String()})
}

func (m *Monitor) checkJurisdiction(tx *domain.Transaction) *domain.AMLAlert {
	if tx.Jurisdiction == "" {
		return nil
	}
	if _, ok := m.highRiskSet[strings.ToUpper(tx.Jurisdiction)]; !ok {
		return nil
	}
	return m.newAlert(tx, domain.AlertTypeHighRiskJurisdiction, domain.SeverityHigh,
		fmt.Sprintf("transaction involving high-risk jurisdiction %s", tx.Jurisdiction),
		[]string{tx.TransactionID},
		map[string]string{"jurisdiction": tx.Jurisdiction})
}

func (m *Monitor) newAlert(tx *domain.Transaction, alertType domain.AlertType, severity domain.AlertSeverity, description string, txIDs []string, details map[string]string) *domain.AMLAlert {
	return &domain.AMLAlert{
		ID:             uuid.New(),
		AlertType:      alertType,
		Severity:       severity,
		UserID:         tx.UserID,
		TransactionIDs: txIDs,
		Description:    description,
		Details:        details,
		GeneratedAt:    time.Now().UTC(),
	}
}
