package domain

import (
	"time"

	"github.com/google/uuid"
)

// AlertType identifies the monitoring rule that produced an alert.
type AlertType string

const (
	AlertTypeLargeTransaction     AlertType = "LARGE_TRANSACTION"
	AlertTypeStructuring          AlertType = "STRUCTURING"
	AlertTypeVelocity             AlertType = "VELOCITY"
	AlertTypeRoundAmount          AlertType = "ROUND_AMOUNT"
	AlertTypeHighRiskJurisdiction AlertType = "HIGH_RISK_JURISDICTION"
	AlertTypeUnusualPattern       AlertType = "UNUSUAL_PATTERN"
)

// AlertSeverity expresses how urgent review of an alert is.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "low"
	SeverityMedium   AlertSeverity = "medium"
	SeverityHigh     AlertSeverity = "high"
	SeverityCritical AlertSeverity = "critical"
)

var severityRanks = map[AlertSeverity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordinal position of the severity, or -1 if unknown.
func (s AlertSeverity) Rank() int {
	if r, ok := severityRanks[s]; ok {
		return r
	}
	return -1
}

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	_, ok := severityRanks[s]
	return ok
}

// AtLeast reports whether s is at least as severe as other.
func (s AlertSeverity) AtLeast(other AlertSeverity) bool {
	return s.Rank() >= other.Rank()
}

// AMLAlert is raised when a monitoring rule fires for a user's activity.
type AMLAlert struct {
	ID             uuid.UUID         `json:"id"`
	AlertType      AlertType         `json:"alert_type"`
	Severity       AlertSeverity     `json:"severity"`
	UserID         string            `json:"user_id"`
	TransactionIDs []string          `json:"transaction_ids"`
	Description    string            `json:"description"`
	Details        map[string]string `json:"details,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
}
