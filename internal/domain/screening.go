package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiskLevel represents the risk severity of a screening or assessment result.
type RiskLevel string

const (
	RiskLevelLow        RiskLevel = "LOW"
	RiskLevelMedium     RiskLevel = "MEDIUM"
	RiskLevelHigh       RiskLevel = "HIGH"
	RiskLevelProhibited RiskLevel = "PROHIBITED"
)

var riskLevelRanks = map[RiskLevel]int{
	RiskLevelLow:        0,
	RiskLevelMedium:     1,
	RiskLevelHigh:       2,
	RiskLevelProhibited: 3,
}

// Rank returns the ordering rank of the risk level (low < medium < high < prohibited).
// Unknown values rank below LOW.
func (r RiskLevel) Rank() int {
	if rank, ok := riskLevelRanks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r is at or above the given level.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.Rank() >= other.Rank()
}

// Valid reports whether r is a known risk level.
func (r RiskLevel) Valid() bool {
	_, ok := riskLevelRanks[r]
	return ok
}

// EntityType classifies a sanctioned entity.
type EntityType string

const (
	EntityTypeIndividual   EntityType = "individual"
	EntityTypeOrganization EntityType = "organization"
	EntityTypeVessel       EntityType = "vessel"
	EntityTypeAircraft     EntityType = "aircraft"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeIndividual, EntityTypeOrganization, EntityTypeVessel, EntityTypeAircraft:
		return true
	}
	return false
}

// MatchType represents how a subject name matched a sanctions entry.
type MatchType string

const (
	MatchTypeExact MatchType = "EXACT"
	MatchTypeAlias MatchType = "ALIAS"
	MatchTypeFuzzy MatchType = "FUZZY"
)

// SanctionedEntity is a single entry from a sanctions list (OFAC SDN and similar).
// Entities are immutable once loaded; the screener replaces the whole active
// list atomically on reload.
type SanctionedEntity struct {
	Name                  string     `json:"name"`
	EntityType            EntityType `json:"entity_type"`
	Program               string     `json:"program"` // SDN, Non-SDN, Sectoral Sanctions
	Country               string     `json:"country,omitempty"`
	Aliases               []string   `json:"aliases,omitempty"`
	IdentificationNumbers []string   `json:"identification_numbers,omitempty"`
}

// EntityMatch represents a single sanctions-list hit for a screened subject.
type EntityMatch struct {
	Entity       SanctionedEntity `json:"entity"`
	Similarity   float64          `json:"similarity"` // 0.0 - 1.0
	MatchType    MatchType        `json:"match_type"`
	MatchedField string           `json:"matched_field"` // name or alias
	CountryMatch bool             `json:"country_match"`
}

// ScreeningResult is the outcome of screening a subject against the active
// sanctions list. Matches are ordered by descending similarity; ties keep
// list order.
type ScreeningResult struct {
	ID         uuid.UUID     `json:"id"`
	Subject    string        `json:"subject"`
	IsMatch    bool          `json:"is_match"`
	RiskLevel  RiskLevel     `json:"risk_level"`
	MatchScore float64       `json:"match_score"` // best similarity across matches
	Matches    []EntityMatch `json:"matches,omitempty"`
	ScreenedAt time.Time     `json:"screened_at"`
}

// BestMatch returns the highest-similarity match, or nil if there is none.
func (r *ScreeningResult) BestMatch() *EntityMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasExactMatch reports whether any match was an exact name hit.
func (r *ScreeningResult) HasExactMatch() bool {
	for _, m := range r.Matches {
		if m.MatchType == MatchTypeExact {
			return true
		}
	}
	return false
}
