package sanctions

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/pkg/logger"
)

// listEntry is a sanctioned entity with its normalized names precomputed
// at load time so screening never re-normalizes list content.
type listEntry struct {
	entity            domain.SanctionedEntity
	normalizedName    string
	normalizedAliases []string
}

// Screener matches subject names against the active sanctions list.
// The list is replaced wholesale by LoadList; screening holds only a
// read lock, so lookups stay cheap while a refresh is in flight.
type Screener struct {
	cfg *config.ScreeningConfig
	log *logger.Logger

	mu         sync.RWMutex
	entries    []listEntry
	lastUpdate time.Time
}

// NewScreener creates a screener with an empty list.
func NewScreener(cfg *config.ScreeningConfig, log *logger.Logger) *Screener {
	return &Screener{
		cfg: cfg,
		log: log.Named("sanctions"),
	}
}

// LoadList validates and installs a new sanctions list, replacing the
// previous one atomically. Entities with empty names are rejected and
// the active list is left untouched.
func (s *Screener) LoadList(entities []domain.SanctionedEntity) error {
	entries := make([]listEntry, 0, len(entities))
	for i, e := range entities {
		if e.Name == "" {
			return domain.NewValidationError("name", fmt.Sprintf("entity at index %d has empty name", i))
		}
		le := listEntry{
			entity:         e,
			normalizedName: normalizeName(e.Name),
		}
		for _, alias := range e.Aliases {
			if alias == "" {
				continue
			}
			le.normalizedAliases = append(le.normalizedAliases, normalizeName(alias))
		}
		entries = append(entries, le)
	}

	s.mu.Lock()
	s.entries = entries
	s.lastUpdate = time.Now().UTC()
	s.mu.Unlock()

	s.log.SanctionsListLoaded("load_list", len(entries))
	return nil
}

// ListSize returns the number of entities on the active list.
func (s *Screener) ListSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// LastUpdate returns when the active list was installed.
func (s *Screener) LastUpdate() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// ScreenIndividual screens a person's name against individual entries.
func (s *Screener) ScreenIndividual(name, country string) (*domain.ScreeningResult, error) {
	return s.screen(name, country, func(e *domain.SanctionedEntity) bool {
		return e.EntityType == domain.EntityTypeIndividual
	}, false)
}

// ScreenEntity screens an organization, vessel, or aircraft name. A
// country match boosts fuzzy similarity since corporate names collide
// more often than personal ones.
func (s *Screener) ScreenEntity(name string, entityType domain.EntityType, country string) (*domain.ScreeningResult, error) {
	if !entityType.Valid() {
		return nil, domain.NewValidationError("entity_type", "unknown entity type "+string(entityType))
	}
	return s.screen(name, country, func(e *domain.SanctionedEntity) bool {
		return e.EntityType == entityType
	}, true)
}

func (s *Screener) screen(name, country string, include func(*domain.SanctionedEntity) bool, countryBoost bool) (*domain.ScreeningResult, error) {
	if name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}

	started := time.Now()
	subject := normalizeName(name)

	s.mu.RLock()
	entries := s.entries
	s.mu.RUnlock()

	var matches []domain.EntityMatch
	for i := range entries {
		le := &entries[i]
		if !include(&le.entity) {
			continue
		}

		countryMatch := country != "" && le.entity.Country != "" && country == le.entity.Country

		if subject == le.normalizedName {
			matches = append(matches, domain.EntityMatch{
				Entity:       le.entity,
				Similarity:   1.0,
				MatchType:    domain.MatchTypeExact,
				MatchedField: "name",
				CountryMatch: countryMatch,
			})
			continue
		}

		if aliasMatch(subject, le.normalizedAliases) {
			matches = append(matches, domain.EntityMatch{
				Entity:       le.entity,
				Similarity:   0.95,
				MatchType:    domain.MatchTypeAlias,
				MatchedField: "alias",
				CountryMatch: countryMatch,
			})
			continue
		}

		similarity := nameSimilarity(subject, le.normalizedName)
		field := "name"
		for _, alias := range le.normalizedAliases {
			if as := nameSimilarity(subject, alias); as > similarity {
				similarity = as
				field = "alias"
			}
		}
		if countryBoost && countryMatch {
			similarity *= 1.1
			if similarity > 1.0 {
				similarity = 1.0
			}
		}
		if similarity >= s.cfg.FuzzyMatchThreshold {
			matches = append(matches, domain.EntityMatch{
				Entity:       le.entity,
				Similarity:   similarity,
				MatchType:    domain.MatchTypeFuzzy,
				MatchedField: field,
				CountryMatch: countryMatch,
			})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if s.cfg.MaxMatches > 0 && len(matches) > s.cfg.MaxMatches {
		matches = matches[:s.cfg.MaxMatches]
	}

	result := &domain.ScreeningResult{
		ID:         uuid.New(),
		Subject:    name,
		IsMatch:    len(matches) > 0,
		RiskLevel:  s.riskLevel(matches),
		Matches:    matches,
		ScreenedAt: time.Now().UTC(),
	}
	if len(matches) > 0 {
		result.MatchScore = matches[0].Similarity
	}

	elapsed := time.Since(started)
	s.log.ScreeningCompleted(name, result.IsMatch, len(matches), elapsed.Milliseconds())
	if s.cfg.MaxScreeningLatency > 0 && elapsed > s.cfg.MaxScreeningLatency {
		s.log.LatencyWarning("sanctions_screening", elapsed.Milliseconds(), s.cfg.MaxScreeningLatency.Milliseconds())
	}

	return result, nil
}

// riskLevel derives the result risk level from the best match score.
func (s *Screener) riskLevel(matches []domain.EntityMatch) domain.RiskLevel {
	if len(matches) == 0 {
		return domain.RiskLevelLow
	}
	best := matches[0].Similarity
	switch {
	case best >= 0.95:
		return domain.RiskLevelHigh
	case best >= s.cfg.FuzzyMatchThreshold:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

func aliasMatch(subject string, aliases []string) bool {
	for _, a := range aliases {
		if subject == a {
			return true
		}
	}
	return false
}
