package kyc

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banking/compliance-service/internal/config"
	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/pkg/logger"
)

// RiskEngine scores customers and runs due diligence checklists. It is
// a pure rules engine; all inputs arrive on the customer record and no
// I/O happens during an assessment.
type RiskEngine struct {
	cfg *config.KYCConfig
	log *logger.Logger

	highRiskCountries   map[string]struct{}
	highRiskOccupations map[string]struct{}
}

// NewRiskEngine creates a risk engine from configuration.
func NewRiskEngine(cfg *config.KYCConfig, log *logger.Logger) *RiskEngine {
	countries := make(map[string]struct{}, len(cfg.HighRiskCountries))
	for _, c := range cfg.HighRiskCountries {
		countries[strings.ToUpper(c)] = struct{}{}
	}
	occupations := make(map[string]struct{}, len(cfg.HighRiskOccupations))
	for _, o := range cfg.HighRiskOccupations {
		occupations[strings.ToLower(o)] = struct{}{}
	}
	return &RiskEngine{
		cfg:                 cfg,
		log:                 log.Named("kyc"),
		highRiskCountries:   countries,
		highRiskOccupations: occupations,
	}
}

// AssessCustomerRisk produces a risk assessment for a customer. Every
// scoring rule is independent; the final score is the clamped sum.
func (e *RiskEngine) AssessCustomerRisk(c *domain.Customer) (*domain.RiskAssessment, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}

	started := time.Now()
	score := e.cfg.BaselineScore
	factors := []domain.RiskFactor{{
		Factor:      "baseline",
		Weight:      e.cfg.BaselineScore,
		Description: "baseline customer risk",
	}}

	if e.IsHighRiskCountry(c.ResidenceCountry) {
		score += e.cfg.HighRiskCountryWeight
		factors = append(factors, domain.RiskFactor{
			Factor:      "high_risk_country",
			Weight:      e.cfg.HighRiskCountryWeight,
			Description: "residence in high-risk country " + c.ResidenceCountry,
		})
	}
	if c.PEPStatus {
		score += e.cfg.PEPWeight
		factors = append(factors, domain.RiskFactor{
			Factor:      "pep_status",
			Weight:      e.cfg.PEPWeight,
			Description: "politically exposed person",
		})
	}
	if c.AdverseMedia {
		score += e.cfg.AdverseMediaWeight
		factors = append(factors, domain.RiskFactor{
			Factor:      "adverse_media",
			Weight:      e.cfg.AdverseMediaWeight,
			Description: "adverse media coverage on record",
		})
	}
	if e.isHighRiskOccupation(c.Occupation) {
		score += e.cfg.OccupationWeight
		factors = append(factors, domain.RiskFactor{
			Factor:      "high_risk_occupation",
			Weight:      e.cfg.OccupationWeight,
			Description: "high-risk occupation: " + c.Occupation,
		})
	}
	if c.CustomerType.IsOrganization() && len(c.BeneficialOwners) == 0 {
		score += e.cfg.BeneficialOwnerWeight
		factors = append(factors, domain.RiskFactor{
			Factor:      "beneficial_ownership_unknown",
			Weight:      e.cfg.BeneficialOwnerWeight,
			Description: "no beneficial owners recorded",
		})
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	level := e.tier(score)
	dd := domain.DueDiligenceCDD
	if level.AtLeast(domain.RiskLevelHigh) {
		dd = domain.DueDiligenceEDD
	}
	now := time.Now().UTC()

	assessment := &domain.RiskAssessment{
		ID:             uuid.New(),
		CustomerID:     c.CustomerID,
		RiskLevel:      level,
		RiskScore:      score,
		RiskFactors:    factors,
		DueDiligence:   dd,
		AssessedAt:     now,
		NextReviewDate: now.AddDate(0, 0, e.reviewDays(level)),
	}

	e.log.AssessmentCompleted(c.CustomerID, string(level), score, time.Since(started).Milliseconds())
	return assessment, nil
}

// PerformCDD runs the standard due diligence checklist. It never
// mutates the customer; Missing lists the failed items in checklist
// order.
func (e *RiskEngine) PerformCDD(c *domain.Customer) (*domain.DueDiligenceResult, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}

	var missing []string
	if !c.HasVerifiedDocument(domain.DocumentType.IsGovernmentID) {
		missing = append(missing, "identity_verification")
	}
	if !c.HasVerifiedDocument(domain.DocumentType.IsProofOfAddress) {
		missing = append(missing, "address_verification")
	}
	if c.SourceOfFunds == "" {
		missing = append(missing, "source_of_funds")
	}
	if c.CustomerType.IsOrganization() && len(c.BeneficialOwners) == 0 {
		missing = append(missing, "beneficial_ownership")
	}

	return &domain.DueDiligenceResult{
		Level:    domain.DueDiligenceCDD,
		Complete: len(missing) == 0,
		Missing:  missing,
	}, nil
}

// PerformEDD runs the enhanced checklist: everything CDD checks plus
// deeper identity and source-of-funds evidence.
func (e *RiskEngine) PerformEDD(c *domain.Customer) (*domain.DueDiligenceResult, error) {
	cdd, err := e.PerformCDD(c)
	if err != nil {
		return nil, err
	}

	missing := cdd.Missing
	if c.VerifiedDocumentCount() < 2 {
		missing = append(missing, "enhanced_identity_verification")
	}
	if !c.HasVerifiedDocument(func(t domain.DocumentType) bool {
		return t == domain.DocumentTypeBankStatement || t == domain.DocumentTypeBusinessLicense
	}) {
		missing = append(missing, "source_of_funds_documentation")
	}
	if c.Occupation == "" {
		missing = append(missing, "occupation_declared")
	}

	return &domain.DueDiligenceResult{
		Level:    domain.DueDiligenceEDD,
		Complete: len(missing) == 0,
		Missing:  missing,
	}, nil
}

// IsHighRiskCountry reports whether a country code is on the configured
// high-risk list. Comparison is case-insensitive.
func (e *RiskEngine) IsHighRiskCountry(country string) bool {
	if country == "" {
		return false
	}
	_, ok := e.highRiskCountries[strings.ToUpper(country)]
	return ok
}

func (e *RiskEngine) isHighRiskOccupation(occupation string) bool {
	if occupation == "" {
		return false
	}
	_, ok := e.highRiskOccupations[strings.ToLower(occupation)]
	return ok
}

func (e *RiskEngine) tier(score int) domain.RiskLevel {
	switch {
	case score >= e.cfg.ProhibitedThreshold:
		return domain.RiskLevelProhibited
	case score >= e.cfg.HighThreshold:
		return domain.RiskLevelHigh
	case score >= e.cfg.MediumThreshold:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}

func (e *RiskEngine) reviewDays(level domain.RiskLevel) int {
	switch level {
	case domain.RiskLevelProhibited:
		return e.cfg.ProhibitedReviewDays
	case domain.RiskLevelHigh:
		return e.cfg.HighReviewDays
	case domain.RiskLevelMedium:
		return e.cfg.MediumReviewDays
	default:
		return e.cfg.LowReviewDays
	}
}

func validateCustomer(c *domain.Customer) error {
	if c == nil {
		return domain.NewValidationError("customer", "must not be nil")
	}
	if c.CustomerID == "" {
		return domain.NewValidationError("customer_id", "must not be empty")
	}
	if c.Name == "" {
		return domain.NewValidationError("name", "must not be empty")
	}
	if !c.CustomerType.Valid() {
		return domain.NewValidationError("customer_type", "unknown customer type "+string(c.CustomerType))
	}
	for i := range c.Documents {
		if err := c.Documents[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
