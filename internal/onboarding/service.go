package onboarding

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banking/compliance-service/internal/domain"
	"github.com/banking/compliance-service/internal/kyc"
	"github.com/banking/compliance-service/internal/pkg/logger"
	"github.com/banking/compliance-service/internal/sanctions"
)

// Result is the combined outcome of an onboarding compliance check.
type Result struct {
	CustomerID   string                     `json:"customer_id"`
	Approved     bool                       `json:"approved"`
	Screening    *domain.ScreeningResult    `json:"screening"`
	Assessment   *domain.RiskAssessment     `json:"assessment"`
	DueDiligence *domain.DueDiligenceResult `json:"due_diligence"`
}

// Service chains sanctions screening, risk assessment, and the due
// diligence checklist for a prospective customer.
type Service struct {
	screener *sanctions.Screener
	engine   *kyc.RiskEngine
	log      *logger.Logger
}

// NewService creates an onboarding service.
func NewService(screener *sanctions.Screener, engine *kyc.RiskEngine, log *logger.Logger) *Service {
	return &Service{
		screener: screener,
		engine:   engine,
		log:      log.Named("onboarding"),
	}
}

// Onboard runs the sanctions screen and the risk assessment in
// parallel, then the due diligence checklist the assessment selects.
// A high-risk sanctions hit overrides the assessment to prohibited.
func (s *Service) Onboard(ctx context.Context, c *domain.Customer) (*Result, error) {
	started := time.Now()

	var (
		screening  *domain.ScreeningResult
		assessment *domain.RiskAssessment
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		// Non-individual customers appear on sanctions lists as
		// organization entries, so they take the entity path.
		if c.CustomerType == domain.CustomerTypeIndividual {
			screening, err = s.screener.ScreenIndividual(c.Name, c.ResidenceCountry)
		} else {
			screening, err = s.screener.ScreenEntity(c.Name, domain.EntityTypeOrganization, c.ResidenceCountry)
		}
		return err
	})
	g.Go(func() error {
		var err error
		assessment, err = s.engine.AssessCustomerRisk(c)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// A confirmed or near-confirmed sanctions hit trumps the score.
	if screening.IsMatch && screening.RiskLevel.AtLeast(domain.RiskLevelHigh) {
		assessment.RiskLevel = domain.RiskLevelProhibited
		assessment.DueDiligence = domain.DueDiligenceEDD
		assessment.Notes = "sanctions screening returned a high-risk match"
	}

	var (
		dd  *domain.DueDiligenceResult
		err error
	)
	if assessment.RequiresEnhancedDueDiligence() {
		dd, err = s.engine.PerformEDD(c)
	} else {
		dd, err = s.engine.PerformCDD(c)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{
		CustomerID:   c.CustomerID,
		Approved:     assessment.RiskLevel != domain.RiskLevelProhibited && dd.Complete,
		Screening:    screening,
		Assessment:   assessment,
		DueDiligence: dd,
	}

	s.log.OnboardingCompleted(c.CustomerID, result.Approved, string(assessment.RiskLevel), time.Since(started).Milliseconds())
	return result, nil
}
