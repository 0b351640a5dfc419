package domain

import (
	"time"

	"github.com/google/uuid"
)

// CustomerType represents the legal form of a customer.
type CustomerType string

const (
	CustomerTypeIndividual CustomerType = "individual"
	CustomerTypeBusiness   CustomerType = "business"
	CustomerTypeTrust      CustomerType = "trust"
	CustomerTypeNonprofit  CustomerType = "nonprofit"
)

// Valid reports whether t is a known customer type.
func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeIndividual, CustomerTypeBusiness, CustomerTypeTrust, CustomerTypeNonprofit:
		return true
	}
	return false
}

// IsOrganization reports whether the customer type requires beneficial
// ownership records.
func (t CustomerType) IsOrganization() bool {
	return t == CustomerTypeBusiness || t == CustomerTypeTrust
}

// DocumentType represents a KYC verification document category.
type DocumentType string

const (
	DocumentTypePassport        DocumentType = "passport"
	DocumentTypeDriversLicense  DocumentType = "drivers_license"
	DocumentTypeNationalID      DocumentType = "national_id"
	DocumentTypeUtilityBill     DocumentType = "utility_bill"
	DocumentTypeBankStatement   DocumentType = "bank_statement"
	DocumentTypeBusinessLicense DocumentType = "business_license"
	DocumentTypeArticlesOfInc   DocumentType = "articles_of_incorporation"
)

// IsGovernmentID reports whether the document proves identity.
func (t DocumentType) IsGovernmentID() bool {
	switch t {
	case DocumentTypePassport, DocumentTypeDriversLicense, DocumentTypeNationalID:
		return true
	}
	return false
}

// IsProofOfAddress reports whether the document proves residence address.
func (t DocumentType) IsProofOfAddress() bool {
	return t == DocumentTypeUtilityBill || t == DocumentTypeBankStatement
}

// KYCDocument is a verification document attached to a customer profile.
// Invariant: VerificationDate is set if and only if Verified is true.
type KYCDocument struct {
	Type             DocumentType `json:"document_type"`
	Number           string       `json:"document_number"`
	IssueDate        time.Time    `json:"issue_date"`
	ExpiryDate       *time.Time   `json:"expiry_date,omitempty"` // nil means non-expiring
	IssuingAuthority string       `json:"issuing_authority"`
	Verified         bool         `json:"verified"`
	VerificationDate *time.Time   `json:"verification_date,omitempty"`
}

// Validate checks the document invariants.
func (d *KYCDocument) Validate() error {
	if d.Number == "" {
		return NewValidationError("document_number", "must not be empty")
	}
	if d.Verified && d.VerificationDate == nil {
		return NewValidationError("verification_date", "required when document is verified")
	}
	if !d.Verified && d.VerificationDate != nil {
		return NewValidationError("verification_date", "must be unset for unverified documents")
	}
	return nil
}

// IsExpired reports whether the document has passed its expiry date.
// Documents without an expiry date never expire.
func (d *KYCDocument) IsExpired(now time.Time) bool {
	return d.ExpiryDate != nil && now.After(*d.ExpiryDate)
}

// Customer is a customer profile as assembled by the onboarding layer.
// Profiles are retained for audit; document appends are the only mutation.
type Customer struct {
	CustomerID       string       `json:"customer_id"`
	CustomerType     CustomerType `json:"customer_type"`
	Name             string       `json:"name"`
	DateOfBirth      *time.Time   `json:"date_of_birth,omitempty"`
	Nationality      string       `json:"nationality,omitempty"`
	ResidenceCountry string       `json:"residence_country,omitempty"`
	Occupation       string       `json:"occupation,omitempty"`
	SourceOfFunds    string       `json:"source_of_funds,omitempty"`
	PEPStatus        bool         `json:"pep_status"`
	AdverseMedia     bool         `json:"adverse_media"`

	// Beneficial owners recorded for business/trust customers. Empty for an
	// organization means ownership data is incomplete.
	BeneficialOwners []string `json:"beneficial_owners,omitempty"`

	Documents []KYCDocument `json:"documents,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// VerifiedDocumentCount returns how many of the customer's documents are verified.
func (c *Customer) VerifiedDocumentCount() int {
	n := 0
	for i := range c.Documents {
		if c.Documents[i].Verified {
			n++
		}
	}
	return n
}

// HasVerifiedDocument reports whether any verified document satisfies the
// given predicate.
func (c *Customer) HasVerifiedDocument(match func(DocumentType) bool) bool {
	for i := range c.Documents {
		if c.Documents[i].Verified && match(c.Documents[i].Type) {
			return true
		}
	}
	return false
}

// DueDiligenceLevel is the tier of verification rigor applied to a customer.
type DueDiligenceLevel string

const (
	DueDiligenceCDD DueDiligenceLevel = "CDD"
	DueDiligenceEDD DueDiligenceLevel = "EDD"
)

// DueDiligenceResult is the outcome of a CDD or EDD checklist evaluation.
// Missing items keep a stable order: identity, address, source of funds,
// then enhanced items.
type DueDiligenceResult struct {
	Level    DueDiligenceLevel `json:"level"`
	Complete bool              `json:"complete"`
	Missing  []string          `json:"missing"`
}

// RiskFactor is a single contribution to a customer risk score.
type RiskFactor struct {
	Factor      string `json:"factor"`
	Weight      int    `json:"weight"` // points added to the risk score
	Description string `json:"description"`
}

// RiskAssessment is an immutable snapshot of a customer risk evaluation.
// A fresh assessment is produced on every call and never mutated after return.
type RiskAssessment struct {
	ID             uuid.UUID         `json:"id"`
	CustomerID     string            `json:"customer_id"`
	RiskLevel      RiskLevel         `json:"risk_level"`
	RiskScore      int               `json:"risk_score"` // 0-100
	RiskFactors    []RiskFactor      `json:"risk_factors"`
	DueDiligence   DueDiligenceLevel `json:"due_diligence_level"`
	AssessedAt     time.Time         `json:"assessed_at"`
	NextReviewDate time.Time         `json:"next_review_date"`
	Notes          string            `json:"notes,omitempty"`
}

// RequiresEnhancedDueDiligence reports whether the assessment selected EDD.
func (a *RiskAssessment) RequiresEnhancedDueDiligence() bool {
	return a.DueDiligence == DueDiligenceEDD
}
