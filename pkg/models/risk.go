package models

// RiskTier is the AI Act's four-level classification. Severity is a total
// order; use Rank for comparisons rather than string values.
type RiskTier string

const (
	TierProhibited RiskTier = "prohibited"
	TierHigh       RiskTier = "high"
	TierLimited    RiskTier = "limited"
	TierMinimal    RiskTier = "minimal"

	// TierUnknown appears only in reports whose risk categorization was
	// indeterminate. It is never assigned by the categorizer as a default.
	TierUnknown RiskTier = "unknown"
)

// Rank returns the tier's severity, higher is more severe. Unknown strings
// rank below minimal so a corrupted value can never mask a real match.
func (t RiskTier) Rank() int {
	switch t {
	case TierProhibited:
		return 3
	case TierHigh:
		return 2
	case TierLimited:
		return 1
	case TierMinimal:
		return 0
	}
	return -1
}

// MoreSevere reports whether t outranks other
func (t RiskTier) MoreSevere(other RiskTier) bool {
	return t.Rank() > other.Rank()
}

// ParseRiskTier maps a declared intended-use tier string to a RiskTier
func ParseRiskTier(s string) (RiskTier, bool) {
	switch RiskTier(s) {
	case TierProhibited, TierHigh, TierLimited, TierMinimal:
		return RiskTier(s), true
	}
	return "", false
}

// AnnexIIICategory enumerates the Act's high-risk use-case domains, plus the
// prohibited-practice and limited-transparency pseudo-categories used by the
// categorizer's matcher table.
type AnnexIIICategory string

const (
	// Article 5 prohibited practices
	CategoryProhibitedPractice AnnexIIICategory = "prohibited_practice"

	// Annex III high-risk domains
	CategoryBiometric              AnnexIIICategory = "biometric_identification_categorization"
	CategoryCriticalInfrastructure AnnexIIICategory = "critical_infrastructure"
	CategoryEducation              AnnexIIICategory = "education_vocational_training"
	CategoryEmployment             AnnexIIICategory = "employment_workers_management"
	CategoryEssentialServices      AnnexIIICategory = "essential_services"
	CategoryLawEnforcement         AnnexIIICategory = "law_enforcement"
	CategoryMigrationAsylum        AnnexIIICategory = "migration_asylum_border"
	CategoryJusticeDemocracy       AnnexIIICategory = "justice_democratic_processes"

	// Article 50 transparency triggers
	CategoryLimitedTransparency AnnexIIICategory = "limited_transparency"
)

// RationaleEntry explains one matched category with the evidence that matched it
type RationaleEntry struct {
	Category    AnnexIIICategory `json:"category"`
	Keywords    []string         `json:"keywords"`     // Keywords that triggered the match
	ComponentID []string         `json:"component_id"` // Components whose text matched
}

// RiskClassification is the categorizer's output: exactly one per scan,
// recomputed whenever the component set changes. A pure function of the
// detected components plus the declared intended use.
type RiskClassification struct {
	Tier              RiskTier           `json:"tier"`
	MatchedCategories []AnnexIIICategory `json:"matched_categories"`
	Rationale         []RationaleEntry   `json:"rationale"`
}
