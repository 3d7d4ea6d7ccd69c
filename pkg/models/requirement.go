package models

// Criticality weights a requirement's contribution to the compliance score
type Criticality string

const (
	CriticalityCritical    Criticality = "critical"
	CriticalitySignificant Criticality = "significant"
	CriticalityMinor       Criticality = "minor"
)

// Weight returns the scoring weight for this criticality (3/2/1).
// Unknown criticalities weigh 0 and are rejected at table-load time.
func (c Criticality) Weight() float64 {
	switch c {
	case CriticalityCritical:
		return 3
	case CriticalitySignificant:
		return 2
	case CriticalityMinor:
		return 1
	}
	return 0
}

// RequirementCondition further gates applicability beyond tier membership.
// Conditions are evaluated before evidence matching, alongside the tier check.
type RequirementCondition string

const (
	// ConditionAlways: tier membership alone decides applicability
	ConditionAlways RequirementCondition = ""
	// ConditionAIComponents: applies only when any AI component was detected
	ConditionAIComponents RequirementCondition = "ai_components"
	// ConditionGPAI: applies only when a general-purpose AI model was detected
	ConditionGPAI RequirementCondition = "gpai_components"
)

// Requirement is one row of the compliance requirement table: a single
// obligation drawn from a specific Article of the Act. Static reference data,
// loaded once per process, never scan-derived.
type Requirement struct {
	ArticleID     string               `json:"article_id" yaml:"article_id"` // e.g. "art9"
	Title         string               `json:"title" yaml:"title"`
	RequiredKinds []ArtifactKind       `json:"required_evidence_kinds" yaml:"required_evidence_kinds"`
	Criticality   Criticality          `json:"criticality" yaml:"criticality"`
	AppliesTo     []RiskTier           `json:"applies_to_tiers" yaml:"applies_to_tiers"`
	Condition     RequirementCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// AppliesToTier reports whether the requirement binds systems at the given tier
func (r *Requirement) AppliesToTier(tier RiskTier) bool {
	for _, t := range r.AppliesTo {
		if t == tier {
			return true
		}
	}
	return false
}

// VerdictStatus is the outcome of evaluating one requirement against the
// evidence set
type VerdictStatus string

const (
	StatusSatisfied          VerdictStatus = "satisfied"
	StatusPartiallySatisfied VerdictStatus = "partially_satisfied"
	StatusNotSatisfied       VerdictStatus = "not_satisfied"
	StatusNotApplicable      VerdictStatus = "not_applicable"
	StatusUnknown            VerdictStatus = "unknown"
)

// RequirementVerdict is the rule engine's output for one requirement.
// Exactly one per (scan, requirement) pair.
type RequirementVerdict struct {
	ArticleID   string        `json:"article_id"`
	Title       string        `json:"title"`
	Status      VerdictStatus `json:"status"`
	Criticality Criticality   `json:"criticality"`
	// SupportingEvidence lists IDs of detected components that covered
	// required evidence kinds. Every ID resolves to a component from the
	// same scan.
	SupportingEvidence []string `json:"supporting_evidence"`
	Explanation        string   `json:"explanation"`
}
