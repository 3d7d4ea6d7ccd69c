package models

import "time"

// ComplianceReport is the scan's terminal output. Immutable once produced.
// The top-level JSON keys (compliance_score, compliant, risk_level,
// critical_gaps_count, requirement_verdicts) are the stable contract that CI
// integrations and the dashboard depend on.
type ComplianceReport struct {
	ScanID          string    `json:"scan_id"`
	RepositoryPath  string    `json:"repository_path"`
	ScanTimestamp   time.Time `json:"scan_timestamp"`
	ComplianceScore float64   `json:"compliance_score"` // 0-100
	Compliant       bool      `json:"compliant"`
	RiskLevel       RiskTier  `json:"risk_level"`

	Risk              RiskClassification   `json:"risk"`
	Verdicts          []RequirementVerdict `json:"requirement_verdicts"`
	CriticalGapsCount int                  `json:"critical_gaps_count"`
	UnknownCount      int                  `json:"unknown_count"` // Verdicts flagged indeterminate

	Components []DetectedComponent `json:"components"`
	Evidence   []EvidenceItem      `json:"evidence"`

	// Non-fatal issues surfaced as annotations rather than failures
	Warnings []CollectionWarning  `json:"warnings,omitempty"`
	Notes    []ClassificationNote `json:"notes,omitempty"`

	// Partial is set when the scan was cancelled before classification
	// finished; affected verdicts are flagged Unknown instead of being lost.
	Partial bool `json:"partial,omitempty"`
}

// Gaps returns the verdicts that represent compliance gaps
// (NotSatisfied or PartiallySatisfied)
func (r *ComplianceReport) Gaps() []RequirementVerdict {
	var gaps []RequirementVerdict
	for _, v := range r.Verdicts {
		if v.Status == StatusNotSatisfied || v.Status == StatusPartiallySatisfied {
			gaps = append(gaps, v)
		}
	}
	return gaps
}

// CriticalGaps returns gaps that are both NotSatisfied and Critical
func (r *ComplianceReport) CriticalGaps() []RequirementVerdict {
	var gaps []RequirementVerdict
	for _, v := range r.Verdicts {
		if v.Status == StatusNotSatisfied && v.Criticality == CriticalityCritical {
			gaps = append(gaps, v)
		}
	}
	return gaps
}
