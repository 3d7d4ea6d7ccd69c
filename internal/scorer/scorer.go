// Package scorer aggregates requirement verdicts into the 0-100 compliance
// score and the final verdict on the compliant flag.
package scorer

import (
	"github.com/acheong08/aiactscan/pkg/models"
)

// Summary is the scorer's aggregate over one scan's verdicts
type Summary struct {
	Score             float64 // 0-100
	Compliant         bool
	CriticalGapsCount int
	UnknownCount      int
}

// Credit per verdict status. NotApplicable is excluded from the denominator
// entirely; Unknown earns no credit but is counted separately so an
// indeterminate state is never silently folded into the failure count.
func credit(status models.VerdictStatus) (value float64, applicable bool) {
	switch status {
	case models.StatusSatisfied:
		return 1.0, true
	case models.StatusPartiallySatisfied:
		return 0.5, true
	case models.StatusNotSatisfied, models.StatusUnknown:
		return 0, true
	case models.StatusNotApplicable:
		return 0, false
	}
	return 0, false
}

// Score aggregates verdicts into a summary. Weights come from each
// requirement's criticality (3/2/1). The zero-applicable edge case scores
// 100 and compliant: dividing by zero would turn "nothing required" into
// "nothing achieved".
//
// Compliant requires both the threshold and a clean critical-gap count: a
// high score cannot mask an unresolved critical gap.
func Score(verdicts []models.RequirementVerdict, threshold float64) Summary {
	var weightedCredit, totalWeight float64
	summary := Summary{}

	for _, v := range verdicts {
		value, applicable := credit(v.Status)
		if !applicable {
			continue
		}
		weight := v.Criticality.Weight()
		weightedCredit += value * weight
		totalWeight += weight

		if v.Status == models.StatusNotSatisfied && v.Criticality == models.CriticalityCritical {
			summary.CriticalGapsCount++
		}
		if v.Status == models.StatusUnknown {
			summary.UnknownCount++
		}
	}

	if totalWeight == 0 {
		summary.Score = 100
		summary.Compliant = true
		return summary
	}

	summary.Score = 100 * weightedCredit / totalWeight
	summary.Compliant = summary.Score >= threshold && summary.CriticalGapsCount == 0
	return summary
}
