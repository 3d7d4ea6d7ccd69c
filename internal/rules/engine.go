package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/acheong08/aiactscan/pkg/models"
)

// Engine evaluates the requirement table against a scan's evidence. Stateless:
// every call produces exactly one verdict per table row, never zero, never
// more than one.
type Engine struct {
	table []models.Requirement
	floor float64
}

// NewEngine creates an engine over a validated table
func NewEngine(table []models.Requirement, confidenceFloor float64) *Engine {
	return &Engine{table: table, floor: confidenceFloor}
}

// Table returns the rows the engine evaluates
func (e *Engine) Table() []models.Requirement {
	return e.table
}

// Evaluate produces one verdict per requirement. Applicability (tier
// membership plus row condition) is checked before any evidence matching.
// When tierKnown is false every verdict is Unknown: an indeterminate tier
// must never degrade to NotSatisfied, which would misrepresent an
// indeterminate state as a compliance failure.
func (e *Engine) Evaluate(tier models.RiskTier, tierKnown bool, components []models.DetectedComponent) []models.RequirementVerdict {
	verdicts := make([]models.RequirementVerdict, 0, len(e.table))

	byKind := make(map[models.ArtifactKind][]models.DetectedComponent)
	hasAI := false
	hasGPAI := false
	for _, c := range components {
		if c.Confidence < e.floor {
			continue
		}
		byKind[c.Kind] = append(byKind[c.Kind], c)
		switch c.Kind {
		case models.ArtifactModel, models.ArtifactDataset, models.ArtifactDependency:
			hasAI = true
		}
		if c.GPAI {
			hasGPAI = true
		}
	}

	for _, req := range e.table {
		verdicts = append(verdicts, e.evaluateOne(req, tier, tierKnown, byKind, hasAI, hasGPAI))
	}
	return verdicts
}

func (e *Engine) evaluateOne(req models.Requirement, tier models.RiskTier, tierKnown bool, byKind map[models.ArtifactKind][]models.DetectedComponent, hasAI, hasGPAI bool) models.RequirementVerdict {
	verdict := models.RequirementVerdict{
		ArticleID:   req.ArticleID,
		Title:       req.Title,
		Criticality: req.Criticality,
	}

	if !tierKnown {
		verdict.Status = models.StatusUnknown
		verdict.Explanation = "risk tier could not be determined; applicability is indeterminate"
		return verdict
	}

	if !req.AppliesToTier(tier) {
		verdict.Status = models.StatusNotApplicable
		verdict.Explanation = fmt.Sprintf("does not apply to %s-risk systems", tier)
		return verdict
	}
	switch req.Condition {
	case models.ConditionAIComponents:
		if !hasAI {
			verdict.Status = models.StatusNotApplicable
			verdict.Explanation = "no AI components detected"
			return verdict
		}
	case models.ConditionGPAI:
		if !hasGPAI {
			verdict.Status = models.StatusNotApplicable
			verdict.Explanation = "no general-purpose AI model detected"
			return verdict
		}
	}

	// Rows with no satisfiable evidence kinds mark obligations that are
	// violated by reaching this point at all (Article 5)
	if len(req.RequiredKinds) == 0 {
		verdict.Status = models.StatusNotSatisfied
		verdict.Explanation = "no evidence can satisfy this obligation; the detected practice itself is the gap"
		return verdict
	}

	var covered, missing []models.ArtifactKind
	var supporting []string
	for _, kind := range req.RequiredKinds {
		comps := byKind[kind]
		if len(comps) == 0 {
			missing = append(missing, kind)
			continue
		}
		covered = append(covered, kind)
		for _, c := range comps {
			supporting = append(supporting, c.ID)
		}
	}
	sort.Strings(supporting)
	verdict.SupportingEvidence = dedupeStrings(supporting)

	switch {
	case len(missing) == 0:
		verdict.Status = models.StatusSatisfied
		verdict.Explanation = "all required evidence kinds covered"
	case len(covered) == 0:
		verdict.Status = models.StatusNotSatisfied
		verdict.Explanation = fmt.Sprintf("no evidence for: %s", joinKinds(missing))
	default:
		verdict.Status = models.StatusPartiallySatisfied
		verdict.Explanation = fmt.Sprintf("missing evidence for: %s", joinKinds(missing))
	}
	return verdict
}

func joinKinds(kinds []models.ArtifactKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

func dedupeStrings(sorted []string) []string {
	var out []string
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
