// Package rules holds the compliance requirement table and the engine that
// evaluates it against a scan's evidence. The table is data, not code: the
// built-in rows below are the defaults, and a YAML file can replace them
// wholesale since the regulation's obligations are subject to change.
package rules

import (
	"github.com/acheong08/aiactscan/pkg/models"
)

// DefaultTable returns the built-in requirement rows. One row per obligation;
// rows are independent and individually testable.
func DefaultTable() []models.Requirement {
	return []models.Requirement{
		{
			ArticleID:   "art5",
			Title:       "Prohibited AI practices",
			Criticality: models.CriticalityCritical,
			AppliesTo:   []models.RiskTier{models.TierProhibited},
			// No evidence kind can satisfy this row: landing in the
			// prohibited tier is itself the gap.
			RequiredKinds: nil,
		},
		{
			ArticleID:     "art9",
			Title:         "Risk management system",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation},
			Criticality:   models.CriticalityCritical,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art10",
			Title:         "Data and data governance",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDataset, models.ArtifactDocumentation},
			Criticality:   models.CriticalityCritical,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art11",
			Title:         "Technical documentation",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation},
			Criticality:   models.CriticalityCritical,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art12",
			Title:         "Record-keeping",
			RequiredKinds: []models.ArtifactKind{models.ArtifactLogging},
			Criticality:   models.CriticalitySignificant,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art13",
			Title:         "Transparency and provision of information to deployers",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation},
			Criticality:   models.CriticalitySignificant,
			AppliesTo:     []models.RiskTier{models.TierHigh, models.TierLimited},
		},
		{
			ArticleID:     "art14",
			Title:         "Human oversight",
			RequiredKinds: []models.ArtifactKind{models.ArtifactOversight},
			Criticality:   models.CriticalityCritical,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art15",
			Title:         "Accuracy, robustness and cybersecurity",
			RequiredKinds: []models.ArtifactKind{models.ArtifactSecurity, models.ArtifactDocumentation},
			Criticality:   models.CriticalitySignificant,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art17",
			Title:         "Quality management system",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation, models.ArtifactLogging},
			Criticality:   models.CriticalitySignificant,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art50",
			Title:         "Transparency obligations for certain AI systems",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation},
			Criticality:   models.CriticalitySignificant,
			AppliesTo:     []models.RiskTier{models.TierLimited},
		},
		{
			ArticleID:     "art53",
			Title:         "Obligations for providers of general-purpose AI models",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation},
			Criticality:   models.CriticalitySignificant,
			AppliesTo:     []models.RiskTier{models.TierHigh, models.TierLimited, models.TierMinimal},
			Condition:     models.ConditionGPAI,
		},
		{
			ArticleID:     "art72",
			Title:         "Post-market monitoring",
			RequiredKinds: []models.ArtifactKind{models.ArtifactLogging, models.ArtifactDocumentation},
			Criticality:   models.CriticalityMinor,
			AppliesTo:     []models.RiskTier{models.TierHigh},
		},
		{
			ArticleID:     "art95",
			Title:         "Voluntary codes of conduct",
			RequiredKinds: []models.ArtifactKind{models.ArtifactDocumentation},
			Criticality:   models.CriticalityMinor,
			AppliesTo:     []models.RiskTier{models.TierMinimal},
			Condition:     models.ConditionAIComponents,
		},
	}
}
