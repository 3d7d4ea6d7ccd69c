package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/acheong08/aiactscan/pkg/models"
)

func TestSortRemediationsCriticalFirst(t *testing.T) {
	verdicts := []models.RequirementVerdict{
		{ArticleID: "art12", Criticality: models.CriticalitySignificant},
		{ArticleID: "art9", Criticality: models.CriticalityCritical},
		{ArticleID: "art14", Criticality: models.CriticalityCritical},
		{ArticleID: "art13", Criticality: models.CriticalitySignificant},
	}
	remediations := []Remediation{
		{ArticleID: "art13"},
		{ArticleID: "art14"},
		{ArticleID: "art12"},
		{ArticleID: "art9"},
	}

	sortRemediations(remediations, verdicts)

	got := make([]string, len(remediations))
	for i, r := range remediations {
		got[i] = r.ArticleID
	}
	assert.Equal(t, []string{"art14", "art9", "art12", "art13"}, got)
}

func TestFormatAdvicePromptRendersGaps(t *testing.T) {
	report := &models.ComplianceReport{
		RepositoryPath:  "/tmp/repo",
		RiskLevel:       models.TierHigh,
		ComplianceScore: 37.5,
		Components: []models.DetectedComponent{
			{ID: "dependency:torch", Kind: models.ArtifactDependency, Name: "torch", EvidencePath: "requirements.txt", Confidence: 0.95},
		},
	}
	gaps := []models.RequirementVerdict{
		{ArticleID: "art9", Title: "Risk management system", Status: models.StatusNotSatisfied,
			Criticality: models.CriticalityCritical, Explanation: "no evidence for: documentation"},
	}

	prompt := formatAdvicePrompt(report, gaps)

	assert.Contains(t, prompt, "/tmp/repo")
	assert.Contains(t, prompt, "art9")
	assert.Contains(t, prompt, "Risk management system")
	assert.Contains(t, prompt, "torch (dependency")
	assert.Contains(t, prompt, "no evidence for: documentation")
}
