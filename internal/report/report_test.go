package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/acheong08/aiactscan/pkg/models"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		ScanID:          "2e9c9f5a-0000-0000-0000-000000000000",
		RepositoryPath:  "/tmp/repo",
		ScanTimestamp:   time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		ComplianceScore: 37.5,
		Compliant:       false,
		RiskLevel:       models.TierHigh,
		Risk: models.RiskClassification{
			Tier:              models.TierHigh,
			MatchedCategories: []models.AnnexIIICategory{models.CategoryBiometric},
			Rationale: []models.RationaleEntry{
				{Category: models.CategoryBiometric, Keywords: []string{"face recognition"}},
			},
		},
		Verdicts: []models.RequirementVerdict{
			{ArticleID: "art9", Title: "Risk management system", Status: models.StatusNotSatisfied, Criticality: models.CriticalityCritical},
			{ArticleID: "art12", Title: "Record-keeping", Status: models.StatusSatisfied, Criticality: models.CriticalitySignificant,
				SupportingEvidence: []string{"logging_mechanism:structlog"}},
		},
		CriticalGapsCount: 1,
		Components: []models.DetectedComponent{
			{ID: "logging_mechanism:structlog", Kind: models.ArtifactLogging, Name: "structlog", EvidencePath: "requirements.txt", Confidence: 0.85},
		},
		Evidence: []models.EvidenceItem{
			{Path: "requirements.txt", Kind: models.EvidenceManifest, ContentDigest: "abc", Size: 12},
		},
	}
}

func TestMarshalJSONStableKeys(t *testing.T) {
	data, err := MarshalJSON(sampleReport())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	for _, key := range []string{
		"scan_id", "repository_path", "scan_timestamp",
		"compliance_score", "compliant", "risk_level",
		"critical_gaps_count", "requirement_verdicts", "components", "evidence",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, 37.5, decoded["compliance_score"])
	assert.Equal(t, false, decoded["compliant"])
	assert.Equal(t, "high", decoded["risk_level"])
}

func TestSaveFormats(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "report.json")
	require.NoError(t, Save(sampleReport(), jsonPath, "json"))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	yamlPath := filepath.Join(dir, "report.yaml")
	require.NoError(t, Save(sampleReport(), yamlPath, "yaml"))
	data, err = os.ReadFile(yamlPath)
	require.NoError(t, err)
	var decoded map[string]interface{}
	assert.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Error(t, Save(sampleReport(), filepath.Join(dir, "report.xml"), "xml"))
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleReport())

	assert.Contains(t, md, "NOT COMPLIANT")
	assert.Contains(t, md, "37.5 / 100")
	assert.Contains(t, md, "HIGH")
	assert.Contains(t, md, "| art9 | Risk management system |")
	assert.Contains(t, md, "face recognition")
	assert.Contains(t, md, "logging_mechanism:structlog")
	// Satisfied rows are not gaps
	assert.NotContains(t, md, "| art12 |")
}

func TestMarkdownCompliantNoComponents(t *testing.T) {
	r := &models.ComplianceReport{
		ComplianceScore: 100,
		Compliant:       true,
		RiskLevel:       models.TierMinimal,
	}
	md := Markdown(r)

	assert.Contains(t, md, "COMPLIANT")
	assert.Contains(t, md, "No AI/ML components detected.")
	assert.NotContains(t, md, "### Compliance gaps")
}
