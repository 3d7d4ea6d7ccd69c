package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/aiactscan/pkg/models"
)

func writeRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func runScan(t *testing.T, config Config) *models.ComplianceReport {
	t.Helper()
	scanner, err := New(config)
	require.NoError(t, err)
	report, err := scanner.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestScanMinimalTierWithGaps(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"requirements.txt": "torch==2.1.0\nflask==3.0.0\n",
		"app.py":           "import torch\n\nmodel = torch.nn.Linear(4, 1)\n",
	})

	report := runScan(t, Config{RepoRoot: root})

	assert.Equal(t, models.TierMinimal, report.RiskLevel)
	assert.False(t, report.Compliant)
	assert.Zero(t, report.CriticalGapsCount)
	assert.False(t, report.Partial)

	// torch detected as an ML dependency
	var torchFound bool
	for _, c := range report.Components {
		if c.ID == "dependency:torch" {
			torchFound = true
		}
	}
	assert.True(t, torchFound)

	// Voluntary code of conduct is the only applicable obligation and it
	// has no documentation evidence
	var art95 models.RequirementVerdict
	for _, v := range report.Verdicts {
		if v.ArticleID == "art95" {
			art95 = v
		}
	}
	assert.Equal(t, models.StatusNotSatisfied, art95.Status)
}

func TestScanHighRiskRepo(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"README.md":          "This service performs face recognition for building entry.\n",
		"model.safetensors":  "weights",
		"requirements.txt":   "torch==2.1.0\n",
		"data/train.parquet": "not really parquet",
	})

	report := runScan(t, Config{RepoRoot: root})

	assert.Equal(t, models.TierHigh, report.RiskLevel)
	assert.Contains(t, report.Risk.MatchedCategories, models.CategoryBiometric)
	assert.False(t, report.Compliant)
	assert.Greater(t, report.CriticalGapsCount, 0)

	// Risk management (art9) is a gap: no documentation evidence exists
	var art9, art10 models.RequirementVerdict
	for _, v := range report.Verdicts {
		switch v.ArticleID {
		case "art9":
			art9 = v
		case "art10":
			art10 = v
		}
	}
	assert.Equal(t, models.StatusNotSatisfied, art9.Status)
	// Dataset exists but documentation is missing
	assert.Equal(t, models.StatusPartiallySatisfied, art10.Status)
}

func TestScanEmptyRepoIsCompliant(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"README.md": "A small utility for renaming files.\n",
		"main.go":   "package main\n\nfunc main() {}\n",
	})

	report := runScan(t, Config{RepoRoot: root})

	assert.Equal(t, models.TierMinimal, report.RiskLevel)
	assert.Equal(t, 100.0, report.ComplianceScore)
	assert.True(t, report.Compliant)
	assert.Empty(t, report.Components)
	assert.Zero(t, report.CriticalGapsCount)
}

func TestScanIndeterminateDeclaredUse(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"requirements.txt": "torch==2.1.0\n",
	})

	report := runScan(t, Config{
		RepoRoot:            root,
		DeclaredIntendedUse: "a minimal risk tool, unless used as a high-risk system",
	})

	assert.Equal(t, models.TierUnknown, report.RiskLevel)
	assert.False(t, report.Compliant)
	assert.Equal(t, len(report.Verdicts), report.UnknownCount)
	for _, v := range report.Verdicts {
		assert.Equal(t, models.StatusUnknown, v.Status)
	}
}

func TestScanDeterministicIdentity(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"README.md":        "Face recognition demo.\n",
		"requirements.txt": "torch==2.1.0\n",
	})

	fixed := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	config := Config{RepoRoot: root}

	first, err := New(config)
	require.NoError(t, err)
	first.now = func() time.Time { return fixed }
	a, err := first.Run(context.Background())
	require.NoError(t, err)

	second, err := New(config)
	require.NoError(t, err)
	second.now = func() time.Time { return fixed }
	b, err := second.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.ScanID)
}

func TestScanNoDanglingReferences(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"README.md":         "Face recognition service with human review of matches.\n",
		"model.safetensors": "weights",
		"model_card.md":     "# Model Card\n\nIntended use: access control demo.\n",
		"requirements.txt":  "torch==2.1.0\nstructlog==24.1.0\n",
	})

	report := runScan(t, Config{RepoRoot: root})

	componentIDs := make(map[string]bool)
	evidencePaths := make(map[string]bool)
	for _, e := range report.Evidence {
		evidencePaths[e.Path] = true
	}
	for _, c := range report.Components {
		componentIDs[c.ID] = true
		assert.True(t, evidencePaths[c.EvidencePath],
			"component %s references missing evidence %s", c.ID, c.EvidencePath)
	}
	for _, v := range report.Verdicts {
		for _, id := range v.SupportingEvidence {
			assert.True(t, componentIDs[id],
				"verdict %s references missing component %s", v.ArticleID, id)
		}
	}
}

func TestScanCustomRequirementTable(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"requirements.txt": "torch==2.1.0\n",
	})

	tablePath := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(tablePath, []byte(`requirements:
  - article_id: custom1
    title: Always-on documentation duty
    required_evidence_kinds: [documentation]
    criticality: minor
    applies_to_tiers: [minimal, limited, high, prohibited]
`), 0o644))

	report := runScan(t, Config{RepoRoot: root, RequirementsPath: tablePath})

	require.Len(t, report.Verdicts, 1)
	assert.Equal(t, "custom1", report.Verdicts[0].ArticleID)
}

func TestScanConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing root", Config{}},
		{"floor out of range", Config{RepoRoot: ".", ConfidenceFloor: 1.5}},
		{"threshold out of range", Config{RepoRoot: ".", ComplianceThreshold: 200}},
		{"bad exclusion pattern", Config{RepoRoot: ".", ExcludePatterns: []string{"[oops"}}},
		{"missing requirement table", Config{RepoRoot: ".", RequirementsPath: "/nonexistent.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestScanMissingRepoRoot(t *testing.T) {
	scanner, err := New(Config{RepoRoot: filepath.Join(t.TempDir(), "absent")})
	require.NoError(t, err)

	_, err = scanner.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
}
