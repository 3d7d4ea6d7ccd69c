package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/aiactscan/pkg/models"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "requirements.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTable(t *testing.T) {
	path := writeTable(t, `requirements:
  - article_id: art9
    title: Risk management system
    required_evidence_kinds: [documentation]
    criticality: critical
    applies_to_tiers: [high]
  - article_id: art53
    title: GPAI obligations
    required_evidence_kinds: [documentation]
    criticality: significant
    applies_to_tiers: [high, limited, minimal]
    condition: gpai_components
`)

	table, err := LoadTable(path)
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "art9", table[0].ArticleID)
	assert.Equal(t, models.CriticalityCritical, table[0].Criticality)
	assert.Equal(t, []models.ArtifactKind{models.ArtifactDocumentation}, table[0].RequiredKinds)
	assert.Equal(t, models.ConditionGPAI, table[1].Condition)
}

func TestLoadTableErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "empty table",
			content: "requirements: []\n",
			errText: "no requirements",
		},
		{
			name:    "not yaml",
			content: "{{{",
			errText: "failed to parse",
		},
		{
			name: "duplicate article id",
			content: `requirements:
  - article_id: art9
    title: a
    criticality: critical
    applies_to_tiers: [high]
  - article_id: art9
    title: b
    criticality: minor
    applies_to_tiers: [high]
`,
			errText: "duplicate article_id",
		},
		{
			name: "unknown artifact kind",
			content: `requirements:
  - article_id: art9
    title: a
    required_evidence_kinds: [blockchain]
    criticality: critical
    applies_to_tiers: [high]
`,
			errText: "unknown artifact kind",
		},
		{
			name: "unknown criticality",
			content: `requirements:
  - article_id: art9
    title: a
    criticality: severe
    applies_to_tiers: [high]
`,
			errText: "unknown criticality",
		},
		{
			name: "unknown tier",
			content: `requirements:
  - article_id: art9
    title: a
    criticality: critical
    applies_to_tiers: [extreme]
`,
			errText: "unknown risk tier",
		},
		{
			name: "unknown condition",
			content: `requirements:
  - article_id: art9
    title: a
    criticality: critical
    applies_to_tiers: [high]
    condition: full_moon
`,
			errText: "unknown condition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable(writeTable(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDefaultTableIsValid(t *testing.T) {
	assert.NoError(t, ValidateTable(DefaultTable()))
}
