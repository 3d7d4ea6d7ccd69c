package workflow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/aiactscan/pkg/models"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		ScanID:          "scan-1",
		RepositoryPath:  "/tmp/repo",
		ComplianceScore: 42.3,
		Compliant:       false,
		RiskLevel:       models.TierHigh,
		Verdicts: []models.RequirementVerdict{
			{ArticleID: "art9", Title: "Risk management system", Status: models.StatusNotSatisfied, Criticality: models.CriticalityCritical},
		},
		CriticalGapsCount: 1,
	}
}

func TestWriteOutputs(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", outputFile)

	require.NoError(t, WriteOutputs(sampleReport()))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "compliant=false\n")
	assert.Contains(t, content, "compliance_score=42.3\n")
	assert.Contains(t, content, "risk_level=high\n")
	assert.Contains(t, content, "critical_gaps_count=1\n")
}

func TestWriteOutputsAppends(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(outputFile, []byte("prior=value\n"), 0o644))
	t.Setenv("GITHUB_OUTPUT", outputFile)

	require.NoError(t, WriteOutputs(sampleReport()))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "prior=value\n")
	assert.Contains(t, string(data), "compliant=false\n")
}

func TestWriteOutputsNoopOutsideActions(t *testing.T) {
	t.Setenv("GITHUB_OUTPUT", "")
	assert.NoError(t, WriteOutputs(sampleReport()))
}

func TestWriteStepSummary(t *testing.T) {
	summaryFile := filepath.Join(t.TempDir(), "summary")
	t.Setenv("GITHUB_STEP_SUMMARY", summaryFile)

	require.NoError(t, WriteStepSummary(sampleReport()))

	data, err := os.ReadFile(summaryFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EU AI Act Compliance Report")
	assert.Contains(t, string(data), "art9")
}

func TestCreateGapIssue(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"number":   17,
			"html_url": "https://github.com/org/repo/issues/17",
		})
	}))
	defer srv.Close()

	client := NewIssueClient("tok", "org", "repo")
	client.BaseURL = srv.URL

	issue, err := client.CreateGapIssue(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, 17, issue.Number)
	assert.Equal(t, "/repos/org/repo/issues", gotPath)
	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Contains(t, gotBody["title"], "1 critical gap")
	assert.Contains(t, gotBody["body"], "art9")
}

func TestCreateGapIssueFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewIssueClient("bad", "org", "repo")
	client.BaseURL = srv.URL

	_, err := client.CreateGapIssue(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
