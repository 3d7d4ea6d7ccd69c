// Package workflow is the GitHub Actions boundary: step outputs, step
// summaries, and gap-tracking issues. The core engine never imports this;
// the CLI wires it in when running inside a workflow.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/acheong08/aiactscan/internal/report"
	"github.com/acheong08/aiactscan/pkg/models"
)

// WriteOutputs appends the stable output keys to the GITHUB_OUTPUT file.
// A no-op outside GitHub Actions.
func WriteOutputs(r *models.ComplianceReport) error {
	outputPath := os.Getenv("GITHUB_OUTPUT")
	if outputPath == "" {
		return nil
	}

	f, err := os.OpenFile(outputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open GITHUB_OUTPUT: %w", err)
	}
	defer f.Close()

	outputs := []struct{ key, value string }{
		{"compliant", fmt.Sprintf("%v", r.Compliant)},
		{"compliance_score", fmt.Sprintf("%.1f", r.ComplianceScore)},
		{"risk_level", string(r.RiskLevel)},
		{"critical_gaps_count", fmt.Sprintf("%d", r.CriticalGapsCount)},
	}
	for _, o := range outputs {
		if _, err := fmt.Fprintf(f, "%s=%s\n", o.key, o.value); err != nil {
			return fmt.Errorf("failed to write output %s: %w", o.key, err)
		}
	}
	return nil
}

// WriteStepSummary appends the markdown report to the workflow step summary.
// A no-op outside GitHub Actions.
func WriteStepSummary(r *models.ComplianceReport) error {
	summaryPath := os.Getenv("GITHUB_STEP_SUMMARY")
	if summaryPath == "" {
		return nil
	}

	f, err := os.OpenFile(summaryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open GITHUB_STEP_SUMMARY: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(report.Markdown(r) + "\n"); err != nil {
		return fmt.Errorf("failed to write step summary: %w", err)
	}
	return nil
}

// IssueClient creates gap-tracking issues through the GitHub REST API
type IssueClient struct {
	BaseURL    string
	Token      string
	Owner      string
	Repo       string
	HTTPClient *http.Client
}

// NewIssueClient creates a client for the given repository
func NewIssueClient(token, owner, repo string) *IssueClient {
	return &IssueClient{
		BaseURL:    "https://api.github.com",
		Token:      token,
		Owner:      owner,
		Repo:       repo,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Issue is the created issue as returned by the API
type Issue struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreateGapIssue opens an issue describing the report's critical gaps.
// Intended to be called only when critical_gaps_count > 0.
func (c *IssueClient) CreateGapIssue(ctx context.Context, r *models.ComplianceReport) (*Issue, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/issues", c.BaseURL, c.Owner, c.Repo)

	title := fmt.Sprintf("EU AI Act compliance: %d critical gap(s) detected", r.CriticalGapsCount)
	payload := map[string]interface{}{
		"title":  title,
		"body":   issueBody(r),
		"labels": []string{"compliance", "ai-act"},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &issue, nil
}

func issueBody(r *models.ComplianceReport) string {
	var sb strings.Builder
	sb.WriteString(report.Markdown(r))
	sb.WriteString("\n---\n")
	sb.WriteString("Opened automatically because critical compliance gaps were detected. ")
	sb.WriteString("Close after the gaps above are addressed and a rescan passes.\n")
	return sb.String()
}
