// Package report renders a finished compliance report to its external
// output formats: stable-schema JSON, YAML, and a markdown summary for CI
// step summaries and issues.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acheong08/aiactscan/pkg/models"
)

// MarshalJSON renders the report with the stable top-level schema
func MarshalJSON(r *models.ComplianceReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return data, nil
}

// Save writes the report as JSON or YAML
func Save(r *models.ComplianceReport, path, format string) error {
	var data []byte
	var err error

	switch format {
	case "yaml":
		data, err = yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
	case "json", "":
		data, err = MarshalJSON(r)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Markdown renders the report summary used for GitHub step summaries and
// gap-tracking issues
func Markdown(r *models.ComplianceReport) string {
	var sb strings.Builder

	sb.WriteString("## EU AI Act Compliance Report\n\n")
	status := "❌ NOT COMPLIANT"
	if r.Compliant {
		status = "✅ COMPLIANT"
	}
	fmt.Fprintf(&sb, "- **Status:** %s\n", status)
	fmt.Fprintf(&sb, "- **Compliance score:** %.1f / 100\n", r.ComplianceScore)
	fmt.Fprintf(&sb, "- **Risk level:** %s\n", strings.ToUpper(string(r.RiskLevel)))
	fmt.Fprintf(&sb, "- **Critical gaps:** %d\n", r.CriticalGapsCount)
	if r.UnknownCount > 0 {
		fmt.Fprintf(&sb, "- **Indeterminate verdicts:** %d\n", r.UnknownCount)
	}
	if r.Partial {
		sb.WriteString("- **Note:** scan was cancelled before completion; this report is partial\n")
	}

	if len(r.Risk.MatchedCategories) > 0 {
		sb.WriteString("\n### Risk classification\n\n")
		for _, entry := range r.Risk.Rationale {
			fmt.Fprintf(&sb, "- `%s`: matched %s\n", entry.Category, strings.Join(entry.Keywords, ", "))
		}
	}

	gaps := r.Gaps()
	if len(gaps) > 0 {
		sb.WriteString("\n### Compliance gaps\n\n")
		sb.WriteString("| Article | Requirement | Status | Criticality |\n")
		sb.WriteString("|---------|-------------|--------|-------------|\n")
		for _, g := range gaps {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", g.ArticleID, g.Title, g.Status, g.Criticality)
		}
	}

	sb.WriteString("\n### Detected components\n\n")
	if len(r.Components) == 0 {
		sb.WriteString("No AI/ML components detected.\n")
	} else {
		fmt.Fprintf(&sb, "%d component(s):\n\n", len(r.Components))
		for _, c := range r.Components {
			fmt.Fprintf(&sb, "- `%s` (%.2f) in `%s`\n", c.ID, c.Confidence, c.EvidencePath)
		}
	}

	return sb.String()
}
