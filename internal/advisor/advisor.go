package advisor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/openai"

	"github.com/acheong08/aiactscan/pkg/models"
)

const systemPrompt = `You are a compliance engineer specializing in the EU AI Act. Your task is to propose concrete remediation steps for compliance gaps found by an automated repository scan.

CONTEXT:
The scan detected AI/ML components in a repository, classified its risk tier, and evaluated the applicable AI Act requirements. You are given the gaps: requirements that are not satisfied or only partially satisfied by the evidence in the repository.

WHAT TO PRODUCE:
1. For each gap, a concrete artifact the team can add to the repository (e.g. a model card, a logging configuration, an oversight procedure document)
2. Prefer remediations that the scanner can later detect as evidence
3. Order remediations so critical requirements come first
4. Keep each step actionable by a developer without legal training

JUDGMENT CRITERIA:
- Do not invent obligations beyond the listed gaps
- Partially satisfied requirements need the missing evidence kinds, not a restart
- A prohibited-practice finding cannot be remediated by documentation; say so plainly

Provide a short justification with each remediation.`

// Remediation is the advisor's proposal for closing one gap
type Remediation struct {
	ArticleID     string   `json:"article_id"`
	Summary       string   `json:"summary"`
	Steps         []string `json:"steps"`
	Justification string   `json:"justification"`
}

// Advice is the full set of remediations returned by the advisor
type Advice struct {
	Remediations []Remediation `json:"remediations"`
}

// Advisor produces AI-generated remediation guidance for compliance gaps
type Advisor struct {
	model     fantasy.LanguageModel
	semaphore chan struct{} // Limits concurrent advice runs
}

// NewAdvisor creates an advisor with the specified concurrency limit
func NewAdvisor(apiKey, baseURL, modelName string, concurrencyLimit int) (*Advisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for remediation advice")
	}
	if modelName == "" {
		modelName = "gpt-5-mini"
	}

	opts := []openai.Option{openai.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	provider, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
	}

	ctx := context.Background()
	model, err := provider.LanguageModel(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create language model: %w", err)
	}

	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}
	return &Advisor{
		model:     model,
		semaphore: make(chan struct{}, concurrencyLimit),
	}, nil
}

// Advise proposes remediations for the report's gaps. A report with no gaps
// returns empty advice without calling the model.
func (a *Advisor) Advise(ctx context.Context, report *models.ComplianceReport) (*Advice, error) {
	gaps := report.Gaps()
	if len(gaps) == 0 {
		return &Advice{}, nil
	}

	select {
	case a.semaphore <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.semaphore }()

	log.Printf("Requesting remediation advice for %d gap(s)", len(gaps))

	advice := Advice{}
	var mu sync.Mutex
	submitTool := fantasy.NewAgentTool(
		"submit_remediations",
		"Submit your remediation plan for the compliance gaps", func(
			_ context.Context,
			input Advice,
			_ fantasy.ToolCall,
		) (fantasy.ToolResponse, error) {
			mu.Lock()
			advice = input
			mu.Unlock()
			return fantasy.ToolResponse{
				Content: "Plan received",
			}, nil
		})

	agent := fantasy.NewAgent(a.model, fantasy.WithSystemPrompt(systemPrompt), fantasy.WithTools(submitTool))
	result, err := agent.Generate(ctx, fantasy.AgentCall{
		Prompt: formatAdvicePrompt(report, gaps),
	})
	if err != nil {
		return nil, fmt.Errorf("agent generation failed: %w", err)
	}

	log.Printf("Advisor response:\n%s", result.Response.Content.Text())

	sortRemediations(advice.Remediations, report.Verdicts)

	return &advice, nil
}

// sortRemediations orders critical gaps first, then by article for stable output
func sortRemediations(remediations []Remediation, verdicts []models.RequirementVerdict) {
	weight := make(map[string]float64, len(verdicts))
	for _, v := range verdicts {
		weight[v.ArticleID] = v.Criticality.Weight()
	}
	sort.SliceStable(remediations, func(i, j int) bool {
		wi, wj := weight[remediations[i].ArticleID], weight[remediations[j].ArticleID]
		if wi != wj {
			return wi > wj
		}
		return remediations[i].ArticleID < remediations[j].ArticleID
	})
}

// formatAdvicePrompt renders the scan context and gaps for the model
func formatAdvicePrompt(report *models.ComplianceReport, gaps []models.RequirementVerdict) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Repository: %s\n", report.RepositoryPath))
	sb.WriteString(fmt.Sprintf("Risk tier: %s\n", report.RiskLevel))
	sb.WriteString(fmt.Sprintf("Compliance score: %.1f/100\n\n", report.ComplianceScore))

	sb.WriteString("DETECTED COMPONENTS:\n")
	if len(report.Components) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, c := range report.Components {
		sb.WriteString(fmt.Sprintf("  - %s (%s, confidence %.2f) in %s\n", c.Name, c.Kind, c.Confidence, c.EvidencePath))
	}

	sb.WriteString("\nCOMPLIANCE GAPS:\n")
	for _, g := range gaps {
		sb.WriteString(fmt.Sprintf("\n=== %s: %s ===\n", g.ArticleID, g.Title))
		sb.WriteString(fmt.Sprintf("Status: %s, criticality: %s\n", g.Status, g.Criticality))
		if g.Explanation != "" {
			sb.WriteString(fmt.Sprintf("Finding: %s\n", g.Explanation))
		}
		if len(g.SupportingEvidence) > 0 {
			sb.WriteString(fmt.Sprintf("Partial evidence: %s\n", strings.Join(g.SupportingEvidence, ", ")))
		}
	}

	sb.WriteString("\n\nUse the submit_remediations tool to provide your remediation plan.")

	return sb.String()
}
