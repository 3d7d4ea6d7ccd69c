package server

import (
	"context"
	"fmt"
	"log"

	"github.com/acheong08/aiactscan/internal/advisor"
	"github.com/acheong08/aiactscan/internal/history"
	"github.com/acheong08/aiactscan/internal/publish"
	"github.com/acheong08/aiactscan/internal/scan"
	"github.com/acheong08/aiactscan/pkg/models"
)

// ProgressSender interface for sending progress updates
type ProgressSender interface {
	SendMessage(msg Message)
	SendLog(message, level string)
	SendProgress(stage, message string)
	SendError(message string, err error)
}

// Pipeline wraps the CLI scan logic for WebSocket use
type Pipeline struct {
	// Requirement table override, empty for the built-in table
	requirementsPath string

	// Report registry settings — publishing skipped when token is empty
	registryURL   string
	registryToken string

	// Scan history database path, empty disables history
	historyPath string

	// API key for AI remediation advice
	apiKey string

	// Progress sender
	sender ProgressSender
}

// NewPipeline creates a new pipeline instance
func NewPipeline(requirementsPath, registryURL, registryToken, historyPath, apiKey string, sender ProgressSender) *Pipeline {
	return &Pipeline{
		requirementsPath: requirementsPath,
		registryURL:      registryURL,
		registryToken:    registryToken,
		historyPath:      historyPath,
		apiKey:           apiKey,
		sender:           sender,
	}
}

// log sends a log message both to the WebSocket client and to the console
func (p *Pipeline) log(message, level string) {
	p.sender.SendLog(message, level)

	prefix := "[INFO]"
	switch level {
	case "success":
		prefix = "[SUCCESS]"
	case "warning":
		prefix = "[WARN]"
	case "error":
		prefix = "[ERROR]"
	}
	log.Printf("%s %s", prefix, message)
}

// Run executes the full scan pipeline
func (p *Pipeline) Run(ctx context.Context, payload *ScanPayload) error {
	p.log(fmt.Sprintf("Starting compliance scan of %s", payload.RepoPath), "info")

	scanner, err := scan.New(scan.Config{
		RepoRoot:            payload.RepoPath,
		ExcludePatterns:     payload.ExcludePatterns,
		ConfidenceFloor:     payload.ConfidenceFloor,
		ComplianceThreshold: payload.ComplianceThreshold,
		DeclaredIntendedUse: payload.DeclaredIntendedUse,
		RequirementsPath:    p.requirementsPath,
	})
	if err != nil {
		return fmt.Errorf("failed to configure scan: %w", err)
	}

	scanner.SetProgressCallback(func(stage, message string) {
		p.sender.SendProgress(stage, message)
	})

	report, err := scanner.Run(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	p.sender.SendMessage(NewComponentsMessage(report.Components))
	p.sender.SendMessage(NewReportMessage(report))

	verdict := "NOT COMPLIANT"
	level := "warning"
	if report.Compliant {
		verdict = "COMPLIANT"
		level = "success"
	}
	p.log(fmt.Sprintf("%s: score %.1f, risk level %s, %d critical gap(s)",
		verdict, report.ComplianceScore, report.RiskLevel, report.CriticalGapsCount), level)

	p.recordHistory(report, payload.RepoPath)
	p.publishReport(ctx, report)

	if payload.Advise {
		p.sendAdvice(ctx, report)
	}

	return nil
}

// recordHistory saves the report and logs the diff against the previous scan.
// History problems never fail the scan.
func (p *Pipeline) recordHistory(report *models.ComplianceReport, repoPath string) {
	if p.historyPath == "" {
		return
	}

	store, err := history.Open(p.historyPath)
	if err != nil {
		p.log(fmt.Sprintf("History unavailable: %v", err), "warning")
		return
	}
	defer store.Close()

	previous, err := store.Latest(repoPath)
	if err != nil {
		p.log(fmt.Sprintf("Failed to load previous scan: %v", err), "warning")
	}

	if err := store.Save(report); err != nil {
		p.log(fmt.Sprintf("Failed to save scan: %v", err), "warning")
		return
	}

	if previous != nil && previous.ScanID != report.ScanID {
		diff := history.Compare(previous, report)
		p.log(fmt.Sprintf("Since last scan: score %+.1f, %d gap(s) resolved, %d introduced",
			diff.ScoreDelta, len(diff.ResolvedGaps), len(diff.IntroducedGaps)), "info")
	}
}

// publishReport uploads the report to the registry when one is configured
func (p *Pipeline) publishReport(ctx context.Context, report *models.ComplianceReport) {
	if p.registryToken == "" {
		return
	}

	publisher := publish.NewPublisher(p.registryURL, p.registryToken)
	publisher.SetLogCallback(func(message, level string) {
		p.sender.SendLog(message, level)
	})
	if err := publisher.Publish(ctx, report); err != nil {
		p.log(fmt.Sprintf("Failed to publish report: %v", err), "warning")
	}
}

// sendAdvice requests AI remediation advice and forwards it to the client
func (p *Pipeline) sendAdvice(ctx context.Context, report *models.ComplianceReport) {
	if p.apiKey == "" {
		p.log("Advice requested but no API key is configured", "warning")
		return
	}

	adv, err := advisor.NewAdvisor(p.apiKey, "", "", 1)
	if err != nil {
		p.log(fmt.Sprintf("Failed to create advisor: %v", err), "warning")
		return
	}

	advice, err := adv.Advise(ctx, report)
	if err != nil {
		p.log(fmt.Sprintf("Failed to get remediation advice: %v", err), "warning")
		return
	}

	p.sender.SendMessage(NewAdviceMessage(advice))
	p.log(fmt.Sprintf("Received %d remediation proposal(s)", len(advice.Remediations)), "success")
}
