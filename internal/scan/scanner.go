// Package scan drives the detection-to-determination pipeline: collect
// evidence, classify artifacts, categorize risk, evaluate requirements,
// score. Each stage consumes an immutable snapshot from its predecessor;
// stages 3-5 run only after classification has fully drained.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/acheong08/aiactscan/internal/classifier"
	"github.com/acheong08/aiactscan/internal/collector"
	"github.com/acheong08/aiactscan/internal/risk"
	"github.com/acheong08/aiactscan/internal/rules"
	"github.com/acheong08/aiactscan/internal/scorer"
	"github.com/acheong08/aiactscan/pkg/models"
)

// ProgressCallback is an optional function for forwarding stage updates
// (e.g. to WebSocket).
type ProgressCallback func(stage, message string)

// Scanner runs compliance scans with a fixed requirement table
type Scanner struct {
	config   Config
	table    []models.Requirement
	now      func() time.Time
	progress ProgressCallback
}

// SetProgressCallback sets an optional callback for stage updates.
func (s *Scanner) SetProgressCallback(cb ProgressCallback) {
	s.progress = cb
}

// report a stage transition to the optional callback
func (s *Scanner) stage(stage, format string, args ...interface{}) {
	if s.progress != nil {
		s.progress(stage, fmt.Sprintf(format, args...))
	}
}

// New validates the configuration and loads the requirement table. This is
// the only point where a scan can fail before producing a report.
func New(config Config) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	table := rules.DefaultTable()
	if config.RequirementsPath != "" {
		loaded, err := rules.LoadTable(config.RequirementsPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		table = loaded
	}

	return &Scanner{config: config, table: table, now: time.Now}, nil
}

// Run executes one scan. A report is always produced unless the repository
// root itself is unusable; repository-content problems degrade verdicts
// instead of failing the run.
func (s *Scanner) Run(ctx context.Context) (*models.ComplianceReport, error) {
	log.Printf("Scanning %s", s.config.RepoRoot)
	s.stage("collect", "Collecting evidence from %s", s.config.RepoRoot)

	coll, err := collector.New(s.config.RepoRoot, s.config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	collected, err := coll.Collect()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	log.Printf("Collected %d evidence items (%d warnings)", len(collected.Files), len(collected.Warnings))
	s.stage("classify", "Classifying %d evidence items", len(collected.Files))

	cls := classifier.New(s.config.ConfidenceFloor, s.config.Concurrency, risk.Vocabulary())
	classified := cls.Classify(ctx, collected.Files)
	log.Printf("Detected %d components, %d domain signals", len(classified.Components), len(classified.Signals))
	s.stage("categorize", "Categorizing risk from %d components", len(classified.Components))

	tierKnown := !classified.Incomplete
	tier := models.TierUnknown
	var classification models.RiskClassification

	if tierKnown {
		// Categorize fails only on indeterminate declarations
		classification, err = risk.Categorize(classified.Components, classified.Signals, s.config.DeclaredIntendedUse)
		if errors.Is(err, risk.ErrIndeterminate) {
			tierKnown = false
		} else {
			tier = classification.Tier
		}
	}
	if !tierKnown {
		classification = models.RiskClassification{Tier: models.TierUnknown}
	}

	s.stage("evaluate", "Evaluating %d requirements at tier %s", len(s.table), tier)
	engine := rules.NewEngine(s.table, s.config.ConfidenceFloor)
	verdicts := engine.Evaluate(tier, tierKnown, classified.Components)

	s.stage("score", "Scoring %d verdicts", len(verdicts))
	summary := scorer.Score(verdicts, s.config.ComplianceThreshold)
	log.Printf("Score %.1f, compliant=%v, critical gaps=%d", summary.Score, summary.Compliant, summary.CriticalGapsCount)

	report := &models.ComplianceReport{
		ScanID:            s.scanID(collected),
		RepositoryPath:    s.config.RepoRoot,
		ScanTimestamp:     s.now().UTC(),
		ComplianceScore:   summary.Score,
		Compliant:         summary.Compliant,
		RiskLevel:         classification.Tier,
		Risk:              classification,
		Verdicts:          verdicts,
		CriticalGapsCount: summary.CriticalGapsCount,
		UnknownCount:      summary.UnknownCount,
		Components:        classified.Components,
		Evidence:          collected.Items(),
		Warnings:          collected.Warnings,
		Notes:             classified.Notes,
		Partial:           classified.Incomplete,
	}
	return report, nil
}

// scanID derives a deterministic UUID from the evidence set and the scan
// configuration, so identical inputs produce the identical report identity
func (s *Scanner) scanID(collected *collector.Result) string {
	var sb strings.Builder
	sb.WriteString(s.config.RepoRoot)
	sb.WriteString("|")
	sb.WriteString(s.config.DeclaredIntendedUse)
	fmt.Fprintf(&sb, "|%v|%v", s.config.ConfidenceFloor, s.config.ComplianceThreshold)
	for _, f := range collected.Files {
		sb.WriteString("|")
		sb.WriteString(f.Path)
		sb.WriteString(":")
		sb.WriteString(f.ContentDigest)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(sb.String())).String()
}
