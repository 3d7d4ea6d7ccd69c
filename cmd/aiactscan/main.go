package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/acheong08/aiactscan/internal/advisor"
	"github.com/acheong08/aiactscan/internal/bom"
	"github.com/acheong08/aiactscan/internal/history"
	"github.com/acheong08/aiactscan/internal/publish"
	"github.com/acheong08/aiactscan/internal/report"
	"github.com/acheong08/aiactscan/internal/rules"
	"github.com/acheong08/aiactscan/internal/scan"
	"github.com/acheong08/aiactscan/internal/workflow"
	"github.com/acheong08/aiactscan/pkg/models"
)

func main() {
	// Check for subcommands
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]

	switch subcommand {
	case "scan":
		runScanCommand(os.Args[2:])
	case "requirements":
		runRequirementsCommand(os.Args[2:])
	case "history":
		runHistoryCommand(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("aiactscan - EU AI Act repository compliance scanner")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  aiactscan scan [options]           Scan a repository for AI Act compliance")
	fmt.Println("  aiactscan requirements [options]   List the requirement table")
	fmt.Println("  aiactscan history [options]        Show past scans of a repository")
	fmt.Println("")
	fmt.Println("Run 'aiactscan <command> --help' for more information on a command.")
}

func runScanCommand(args []string) {
	scanFlags := flag.NewFlagSet("scan", flag.ExitOnError)

	var (
		repoPath     = scanFlags.String("repo", ".", "Path to the repository to scan")
		declaredUse  = scanFlags.String("declared-use", "", "Self-declared intended use of the system")
		excludes     = scanFlags.String("exclude", "", "Comma-separated exclusion patterns")
		floor        = scanFlags.Float64("confidence-floor", 0, "Minimum detection confidence (default 0.2)")
		threshold    = scanFlags.Float64("threshold", 0, "Compliance score pass bar (default 70)")
		requirements = scanFlags.String("requirements", "", "Path to a YAML requirement table override")

		outputPath   = scanFlags.String("output", "", "Write the full report to this path")
		outputFormat = scanFlags.String("format", "json", "Report format: json or yaml")
		bomPath      = scanFlags.String("bom", "", "Write an AI Bill of Materials to this path")
		bomFormat    = scanFlags.String("bom-format", "json", "AI-BOM format: json or yaml")

		githubMode  = scanFlags.Bool("github", false, "Write GitHub Actions outputs and step summary")
		createIssue = scanFlags.Bool("create-issue", false, "Open a GitHub issue when critical gaps are found")
		failOnGaps  = scanFlags.Bool("fail-on-noncompliant", false, "Exit non-zero when the repository is not compliant")

		historyPath   = scanFlags.String("history", "", "SQLite history database path (enables scan diffing)")
		registryURL   = scanFlags.String("registry-url", "", "Report registry URL")
		registryToken = scanFlags.String("registry-token", "", "Report registry token (enables publishing)")

		advise = scanFlags.Bool("advise", false, "Request AI remediation advice for gaps")
	)

	scanFlags.Parse(args)

	// Pick up API tokens from .env when present
	_ = godotenv.Load()

	excludePatterns := splitPatterns(*excludes)

	scanner, err := scan.New(scan.Config{
		RepoRoot:            *repoPath,
		ExcludePatterns:     excludePatterns,
		ConfidenceFloor:     *floor,
		ComplianceThreshold: *threshold,
		DeclaredIntendedUse: *declaredUse,
		RequirementsPath:    *requirements,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	r, err := scanner.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	printSummary(r)

	if *outputPath != "" {
		if err := report.Save(r, *outputPath, *outputFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nReport saved to %s\n", *outputPath)
	}

	if *bomPath != "" {
		doc := bom.Generate(r, "")
		if err := bom.Save(doc, *bomPath, *bomFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("AI-BOM saved to %s\n", *bomPath)
	}

	if *historyPath != "" {
		recordHistory(*historyPath, *repoPath, r)
	}

	if *registryToken != "" {
		publisher := publish.NewPublisher(*registryURL, *registryToken)
		if err := publisher.Publish(ctx, r); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to publish report: %v\n", err)
		}
	}

	if *githubMode {
		if err := workflow.WriteOutputs(r); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if err := workflow.WriteStepSummary(r); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
		if *createIssue && r.CriticalGapsCount > 0 {
			openGapIssue(ctx, r)
		}
	}

	if *advise {
		printAdvice(ctx, r)
	}

	if *failOnGaps && !r.Compliant {
		os.Exit(1)
	}
}

// printSummary renders the scan result to the terminal
func printSummary(r *models.ComplianceReport) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Println("\nEU AI Act Compliance Report")
	fmt.Printf("Repository:    %s\n", r.RepositoryPath)
	fmt.Printf("Scan ID:       %s\n", r.ScanID)

	fmt.Printf("Risk level:    ")
	switch r.RiskLevel {
	case models.TierProhibited, models.TierHigh:
		red.Println(strings.ToUpper(string(r.RiskLevel)))
	case models.TierLimited, models.TierUnknown:
		yellow.Println(strings.ToUpper(string(r.RiskLevel)))
	default:
		green.Println(strings.ToUpper(string(r.RiskLevel)))
	}

	fmt.Printf("Score:         %.1f / 100\n", r.ComplianceScore)
	fmt.Printf("Status:        ")
	if r.Compliant {
		green.Println("COMPLIANT")
	} else {
		red.Println("NOT COMPLIANT")
	}
	if r.Partial {
		yellow.Println("Note: scan was cancelled before completion; this report is partial")
	}

	fmt.Printf("\nComponents:    %d detected\n", len(r.Components))
	for _, c := range r.Components {
		gpai := ""
		if c.GPAI {
			gpai = " [GPAI]"
		}
		fmt.Printf("  - %s (%.2f)%s in %s\n", c.ID, c.Confidence, gpai, c.EvidencePath)
	}

	gaps := r.Gaps()
	if len(gaps) > 0 {
		bold.Printf("\nGaps:          %d (%d critical)\n", len(gaps), r.CriticalGapsCount)
		for _, g := range gaps {
			line := fmt.Sprintf("  - %s %s: %s (%s)", g.ArticleID, g.Title, g.Status, g.Criticality)
			if g.Criticality == models.CriticalityCritical && g.Status == models.StatusNotSatisfied {
				red.Println(line)
			} else {
				yellow.Println(line)
			}
		}
	}

	for _, w := range r.Warnings {
		yellow.Printf("Warning: %s: %s\n", w.Path, w.Reason)
	}
}

// recordHistory saves the scan and prints the diff against the previous one
func recordHistory(path, repoPath string, r *models.ComplianceReport) {
	store, err := history.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	previous, err := store.Latest(repoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := store.Save(r); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save scan: %v\n", err)
		return
	}

	if previous != nil && previous.ScanID != r.ScanID {
		diff := history.Compare(previous, r)
		fmt.Printf("\nSince last scan: score %+.1f\n", diff.ScoreDelta)
		for _, id := range diff.ResolvedGaps {
			color.Green("  resolved:   %s", id)
		}
		for _, id := range diff.IntroducedGaps {
			color.Red("  introduced: %s", id)
		}
	}
}

// openGapIssue creates a GitHub issue from workflow environment settings
func openGapIssue(ctx context.Context, r *models.ComplianceReport) {
	token := os.Getenv("GITHUB_TOKEN")
	repo := os.Getenv("GITHUB_REPOSITORY") // owner/name
	if token == "" || repo == "" {
		fmt.Fprintln(os.Stderr, "Warning: GITHUB_TOKEN and GITHUB_REPOSITORY are required to create issues")
		return
	}
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 {
		fmt.Fprintf(os.Stderr, "Warning: malformed GITHUB_REPOSITORY: %s\n", repo)
		return
	}

	client := workflow.NewIssueClient(token, parts[0], parts[1])
	issue, err := client.CreateGapIssue(ctx, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create issue: %v\n", err)
		return
	}
	fmt.Printf("Opened issue #%d: %s\n", issue.Number, issue.HTMLURL)
}

// printAdvice requests and renders AI remediation advice
func printAdvice(ctx context.Context, r *models.ComplianceReport) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	adv, err := advisor.NewAdvisor(apiKey, os.Getenv("OPENAI_BASE_URL"), os.Getenv("OPENAI_MODEL"), 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}

	advice, err := adv.Advise(ctx, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to get advice: %v\n", err)
		return
	}
	if len(advice.Remediations) == 0 {
		fmt.Println("\nNo remediations proposed.")
		return
	}

	bold := color.New(color.Bold)
	bold.Println("\nRemediation plan")
	for _, rem := range advice.Remediations {
		fmt.Printf("\n%s: %s\n", rem.ArticleID, rem.Summary)
		for _, step := range rem.Steps {
			fmt.Printf("  - %s\n", step)
		}
		if rem.Justification != "" {
			fmt.Printf("  Why: %s\n", rem.Justification)
		}
	}
}

func runRequirementsCommand(args []string) {
	reqFlags := flag.NewFlagSet("requirements", flag.ExitOnError)
	tablePath := reqFlags.String("requirements", "", "Path to a YAML requirement table override")
	reqFlags.Parse(args)

	table := rules.DefaultTable()
	if *tablePath != "" {
		loaded, err := rules.LoadTable(*tablePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		table = loaded
	}

	bold := color.New(color.Bold)
	bold.Printf("%d requirements\n\n", len(table))
	for _, req := range table {
		tiers := make([]string, len(req.AppliesTo))
		for i, t := range req.AppliesTo {
			tiers[i] = string(t)
		}
		fmt.Printf("%-6s %-55s %-12s tiers: %s\n", req.ArticleID, req.Title, req.Criticality, strings.Join(tiers, ", "))
	}
}

func runHistoryCommand(args []string) {
	histFlags := flag.NewFlagSet("history", flag.ExitOnError)
	var (
		historyPath = histFlags.String("history", "aiactscan-history.db", "SQLite history database path")
		repoPath    = histFlags.String("repo", ".", "Repository path to list scans for")
		limit       = histFlags.Int("limit", 10, "Maximum number of scans to show")
	)
	histFlags.Parse(args)

	store, err := history.Open(*historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.List(*repoPath, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Println("No scans recorded for this repository.")
		return
	}

	for _, rec := range records {
		status := color.RedString("NOT COMPLIANT")
		if rec.Compliant {
			status = color.GreenString("COMPLIANT")
		}
		fmt.Printf("%s  %-9s score %5.1f  %d critical gap(s)  %s\n",
			rec.ScanTimestamp.Format("2006-01-02 15:04"), rec.RiskLevel,
			rec.ComplianceScore, rec.CriticalGapsCount, status)
	}
}

func splitPatterns(s string) []string {
	if s == "" {
		return nil
	}
	var patterns []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}
