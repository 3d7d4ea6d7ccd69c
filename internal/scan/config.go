package scan

import (
	"errors"
	"fmt"
	"path"
)

// ErrConfig marks caller contract violations: the only error class that
// aborts a scan before a report is produced. Everything discovered inside the
// repository degrades verdicts instead of failing the run.
var ErrConfig = errors.New("configuration error")

// DefaultComplianceThreshold is the pass/fail bar when the caller supplies none
const DefaultComplianceThreshold = 70.0

// Config is the scan invocation input
type Config struct {
	RepoRoot            string   // Repository root path
	ExcludePatterns     []string // path.Match patterns to skip
	ConfidenceFloor     float64  // Detections below this are discarded (default 0.2)
	ComplianceThreshold float64  // 0-100 pass bar (default 70)
	DeclaredIntendedUse string   // Free-text self-declaration, optional
	RequirementsPath    string   // YAML requirement table override, optional
	Concurrency         int      // Classification workers, 0 = default
}

// Validate checks the caller contract. Defaults are applied in place.
func (c *Config) Validate() error {
	if c.RepoRoot == "" {
		return fmt.Errorf("%w: repository root is required", ErrConfig)
	}
	if c.ConfidenceFloor == 0 {
		c.ConfidenceFloor = 0.2
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		return fmt.Errorf("%w: confidence floor %v outside [0,1]", ErrConfig, c.ConfidenceFloor)
	}
	if c.ComplianceThreshold == 0 {
		c.ComplianceThreshold = DefaultComplianceThreshold
	}
	if c.ComplianceThreshold < 0 || c.ComplianceThreshold > 100 {
		return fmt.Errorf("%w: compliance threshold %v outside [0,100]", ErrConfig, c.ComplianceThreshold)
	}
	for _, p := range c.ExcludePatterns {
		if _, err := path.Match(p, "probe"); err != nil {
			return fmt.Errorf("%w: malformed exclusion pattern %q", ErrConfig, p)
		}
	}
	return nil
}
