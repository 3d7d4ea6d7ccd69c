package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/acheong08/aiactscan/pkg/models"
)

// tableFile is the on-disk shape of a requirement table override
type tableFile struct {
	Requirements []models.Requirement `yaml:"requirements"`
}

// LoadTable reads a requirement table from a YAML file, replacing the
// built-in defaults wholesale. A malformed table is a caller contract
// violation: the scan must not proceed on a half-understood rule set.
func LoadTable(path string) ([]models.Requirement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read requirement table: %w", err)
	}

	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse requirement table: %w", err)
	}
	if len(file.Requirements) == 0 {
		return nil, fmt.Errorf("requirement table %s contains no requirements", path)
	}

	if err := ValidateTable(file.Requirements); err != nil {
		return nil, fmt.Errorf("invalid requirement table %s: %w", path, err)
	}
	return file.Requirements, nil
}

// ValidateTable checks table invariants: unique article IDs, known artifact
// kinds, known criticalities and tiers
func ValidateTable(table []models.Requirement) error {
	seen := make(map[string]bool)
	for i, req := range table {
		if req.ArticleID == "" {
			return fmt.Errorf("row %d: missing article_id", i)
		}
		if seen[req.ArticleID] {
			return fmt.Errorf("duplicate article_id %q", req.ArticleID)
		}
		seen[req.ArticleID] = true

		if req.Criticality.Weight() == 0 {
			return fmt.Errorf("%s: unknown criticality %q", req.ArticleID, req.Criticality)
		}
		if len(req.AppliesTo) == 0 {
			return fmt.Errorf("%s: empty applies_to_tiers", req.ArticleID)
		}
		for _, tier := range req.AppliesTo {
			if tier.Rank() < 0 {
				return fmt.Errorf("%s: unknown risk tier %q", req.ArticleID, tier)
			}
		}
		for _, kind := range req.RequiredKinds {
			if !models.ValidArtifactKind(kind) {
				return fmt.Errorf("%s: unknown artifact kind %q", req.ArticleID, kind)
			}
		}
		switch req.Condition {
		case models.ConditionAlways, models.ConditionAIComponents, models.ConditionGPAI:
		default:
			return fmt.Errorf("%s: unknown condition %q", req.ArticleID, req.Condition)
		}
	}
	return nil
}
