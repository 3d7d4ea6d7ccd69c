package models

// ArtifactKind is the closed set of component categories the classifier emits
type ArtifactKind string

const (
	ArtifactModel         ArtifactKind = "model"
	ArtifactDataset       ArtifactKind = "dataset"
	ArtifactDependency    ArtifactKind = "dependency"
	ArtifactDocumentation ArtifactKind = "documentation"
	ArtifactLogging       ArtifactKind = "logging_mechanism"
	ArtifactOversight     ArtifactKind = "oversight_mechanism"
	ArtifactSecurity      ArtifactKind = "security_control"
)

// AllArtifactKinds lists every kind in a stable order, used for validation
// of requirement tables and for deterministic report output.
var AllArtifactKinds = []ArtifactKind{
	ArtifactModel,
	ArtifactDataset,
	ArtifactDependency,
	ArtifactDocumentation,
	ArtifactLogging,
	ArtifactOversight,
	ArtifactSecurity,
}

// ValidArtifactKind reports whether k is one of the closed set
func ValidArtifactKind(k ArtifactKind) bool {
	for _, known := range AllArtifactKinds {
		if k == known {
			return true
		}
	}
	return false
}

// DetectedComponent is a classified artifact with provenance back to the
// evidence item it was derived from. Many components may reference the same
// evidence item; evidence is shared read-only.
type DetectedComponent struct {
	ID           string       `json:"id"`   // "<kind>:<name>"
	Kind         ArtifactKind `json:"kind"` //
	Name         string       `json:"name"`
	EvidencePath string       `json:"source_evidence"`     // Path of the source EvidenceItem
	Confidence   float64      `json:"confidence"`          // [0,1]
	GPAI         bool         `json:"gpai,omitempty"`      // Known general-purpose AI model/provider
	Ecosystem    string       `json:"ecosystem,omitempty"` // For dependencies: npm, pip, go
}

// ComponentID builds the canonical component identifier
func ComponentID(kind ArtifactKind, name string) string {
	return string(kind) + ":" + name
}

// DomainSignal is an Annex III / prohibited-practice vocabulary hit found in
// evidence text during classification. Signals carry no tier judgment; the
// risk categorizer owns the mapping from keyword to category.
type DomainSignal struct {
	Keyword      string `json:"keyword"`
	EvidencePath string `json:"evidence_path"`
}

// ClassificationNote is an informational annotation produced when multiple
// recognizers matched the same evidence with the same kind. Not an error:
// the max-confidence rule resolved it.
type ClassificationNote struct {
	EvidencePath string       `json:"evidence_path"`
	Kind         ArtifactKind `json:"kind"`
	Detail       string       `json:"detail"`
}
