package models

// EvidenceKind classifies how an evidence item should be interpreted downstream
type EvidenceKind string

const (
	EvidenceRaw      EvidenceKind = "raw"      // Binary or unrecognized content
	EvidenceManifest EvidenceKind = "manifest" // Dependency manifest (package.json, requirements.txt, ...)
	EvidenceText     EvidenceKind = "text"     // Source code, docs, config
)

// EvidenceItem is a single candidate artifact extracted from the repository tree.
// Immutable once collected; downstream stages treat the collected set as unordered.
type EvidenceItem struct {
	Path          string       `json:"path"`           // Relative to the repository root
	Kind          EvidenceKind `json:"kind"`           //
	ContentDigest string       `json:"content_digest"` // sha256 hex of file content
	Size          int64        `json:"size"`           // Bytes
}

// CollectionWarning records a path that could not be read during collection.
// The scan continues; the affected region simply contributes no evidence.
type CollectionWarning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
