// Package collector walks a repository tree and extracts candidate evidence
// items without judging them. Unreadable paths become warnings, never scan
// failures; symlinks that resolve outside the root are refused.
package collector

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/acheong08/aiactscan/pkg/models"
)

// DefaultMaxFileSize bounds how much of a single file the collector will read
const DefaultMaxFileSize = 10 * 1024 * 1024

// Directories that never contribute evidence
var alwaysSkippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// Manifest file names recognized as dependency manifests
var manifestNames = map[string]bool{
	"package.json":     true,
	"requirements.txt": true,
	"pyproject.toml":   true,
	"go.mod":           true,
	"pipfile":          true,
	"environment.yml":  true,
	"environment.yaml": true,
	"setup.py":         true,
}

// Extensions treated as text without sniffing content
var textExtensions = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".go": true, ".rs": true, ".java": true, ".rb": true, ".sh": true,
	".md": true, ".rst": true, ".txt": true, ".yml": true, ".yaml": true,
	".json": true, ".toml": true, ".cfg": true, ".ini": true, ".xml": true,
	".html": true, ".sql": true, ".proto": true,
}

// File is an evidence item paired with its content. Content is kept in memory
// so classification never re-reads the filesystem; it is dropped before the
// report is assembled.
type File struct {
	models.EvidenceItem
	Content []byte
}

// Result is the collector's output for one scan
type Result struct {
	Files    []File
	Warnings []models.CollectionWarning
}

// Items returns the evidence items without content, for the report
func (r *Result) Items() []models.EvidenceItem {
	items := make([]models.EvidenceItem, 0, len(r.Files))
	for _, f := range r.Files {
		items = append(items, f.EvidenceItem)
	}
	return items
}

// Collector walks a repository root and produces evidence items
type Collector struct {
	root        string
	excludes    []string
	maxFileSize int64
}

// New creates a collector for the given root. Exclusion patterns use
// path.Match syntax and are matched against the relative path and against
// each path segment, so "vendor" excludes any vendor directory at any depth.
// A malformed pattern is a caller contract violation and fails construction.
func New(root string, excludePatterns []string) (*Collector, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve repository root: %w", err)
	}
	// Resolve the root itself so the symlink containment check below compares
	// against the real path even when the root is reached through a symlink.
	// A nonexistent root is reported by Collect, not here.
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}

	for _, p := range excludePatterns {
		if _, err := path.Match(p, "probe"); err != nil {
			return nil, fmt.Errorf("malformed exclusion pattern %q: %w", p, err)
		}
	}

	return &Collector{
		root:        absRoot,
		excludes:    excludePatterns,
		maxFileSize: DefaultMaxFileSize,
	}, nil
}

// Collect walks the tree and returns every readable file as an evidence item.
// Membership is deterministic for a fixed tree; downstream stages must treat
// the sequence as a set.
func (c *Collector) Collect() (*Result, error) {
	info, err := os.Stat(c.root)
	if err != nil {
		return nil, fmt.Errorf("repository root not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root is not a directory: %s", c.root)
	}

	result := &Result{}

	walkErr := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			rel := c.relPath(p)
			result.Warnings = append(result.Warnings, models.CollectionWarning{
				Path:   rel,
				Reason: err.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := c.relPath(p)

		if d.IsDir() {
			if p == c.root {
				return nil
			}
			if alwaysSkippedDirs[d.Name()] || c.excluded(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if c.excluded(rel) {
			return nil
		}

		// Refuse symlinks that escape the root
		if d.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(p)
			if err != nil {
				result.Warnings = append(result.Warnings, models.CollectionWarning{
					Path:   rel,
					Reason: fmt.Sprintf("unresolvable symlink: %v", err),
				})
				return nil
			}
			if !strings.HasPrefix(target, c.root+string(filepath.Separator)) {
				result.Warnings = append(result.Warnings, models.CollectionWarning{
					Path:   rel,
					Reason: "symlink target outside repository root",
				})
				return nil
			}
			p = target
		}

		fi, err := os.Stat(p)
		if err != nil {
			result.Warnings = append(result.Warnings, models.CollectionWarning{
				Path:   rel,
				Reason: err.Error(),
			})
			return nil
		}
		if fi.Size() > c.maxFileSize {
			result.Warnings = append(result.Warnings, models.CollectionWarning{
				Path:   rel,
				Reason: fmt.Sprintf("file exceeds size limit (%d bytes)", fi.Size()),
			})
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			result.Warnings = append(result.Warnings, models.CollectionWarning{
				Path:   rel,
				Reason: err.Error(),
			})
			return nil
		}

		digest := sha256.Sum256(content)
		result.Files = append(result.Files, File{
			EvidenceItem: models.EvidenceItem{
				Path:          rel,
				Kind:          classifyKind(rel, content),
				ContentDigest: hex.EncodeToString(digest[:]),
				Size:          fi.Size(),
			},
			Content: content,
		})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("repository walk failed: %w", walkErr)
	}

	return result, nil
}

func (c *Collector) relPath(p string) string {
	rel, err := filepath.Rel(c.root, p)
	if err != nil {
		return p
	}
	return filepath.ToSlash(rel)
}

func (c *Collector) excluded(rel string) bool {
	for _, pattern := range c.excludes {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		for _, segment := range strings.Split(rel, "/") {
			if ok, _ := path.Match(pattern, segment); ok {
				return true
			}
		}
	}
	return false
}

// classifyKind assigns the evidence kind from the file name, falling back to
// a binary sniff for unknown extensions
func classifyKind(rel string, content []byte) models.EvidenceKind {
	name := strings.ToLower(path.Base(rel))
	if manifestNames[name] {
		return models.EvidenceManifest
	}
	if textExtensions[strings.ToLower(path.Ext(name))] {
		return models.EvidenceText
	}
	if looksBinary(content) {
		return models.EvidenceRaw
	}
	return models.EvidenceText
}

// looksBinary checks for NUL bytes in the first 512 bytes, the same cheap
// heuristic git uses
func looksBinary(content []byte) bool {
	n := len(content)
	if n > 512 {
		n = 512
	}
	return bytes.IndexByte(content[:n], 0) != -1
}
