// Package bom assembles an SPDX-3.0-style AI Bill of Materials from the
// detected component set.
package bom

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/acheong08/aiactscan/pkg/models"
)

// DefaultCreator identifies this scanner in generated documents
const DefaultCreator = "aiactscan"

// Generate builds an AI-BOM from a finished scan report. The document
// namespace is derived from the scan ID so regenerating from the same report
// yields the same document identity.
func Generate(report *models.ComplianceReport, creator string) *models.AIBOM {
	if creator == "" {
		creator = DefaultCreator
	}

	name := filepath.Base(report.RepositoryPath)
	doc := &models.AIBOM{
		SPDXVersion:       "SPDX-3.0",
		DataLicense:       "CC0-1.0",
		SPDXID:            "SPDXRef-DOCUMENT",
		Name:              fmt.Sprintf("AI-BOM for %s", name),
		DocumentNamespace: fmt.Sprintf("https://spdx.org/spdxdocs/%s-%s", name, documentUUID(report.ScanID)),
		Created:           report.ScanTimestamp,
		Creator:           creator,
	}

	for _, c := range report.Components {
		entry := models.BOMEntry{
			Name:       c.Name,
			DetectedIn: c.EvidencePath,
			Confidence: c.Confidence,
			GPAI:       c.GPAI,
			Ecosystem:  c.Ecosystem,
		}
		switch c.Kind {
		case models.ArtifactModel:
			doc.Models = append(doc.Models, entry)
		case models.ArtifactDataset:
			doc.Datasets = append(doc.Datasets, entry)
		case models.ArtifactDependency:
			doc.Dependencies = append(doc.Dependencies, entry)
		}
	}
	return doc
}

func documentUUID(scanID string) string {
	if scanID != "" {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte("ai-bom:"+scanID)).String()
	}
	return uuid.NewString()
}

// Save writes the document as JSON or YAML
func Save(doc *models.AIBOM, path, format string) error {
	var data []byte
	var err error

	switch format {
	case "yaml":
		data, err = yaml.Marshal(doc)
	case "json", "":
		data, err = json.MarshalIndent(doc, "", "  ")
	default:
		return fmt.Errorf("unsupported AI-BOM format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal AI-BOM: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write AI-BOM: %w", err)
	}
	return nil
}
