package bom

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/aiactscan/pkg/models"
)

func sampleReport() *models.ComplianceReport {
	return &models.ComplianceReport{
		ScanID:         "0c7230c8-2e16-5a9c-9a6c-8d57f3c2a111",
		RepositoryPath: "/home/dev/biometric-gate",
		ScanTimestamp:  time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Components: []models.DetectedComponent{
			{ID: "model:weights.safetensors", Kind: models.ArtifactModel, Name: "weights.safetensors", EvidencePath: "weights.safetensors", Confidence: 0.95},
			{ID: "dataset:train.parquet", Kind: models.ArtifactDataset, Name: "train.parquet", EvidencePath: "data/train.parquet", Confidence: 1.0},
			{ID: "dependency:torch", Kind: models.ArtifactDependency, Name: "torch", EvidencePath: "requirements.txt", Confidence: 0.95, Ecosystem: "pip"},
			{ID: "documentation:model_card.md", Kind: models.ArtifactDocumentation, Name: "model_card.md", EvidencePath: "model_card.md", Confidence: 0.9},
		},
	}
}

func TestGenerate(t *testing.T) {
	doc := Generate(sampleReport(), "")

	assert.Equal(t, "SPDX-3.0", doc.SPDXVersion)
	assert.Equal(t, DefaultCreator, doc.Creator)
	assert.Equal(t, "AI-BOM for biometric-gate", doc.Name)

	require.Len(t, doc.Models, 1)
	require.Len(t, doc.Datasets, 1)
	require.Len(t, doc.Dependencies, 1)
	assert.Equal(t, "torch", doc.Dependencies[0].Name)
	assert.Equal(t, "pip", doc.Dependencies[0].Ecosystem)

	// Documentation components are not bill-of-materials entries
	total := len(doc.Models) + len(doc.Datasets) + len(doc.Dependencies)
	assert.Equal(t, 3, total)
}

func TestGenerateDeterministicNamespace(t *testing.T) {
	a := Generate(sampleReport(), "ci")
	b := Generate(sampleReport(), "ci")
	assert.Equal(t, a.DocumentNamespace, b.DocumentNamespace)
	assert.Equal(t, "ci", a.Creator)

	other := sampleReport()
	other.ScanID = "1111111-differs"
	c := Generate(other, "ci")
	assert.NotEqual(t, a.DocumentNamespace, c.DocumentNamespace)
}

func TestSave(t *testing.T) {
	doc := Generate(sampleReport(), "")
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "bom.json")
	require.NoError(t, Save(doc, jsonPath, "json"))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	require.NoError(t, Save(doc, filepath.Join(dir, "bom.yaml"), "yaml"))
	assert.Error(t, Save(doc, filepath.Join(dir, "bom.csv"), "csv"))
}
