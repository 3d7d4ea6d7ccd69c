package models

import "time"

// AIBOM is an SPDX-3.0-style AI Bill of Materials: the structured inventory
// of AI/ML components detected in a repository.
type AIBOM struct {
	SPDXVersion       string    `json:"spdx_version" yaml:"spdx_version"`
	DataLicense       string    `json:"data_license" yaml:"data_license"`
	SPDXID            string    `json:"spdx_id" yaml:"spdx_id"`
	Name              string    `json:"name" yaml:"name"`
	DocumentNamespace string    `json:"document_namespace" yaml:"document_namespace"`
	Created           time.Time `json:"created" yaml:"created"`
	Creator           string    `json:"creator" yaml:"creator"`

	Models       []BOMEntry `json:"models" yaml:"models"`
	Datasets     []BOMEntry `json:"datasets" yaml:"datasets"`
	Dependencies []BOMEntry `json:"dependencies" yaml:"dependencies"`
}

// BOMEntry is a single inventoried component with its detection provenance
type BOMEntry struct {
	Name       string  `json:"name" yaml:"name"`
	DetectedIn string  `json:"detected_in" yaml:"detected_in"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	GPAI       bool    `json:"gpai,omitempty" yaml:"gpai,omitempty"`
	Ecosystem  string  `json:"ecosystem,omitempty" yaml:"ecosystem,omitempty"`
}
