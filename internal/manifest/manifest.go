// Package manifest persists the generated structure next to the documents
// so later runs can detect drift and tools can navigate the set.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/adocs/internal/structure"
	"git.home.luguber.info/inful/adocs/internal/version"
)

// FileName is the manifest file in the output directory.
const FileName = "documentation_structure.json"

// SchemaVersion is the manifest layout version.
const SchemaVersion = 1

// StructureManifest records the tree of one run. It holds no timestamps,
// so an unchanged snapshot yields a byte-identical manifest.
type StructureManifest struct {
	SchemaVersion       int               `json:"schema_version"`
	Generator           string            `json:"generator"`
	SnapshotFingerprint string            `json:"snapshot_fingerprint"`
	StructureHash       string            `json:"structure_hash"`
	FilenameStyle       string            `json:"filename_style"`
	Root                string            `json:"root"`
	Nodes               []structure.Node  `json:"nodes"`
	Paths               map[string]string `json:"paths"`
	Excluded            []string          `json:"excluded,omitempty"`
}

// New builds the manifest for tree. paths maps slugs to document paths.
func New(tree *structure.Tree, paths map[string]string, style, snapshot string, excluded []string) *StructureManifest {
	return &StructureManifest{
		SchemaVersion:       SchemaVersion,
		Generator:           version.Generator,
		SnapshotFingerprint: snapshot,
		StructureHash:       tree.Hash(),
		FilenameStyle:       style,
		Root:                tree.Root(),
		Nodes:               tree.Nodes(),
		Paths:               paths,
		Excluded:            excluded,
	}
}

// Tree rebuilds the structure from the recorded nodes.
func (m *StructureManifest) Tree() *structure.Tree {
	return structure.FromRecords(m.Nodes)
}

// ToJSON serializes the manifest to JSON.
func (m *StructureManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*StructureManifest, error) {
	var m StructureManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("unsupported manifest schema %d", m.SchemaVersion)
	}
	return &m, nil
}

// Load reads the manifest in dir. A missing file returns (nil, nil).
func Load(dir string) (*StructureManifest, error) {
	// #nosec G304 -- dir is the configured output directory.
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return FromJSON(data)
}
