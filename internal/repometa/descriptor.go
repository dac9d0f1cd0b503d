package repometa

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Descriptor is the repository description handed over by the crawler
// collaborator (or derived from a clone by the git source).
type Descriptor struct {
	SourceURL   string      `yaml:"source_url" json:"source_url"`
	Name        string      `yaml:"name,omitempty" json:"name,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Readme      string      `yaml:"readme,omitempty" json:"readme,omitempty"`
	Languages   []string    `yaml:"languages,omitempty" json:"languages,omitempty"`
	Frameworks  []string    `yaml:"frameworks,omitempty" json:"frameworks,omitempty"`
	Databases   []string    `yaml:"databases,omitempty" json:"databases,omitempty"`
	DevOps      []string    `yaml:"devops,omitempty" json:"devops,omitempty"`
	Files       []string    `yaml:"files,omitempty" json:"files,omitempty"`
	Topics      []TopicHint `yaml:"topics,omitempty" json:"topics,omitempty"`
}

// TopicHint is a suggested documentation section. In YAML it can be a
// plain string or a mapping with title and subtopics.
type TopicHint struct {
	Title     string      `yaml:"title" json:"title"`
	Subtopics []TopicHint `yaml:"subtopics,omitempty" json:"subtopics,omitempty"`
}

// UnmarshalYAML accepts both `- Architecture` and `- {title: Architecture}`.
func (t *TopicHint) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		t.Title = value.Value
		t.Subtopics = nil
		return nil
	}
	type plain TopicHint
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = TopicHint(p)
	return nil
}

// LoadDescriptor reads a YAML or JSON descriptor file.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}
	return ParseDescriptor(data)
}

// ParseDescriptor decodes YAML (and therefore JSON) descriptor bytes.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("parse descriptor: %w", err)
	}
	d.SourceURL = strings.TrimSpace(d.SourceURL)
	return d, nil
}

// HasSignals reports whether the descriptor carries anything metadata can
// be derived from.
func (d Descriptor) HasSignals() bool {
	return strings.TrimSpace(d.Description) != "" ||
		strings.TrimSpace(d.Readme) != "" ||
		len(d.Languages)+len(d.Frameworks)+len(d.Databases)+len(d.DevOps)+len(d.Files) > 0
}

// Fingerprint hashes the descriptor in canonical form. Two descriptors with
// the same fingerprint describe the same repository snapshot.
func (d Descriptor) Fingerprint() string {
	canon := d
	for _, list := range []*[]string{&canon.Languages, &canon.Frameworks, &canon.Databases, &canon.DevOps, &canon.Files} {
		*list = slices.Clone(*list)
		slices.Sort(*list)
		*list = slices.Compact(*list)
	}
	data, _ := json.Marshal(canon)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
