package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a model from a YAML file and checks its structure.
func LoadYAML(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes a model from YAML bytes and checks its structure.
func ParseYAML(data []byte) (*Model, error) {
	m := &Model{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteYAML writes the model to a YAML file at the given path.
func (m *Model) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ToYAML returns the model as a YAML byte slice.
func (m *Model) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// Summary returns a human-readable summary of the model.
func (m *Model) Summary() string {
	var fields, refs, indexes int
	for _, t := range m.Tables {
		fields += len(t.Fields)
		refs += len(t.ForeignKeyFields())
		indexes += len(t.Indexes)
	}

	name := m.Name
	if name == "" {
		name = "(unnamed)"
	}
	version := m.Version
	if version == "" {
		version = "-"
	}

	return fmt.Sprintf(
		"Model %s (version %s): %d tables, %d fields, %d references, %d indexes, %d relationships",
		name, version, len(m.Tables), fields, refs, indexes, len(m.Relationships),
	)
}
