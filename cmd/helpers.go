package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reloquent/schemaforge/internal/schema"
)

func loadModel(path string) (*schema.Model, error) {
	m, err := schema.LoadYAML(path)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}
	logger.Debug("model loaded", "path", path, "tables", len(m.Tables))
	return m, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
