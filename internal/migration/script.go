package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadScript reads a migration script from a YAML file.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading migration script: %w", err)
	}
	s := &Script{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing migration script %s: %w", path, err)
	}
	if s.Version == "" {
		return nil, fmt.Errorf("migration script %s has no version", path)
	}
	return s, nil
}

// WriteScript writes the script to a YAML file.
func (s *Script) WriteScript(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling migration script: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteSQL writes the rendered SQL file next to the YAML script.
func (s *Script) WriteSQL(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(path, []byte(s.SQL()), 0o644)
}

// FileName returns the base name used for the script's files.
func (s *Script) FileName() string {
	return fmt.Sprintf("%s_%s", sanitizeVersion(s.Version), s.Dialect)
}

func sanitizeVersion(v string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, v)
}

// SQL renders the script as an SQL file: a header, the up queries and, if
// present, the down queries commented out for reference.
func (s *Script) SQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Migration %s (%s)\n", s.Version, s.Dialect)
	fmt.Fprintf(&b, "-- ID: %s\n", s.ID)
	if s.Metadata.Description != "" {
		fmt.Fprintf(&b, "-- %s\n", s.Metadata.Description)
	}
	dataLoss := "no"
	if s.Metadata.DataLoss {
		dataLoss = "yes"
	}
	fmt.Fprintf(&b, "-- Risk: %s (score %d), data loss: %s, estimated time: %s\n",
		s.Metadata.RiskLevel, s.Metadata.RiskScore, dataLoss, time.Duration(s.Metadata.EstimatedTime)*time.Second)
	if !s.Metadata.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "-- Generated: %s\n", s.Metadata.CreatedAt.Format(time.RFC3339))
	}
	for _, w := range s.Metadata.Warnings {
		fmt.Fprintf(&b, "-- WARNING: %s\n", w)
	}

	b.WriteString("\n-- +up\n")
	for _, q := range s.UpQueries {
		b.WriteString(q + "\n\n")
	}
	if len(s.DownQueries) > 0 {
		b.WriteString("-- +down\n")
		for _, q := range s.DownQueries {
			for _, line := range strings.Split(q, "\n") {
				if strings.HasPrefix(line, "--") {
					b.WriteString(line + "\n")
				} else {
					b.WriteString("-- " + line + "\n")
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
