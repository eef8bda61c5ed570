package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/migration"
)

const DefaultPath = "~/.schemaforge/state.yaml"

// Status is the lifecycle status of a recorded migration.
type Status string

const (
	StatusGenerated  Status = "generated"
	StatusRolledBack Status = "rolled_back"
)

// State holds the history of generated migration scripts.
type State struct {
	LastUpdated time.Time `yaml:"last_updated"`
	Migrations  []Entry   `yaml:"migrations,omitempty"`
}

// Entry records one generated script and where it was written.
type Entry struct {
	ID          string              `yaml:"id"`
	Version     string              `yaml:"version"`
	Dialect     dialect.Name        `yaml:"dialect"`
	Description string              `yaml:"description,omitempty"`
	ScriptPath  string              `yaml:"script_path"`
	SQLPath     string              `yaml:"sql_path,omitempty"`
	RiskLevel   migration.RiskLevel `yaml:"risk_level"`
	DataLoss    bool                `yaml:"data_loss,omitempty"`
	Status      Status              `yaml:"status"`
	CreatedAt   time.Time           `yaml:"created_at"`
}

// Load reads the state from disk. A missing file yields a fresh state.
func Load(path string) (*State, error) {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("reading state: %w", err)
	}

	s := &State{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing state: %w", err)
	}
	return s, nil
}

// Save writes the state to disk.
func (s *State) Save(path string) error {
	if path == "" {
		path = config.ExpandHome(DefaultPath)
	}

	s.LastUpdated = time.Now()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// New creates an empty state.
func New() *State {
	return &State{LastUpdated: time.Now()}
}

// Record adds a generated script to the history. Recording the same
// script ID again replaces the earlier entry.
func (s *State) Record(sc *migration.Script, scriptPath, sqlPath string) Entry {
	e := Entry{
		ID:          sc.ID,
		Version:     sc.Version,
		Dialect:     sc.Dialect,
		Description: sc.Metadata.Description,
		ScriptPath:  scriptPath,
		SQLPath:     sqlPath,
		RiskLevel:   sc.Metadata.RiskLevel,
		DataLoss:    sc.Metadata.DataLoss,
		Status:      StatusGenerated,
		CreatedAt:   sc.Metadata.CreatedAt,
	}
	for i := range s.Migrations {
		if s.Migrations[i].ID == e.ID {
			s.Migrations[i] = e
			return e
		}
	}
	s.Migrations = append(s.Migrations, e)
	sort.SliceStable(s.Migrations, func(i, j int) bool {
		return s.Migrations[i].CreatedAt.Before(s.Migrations[j].CreatedAt)
	})
	return e
}

// Find returns the entry for a version and dialect, or nil. An empty
// dialect matches any.
func (s *State) Find(version string, d dialect.Name) *Entry {
	for i := len(s.Migrations) - 1; i >= 0; i-- {
		e := &s.Migrations[i]
		if e.Version == version && (d == "" || e.Dialect == d) {
			return e
		}
	}
	return nil
}

// MarkRolledBack flags the entry with the given script ID as rolled back.
// It reports whether the entry exists.
func (s *State) MarkRolledBack(id string) bool {
	for i := range s.Migrations {
		if s.Migrations[i].ID == id {
			s.Migrations[i].Status = StatusRolledBack
			return true
		}
	}
	return false
}

// Active returns the entries that have not been rolled back, oldest first.
func (s *State) Active() []Entry {
	var out []Entry
	for _, e := range s.Migrations {
		if e.Status != StatusRolledBack {
			out = append(out, e)
		}
	}
	return out
}

// LoadScripts reads the script files of the active entries. Entries whose
// file has been removed are reported in missing.
func (s *State) LoadScripts() ([]*migration.Script, []string, error) {
	var scripts []*migration.Script
	var missing []string
	for _, e := range s.Active() {
		sc, err := migration.LoadScript(e.ScriptPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				missing = append(missing, e.ScriptPath)
				continue
			}
			return nil, nil, err
		}
		scripts = append(scripts, sc)
	}
	return scripts, missing, nil
}
