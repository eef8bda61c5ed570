package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/migration"
	"github.com/reloquent/schemaforge/internal/schema"
)

func script(t *testing.T, version string, created time.Time) *migration.Script {
	t.Helper()
	m := &schema.Model{Name: "app", Tables: []schema.Table{{
		Name:   "users",
		Fields: []schema.Field{{Name: "id", Type: schema.TypeInt, PrimaryKey: true, AutoIncrement: true}},
	}}}
	opts := migration.DefaultOptions()
	opts.Version = version
	s, err := migration.GenerateCreate(m, dialect.PostgreSQL, opts)
	if err != nil {
		t.Fatalf("GenerateCreate: %v", err)
	}
	s.Metadata.CreatedAt = created
	return s
}

func TestLoadMissingFileReturnsNew(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "state.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Migrations) != 0 {
		t.Errorf("expected empty history, got %d entries", len(s.Migrations))
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	os.WriteFile(path, []byte("migrations: [unclosed"), 0o644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := New()
	s.Record(script(t, "001", base), "migrations/001_postgresql.yaml", "migrations/001_postgresql.sql")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Migrations) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(loaded.Migrations))
	}
	e := loaded.Migrations[0]
	if e.Version != "001" || e.Dialect != dialect.PostgreSQL || e.Status != StatusGenerated {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.SQLPath != "migrations/001_postgresql.sql" || !e.CreatedAt.Equal(base) {
		t.Errorf("unexpected entry: %+v", e)
	}
	if loaded.LastUpdated.IsZero() {
		t.Error("expected last_updated to be set")
	}
}

func TestRecordOrdersByCreationAndReplacesByID(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := script(t, "002", base.Add(time.Hour))
	earlier := script(t, "001", base)

	s := New()
	s.Record(later, "b.yaml", "")
	s.Record(earlier, "a.yaml", "")
	if s.Migrations[0].Version != "001" || s.Migrations[1].Version != "002" {
		t.Errorf("expected creation order, got %s, %s", s.Migrations[0].Version, s.Migrations[1].Version)
	}

	s.Record(later, "b2.yaml", "")
	if len(s.Migrations) != 2 {
		t.Fatalf("expected re-recording to replace, got %d entries", len(s.Migrations))
	}
	if e := s.Find("002", ""); e == nil || e.ScriptPath != "b2.yaml" {
		t.Errorf("expected replaced entry, got %+v", e)
	}
}

func TestFind(t *testing.T) {
	s := New()
	s.Record(script(t, "001", time.Now()), "a.yaml", "")

	if s.Find("001", dialect.PostgreSQL) == nil {
		t.Error("expected entry for postgresql")
	}
	if s.Find("001", dialect.MySQL) != nil {
		t.Error("expected no entry for mysql")
	}
	if s.Find("999", "") != nil {
		t.Error("expected no entry for unknown version")
	}
}

func TestMarkRolledBack(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := script(t, "001", base)
	second := script(t, "002", base.Add(time.Minute))

	s := New()
	s.Record(first, "a.yaml", "")
	s.Record(second, "b.yaml", "")

	if !s.MarkRolledBack(second.ID) {
		t.Fatal("expected entry to be found")
	}
	if s.MarkRolledBack("missing") {
		t.Error("expected unknown id to report false")
	}
	active := s.Active()
	if len(active) != 1 || active[0].Version != "001" {
		t.Errorf("expected only 001 active, got %+v", active)
	}
}

func TestLoadScripts(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := script(t, "001", base)
	second := script(t, "002", base.Add(time.Minute))

	firstPath := filepath.Join(dir, first.FileName()+".yaml")
	if err := first.WriteScript(firstPath); err != nil {
		t.Fatalf("WriteScript: %v", err)
	}

	s := New()
	s.Record(first, firstPath, "")
	s.Record(second, filepath.Join(dir, "gone.yaml"), "")

	scripts, missing, err := s.LoadScripts()
	if err != nil {
		t.Fatalf("LoadScripts: %v", err)
	}
	if len(scripts) != 1 || scripts[0].ID != first.ID {
		t.Errorf("expected the written script, got %d scripts", len(scripts))
	}
	if len(missing) != 1 || filepath.Base(missing[0]) != "gone.yaml" {
		t.Errorf("expected gone.yaml reported missing, got %v", missing)
	}
}
