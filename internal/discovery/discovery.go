// Package discovery reads a schema model from the catalog of a live
// database. Only read-only catalog queries are issued.
package discovery

import (
	"context"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/schema"
	"github.com/reloquent/schemaforge/internal/typemap"
)

// Discoverer discovers the schema of a source database.
type Discoverer interface {
	// Connect establishes a connection to the source database.
	Connect(ctx context.Context) error

	// Discover extracts the schema model from the source database.
	Discover(ctx context.Context) (*Result, error)

	// Close closes the database connection.
	Close() error
}

// Result is a discovered model plus notes about catalog objects the model
// cannot represent.
type Result struct {
	Model    *schema.Model
	Warnings []string
}

// New creates a Discoverer for the given source configuration. A nil type
// map selects the defaults for the source type.
func New(cfg *config.SourceConfig, tm *typemap.TypeMap) (Discoverer, error) {
	if tm == nil {
		tm = typemap.ForDatabase(cfg.Type)
	}
	switch cfg.Type {
	case "postgresql":
		return NewPostgres(cfg, tm)
	case "oracle":
		return NewOracle(cfg, tm)
	default:
		return nil, &UnsupportedDBError{DBType: cfg.Type}
	}
}

// UnsupportedDBError is returned when the source DB type is not supported.
type UnsupportedDBError struct {
	DBType string
}

func (e *UnsupportedDBError) Error() string {
	return "unsupported database type: " + e.DBType
}
