// Package migration turns schema models and schema diffs into versioned
// migration scripts with forward and best-effort inverse SQL.
package migration

import (
	"time"

	"github.com/google/uuid"

	"github.com/reloquent/schemaforge/internal/ddl"
	"github.com/reloquent/schemaforge/internal/dialect"
)

// OperationType classifies one migration step.
type OperationType string

const (
	OpCreateTable    OperationType = "CREATE_TABLE"
	OpDropTable      OperationType = "DROP_TABLE"
	OpAddColumn      OperationType = "ADD_COLUMN"
	OpDropColumn     OperationType = "DROP_COLUMN"
	OpModifyColumn   OperationType = "MODIFY_COLUMN"
	OpAddIndex       OperationType = "ADD_INDEX"
	OpDropIndex      OperationType = "DROP_INDEX"
	OpAddConstraint  OperationType = "ADD_CONSTRAINT"
	OpDropConstraint OperationType = "DROP_CONSTRAINT"
)

// riskWeights scores each operation type; destructive types weigh most.
var riskWeights = map[OperationType]int{
	OpDropTable:      10,
	OpDropColumn:     7,
	OpModifyColumn:   5,
	OpDropConstraint: 3,
	OpAddColumn:      2,
	OpAddConstraint:  2,
	OpCreateTable:    1,
	OpAddIndex:       1,
	OpDropIndex:      1,
}

// estimatedSeconds is an illustrative per-operation duration, not a
// measurement.
var estimatedSeconds = map[OperationType]int{
	OpCreateTable:    2,
	OpDropTable:      1,
	OpAddColumn:      3,
	OpDropColumn:     3,
	OpModifyColumn:   5,
	OpAddIndex:       4,
	OpDropIndex:      1,
	OpAddConstraint:  2,
	OpDropConstraint: 1,
}

// RiskLevel is the coarse risk classification of a script.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

const (
	mediumRiskScore = 10
	highRiskScore   = 25
)

func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r is as severe as other.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return r.rank() >= other.rank()
}

// RiskFor maps a summed risk score to a level.
func RiskFor(score int) RiskLevel {
	switch {
	case score >= highRiskScore:
		return RiskHigh
	case score >= mediumRiskScore:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Operation is one step of a migration with its forward and inverse SQL.
type Operation struct {
	Type        OperationType `json:"type" yaml:"type"`
	Table       string        `json:"table" yaml:"table"`
	Name        string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description string        `json:"description" yaml:"description"`
	Up          []string      `json:"up" yaml:"up"`
	Down        []string      `json:"down,omitempty" yaml:"down,omitempty"`
}

// Metadata summarizes a script.
type Metadata struct {
	Description   string            `json:"description" yaml:"description"`
	EstimatedTime int               `json:"estimated_time_seconds" yaml:"estimated_time_seconds"`
	RiskScore     int               `json:"risk_score" yaml:"risk_score"`
	RiskLevel     RiskLevel         `json:"risk_level" yaml:"risk_level"`
	DataLoss      bool              `json:"data_loss" yaml:"data_loss"`
	CreatedAt     time.Time         `json:"created_at" yaml:"created_at"`
	Warnings      []dialect.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Script is a versioned migration for one dialect.
type Script struct {
	ID          string       `json:"id" yaml:"id"`
	Version     string       `json:"version" yaml:"version"`
	Dialect     dialect.Name `json:"dialect" yaml:"dialect"`
	Operations  []Operation  `json:"operations" yaml:"operations"`
	UpQueries   []string     `json:"up_queries" yaml:"up_queries"`
	DownQueries []string     `json:"down_queries,omitempty" yaml:"down_queries,omitempty"`
	Metadata    Metadata     `json:"metadata" yaml:"metadata"`
}

// Options controls script generation.
type Options struct {
	DDL         ddl.Options
	Version     string
	Description string
	// SafeMode comments out DROP TABLE statements.
	SafeMode bool
	// GenerateDown builds the inverse queries.
	GenerateDown bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{DDL: ddl.DefaultOptions(), GenerateDown: true}
}

// IsDestructive reports whether the operation removes data.
func (o Operation) IsDestructive() bool {
	return o.Type == OpDropTable || o.Type == OpDropColumn
}

// newScript assembles a script from its operations and fills in the
// queries and heuristics.
func newScript(name dialect.Name, version string, ops []Operation, opts Options, warnings []dialect.Warning) *Script {
	if version == "" {
		version = time.Now().UTC().Format("20060102150405")
	}
	s := &Script{
		ID:         uuid.NewString(),
		Version:    version,
		Dialect:    name,
		Operations: ops,
		UpQueries:  []string{},
		Metadata: Metadata{
			Description: opts.Description,
			CreatedAt:   time.Now().UTC(),
			Warnings:    warnings,
		},
	}
	for _, op := range ops {
		s.UpQueries = append(s.UpQueries, op.Up...)
		s.Metadata.EstimatedTime += estimatedSeconds[op.Type]
		s.Metadata.RiskScore += riskWeights[op.Type]
		if op.IsDestructive() {
			s.Metadata.DataLoss = true
		}
	}
	if opts.GenerateDown {
		for i := len(ops) - 1; i >= 0; i-- {
			s.DownQueries = append(s.DownQueries, ops[i].Down...)
		}
	}
	s.Metadata.RiskLevel = RiskFor(s.Metadata.RiskScore)
	return s
}

// DataLossOperations counts the destructive operations of the script.
func (s *Script) DataLossOperations() int {
	n := 0
	for _, op := range s.Operations {
		if op.IsDestructive() {
			n++
		}
	}
	return n
}

// CountByType tallies operations per type.
func (s *Script) CountByType() map[OperationType]int {
	counts := make(map[OperationType]int)
	for _, op := range s.Operations {
		counts[op.Type]++
	}
	return counts
}
