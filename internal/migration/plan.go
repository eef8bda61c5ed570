package migration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reloquent/schemaforge/internal/dialect"
)

// Plan aggregates a sequence of scripts.
type Plan struct {
	Scripts            []*Script `json:"scripts" yaml:"scripts"`
	TotalOperations    int       `json:"total_operations" yaml:"total_operations"`
	EstimatedTime      int       `json:"estimated_time_seconds" yaml:"estimated_time_seconds"`
	RiskLevel          RiskLevel `json:"risk_level" yaml:"risk_level"`
	DataLossOperations int       `json:"data_loss_operations" yaml:"data_loss_operations"`
}

// GeneratePlan orders scripts by creation time and sums their operation
// counts and time estimates. The plan's risk is the worst script risk.
func GeneratePlan(scripts []*Script) *Plan {
	p := &Plan{RiskLevel: RiskLow}
	for _, s := range scripts {
		if s != nil {
			p.Scripts = append(p.Scripts, s)
		}
	}
	sort.SliceStable(p.Scripts, func(i, j int) bool {
		return p.Scripts[i].Metadata.CreatedAt.Before(p.Scripts[j].Metadata.CreatedAt)
	})

	for _, s := range p.Scripts {
		p.TotalOperations += len(s.Operations)
		p.EstimatedTime += s.Metadata.EstimatedTime
		p.DataLossOperations += s.DataLossOperations()
		if s.Metadata.RiskLevel.AtLeast(p.RiskLevel) {
			p.RiskLevel = s.Metadata.RiskLevel
		}
	}
	return p
}

// RollbackScript renders the script's down queries inside the dialect's
// transaction statements. The text is not executed; running it may not
// restore data removed by the migration.
func RollbackScript(s *Script, targetVersion string) string {
	d, _ := dialect.Resolve(s.Dialect)

	var b strings.Builder
	fmt.Fprintf(&b, "-- Rollback of migration %s to version %s\n", s.Version, targetVersion)
	fmt.Fprintf(&b, "-- Dialect: %s\n", d.DisplayName)
	fmt.Fprintf(&b, "-- Script ID: %s\n", s.ID)
	b.WriteString("-- Best-effort inverse: dropped tables and columns come back empty.\n\n")

	if d.Formats.Begin != "" {
		b.WriteString(d.Formats.Begin + "\n\n")
	}
	if len(s.DownQueries) == 0 {
		b.WriteString("-- No down queries were recorded for this migration.\n\n")
	}
	for _, q := range s.DownQueries {
		b.WriteString(q + "\n\n")
	}
	if d.Formats.Commit != "" {
		b.WriteString(d.Formats.Commit + "\n")
	}
	return b.String()
}
