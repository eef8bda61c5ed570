// Package correction applies policy-gated fixes for validation issues to a
// copy of a schema model.
package correction

import (
	"sort"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
	"github.com/reloquent/schemaforge/internal/validation"
)

// FixType classifies an applied fix.
type FixType string

const (
	FixRename            FixType = "rename"
	FixPromotePrimaryKey FixType = "promote_primary_key"
	FixAddPrimaryKey     FixType = "add_primary_key"
	FixChangeType        FixType = "change_type"
	FixTypeParameters    FixType = "type_parameters"
	FixAddIndex          FixType = "add_index"
	FixReorderFields     FixType = "reorder_fields"
	FixAddTimestamps     FixType = "add_timestamps"
)

// Fix describes one change made to the model.
type Fix struct {
	Type        FixType           `json:"type" yaml:"type"`
	RuleID      string            `json:"rule_id,omitempty" yaml:"rule_id,omitempty"`
	Target      validation.Target `json:"target" yaml:"target"`
	Description string            `json:"description" yaml:"description"`
	Impact      string            `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// Key identifies a fix across runs on the same input.
func (f Fix) Key() string {
	return string(f.Type) + "|" + f.Target.String() + "|" + f.Description
}

// Options selects which categories of fixes are applied.
type Options struct {
	Dialect          dialect.Name `yaml:"dialect,omitempty"`
	FixNaming        bool         `yaml:"fix_naming"`
	FixReservedWords bool         `yaml:"fix_reserved_words"`
	AddPrimaryKeys   bool         `yaml:"add_primary_keys"`
	FixTypes         bool         `yaml:"fix_types"`
	AddIndexes       bool         `yaml:"add_indexes"`
	ReorderFields    bool         `yaml:"reorder_fields"`
	AddTimestamps    bool         `yaml:"add_timestamps"`

	// Accept, when set, is asked before each fix is applied. A rejected fix
	// leaves its issue in RemainingIssues.
	Accept func(Fix) bool `yaml:"-"`
}

// DefaultOptions enables every category except audit timestamps.
func DefaultOptions() Options {
	return Options{
		Dialect:          dialect.MySQL,
		FixNaming:        true,
		FixReservedWords: true,
		AddPrimaryKeys:   true,
		FixTypes:         true,
		AddIndexes:       true,
		ReorderFields:    true,
	}
}

// Summary counts what happened to the input issues. Resolved issues were
// already satisfied by an earlier fix when their turn came.
type Summary struct {
	TotalIssues     int `json:"total_issues" yaml:"total_issues"`
	Fixed           int `json:"fixed" yaml:"fixed"`
	Resolved        int `json:"resolved" yaml:"resolved"`
	Remaining       int `json:"remaining" yaml:"remaining"`
	ErrorsRemaining int `json:"errors_remaining" yaml:"errors_remaining"`
}

// Result is the corrected model together with what was done to it.
type Result struct {
	Model           *schema.Model      `json:"model" yaml:"model"`
	AppliedFixes    []Fix              `json:"applied_fixes" yaml:"applied_fixes"`
	RemainingIssues []validation.Issue `json:"remaining_issues" yaml:"remaining_issues"`
	Summary         Summary            `json:"summary" yaml:"summary"`
}

type outcome int

const (
	outcomeRemaining outcome = iota
	outcomeResolved
	outcomePlanned
)

// step is a planned fix; apply performs it.
type step struct {
	fix   Fix
	apply func()
}

// Correct applies fixes for the given issues to a deep copy of m. Issues
// are handled most severe first, auto-fixable before the rest, and each
// yields at most one fix. Targets follow renames made by earlier fixes.
// Every issue ends up fixed, resolved or in RemainingIssues.
func Correct(m *schema.Model, issues []validation.Issue, opts Options) (*Result, error) {
	if err := m.Check(); err != nil {
		return nil, err
	}
	c := newCorrector(m.Clone(), opts)
	res := &Result{
		Model:           c.model,
		AppliedFixes:    []Fix{},
		RemainingIssues: []validation.Issue{},
	}

	ordered := append([]validation.Issue(nil), issues...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		return a.AutoFixable && !b.AutoFixable
	})

	for _, is := range ordered {
		st, out := c.plan(is)
		if out == outcomePlanned && !c.accepted(st.fix) {
			out = outcomeRemaining
		}
		switch out {
		case outcomePlanned:
			st.apply()
			res.AppliedFixes = append(res.AppliedFixes, st.fix)
			res.Summary.Fixed++
		case outcomeResolved:
			res.Summary.Resolved++
		default:
			res.RemainingIssues = append(res.RemainingIssues, is)
			if is.Severity == validation.SeverityError {
				res.Summary.ErrorsRemaining++
			}
		}
	}

	if opts.ReorderFields {
		res.AppliedFixes = append(res.AppliedFixes, c.reorderFields()...)
	}
	if opts.AddTimestamps {
		res.AppliedFixes = append(res.AppliedFixes, c.addTimestamps()...)
	}

	res.Summary.TotalIssues = len(issues)
	res.Summary.Remaining = len(res.RemainingIssues)
	return res, nil
}

func (c *corrector) accepted(f Fix) bool {
	return c.opts.Accept == nil || c.opts.Accept(f)
}

// plan routes an issue to its fix.
func (c *corrector) plan(is validation.Issue) (step, outcome) {
	if !is.AutoFixable {
		return step{}, outcomeRemaining
	}
	switch is.RuleID {
	case validation.RuleNamingConvention:
		if c.opts.FixNaming {
			return c.planRename(is, false)
		}
	case validation.RuleReservedWord:
		if c.opts.FixReservedWords {
			return c.planRename(is, true)
		}
	case validation.RulePrimaryKeyRequired:
		if c.opts.AddPrimaryKeys {
			return c.planPrimaryKey(is)
		}
	case validation.RuleInvalidType:
		if c.opts.FixTypes {
			return c.planTypeChange(is)
		}
	case validation.RuleTypeParameters:
		if c.opts.FixTypes {
			return c.planTypeParameters(is)
		}
	case validation.RuleOversizedVarchar:
		if c.opts.FixTypes {
			return c.planDemoteVarchar(is)
		}
	case validation.RuleMissingIndex:
		if c.opts.AddIndexes {
			return c.planIndex(is)
		}
	}
	return step{}, outcomeRemaining
}
