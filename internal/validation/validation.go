// Package validation checks a schema model against structural, naming,
// type and integrity rules and scores the result.
package validation

import (
	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Rank orders severities, higher is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// penalty is the score deduction per issue.
func (s Severity) penalty() int {
	switch s {
	case SeverityError:
		return 10
	case SeverityWarning:
		return 3
	default:
		return 1
	}
}

// Target locates an issue. Field is empty for table-level issues and both
// are empty for model-level issues.
type Target struct {
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
	Field string `json:"field,omitempty" yaml:"field,omitempty"`
}

func (t Target) String() string {
	switch {
	case t.Table != "" && t.Field != "":
		return t.Table + "." + t.Field
	case t.Table != "":
		return t.Table
	default:
		return "model"
	}
}

// Issue is one finding of a rule.
type Issue struct {
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Message     string   `json:"message" yaml:"message"`
	Target      Target   `json:"target" yaml:"target"`
	Suggestion  string   `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	AutoFixable bool     `json:"auto_fixable" yaml:"auto_fixable"`
}

// CheckFunc inspects a model. It must not modify it.
type CheckFunc func(m *schema.Model, opts Options) []Issue

// Rule is a named check. Issues returned by Check inherit the rule's ID and
// severity.
type Rule struct {
	ID          string
	Description string
	Severity    Severity
	Check       CheckFunc
}

// Options configures a validation run.
type Options struct {
	Dialect          dialect.Name        `yaml:"dialect,omitempty"`
	MaxEnumValues    int                 `yaml:"max_enum_values,omitempty"`
	MaxVarcharLength int                 `yaml:"max_varchar_length,omitempty"`
	DisabledRules    []string            `yaml:"disabled_rules,omitempty"`
	SeverityOverride map[string]Severity `yaml:"severity_overrides,omitempty"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Dialect:          dialect.MySQL,
		MaxEnumValues:    20,
		MaxVarcharLength: 1000,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Dialect == "" {
		o.Dialect = def.Dialect
	}
	if o.MaxEnumValues <= 0 {
		o.MaxEnumValues = def.MaxEnumValues
	}
	if o.MaxVarcharLength <= 0 {
		o.MaxVarcharLength = def.MaxVarcharLength
	}
	return o
}

// dialect resolves the target dialect; unknown tags use ANSI SQL.
func (o Options) dialect() *dialect.Dialect {
	d, _ := dialect.Resolve(o.Dialect)
	return d
}

// Summary counts issues by severity.
type Summary struct {
	Errors   int `json:"errors" yaml:"errors"`
	Warnings int `json:"warnings" yaml:"warnings"`
	Infos    int `json:"infos" yaml:"infos"`
	Total    int `json:"total" yaml:"total"`
}

// Result is the outcome of a validation run.
type Result struct {
	IsValid     bool     `json:"is_valid" yaml:"is_valid"`
	Score       int      `json:"score" yaml:"score"`
	Dialect     string   `json:"dialect" yaml:"dialect"`
	Issues      []Issue  `json:"issues" yaml:"issues"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
	Summary     Summary  `json:"summary" yaml:"summary"`
}

// Validator runs the built-in rules followed by any custom rules.
type Validator struct {
	Options Options
	Rules   []Rule
	// Callback, when set, is called after each rule with its issue count.
	Callback func(ruleID string, issues int)
}

// New returns a validator with the built-in rules. A custom rule whose ID
// matches a built-in replaces it in place; others run after the built-ins.
func New(opts Options, custom ...Rule) *Validator {
	rules := BuiltinRules()
	for _, c := range custom {
		replaced := false
		for i := range rules {
			if rules[i].ID == c.ID {
				rules[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			rules = append(rules, c)
		}
	}
	return &Validator{Options: opts.withDefaults(), Rules: rules}
}

// Validate runs the default rule set with the given options.
func Validate(m *schema.Model, opts Options, custom ...Rule) *Result {
	return New(opts, custom...).Validate(m)
}

// Validate checks the model. The model is never modified. A model that
// fails its structural check is reported as a single model_structure error
// and the rules still run on whatever is present.
func (v *Validator) Validate(m *schema.Model) *Result {
	opts := v.Options.withDefaults()
	if m == nil {
		m = &schema.Model{}
	}

	disabled := make(map[string]bool, len(opts.DisabledRules))
	for _, id := range opts.DisabledRules {
		disabled[id] = true
	}

	var issues []Issue
	if err := m.Check(); err != nil && !disabled[RuleModelStructure] {
		issues = append(issues, Issue{
			RuleID:   RuleModelStructure,
			Severity: v.severity(RuleModelStructure, SeverityError),
			Message:  err.Error(),
		})
	}

	for _, r := range v.Rules {
		if disabled[r.ID] || r.Check == nil {
			continue
		}
		found := r.Check(m, opts)
		for i := range found {
			if found[i].RuleID == "" {
				found[i].RuleID = r.ID
			}
			sev := found[i].Severity
			if sev == "" {
				sev = r.Severity
			}
			found[i].Severity = v.severity(r.ID, sev)
		}
		issues = append(issues, found...)
		v.notify(r.ID, len(found))
	}

	return newResult(opts.Dialect, issues)
}

func (v *Validator) severity(ruleID string, sev Severity) Severity {
	if o, ok := v.Options.SeverityOverride[ruleID]; ok && o != "" {
		return o
	}
	return sev
}

func (v *Validator) notify(ruleID string, n int) {
	if v.Callback != nil {
		v.Callback(ruleID, n)
	}
}

func newResult(d dialect.Name, issues []Issue) *Result {
	r := &Result{Dialect: string(d), Issues: issues}
	if r.Issues == nil {
		r.Issues = []Issue{}
	}
	seen := make(map[string]bool)
	for _, is := range issues {
		switch is.Severity {
		case SeverityError:
			r.Summary.Errors++
		case SeverityWarning:
			r.Summary.Warnings++
		default:
			r.Summary.Infos++
		}
		if is.Suggestion != "" && !seen[is.Suggestion] {
			seen[is.Suggestion] = true
			r.Suggestions = append(r.Suggestions, is.Suggestion)
		}
	}
	r.Summary.Total = len(issues)
	r.Score = Score(issues)
	r.IsValid = r.Summary.Errors == 0
	return r
}

// Score starts at 100 and subtracts 10, 3 and 1 per error, warning and
// info issue. It never drops below 0.
func Score(issues []Issue) int {
	score := 100
	for _, is := range issues {
		score -= is.Severity.penalty()
	}
	if score < 0 {
		return 0
	}
	return score
}

// ByRule returns the issues raised by one rule.
func (r *Result) ByRule(id string) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.RuleID == id {
			out = append(out, is)
		}
	}
	return out
}

// For returns the issues raised against a table, or against one field of
// it when field is not empty.
func (r *Result) For(table, field string) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Target.Table == table && (field == "" || is.Target.Field == field) {
			out = append(out, is)
		}
	}
	return out
}
