package validation

import (
	"fmt"
	"strings"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
)

// Built-in rule IDs.
const (
	RuleModelStructure      = "model_structure"
	RuleNamingConvention    = "naming_convention"
	RuleReservedWord        = "reserved_word"
	RuleDuplicateName       = "duplicate_name"
	RulePrimaryKeyRequired  = "primary_key_required"
	RuleCompositePrimaryKey = "composite_primary_key"
	RuleInvalidType         = "invalid_type"
	RuleTypeParameters      = "type_parameters"
	RuleForeignKeyTarget    = "foreign_key_target"
	RuleIndexFields         = "index_fields"
	RuleMissingIndex        = "missing_index"
	RuleIsolatedTable       = "isolated_table"
	RuleOversizedEnum       = "oversized_enum"
	RuleOversizedVarchar    = "oversized_varchar"
)

// maxPrimaryKeyFields is the widest primary key accepted without a warning.
const maxPrimaryKeyFields = 3

// commonIndexFields are names that are usually filtered on.
var commonIndexFields = map[string]bool{
	"email":    true,
	"username": true,
	"slug":     true,
	"status":   true,
	"code":     true,
}

// BuiltinRules returns the built-in rules in evaluation order.
func BuiltinRules() []Rule {
	return []Rule{
		{RuleNamingConvention, "table and field names are lower_snake_case and fit the identifier limit", SeverityWarning, checkNaming},
		{RuleReservedWord, "names do not collide with reserved words of the target dialect", SeverityWarning, checkReserved},
		{RuleDuplicateName, "table names are unique in the model and field names unique in a table", SeverityError, checkDuplicates},
		{RulePrimaryKeyRequired, "every table has a primary key", SeverityError, checkPrimaryKey},
		{RuleCompositePrimaryKey, "primary keys span at most three fields", SeverityWarning, checkCompositeKey},
		{RuleInvalidType, "field types are canonical types of the target dialect", SeverityError, checkTypes},
		{RuleTypeParameters, "VARCHAR has a length, DECIMAL a precision and ENUM values", SeverityWarning, checkTypeParameters},
		{RuleForeignKeyTarget, "referenced tables and fields exist", SeverityError, checkForeignKeyTargets},
		{RuleIndexFields, "explicit indexes name existing fields", SeverityError, checkIndexFields},
		{RuleMissingIndex, "foreign keys and commonly filtered fields are indexed", SeverityInfo, checkMissingIndexes},
		{RuleIsolatedTable, "tables take part in at least one relationship", SeverityInfo, checkIsolated},
		{RuleOversizedEnum, "enumerations stay below the configured value count", SeverityWarning, checkOversizedEnum},
		{RuleOversizedVarchar, "VARCHAR lengths stay below the configured limit", SeverityWarning, checkOversizedVarchar},
	}
}

func checkNaming(m *schema.Model, opts Options) []Issue {
	d := opts.dialect()
	var issues []Issue
	check := func(target Target, kind dialect.IdentifierKind, label, name string) {
		if name == "" {
			return
		}
		switch {
		case !IsSnakeCase(name):
			issues = append(issues, Issue{
				Message:     fmt.Sprintf("%s name %q is not lower_snake_case", label, name),
				Target:      target,
				Suggestion:  fmt.Sprintf("rename %s to %s", target, SuggestName(d, name, kind)),
				AutoFixable: true,
			})
		case d.MaxIdentifierLength > 0 && len(name) > d.MaxIdentifierLength:
			issues = append(issues, Issue{
				Message:     fmt.Sprintf("%s name %q exceeds the %d-character limit of %s", label, name, d.MaxIdentifierLength, d.DisplayName),
				Target:      target,
				Suggestion:  fmt.Sprintf("rename %s to %s", target, SuggestName(d, name, kind)),
				AutoFixable: true,
			})
		}
	}
	for _, t := range m.Tables {
		check(Target{Table: t.Name}, dialect.KindTable, "table", t.Name)
		for _, f := range t.Fields {
			check(Target{Table: t.Name, Field: f.Name}, dialect.KindField, "field", f.Name)
		}
	}
	return issues
}

func checkReserved(m *schema.Model, opts Options) []Issue {
	d := opts.dialect()
	var issues []Issue
	check := func(target Target, kind dialect.IdentifierKind, label, name string) {
		if name == "" || !d.IsReserved(name) {
			return
		}
		issues = append(issues, Issue{
			Message:     fmt.Sprintf("%s name %q is a reserved word in %s", label, name, d.DisplayName),
			Target:      target,
			Suggestion:  fmt.Sprintf("rename %s to %s", target, SuggestName(d, name, kind)),
			AutoFixable: true,
		})
	}
	for _, t := range m.Tables {
		check(Target{Table: t.Name}, dialect.KindTable, "table", t.Name)
		for _, f := range t.Fields {
			check(Target{Table: t.Name, Field: f.Name}, dialect.KindField, "field", f.Name)
		}
	}
	return issues
}

// checkDuplicates compares names case-insensitively; most dialects fold
// unquoted identifiers.
func checkDuplicates(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	tables := make(map[string]string)
	for _, t := range m.Tables {
		key := strings.ToLower(t.Name)
		if first, ok := tables[key]; ok && t.Name != "" {
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("table %q duplicates table %q", t.Name, first),
				Target:     Target{Table: t.Name},
				Suggestion: fmt.Sprintf("rename or merge the second %s table", t.Name),
			})
		} else {
			tables[key] = t.Name
		}

		fields := make(map[string]string)
		for _, f := range t.Fields {
			fk := strings.ToLower(f.Name)
			if first, ok := fields[fk]; ok && f.Name != "" {
				issues = append(issues, Issue{
					Message:    fmt.Sprintf("field %q duplicates field %q in table %s", f.Name, first, t.Name),
					Target:     Target{Table: t.Name, Field: f.Name},
					Suggestion: fmt.Sprintf("rename or remove the second %s.%s field", t.Name, f.Name),
				})
				continue
			}
			fields[fk] = f.Name
		}
	}
	return issues
}

func checkPrimaryKey(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		if len(t.PrimaryKeyFields()) > 0 {
			continue
		}
		issues = append(issues, Issue{
			Message:     fmt.Sprintf("table %s has no primary key", t.Name),
			Target:      Target{Table: t.Name},
			Suggestion:  fmt.Sprintf("mark an identifying field of %s as primary key or add an autoincrement id", t.Name),
			AutoFixable: true,
		})
	}
	return issues
}

func checkCompositeKey(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		pk := t.PrimaryKeyFields()
		if len(pk) <= maxPrimaryKeyFields {
			continue
		}
		issues = append(issues, Issue{
			Message:    fmt.Sprintf("primary key of %s spans %d fields (%s)", t.Name, len(pk), strings.Join(pk, ", ")),
			Target:     Target{Table: t.Name},
			Suggestion: fmt.Sprintf("use a surrogate key on %s and a unique index on the natural key", t.Name),
		})
	}
	return issues
}

func checkTypes(m *schema.Model, opts Options) []Issue {
	d := opts.dialect()
	var issues []Issue
	for _, t := range m.Tables {
		for _, f := range t.Fields {
			target := Target{Table: t.Name, Field: f.Name}
			canonical, known := dialect.ParseType(f.Type)
			switch {
			case !known:
				msg := fmt.Sprintf("unknown type %q", string(f.Type))
				if strings.TrimSpace(string(f.Type)) == "" {
					msg = "field has no type"
				}
				issues = append(issues, Issue{
					Message:     msg,
					Target:      target,
					Suggestion:  fmt.Sprintf("use %s for %s", d.MapType(f.Type).Type, target),
					AutoFixable: true,
				})
			case canonical != f.Type.Normalize():
				issues = append(issues, Issue{
					Message:     fmt.Sprintf("type %q is an alias of %s", string(f.Type), canonical),
					Target:      target,
					Suggestion:  fmt.Sprintf("use %s for %s", d.DegradedType(canonical), target),
					AutoFixable: true,
				})
			case !d.Supports(canonical):
				issues = append(issues, Issue{
					Message:     fmt.Sprintf("%s has no %s type", d.DisplayName, canonical),
					Target:      target,
					Suggestion:  fmt.Sprintf("use %s for %s", d.DegradedType(canonical), target),
					AutoFixable: true,
				})
			}
		}
	}
	return issues
}

func checkTypeParameters(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		for _, f := range t.Fields {
			target := Target{Table: t.Name, Field: f.Name}
			canonical, _ := dialect.ParseType(f.Type)
			switch {
			case canonical == schema.TypeVarchar && f.Length <= 0:
				issues = append(issues, Issue{
					Message:     "VARCHAR without a length",
					Target:      target,
					Suggestion:  fmt.Sprintf("set a length on %s, for example 255", target),
					AutoFixable: true,
				})
			case canonical == schema.TypeDecimal && f.Precision <= 0:
				issues = append(issues, Issue{
					Message:     "DECIMAL without precision and scale",
					Target:      target,
					Suggestion:  fmt.Sprintf("set precision and scale on %s, for example 10,2", target),
					AutoFixable: true,
				})
			case canonical == schema.TypeEnum && len(f.EnumValues) == 0:
				issues = append(issues, Issue{
					Message:    "ENUM without values",
					Target:     target,
					Suggestion: fmt.Sprintf("list the allowed values of %s", target),
				})
			}
		}
	}
	return issues
}

func checkForeignKeyTargets(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	missing := func(target Target, table, field string) {
		ref := m.Table(table)
		switch {
		case ref == nil:
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("%s references missing table %s", target, table),
				Target:     target,
				Suggestion: fmt.Sprintf("add table %s or remove the reference", table),
			})
		case ref.Field(field) == nil:
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("%s references missing field %s.%s", target, table, field),
				Target:     target,
				Suggestion: fmt.Sprintf("point %s at an existing field of %s", target, table),
			})
		}
	}

	for _, t := range m.Tables {
		for _, f := range t.ForeignKeyFields() {
			missing(Target{Table: t.Name, Field: f.Name}, f.References.Table, f.References.ReferencedField())
		}
	}
	for _, r := range m.Relationships {
		target := Target{Table: r.FromTable, Field: r.FromField}
		from := m.Table(r.FromTable)
		switch {
		case from == nil:
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("relationship starts at missing table %s", r.FromTable),
				Target:     target,
				Suggestion: fmt.Sprintf("add table %s or remove the relationship", r.FromTable),
			})
			continue
		case r.FromField != "" && from.Field(r.FromField) == nil:
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("relationship starts at missing field %s", target),
				Target:     target,
				Suggestion: fmt.Sprintf("add field %s or remove the relationship", target),
			})
			continue
		}
		toField := r.ToField
		if toField == "" {
			toField = "id"
		}
		missing(target, r.ToTable, toField)
	}
	return issues
}

func checkIndexFields(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		for i, ix := range t.Indexes {
			name := ix.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			var unknown []string
			for _, f := range ix.Fields {
				if t.Field(f) == nil {
					unknown = append(unknown, f)
				}
			}
			switch {
			case len(ix.Fields) == 0:
				issues = append(issues, Issue{
					Message:    fmt.Sprintf("index %s on %s lists no fields", name, t.Name),
					Target:     Target{Table: t.Name},
					Suggestion: fmt.Sprintf("remove index %s", name),
				})
			case len(unknown) > 0:
				issues = append(issues, Issue{
					Message:    fmt.Sprintf("index %s on %s names unknown fields %s", name, t.Name, strings.Join(unknown, ", ")),
					Target:     Target{Table: t.Name},
					Suggestion: fmt.Sprintf("fix the field list of index %s", name),
				})
			}
		}
	}
	return issues
}

// IsIndexed reports whether a field leads some index of its table.
func IsIndexed(t *schema.Table, f schema.Field) bool {
	if f.Indexed || f.Unique {
		return true
	}
	if pk := t.PrimaryKeyFields(); len(pk) > 0 && pk[0] == f.Name {
		return true
	}
	for _, ix := range t.Indexes {
		if len(ix.Fields) > 0 && ix.Fields[0] == f.Name {
			return true
		}
	}
	return false
}

func checkMissingIndexes(m *schema.Model, _ Options) []Issue {
	var issues []Issue
	for i := range m.Tables {
		t := &m.Tables[i]
		for _, f := range t.Fields {
			if IsIndexed(t, f) {
				continue
			}
			target := Target{Table: t.Name, Field: f.Name}
			isFK := (f.References != nil && f.References.Table != "") || m.RelationshipFor(t.Name, f.Name) != nil
			switch {
			case isFK:
				issues = append(issues, Issue{
					Message:     fmt.Sprintf("foreign key %s has no index", target),
					Target:      target,
					Suggestion:  fmt.Sprintf("add an index on %s", target),
					AutoFixable: true,
				})
			case commonIndexFields[strings.ToLower(f.Name)]:
				issues = append(issues, Issue{
					Message:     fmt.Sprintf("%s is commonly filtered on but not indexed", target),
					Target:      target,
					Suggestion:  fmt.Sprintf("add an index on %s", target),
					AutoFixable: true,
				})
			}
		}
	}
	return issues
}

func checkIsolated(m *schema.Model, _ Options) []Issue {
	if len(m.Tables) < 2 {
		return nil
	}
	linked := make(map[string]bool)
	for _, t := range m.Tables {
		for _, f := range t.ForeignKeyFields() {
			linked[t.Name] = true
			linked[f.References.Table] = true
		}
	}
	for _, r := range m.Relationships {
		linked[r.FromTable] = true
		linked[r.ToTable] = true
	}

	var issues []Issue
	for _, t := range m.Tables {
		if linked[t.Name] {
			continue
		}
		issues = append(issues, Issue{
			Message:    fmt.Sprintf("table %s has no relationships", t.Name),
			Target:     Target{Table: t.Name},
			Suggestion: fmt.Sprintf("check whether %s should reference another table", t.Name),
		})
	}
	return issues
}

func checkOversizedEnum(m *schema.Model, opts Options) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		for _, f := range t.Fields {
			canonical, _ := dialect.ParseType(f.Type)
			if canonical != schema.TypeEnum || len(f.EnumValues) <= opts.MaxEnumValues {
				continue
			}
			target := Target{Table: t.Name, Field: f.Name}
			issues = append(issues, Issue{
				Message:    fmt.Sprintf("enumeration %s has %d values (limit %d)", target, len(f.EnumValues), opts.MaxEnumValues),
				Target:     target,
				Suggestion: fmt.Sprintf("move the values of %s to a lookup table", target),
			})
		}
	}
	return issues
}

func checkOversizedVarchar(m *schema.Model, opts Options) []Issue {
	var issues []Issue
	for _, t := range m.Tables {
		for _, f := range t.Fields {
			canonical, _ := dialect.ParseType(f.Type)
			if canonical != schema.TypeVarchar || f.Length <= opts.MaxVarcharLength {
				continue
			}
			target := Target{Table: t.Name, Field: f.Name}
			issues = append(issues, Issue{
				Message:     fmt.Sprintf("VARCHAR(%d) on %s exceeds %d characters", f.Length, target, opts.MaxVarcharLength),
				Target:      target,
				Suggestion:  fmt.Sprintf("use TEXT for %s", target),
				AutoFixable: true,
			})
		}
	}
	return issues
}
