package correction

import (
	"fmt"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
	"github.com/reloquent/schemaforge/internal/validation"
)

const (
	defaultVarcharLength    = 255
	defaultDecimalPrecision = 10
	defaultDecimalScale     = 2
)

var (
	createdAliases = []string{"created_at", "createdat", "created", "created_on", "create_time", "creation_date", "date_created", "inserted_at"}
	updatedAliases = []string{"updated_at", "updatedat", "updated", "updated_on", "update_time", "modified_at", "modified", "last_modified", "date_modified"}
)

type corrector struct {
	model *schema.Model
	d     *dialect.Dialect
	opts  Options
	// tables maps an original table name to its index. Tables are never
	// removed or reordered, so indexes survive renames.
	tables map[string]int
	// fields maps an original field name to its current name, per table.
	fields map[int]map[string]string
	// Names shared by more than one table, or by more than one field of a
	// table, do not identify a target and are never fixed.
	dupTables map[string]bool
	dupFields map[int]map[string]bool
}

func newCorrector(m *schema.Model, opts Options) *corrector {
	d, _ := dialect.Resolve(opts.Dialect)
	c := &corrector{
		model:  m,
		d:      d,
		opts:   opts,
		tables:    make(map[string]int),
		fields:    make(map[int]map[string]string),
		dupTables: make(map[string]bool),
		dupFields: make(map[int]map[string]bool),
	}
	for i, t := range m.Tables {
		if _, ok := c.tables[t.Name]; ok {
			c.dupTables[t.Name] = true
		} else {
			c.tables[t.Name] = i
		}
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if seen[f.Name] {
				if c.dupFields[i] == nil {
					c.dupFields[i] = make(map[string]bool)
				}
				c.dupFields[i][f.Name] = true
			}
			seen[f.Name] = true
		}
	}
	return c
}

// table resolves an issue target to the table it named. A name shared by
// several tables resolves to none.
func (c *corrector) table(target validation.Target) (int, *schema.Table) {
	i, ok := c.tables[target.Table]
	if !ok || c.dupTables[target.Table] {
		return -1, nil
	}
	return i, &c.model.Tables[i]
}

// field resolves an issue target to the field it named, following renames.
func (c *corrector) field(target validation.Target) (int, *schema.Table, *schema.Field) {
	i, t := c.table(target)
	if t == nil || target.Field == "" || c.dupFields[i][target.Field] {
		return -1, nil, nil
	}
	name := target.Field
	if cur, ok := c.fields[i][target.Field]; ok {
		name = cur
	}
	f := t.Field(name)
	if f == nil {
		return -1, nil, nil
	}
	return i, t, f
}

func (c *corrector) planRename(is validation.Issue, reserved bool) (step, outcome) {
	if is.Target.Field == "" {
		idx, t := c.table(is.Target)
		if t == nil {
			return step{}, outcomeRemaining
		}
		if c.conforms(t.Name, reserved) {
			return step{}, outcomeResolved
		}
		next := c.uniqueTableName(c.rename(t.Name, dialect.KindTable, reserved), idx)
		if next == t.Name {
			return step{}, outcomeRemaining
		}
		old := t.Name
		return step{
			fix: Fix{
				Type:        FixRename,
				RuleID:      is.RuleID,
				Target:      validation.Target{Table: old},
				Description: fmt.Sprintf("rename table %s to %s", old, next),
				Impact:      fmt.Sprintf("%d references updated", c.tableReferences(old)),
			},
			apply: func() { c.renameTable(idx, old, next) },
		}, outcomePlanned
	}

	idx, t, f := c.field(is.Target)
	if f == nil {
		return step{}, outcomeRemaining
	}
	if c.conforms(f.Name, reserved) {
		return step{}, outcomeResolved
	}
	next := uniqueFieldName(t, c.rename(f.Name, dialect.KindField, reserved), f.Name, c.d)
	if next == f.Name {
		return step{}, outcomeRemaining
	}
	old, original := f.Name, is.Target.Field
	return step{
		fix: Fix{
			Type:        FixRename,
			RuleID:      is.RuleID,
			Target:      validation.Target{Table: t.Name, Field: old},
			Description: fmt.Sprintf("rename field %s.%s to %s", t.Name, old, next),
			Impact:      fmt.Sprintf("%d references updated", c.fieldReferences(t, old)),
		},
		apply: func() { c.renameField(idx, original, old, next) },
	}, outcomePlanned
}

// conforms reports whether a name already satisfies the rule being fixed.
func (c *corrector) conforms(name string, reserved bool) bool {
	if reserved {
		return !c.d.IsReserved(name)
	}
	limit := c.d.MaxIdentifierLength
	return validation.IsSnakeCase(name) && (limit <= 0 || len(name) <= limit)
}

func (c *corrector) rename(name string, kind dialect.IdentifierKind, reserved bool) string {
	if reserved && !c.opts.FixNaming {
		return c.d.SanitizeIdentifier(name, kind)
	}
	return validation.SuggestName(c.d, name, kind)
}

func (c *corrector) uniqueTableName(name string, self int) string {
	taken := func(n string) bool {
		for i, t := range c.model.Tables {
			if i != self && strings.EqualFold(t.Name, n) {
				return true
			}
		}
		return false
	}
	return unique(name, taken, c.d)
}

func uniqueFieldName(t *schema.Table, name, self string, d *dialect.Dialect) string {
	taken := func(n string) bool {
		for _, f := range t.Fields {
			if f.Name != self && strings.EqualFold(f.Name, n) {
				return true
			}
		}
		return false
	}
	return unique(name, taken, d)
}

// unique appends _2, _3, ... until the name is free, keeping it within the
// dialect's identifier limit.
func unique(name string, taken func(string) bool, d *dialect.Dialect) string {
	if !taken(name) {
		return name
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("_%d", n)
		base := name
		if limit := d.MaxIdentifierLength; limit > 0 && len(base)+len(suffix) > limit {
			base = base[:limit-len(suffix)]
		}
		if cand := base + suffix; !taken(cand) {
			return cand
		}
	}
}

func (c *corrector) tableReferences(name string) int {
	n := 0
	for _, t := range c.model.Tables {
		for _, f := range t.Fields {
			if f.References != nil && f.References.Table == name {
				n++
			}
		}
	}
	for _, r := range c.model.Relationships {
		if r.FromTable == name || r.ToTable == name {
			n++
		}
	}
	return n
}

func (c *corrector) renameTable(idx int, old, next string) {
	c.model.Tables[idx].Name = next
	for i := range c.model.Tables {
		for j := range c.model.Tables[i].Fields {
			if ref := c.model.Tables[i].Fields[j].References; ref != nil && ref.Table == old {
				ref.Table = next
			}
		}
	}
	for i := range c.model.Relationships {
		r := &c.model.Relationships[i]
		if r.FromTable == old {
			r.FromTable = next
		}
		if r.ToTable == old {
			r.ToTable = next
		}
	}
}

func (c *corrector) fieldReferences(t *schema.Table, name string) int {
	n := 0
	for _, ix := range t.Indexes {
		for _, f := range ix.Fields {
			if f == name {
				n++
			}
		}
	}
	for _, other := range c.model.Tables {
		for _, f := range other.Fields {
			if f.References != nil && f.References.Table == t.Name && f.References.ReferencedField() == name {
				n++
			}
		}
	}
	for _, r := range c.model.Relationships {
		if r.FromTable == t.Name && r.FromField == name {
			n++
		}
		if r.ToTable == t.Name && relationshipTarget(r) == name {
			n++
		}
	}
	return n
}

func relationshipTarget(r schema.Relationship) string {
	if r.ToField == "" {
		return "id"
	}
	return r.ToField
}

// renameField renames a field and every index, reference and relationship
// that names it.
func (c *corrector) renameField(idx int, original, old, next string) {
	t := &c.model.Tables[idx]
	t.Field(old).Name = next
	for i := range t.Indexes {
		for j, f := range t.Indexes[i].Fields {
			if f == old {
				t.Indexes[i].Fields[j] = next
			}
		}
	}
	for i := range c.model.Tables {
		for j := range c.model.Tables[i].Fields {
			ref := c.model.Tables[i].Fields[j].References
			if ref != nil && ref.Table == t.Name && ref.ReferencedField() == old {
				ref.Field = next
			}
		}
	}
	for i := range c.model.Relationships {
		r := &c.model.Relationships[i]
		if r.FromTable == t.Name && r.FromField == old {
			r.FromField = next
		}
		if r.ToTable == t.Name && relationshipTarget(*r) == old {
			r.ToField = next
		}
	}
	if c.fields[idx] == nil {
		c.fields[idx] = make(map[string]string)
	}
	c.fields[idx][original] = next
}

func (c *corrector) planPrimaryKey(is validation.Issue) (step, outcome) {
	_, t := c.table(is.Target)
	if t == nil || is.Target.Field != "" {
		return step{}, outcomeRemaining
	}
	if len(t.PrimaryKeyFields()) > 0 {
		return step{}, outcomeResolved
	}

	if f := primaryKeyCandidate(t); f != nil {
		return step{
			fix: Fix{
				Type:        FixPromotePrimaryKey,
				RuleID:      is.RuleID,
				Target:      validation.Target{Table: t.Name, Field: f.Name},
				Description: fmt.Sprintf("promote %s.%s to primary key", t.Name, f.Name),
				Impact:      "field becomes NOT NULL",
			},
			apply: func() {
				f.PrimaryKey = true
				f.Nullable = false
			},
		}, outcomePlanned
	}

	name := "id"
	if t.Field(name) != nil {
		name = uniqueFieldName(t, inflect.ForeignKey(t.Name), "", c.d)
	}
	return step{
		fix: Fix{
			Type:        FixAddPrimaryKey,
			RuleID:      is.RuleID,
			Target:      validation.Target{Table: t.Name, Field: name},
			Description: fmt.Sprintf("add autoincrement primary key %s to %s", name, t.Name),
			Impact:      "new column, existing rows need values",
		},
		apply: func() {
			id := schema.Field{Name: name, Type: schema.TypeInt, PrimaryKey: true, AutoIncrement: true}
			t.Fields = append([]schema.Field{id}, t.Fields...)
		},
	}, outcomePlanned
}

// primaryKeyCandidate picks an existing field to promote: an autoincrement
// field, then one named id or <singular table>_id, then a unique non-null
// integer. Fields that reference other tables are never promoted by name.
func primaryKeyCandidate(t *schema.Table) *schema.Field {
	for i := range t.Fields {
		if t.Fields[i].AutoIncrement {
			return &t.Fields[i]
		}
	}
	own := inflect.ForeignKey(t.Name)
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.References != nil {
			continue
		}
		if strings.EqualFold(f.Name, "id") || strings.EqualFold(f.Name, own) {
			return f
		}
	}
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.References == nil && f.Unique && !f.Nullable && f.Type.IsInteger() {
			return f
		}
	}
	return nil
}

func (c *corrector) planTypeChange(is validation.Issue) (step, outcome) {
	_, t, f := c.field(is.Target)
	if f == nil {
		return step{}, outcomeRemaining
	}
	canonical, known := dialect.ParseType(f.Type)
	if known && canonical == f.Type.Normalize() && c.d.Supports(canonical) {
		return step{}, outcomeResolved
	}
	m := c.d.MapType(f.Type)
	from := string(f.Type)
	if from == "" {
		from = "none"
	}
	return step{
		fix: Fix{
			Type:        FixChangeType,
			RuleID:      is.RuleID,
			Target:      validation.Target{Table: t.Name, Field: f.Name},
			Description: fmt.Sprintf("change type of %s.%s from %s to %s", t.Name, f.Name, from, m.Type),
			Impact:      "column type changes",
		},
		apply: func() {
			f.Type = m.Type
			if m.Length > 0 {
				f.Length = m.Length
			}
			injectParameters(f)
		},
	}, outcomePlanned
}

// injectParameters fills in the default size of VARCHAR and DECIMAL fields.
func injectParameters(f *schema.Field) bool {
	switch f.Type.Normalize() {
	case schema.TypeVarchar:
		if f.Length <= 0 {
			f.Length = defaultVarcharLength
			return true
		}
	case schema.TypeDecimal:
		if f.Precision <= 0 {
			f.Precision = defaultDecimalPrecision
			if f.Scale <= 0 {
				f.Scale = defaultDecimalScale
			}
			return true
		}
	}
	return false
}

func (c *corrector) planTypeParameters(is validation.Issue) (step, outcome) {
	_, t, f := c.field(is.Target)
	if f == nil {
		return step{}, outcomeRemaining
	}
	canonical, _ := dialect.ParseType(f.Type)
	var desc string
	switch {
	case canonical == schema.TypeVarchar && f.Length <= 0:
		desc = fmt.Sprintf("set length of %s.%s to %d", t.Name, f.Name, defaultVarcharLength)
	case canonical == schema.TypeDecimal && f.Precision <= 0:
		desc = fmt.Sprintf("set precision of %s.%s to %d,%d", t.Name, f.Name, defaultDecimalPrecision, defaultDecimalScale)
	default:
		return step{}, outcomeResolved
	}
	return step{
		fix: Fix{
			Type:        FixTypeParameters,
			RuleID:      is.RuleID,
			Target:      validation.Target{Table: t.Name, Field: f.Name},
			Description: desc,
		},
		apply: func() {
			f.Type = canonical
			injectParameters(f)
		},
	}, outcomePlanned
}

func (c *corrector) planDemoteVarchar(is validation.Issue) (step, outcome) {
	_, t, f := c.field(is.Target)
	if f == nil {
		return step{}, outcomeRemaining
	}
	if canonical, _ := dialect.ParseType(f.Type); canonical != schema.TypeVarchar {
		return step{}, outcomeResolved
	}
	return step{
		fix: Fix{
			Type:        FixChangeType,
			RuleID:      is.RuleID,
			Target:      validation.Target{Table: t.Name, Field: f.Name},
			Description: fmt.Sprintf("change %s.%s from VARCHAR(%d) to TEXT", t.Name, f.Name, f.Length),
			Impact:      "length limit removed",
		},
		apply: func() {
			f.Type = schema.TypeText
			f.Length = 0
		},
	}, outcomePlanned
}

func (c *corrector) planIndex(is validation.Issue) (step, outcome) {
	_, t, f := c.field(is.Target)
	if f == nil {
		return step{}, outcomeRemaining
	}
	if validation.IsIndexed(t, *f) {
		return step{}, outcomeResolved
	}
	return step{
		fix: Fix{
			Type:        FixAddIndex,
			RuleID:      is.RuleID,
			Target:      validation.Target{Table: t.Name, Field: f.Name},
			Description: fmt.Sprintf("index %s.%s", t.Name, f.Name),
			Impact:      "one more index to maintain on writes",
		},
		apply: func() { f.Indexed = true },
	}, outcomePlanned
}

// reorderFields moves primary-key fields to the front of each table,
// keeping the relative order of the others.
func (c *corrector) reorderFields() []Fix {
	var fixes []Fix
	for i := range c.model.Tables {
		t := &c.model.Tables[i]
		var keys, rest []schema.Field
		for _, f := range t.Fields {
			if f.PrimaryKey {
				keys = append(keys, f)
			} else {
				rest = append(rest, f)
			}
		}
		ordered := append(keys, rest...)
		changed := false
		for j := range ordered {
			if ordered[j].Name != t.Fields[j].Name {
				changed = true
				break
			}
		}
		if !changed {
			continue
		}
		fix := Fix{
			Type:        FixReorderFields,
			Target:      validation.Target{Table: t.Name},
			Description: fmt.Sprintf("move primary key fields of %s first", t.Name),
		}
		if !c.accepted(fix) {
			continue
		}
		t.Fields = ordered
		fixes = append(fixes, fix)
	}
	return fixes
}

// addTimestamps appends created_at and updated_at to tables that have no
// field serving either purpose.
func (c *corrector) addTimestamps() []Fix {
	var fixes []Fix
	for i := range c.model.Tables {
		t := &c.model.Tables[i]
		var add []string
		if !hasAlias(t, createdAliases) {
			add = append(add, "created_at")
		}
		if !hasAlias(t, updatedAliases) {
			add = append(add, "updated_at")
		}
		if len(add) == 0 {
			continue
		}
		fix := Fix{
			Type:        FixAddTimestamps,
			Target:      validation.Target{Table: t.Name},
			Description: fmt.Sprintf("add %s to %s", strings.Join(add, ", "), t.Name),
			Impact:      "new columns default to the current timestamp",
		}
		if !c.accepted(fix) {
			continue
		}
		for _, name := range add {
			t.Fields = append(t.Fields, schema.Field{
				Name:    name,
				Type:    schema.TypeTimestamp,
				Default: "CURRENT_TIMESTAMP",
			})
		}
		fixes = append(fixes, fix)
	}
	return fixes
}

func hasAlias(t *schema.Table, aliases []string) bool {
	for _, f := range t.Fields {
		name := strings.ToLower(f.Name)
		squashed := strings.ReplaceAll(name, "_", "")
		for _, a := range aliases {
			if name == a || squashed == strings.ReplaceAll(a, "_", "") {
				return true
			}
		}
	}
	return false
}
