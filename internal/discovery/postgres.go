package discovery

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/typemap"
)

// Postgres implements Discoverer for PostgreSQL databases.
type Postgres struct {
	cfg    *config.SourceConfig
	tm     *typemap.TypeMap
	pool   *pgxpool.Pool
	schema string // pg schema to discover, defaults to "public"
}

// NewPostgres creates a new PostgreSQL discoverer.
func NewPostgres(cfg *config.SourceConfig, tm *typemap.TypeMap) (*Postgres, error) {
	s := cfg.Schema
	if s == "" {
		s = "public"
	}
	if tm == nil {
		tm = typemap.ForDatabase("postgresql")
	}
	return &Postgres{cfg: cfg, tm: tm, schema: s}, nil
}

// ConnString returns the connection URL without the password.
func (p *Postgres) ConnString() string {
	u := p.connURL()
	u.User = url.User(p.cfg.Username)
	return u.String()
}

func (p *Postgres) connURL() *url.URL {
	ssl := "disable"
	if p.cfg.SSL {
		ssl = "require"
	}
	q := url.Values{}
	q.Set("sslmode", ssl)
	q.Set("default_query_exec_mode", "simple_protocol")
	q.Set("application_name", "schemaforge")
	return &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.cfg.Username, p.cfg.Password),
		Host:     net.JoinHostPort(p.cfg.Host, strconv.Itoa(p.cfg.Port)),
		Path:     "/" + p.cfg.Database,
		RawQuery: q.Encode(),
	}
}

func (p *Postgres) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(p.connURL().String())
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	poolCfg.MaxConns = int32(max(p.cfg.MaxConnections, 1))
	// Catalog reads only.
	poolCfg.ConnConfig.RuntimeParams["default_transaction_read_only"] = "on"

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}

	p.pool = pool
	return nil
}

// Discover reads tables first, then runs the remaining catalog queries
// concurrently over the pool.
func (p *Postgres) Discover(ctx context.Context) (*Result, error) {
	if p.pool == nil {
		return nil, fmt.Errorf("not connected; call Connect first")
	}

	cat := &catalog{name: p.cfg.Database}
	var err error
	cat.tables, err = p.discoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering tables: %w", err)
	}
	names := make([]string, len(cat.tables))
	for i, t := range cat.tables {
		names[i] = t.name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cat.columns, err = p.discoverColumns(gctx, names)
		return wrap("discovering columns", err)
	})
	g.Go(func() (err error) {
		cat.primary, err = p.discoverPrimaryKeys(gctx, names)
		return wrap("discovering primary keys", err)
	})
	g.Go(func() (err error) {
		cat.foreign, err = p.discoverForeignKeys(gctx, names)
		return wrap("discovering foreign keys", err)
	})
	g.Go(func() (err error) {
		cat.indexes, err = p.discoverIndexes(gctx, names)
		return wrap("discovering indexes", err)
	})
	g.Go(func() (err error) {
		cat.checks, err = p.discoverCheckConstraints(gctx, names)
		return wrap("discovering check constraints", err)
	})
	g.Go(func() (err error) {
		cat.enums, err = p.discoverEnums(gctx)
		return wrap("discovering enum types", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return build(cat, p.tm), nil
}

func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// discoverTables lists ordinary tables with their comments.
func (p *Postgres) discoverTables(ctx context.Context) ([]tableRow, error) {
	query := `
		SELECT c.relname, COALESCE(obj_description(c.oid, 'pg_class'), '')
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1
		  AND c.relkind IN ('r', 'p')
		  AND NOT c.relispartition
		ORDER BY c.relname`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []tableRow
	for rows.Next() {
		var t tableRow
		if err := rows.Scan(&t.name, &t.comment); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// discoverColumns fetches all columns for the given tables. Serial and
// identity columns are flagged as identities.
func (p *Postgres) discoverColumns(ctx context.Context, names []string) ([]columnRow, error) {
	query := `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable = 'YES',
			c.column_default,
			COALESCE(c.column_default LIKE 'nextval(%', false) OR c.is_identity = 'YES',
			COALESCE(c.character_maximum_length, 0),
			COALESCE(c.numeric_precision, 0),
			COALESCE(c.numeric_scale, 0),
			COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int), '')
		FROM information_schema.columns c
		WHERE c.table_schema = $1
		  AND c.table_name = ANY($2)
		ORDER BY c.table_name, c.ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var c columnRow
		if err := rows.Scan(&c.table, &c.name, &c.native.DataType, &c.udt, &c.nullable, &c.def, &c.identity,
			&c.native.Length, &c.native.Precision, &c.native.Scale, &c.comment); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// discoverPrimaryKeys fetches primary key columns in key order.
func (p *Postgres) discoverPrimaryKeys(ctx context.Context, names []string) ([]keyRow, error) {
	query := `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		  AND tc.table_name = ANY($2)
		ORDER BY tc.table_name, kcu.ordinal_position`

	return p.keyRows(ctx, query, names)
}

func (p *Postgres) keyRows(ctx context.Context, query string, names []string) ([]keyRow, error) {
	rows, err := p.pool.Query(ctx, query, p.schema, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var k keyRow
		if err := rows.Scan(&k.table, &k.column); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// discoverForeignKeys fetches foreign keys with their referential actions.
// Composite keys yield one row per column, paired by position.
func (p *Postgres) discoverForeignKeys(ctx context.Context, names []string) ([]fkRow, error) {
	query := `
		SELECT
			kcu.table_name,
			kcu.constraint_name,
			kcu.column_name,
			ref.table_name,
			ref.column_name,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = rc.constraint_name
		  AND kcu.constraint_schema = rc.constraint_schema
		JOIN information_schema.key_column_usage ref
		  ON ref.constraint_name = rc.unique_constraint_name
		  AND ref.constraint_schema = rc.unique_constraint_schema
		  AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema = $1
		  AND kcu.table_name = ANY($2)
		ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position`

	rows, err := p.pool.Query(ctx, query, p.schema, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []fkRow
	for rows.Next() {
		var r fkRow
		if err := rows.Scan(&r.table, &r.constraint, &r.column, &r.refTable, &r.refField, &r.onDelete, &r.onUpdate); err != nil {
			return nil, err
		}
		fks = append(fks, r)
	}
	return fks, rows.Err()
}

// discoverIndexes fetches non-primary indexes on plain columns. Expression
// indexes have no column for some positions and are skipped.
func (p *Postgres) discoverIndexes(ctx context.Context, names []string) ([]indexRow, error) {
	query := `
		SELECT
			t.relname,
			i.relname,
			ix.indisunique,
			a.attname
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
		  AND t.relname = ANY($2)
		  AND NOT ix.indisprimary
		  AND ix.indexprs IS NULL
		  AND ix.indpred IS NULL
		ORDER BY t.relname, i.relname, array_position(ix.indkey, a.attnum)`

	rows, err := p.pool.Query(ctx, query, p.schema, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []indexRow
	for rows.Next() {
		var r indexRow
		if err := rows.Scan(&r.table, &r.index, &r.unique, &r.column); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// discoverCheckConstraints fetches CHECK constraints (excluding NOT NULL which is on the column).
func (p *Postgres) discoverCheckConstraints(ctx context.Context, names []string) ([]checkRow, error) {
	query := `
		SELECT
			tc.table_name,
			tc.constraint_name,
			cc.check_clause
		FROM information_schema.table_constraints tc
		JOIN information_schema.check_constraints cc
		  ON tc.constraint_name = cc.constraint_name
		  AND tc.constraint_schema = cc.constraint_schema
		WHERE tc.constraint_type = 'CHECK'
		  AND tc.table_schema = $1
		  AND tc.table_name = ANY($2)
		  AND tc.constraint_name NOT LIKE '%_not_null'
		ORDER BY tc.table_name, tc.constraint_name`

	rows, err := p.pool.Query(ctx, query, p.schema, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkRow
	for rows.Next() {
		var r checkRow
		if err := rows.Scan(&r.table, &r.constraint, &r.clause); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// discoverEnums fetches the labels of enum types in the schema.
func (p *Postgres) discoverEnums(ctx context.Context) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON e.enumtypid = t.oid
		JOIN pg_namespace n ON n.oid = t.typnamespace
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder`

	rows, err := p.pool.Query(ctx, query, p.schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	enums := make(map[string][]string)
	for rows.Next() {
		var typ, label string
		if err := rows.Scan(&typ, &label); err != nil {
			return nil, err
		}
		enums[typ] = append(enums[typ], label)
	}
	return enums, rows.Err()
}

// compile-time interface check
var _ Discoverer = (*Postgres)(nil)
