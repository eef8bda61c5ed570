package discovery

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	go_ora "github.com/sijms/go-ora/v2"
	"golang.org/x/sync/errgroup"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/typemap"
)

// Oracle implements Discoverer for Oracle databases using go-ora (pure Go, no Instant Client).
type Oracle struct {
	cfg   *config.SourceConfig
	tm    *typemap.TypeMap
	db    *sql.DB
	owner string // Oracle schema owner, defaults to username uppercased
}

// NewOracle creates a new Oracle discoverer.
func NewOracle(cfg *config.SourceConfig, tm *typemap.TypeMap) (*Oracle, error) {
	owner := cfg.Schema
	if owner == "" {
		owner = strings.ToUpper(cfg.Username)
	}
	if tm == nil {
		tm = typemap.ForDatabase("oracle")
	}
	return &Oracle{cfg: cfg, tm: tm, owner: owner}, nil
}

// ConnString returns the go-ora connection URL.
func (o *Oracle) ConnString() string {
	var opts map[string]string
	if o.cfg.SSL {
		opts = map[string]string{"SSL": "enable"}
	}
	return go_ora.BuildUrl(o.cfg.Host, o.cfg.Port, o.cfg.Database, o.cfg.Username, o.cfg.Password, opts)
}

func (o *Oracle) Connect(ctx context.Context) error {
	db, err := sql.Open("oracle", o.ConnString())
	if err != nil {
		return fmt.Errorf("opening Oracle connection: %w", err)
	}
	db.SetMaxOpenConns(max(o.cfg.MaxConnections, 1))

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("pinging Oracle: %w", err)
	}

	o.db = db
	return nil
}

// Discover reads tables first, then runs the remaining dictionary queries
// concurrently.
func (o *Oracle) Discover(ctx context.Context) (*Result, error) {
	if o.db == nil {
		return nil, fmt.Errorf("not connected; call Connect first")
	}

	cat := &catalog{name: o.cfg.Database}
	var err error
	cat.tables, err = o.discoverTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering tables: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cat.columns, err = o.discoverColumns(gctx)
		return wrap("discovering columns", err)
	})
	g.Go(func() (err error) {
		cat.primary, err = o.discoverPrimaryKeys(gctx)
		return wrap("discovering primary keys", err)
	})
	g.Go(func() (err error) {
		cat.foreign, err = o.discoverForeignKeys(gctx)
		return wrap("discovering foreign keys", err)
	})
	g.Go(func() (err error) {
		cat.indexes, err = o.discoverIndexes(gctx)
		return wrap("discovering indexes", err)
	})
	g.Go(func() (err error) {
		cat.checks, err = o.discoverCheckConstraints(gctx)
		return wrap("discovering check constraints", err)
	})
	g.Go(func() error {
		cat.identities = o.detectIdentities(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return build(cat, o.tm), nil
}

func (o *Oracle) Close() error {
	if o.db != nil {
		err := o.db.Close()
		o.db = nil
		return err
	}
	return nil
}

func (o *Oracle) discoverTables(ctx context.Context) ([]tableRow, error) {
	query := `
		SELECT t.TABLE_NAME, NVL(c.COMMENTS, ' ')
		FROM ALL_TABLES t
		LEFT JOIN ALL_TAB_COMMENTS c ON c.OWNER = t.OWNER AND c.TABLE_NAME = t.TABLE_NAME
		WHERE t.OWNER = :1
		  AND t.NESTED = 'NO'
		  AND t.SECONDARY = 'N'
		ORDER BY t.TABLE_NAME`

	rows, err := o.db.QueryContext(ctx, query, o.owner)
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
		t.comment = strings.TrimSpace(t.comment)
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (o *Oracle) discoverColumns(ctx context.Context) ([]columnRow, error) {
	query := `
		SELECT c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE,
			CASE WHEN c.NULLABLE = 'Y' THEN 1 ELSE 0 END,
			c.DATA_DEFAULT, NVL(c.CHAR_LENGTH, 0), NVL(c.DATA_PRECISION, 0), NVL(c.DATA_SCALE, 0),
			NVL(cc.COMMENTS, ' ')
		FROM ALL_TAB_COLUMNS c
		LEFT JOIN ALL_COL_COMMENTS cc
		  ON cc.OWNER = c.OWNER AND cc.TABLE_NAME = c.TABLE_NAME AND cc.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.OWNER = :1
		ORDER BY c.TABLE_NAME, c.COLUMN_ID`

	rows, err := o.db.QueryContext(ctx, query, o.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []columnRow
	for rows.Next() {
		var (
			c        columnRow
			nullable int
		)
		if err := rows.Scan(&c.table, &c.name, &c.native.DataType, &nullable, &c.def,
			&c.native.Length, &c.native.Precision, &c.native.Scale, &c.comment); err != nil {
			return nil, err
		}
		c.nullable = nullable == 1
		c.comment = strings.TrimSpace(c.comment)
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (o *Oracle) discoverPrimaryKeys(ctx context.Context) ([]keyRow, error) {
	query := `
		SELECT c.TABLE_NAME, cc.COLUMN_NAME
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
		WHERE c.OWNER = :1
		  AND c.CONSTRAINT_TYPE = 'P'
		ORDER BY c.TABLE_NAME, cc.POSITION`

	rows, err := o.db.QueryContext(ctx, query, o.owner)
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

func (o *Oracle) discoverForeignKeys(ctx context.Context) ([]fkRow, error) {
	query := `
		SELECT c.TABLE_NAME, c.CONSTRAINT_NAME,
			cc.COLUMN_NAME,
			rc.TABLE_NAME AS REF_TABLE,
			rcc.COLUMN_NAME AS REF_COLUMN,
			c.DELETE_RULE
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
		JOIN ALL_CONSTRAINTS rc ON c.R_CONSTRAINT_NAME = rc.CONSTRAINT_NAME AND c.R_OWNER = rc.OWNER
		JOIN ALL_CONS_COLUMNS rcc ON rc.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME AND rc.OWNER = rcc.OWNER
			AND cc.POSITION = rcc.POSITION
		WHERE c.OWNER = :1
		  AND c.CONSTRAINT_TYPE = 'R'
		ORDER BY c.TABLE_NAME, c.CONSTRAINT_NAME, cc.POSITION`

	rows, err := o.db.QueryContext(ctx, query, o.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []fkRow
	for rows.Next() {
		var r fkRow
		if err := rows.Scan(&r.table, &r.constraint, &r.column, &r.refTable, &r.refField, &r.onDelete); err != nil {
			return nil, err
		}
		fks = append(fks, r)
	}
	return fks, rows.Err()
}

// discoverIndexes skips indexes backing primary keys and function-based
// indexes.
func (o *Oracle) discoverIndexes(ctx context.Context) ([]indexRow, error) {
	query := `
		SELECT i.TABLE_NAME, i.INDEX_NAME, CASE WHEN i.UNIQUENESS = 'UNIQUE' THEN 1 ELSE 0 END, ic.COLUMN_NAME
		FROM ALL_INDEXES i
		JOIN ALL_IND_COLUMNS ic ON i.INDEX_NAME = ic.INDEX_NAME AND i.OWNER = ic.INDEX_OWNER
		WHERE i.TABLE_OWNER = :1
		  AND i.INDEX_TYPE = 'NORMAL'
		  AND i.INDEX_NAME NOT IN (
			SELECT INDEX_NAME FROM ALL_CONSTRAINTS
			WHERE OWNER = :2 AND CONSTRAINT_TYPE = 'P' AND INDEX_NAME IS NOT NULL
		  )
		ORDER BY i.TABLE_NAME, i.INDEX_NAME, ic.COLUMN_POSITION`

	rows, err := o.db.QueryContext(ctx, query, o.owner, o.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []indexRow
	for rows.Next() {
		var (
			r      indexRow
			unique int
		)
		if err := rows.Scan(&r.table, &r.index, &unique, &r.column); err != nil {
			return nil, err
		}
		r.unique = unique == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

func (o *Oracle) discoverCheckConstraints(ctx context.Context) ([]checkRow, error) {
	query := `
		SELECT TABLE_NAME, CONSTRAINT_NAME, SEARCH_CONDITION
		FROM ALL_CONSTRAINTS
		WHERE OWNER = :1
		  AND CONSTRAINT_TYPE = 'C'
		ORDER BY TABLE_NAME, CONSTRAINT_NAME`

	rows, err := o.db.QueryContext(ctx, query, o.owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []checkRow
	for rows.Next() {
		var (
			r    checkRow
			cond *string
		)
		if err := rows.Scan(&r.table, &r.constraint, &cond); err != nil {
			return nil, err
		}
		if cond == nil || strings.Contains(*cond, "IS NOT NULL") {
			continue
		}
		r.clause = *cond
		out = append(out, r)
	}
	return out, rows.Err()
}

// detectIdentities returns identity columns. IDENTITY_COLUMN does not exist
// before 12c, in which case nothing is reported.
func (o *Oracle) detectIdentities(ctx context.Context) []keyRow {
	query := `
		SELECT TABLE_NAME, COLUMN_NAME
		FROM ALL_TAB_COLUMNS
		WHERE OWNER = :1
		  AND IDENTITY_COLUMN = 'YES'`

	rows, err := o.db.QueryContext(ctx, query, o.owner)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var keys []keyRow
	for rows.Next() {
		var k keyRow
		if err := rows.Scan(&k.table, &k.column); err != nil {
			return nil
		}
		keys = append(keys, k)
	}
	return keys
}

// compile-time interface check
var _ Discoverer = (*Oracle)(nil)
