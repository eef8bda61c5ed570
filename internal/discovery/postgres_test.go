package discovery_test

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reloquent/schemaforge/internal/config"
	"github.com/reloquent/schemaforge/internal/discovery"
	"github.com/reloquent/schemaforge/internal/schema"
)

// pgTestConfig returns a SourceConfig from environment variables.
// Set SCHEMAFORGE_TEST_PG_HOST to enable the integration tests, and
// optionally SCHEMAFORGE_TEST_PG_PORT (default 5432), SCHEMAFORGE_TEST_PG_DATABASE
// (default schemaforge_test), SCHEMAFORGE_TEST_PG_USER and
// SCHEMAFORGE_TEST_PG_PASSWORD (default postgres).
func pgTestConfig(t *testing.T) *config.SourceConfig {
	t.Helper()
	host := os.Getenv("SCHEMAFORGE_TEST_PG_HOST")
	if host == "" {
		t.Skip("skipping: SCHEMAFORGE_TEST_PG_HOST not set")
	}
	port := 5432
	if p, err := strconv.Atoi(os.Getenv("SCHEMAFORGE_TEST_PG_PORT")); err == nil {
		port = p
	}
	return &config.SourceConfig{
		Type:           "postgresql",
		Host:           host,
		Port:           port,
		Database:       envOr("SCHEMAFORGE_TEST_PG_DATABASE", "schemaforge_test"),
		Username:       envOr("SCHEMAFORGE_TEST_PG_USER", "postgres"),
		Password:       envOr("SCHEMAFORGE_TEST_PG_PASSWORD", "postgres"),
		Schema:         "public",
		MaxConnections: 4,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// setupTestSchema creates tables covering keys, indexes, checks and enums.
func setupTestSchema(t *testing.T, cfg *config.SourceConfig) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, "postgres://"+cfg.Username+":"+cfg.Password+"@"+cfg.Host+":"+strconv.Itoa(cfg.Port)+"/"+cfg.Database+"?sslmode=disable")
	if err != nil {
		t.Skipf("skipping: cannot connect to PostgreSQL: %v", err)
	}
	defer conn.Close(ctx)

	drop := []string{
		`DROP TABLE IF EXISTS order_items CASCADE`,
		`DROP TABLE IF EXISTS orders CASCADE`,
		`DROP TABLE IF EXISTS customers CASCADE`,
		`DROP TYPE IF EXISTS customer_tier`,
	}
	stmts := append(append([]string{}, drop...),
		`CREATE TYPE customer_tier AS ENUM ('free', 'pro')`,
		`CREATE TABLE customers (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name TEXT NOT NULL,
			tier customer_tier DEFAULT 'free',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
			score NUMERIC(10,2),
			CONSTRAINT customers_score_positive CHECK (score >= 0)
		)`,
		`COMMENT ON TABLE customers IS 'registered buyers'`,
		`CREATE TABLE orders (
			id BIGSERIAL PRIMARY KEY,
			customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			order_date DATE NOT NULL,
			total NUMERIC(12,2) NOT NULL,
			status VARCHAR(20) DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'shipped'))
		)`,
		`CREATE INDEX idx_orders_date_status ON orders(order_date, status)`,
		`CREATE TABLE order_items (
			order_id BIGINT NOT NULL REFERENCES orders(id),
			line_no INTEGER NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (order_id, line_no)
		)`,
	)
	for _, stmt := range stmts {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("setup DDL failed: %s: %v", stmt, err)
		}
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		conn, err := pgx.Connect(ctx, "postgres://"+cfg.Username+":"+cfg.Password+"@"+cfg.Host+":"+strconv.Itoa(cfg.Port)+"/"+cfg.Database+"?sslmode=disable")
		if err != nil {
			return
		}
		defer conn.Close(ctx)
		for _, stmt := range drop {
			conn.Exec(ctx, stmt)
		}
	})
}

func TestPostgresDiscoverIntegration(t *testing.T) {
	cfg := pgTestConfig(t)
	setupTestSchema(t, cfg)

	ctx := context.Background()
	d, err := discovery.NewPostgres(cfg, nil)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer d.Close()

	if err := d.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	res, err := d.Discover(ctx)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	m := res.Model
	if err := m.Check(); err != nil {
		t.Fatalf("discovered model is malformed: %v", err)
	}

	t.Run("customers", func(t *testing.T) {
		tbl := m.Table("customers")
		if tbl == nil {
			t.Fatal("customers table not found")
		}
		if len(tbl.Fields) != 6 {
			t.Errorf("expected 6 fields, got %d", len(tbl.Fields))
		}
		if tbl.Comment != "registered buyers" {
			t.Errorf("expected table comment, got %q", tbl.Comment)
		}
		id := tbl.Field("id")
		if id == nil || !id.PrimaryKey || !id.AutoIncrement || id.Type != schema.TypeInt {
			t.Errorf("unexpected id field: %+v", id)
		}
		email := tbl.Field("email")
		if email == nil || !email.Unique || email.Nullable || email.Length != 255 {
			t.Errorf("unexpected email field: %+v", email)
		}
		tier := tbl.Field("tier")
		if tier == nil || tier.Type != schema.TypeEnum || strings.Join(tier.EnumValues, ",") != "free,pro" {
			t.Errorf("unexpected tier field: %+v", tier)
		}
		if tier != nil && tier.Default != "free" {
			t.Errorf("expected tier default free, got %v", tier.Default)
		}
		if f := tbl.Field("created_at"); f == nil || f.Default != "CURRENT_TIMESTAMP" {
			t.Errorf("unexpected created_at field: %+v", f)
		}
		score := tbl.Field("score")
		if score == nil || !score.Nullable || score.Precision != 10 || score.Scale != 2 {
			t.Errorf("unexpected score field: %+v", score)
		}
	})

	t.Run("orders", func(t *testing.T) {
		tbl := m.Table("orders")
		if tbl == nil {
			t.Fatal("orders table not found")
		}
		if id := tbl.Field("id"); id == nil || id.Type != schema.TypeBigInt || !id.AutoIncrement {
			t.Errorf("unexpected id field: %+v", id)
		}
		status := tbl.Field("status")
		if status == nil || status.Type != schema.TypeEnum || len(status.EnumValues) != 3 {
			t.Errorf("expected status enum from check constraint, got %+v", status)
		}
		ref := tbl.Field("customer_id").References
		if ref == nil || ref.Table != "customers" || ref.Field != "id" {
			t.Errorf("unexpected reference: %+v", ref)
		}
		rel := m.RelationshipFor("orders", "customer_id")
		if rel == nil || rel.OnDelete != "CASCADE" || rel.OnUpdate != "" {
			t.Errorf("unexpected relationship: %+v", rel)
		}
		found := false
		for _, ix := range tbl.Indexes {
			if ix.Name == "idx_orders_date_status" {
				found = true
				if strings.Join(ix.Fields, ",") != "order_date,status" {
					t.Errorf("unexpected index fields: %v", ix.Fields)
				}
			}
		}
		if !found {
			t.Error("expected idx_orders_date_status")
		}
	})

	t.Run("order_items", func(t *testing.T) {
		tbl := m.Table("order_items")
		if tbl == nil {
			t.Fatal("order_items table not found")
		}
		if got := strings.Join(tbl.PrimaryKeyFields(), ","); got != "order_id,line_no" {
			t.Errorf("expected composite key, got %s", got)
		}
		if len(tbl.Indexes) != 0 {
			t.Errorf("primary key index should not be listed, got %+v", tbl.Indexes)
		}
		if f := tbl.Field("quantity"); f == nil || f.Default != "1" {
			t.Errorf("unexpected quantity default: %+v", f)
		}
	})
}

func TestNewPostgresDefaultsToPublicSchema(t *testing.T) {
	d, err := discovery.NewPostgres(&config.SourceConfig{Type: "postgresql", Host: "localhost", Port: 5432, Database: "app"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if d == nil {
		t.Fatal("expected discoverer")
	}
}

func TestPostgresConnStringOmitsPassword(t *testing.T) {
	d, _ := discovery.NewPostgres(&config.SourceConfig{
		Type: "postgresql", Host: "db.internal", Port: 5433, Database: "shop",
		Username: "reader", Password: "s3cret", SSL: true,
	}, nil)
	conn := d.ConnString()

	if strings.Contains(conn, "s3cret") {
		t.Errorf("connection string leaks the password: %s", conn)
	}
	for _, want := range []string{"postgres://reader@db.internal:5433/shop", "sslmode=require", "application_name=schemaforge"} {
		if !strings.Contains(conn, want) {
			t.Errorf("expected %q in %s", want, conn)
		}
	}
}

func TestDiscoverWithoutConnectFails(t *testing.T) {
	d, err := discovery.NewPostgres(&config.SourceConfig{Type: "postgresql", Host: "localhost", Port: 5432}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Discover(context.Background()); err == nil {
		t.Error("expected error when discovering without connecting")
	}
}

func TestFactoryDispatch_Postgres(t *testing.T) {
	d, err := discovery.New(&config.SourceConfig{Type: "postgresql"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := d.(*discovery.Postgres); !ok {
		t.Errorf("expected *Postgres, got %T", d)
	}
}
