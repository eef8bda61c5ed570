package migration

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reloquent/schemaforge/internal/dialect"
	"github.com/reloquent/schemaforge/internal/schema"
)

func shop() *schema.Model {
	return &schema.Model{
		Name:    "shop",
		Version: "1",
		Tables: []schema.Table{
			{
				Name: "users",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeInt, PrimaryKey: true, AutoIncrement: true},
					{Name: "username", Type: schema.TypeVarchar, Length: 50},
				},
			},
			{
				Name: "orders",
				Fields: []schema.Field{
					{Name: "id", Type: schema.TypeInt, PrimaryKey: true, AutoIncrement: true},
					{Name: "user_id", Type: schema.TypeInt, References: &schema.Reference{Table: "users", Field: "id"}},
				},
			},
		},
	}
}

func opTypes(s *Script) []OperationType {
	out := make([]OperationType, len(s.Operations))
	for i, op := range s.Operations {
		out[i] = op.Type
	}
	return out
}

func warningText(s *Script) string {
	var parts []string
	for _, w := range s.Metadata.Warnings {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, "\n")
}

func TestGenerateDiff_AddNullableColumn(t *testing.T) {
	before := shop()
	after := shop()
	after.Version = "2"
	after.Tables[0].Fields = append(after.Tables[0].Fields,
		schema.Field{Name: "phone", Type: schema.TypeVarchar, Length: 20, Nullable: true})

	s, err := GenerateDiff(before, after, dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, s.Operations, 1)
	op := s.Operations[0]
	assert.Equal(t, OpAddColumn, op.Type)
	assert.Equal(t, []string{"ALTER TABLE `users` ADD COLUMN `phone` VARCHAR(20);"}, op.Up)
	assert.Equal(t, []string{"ALTER TABLE `users` DROP COLUMN `phone`;"}, s.DownQueries)
	assert.Equal(t, op.Up, s.UpQueries)

	assert.False(t, s.Metadata.DataLoss)
	assert.Equal(t, 2, s.Metadata.RiskScore)
	assert.Equal(t, RiskLow, s.Metadata.RiskLevel)
	assert.Equal(t, 3, s.Metadata.EstimatedTime)
	assert.Equal(t, "2", s.Version)
	assert.Equal(t, "Migrate shop from 1 to 2: 0 added, 0 removed, 1 modified tables", s.Metadata.Description)
	assert.NotEmpty(t, s.ID)
}

func TestGenerateDiff_DropTable(t *testing.T) {
	before := shop()
	after := shop()
	after.Tables = after.Tables[:1]

	s, err := GenerateDiff(before, after, dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, []OperationType{OpDropTable}, opTypes(s))
	assert.Equal(t, []string{"DROP TABLE IF EXISTS `orders`;"}, s.Operations[0].Up)
	assert.True(t, s.Metadata.DataLoss)
	assert.Equal(t, 10, s.Metadata.RiskScore)
	assert.Equal(t, RiskMedium, s.Metadata.RiskLevel)
	assert.Equal(t, 1, s.DataLossOperations())

	// The inverse recreates the table with its foreign key and index.
	down := strings.Join(s.DownQueries, "\n")
	assert.Contains(t, down, "CREATE TABLE `orders`")
	assert.Contains(t, down, "ADD CONSTRAINT `fk_orders_user_id`")
	assert.Contains(t, down, "CREATE INDEX `idx_orders_user_id`")
}

func TestGenerateDiff_DropsDependentsFirst(t *testing.T) {
	s, err := GenerateDiff(shop(), &schema.Model{Name: "shop"}, dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, s.Operations, 2)
	assert.Equal(t, "orders", s.Operations[0].Table)
	assert.Equal(t, "users", s.Operations[1].Table)
	assert.Equal(t, 20, s.Metadata.RiskScore)
	assert.Equal(t, RiskMedium, s.Metadata.RiskLevel)
}

func TestGenerateDiff_SafeModeCommentsOutDrops(t *testing.T) {
	after := shop()
	after.Tables = after.Tables[:1]
	opts := DefaultOptions()
	opts.SafeMode = true

	s, err := GenerateDiff(shop(), after, dialect.PostgreSQL, opts)
	require.NoError(t, err)

	require.Len(t, s.Operations, 1)
	assert.Equal(t, []string{
		"-- safe mode: drop of table orders disabled",
		`-- DROP TABLE IF EXISTS "orders";`,
	}, s.Operations[0].Up)
	for _, q := range s.UpQueries {
		assert.True(t, strings.HasPrefix(q, "--"), q)
	}
	assert.True(t, s.Metadata.DataLoss)
}

func TestGenerateDiff_IdenticalModelsProduceNoOperations(t *testing.T) {
	s, err := GenerateDiff(shop(), shop(), dialect.SQLServer, DefaultOptions())
	require.NoError(t, err)

	assert.Empty(t, s.Operations)
	assert.NotNil(t, s.UpQueries)
	assert.Empty(t, s.UpQueries)
	assert.Empty(t, s.DownQueries)
	assert.Equal(t, RiskLow, s.Metadata.RiskLevel)
	assert.False(t, s.Metadata.DataLoss)
}

func TestGenerateCreate_MatchesDiffFromEmpty(t *testing.T) {
	for _, name := range dialect.Names() {
		t.Run(string(name), func(t *testing.T) {
			created, err := GenerateCreate(shop(), name, DefaultOptions())
			require.NoError(t, err)
			diffed, err := GenerateDiff(nil, shop(), name, DefaultOptions())
			require.NoError(t, err)

			assert.Equal(t, created.UpQueries, diffed.UpQueries)
			assert.Equal(t, opTypes(created), opTypes(diffed))
			assert.Equal(t, RiskLow, created.Metadata.RiskLevel)
			assert.Zero(t, created.Metadata.RiskScore)
			assert.Contains(t, created.SQL(), "-- Risk: LOW (score 0), data loss: no")
			assert.False(t, created.Metadata.DataLoss)
		})
	}
}

func TestGenerateCreate_DownQueriesReverseOrder(t *testing.T) {
	s, err := GenerateCreate(shop(), dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []OperationType{OpCreateTable, OpCreateTable, OpAddConstraint, OpAddIndex}, opTypes(s))
	assert.Equal(t, []string{
		"DROP INDEX `idx_orders_user_id` ON `orders`;",
		"ALTER TABLE `orders` DROP FOREIGN KEY `fk_orders_user_id`;",
		"DROP TABLE IF EXISTS `orders`;",
		"DROP TABLE IF EXISTS `users`;",
	}, s.DownQueries)
	assert.Equal(t, "1", s.Version)
	assert.Equal(t, "Create schema shop", s.Metadata.Description)
}

func TestGenerateCreate_WithoutDownQueries(t *testing.T) {
	opts := DefaultOptions()
	opts.GenerateDown = false
	opts.Version = "v7"
	s, err := GenerateCreate(shop(), dialect.PostgreSQL, opts)
	require.NoError(t, err)

	assert.Empty(t, s.DownQueries)
	assert.Equal(t, "v7", s.Version)
}

func TestGenerateCreate_MalformedModel(t *testing.T) {
	_, err := GenerateCreate(&schema.Model{Tables: []schema.Table{{Name: ""}}}, dialect.MySQL, DefaultOptions())
	require.Error(t, err)

	_, err = GenerateDiff(shop(), &schema.Model{Tables: []schema.Table{{Name: "x"}}}, dialect.MySQL, DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "new model")
}

func TestGenerateDiff_PostgresNullabilityChange(t *testing.T) {
	before := shop()
	before.Tables[0].Fields[1].Nullable = true
	after := shop()

	s, err := GenerateDiff(before, after, dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, []OperationType{OpModifyColumn}, opTypes(s))
	assert.Equal(t, []string{`ALTER TABLE "users" ALTER COLUMN "username" SET NOT NULL;`}, s.Operations[0].Up)
	assert.Equal(t, []string{`ALTER TABLE "users" ALTER COLUMN "username" DROP NOT NULL;`}, s.Operations[0].Down)
	assert.Equal(t, 5, s.Metadata.RiskScore)
}

func TestGenerateDiff_PostgresTypeAndDefaultChange(t *testing.T) {
	after := shop()
	after.Tables[0].Fields[1].Length = 80
	after.Tables[0].Fields[1].Default = "guest"

	s, err := GenerateDiff(shop(), after, dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, s.Operations, 1)
	assert.Equal(t, []string{
		`ALTER TABLE "users" ALTER COLUMN "username" TYPE VARCHAR(80);`,
		`ALTER TABLE "users" ALTER COLUMN "username" SET DEFAULT 'guest';`,
	}, s.Operations[0].Up)
	assert.Equal(t, []string{
		`ALTER TABLE "users" ALTER COLUMN "username" TYPE VARCHAR(50);`,
		`ALTER TABLE "users" ALTER COLUMN "username" DROP DEFAULT;`,
	}, s.Operations[0].Down)
}

func TestGenerateDiff_MySQLModifyUsesFullDefinition(t *testing.T) {
	after := shop()
	after.Tables[0].Fields[1].Length = 80

	s, err := GenerateDiff(shop(), after, dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, s.Operations, 1)
	assert.Equal(t, []string{"ALTER TABLE `users` MODIFY COLUMN `username` VARCHAR(80) NOT NULL;"}, s.Operations[0].Up)
	assert.Equal(t, []string{"ALTER TABLE `users` MODIFY COLUMN `username` VARCHAR(50) NOT NULL;"}, s.Operations[0].Down)
}

func TestGenerateDiff_OracleModifyRestatesOnlyChangedClauses(t *testing.T) {
	after := shop()
	after.Tables[0].Fields[1].Length = 80

	s, err := GenerateDiff(shop(), after, dialect.Oracle, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Operations, 1)
	assert.Equal(t, []string{`ALTER TABLE "users" MODIFY ("username" VARCHAR2(80));`}, s.Operations[0].Up)
	assert.Equal(t, []string{`ALTER TABLE "users" MODIFY ("username" VARCHAR2(50));`}, s.Operations[0].Down)

	before := shop()
	before.Tables[0].Fields[1].Nullable = true
	s, err = GenerateDiff(before, shop(), dialect.Oracle, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Operations, 1)
	assert.Equal(t, []string{`ALTER TABLE "users" MODIFY ("username" VARCHAR2(50) NOT NULL);`}, s.Operations[0].Up)
	assert.Equal(t, []string{`ALTER TABLE "users" MODIFY ("username" VARCHAR2(50) NULL);`}, s.Operations[0].Down)

	after = shop()
	after.Tables[0].Fields[1].Default = "guest"
	s, err = GenerateDiff(shop(), after, dialect.Oracle, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Operations, 1)
	assert.Equal(t, []string{`ALTER TABLE "users" MODIFY ("username" VARCHAR2(50) DEFAULT 'guest');`}, s.Operations[0].Up)
	assert.Equal(t, []string{`ALTER TABLE "users" MODIFY ("username" VARCHAR2(50) DEFAULT NULL);`}, s.Operations[0].Down)
}

func TestGenerateDiff_SQLiteModifyNeedsRebuild(t *testing.T) {
	after := shop()
	after.Tables[0].Fields[1].Length = 80

	s, err := GenerateDiff(shop(), after, dialect.SQLite, DefaultOptions())
	require.NoError(t, err)

	require.Len(t, s.Operations, 1)
	op := s.Operations[0]
	assert.Equal(t, OpModifyColumn, op.Type)
	require.Len(t, op.Up, 1)
	assert.True(t, strings.HasPrefix(op.Up[0], "-- Table users must be rebuilt"), op.Up[0])
	assert.Contains(t, warningText(s), "SQLite cannot alter a column in place")
}

func TestGenerateDiff_DropForeignKeyColumn(t *testing.T) {
	after := shop()
	after.Tables[1].Fields = after.Tables[1].Fields[:1]

	s, err := GenerateDiff(shop(), after, dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []OperationType{OpDropConstraint, OpDropIndex, OpDropColumn}, opTypes(s))
	assert.Equal(t, []string{`ALTER TABLE "orders" DROP CONSTRAINT "fk_orders_user_id";`}, s.Operations[0].Up)
	assert.Equal(t, []string{`DROP INDEX IF EXISTS "idx_orders_user_id";`}, s.Operations[1].Up)
	assert.Equal(t, []string{`ALTER TABLE "orders" DROP COLUMN "user_id";`}, s.Operations[2].Up)
	assert.Equal(t, []string{`ALTER TABLE "orders" ADD COLUMN "user_id" INTEGER NOT NULL;`}, s.Operations[2].Down)
	assert.True(t, s.Metadata.DataLoss)
	assert.Equal(t, 11, s.Metadata.RiskScore)
	assert.Equal(t, RiskMedium, s.Metadata.RiskLevel)

	// Column comes back before its index and constraint.
	require.Len(t, s.DownQueries, 3)
	assert.Contains(t, s.DownQueries[0], "ADD COLUMN")
	assert.Contains(t, s.DownQueries[1], "CREATE INDEX")
	assert.Contains(t, s.DownQueries[2], "ADD CONSTRAINT")
}

func TestGenerateDiff_DropParentTableAfterForeignKey(t *testing.T) {
	after := shop()
	after.Tables = after.Tables[1:]
	after.Tables[0].Fields = after.Tables[0].Fields[:1]

	s, err := GenerateDiff(shop(), after, dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []OperationType{OpDropConstraint, OpDropIndex, OpDropColumn, OpDropTable}, opTypes(s))
	assert.Equal(t, []string{
		"ALTER TABLE `orders` DROP FOREIGN KEY `fk_orders_user_id`;",
		"DROP INDEX `idx_orders_user_id` ON `orders`;",
		"ALTER TABLE `orders` DROP COLUMN `user_id`;",
		"DROP TABLE IF EXISTS `users`;",
	}, s.UpQueries)
	assert.Equal(t, 21, s.Metadata.RiskScore)

	// The parent table is back before the foreign key that references it.
	require.Len(t, s.DownQueries, 4)
	assert.True(t, strings.HasPrefix(s.DownQueries[0], "CREATE TABLE `users`"), s.DownQueries[0])
	assert.Equal(t, "ALTER TABLE `orders` ADD COLUMN `user_id` INT NOT NULL;", s.DownQueries[1])
	assert.Contains(t, s.DownQueries[2], "CREATE INDEX `idx_orders_user_id`")
	assert.Contains(t, s.DownQueries[3], "ADD CONSTRAINT `fk_orders_user_id`")
}

func TestGenerateDiff_AddForeignKeyColumn(t *testing.T) {
	before := shop()
	before.Tables[1].Fields = before.Tables[1].Fields[:1]

	s, err := GenerateDiff(before, shop(), dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []OperationType{OpAddColumn, OpAddIndex, OpAddConstraint}, opTypes(s))
	assert.Equal(t, []string{`CREATE INDEX "idx_orders_user_id" ON "orders" ("user_id");`}, s.Operations[1].Up)
	assert.Contains(t, warningText(s), "NOT NULL column added without a default")

	sl, err := GenerateDiff(before, shop(), dialect.SQLite, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []OperationType{OpAddColumn, OpAddIndex}, opTypes(sl))
	assert.Contains(t, warningText(sl), "SQLite cannot add a foreign key to an existing table")
}

func usersWithProfile() *schema.Model {
	m := shop()
	m.Tables[0].Fields = append(m.Tables[0].Fields,
		schema.Field{Name: "email", Type: schema.TypeVarchar, Length: 255, Nullable: true, Unique: true},
		schema.Field{Name: "status", Type: schema.TypeEnum, EnumValues: []string{"a", "b"}, Nullable: true},
		schema.Field{Name: "slug", Type: schema.TypeVarchar, Length: 100, Nullable: true, Indexed: true},
	)
	return m
}

func TestGenerateDiff_AddColumnKeepsConstraintsAndIndexes(t *testing.T) {
	s, err := GenerateDiff(shop(), usersWithProfile(), dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []OperationType{
		OpAddColumn, OpAddConstraint,
		OpAddColumn, OpAddConstraint,
		OpAddColumn,
		OpAddIndex,
	}, opTypes(s))
	assert.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "email" VARCHAR(255);`,
		`ALTER TABLE "users" ADD CONSTRAINT "uq_users_email" UNIQUE ("email");`,
		`ALTER TABLE "users" ADD COLUMN "status" VARCHAR(1);`,
		`ALTER TABLE "users" ADD CONSTRAINT "chk_users_status" CHECK ("status" IN ('a', 'b'));`,
		`ALTER TABLE "users" ADD COLUMN "slug" VARCHAR(100);`,
		`CREATE INDEX "idx_users_slug" ON "users" ("slug");`,
	}, s.UpQueries)
	assert.Equal(t, []string{
		`DROP INDEX IF EXISTS "idx_users_slug";`,
		`ALTER TABLE "users" DROP COLUMN "slug";`,
		`ALTER TABLE "users" DROP CONSTRAINT "chk_users_status";`,
		`ALTER TABLE "users" DROP COLUMN "status";`,
		`ALTER TABLE "users" DROP CONSTRAINT "uq_users_email";`,
		`ALTER TABLE "users" DROP COLUMN "email";`,
	}, s.DownQueries)
	assert.Empty(t, s.Metadata.Warnings)

	// Dropping the columns again restores the constraints on the way back.
	back, err := GenerateDiff(usersWithProfile(), shop(), dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)
	down := strings.Join(back.DownQueries, "\n")
	assert.Contains(t, down, `ADD CONSTRAINT "uq_users_email" UNIQUE ("email")`)
	assert.Contains(t, down, `ADD CONSTRAINT "chk_users_status" CHECK`)
	assert.Contains(t, down, `CREATE INDEX "idx_users_slug"`)
}

func TestGenerateDiff_AddConstrainedColumnOnSQLite(t *testing.T) {
	s, err := GenerateDiff(shop(), usersWithProfile(), dialect.SQLite, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []OperationType{OpAddColumn, OpAddColumn, OpAddColumn, OpAddIndex}, opTypes(s))
	assert.Contains(t, s.Operations[0].Up, "-- Table users must be rebuilt to enforce the constraints of column email")
	assert.Contains(t, s.Operations[1].Up, "-- Table users must be rebuilt to enforce the constraints of column status")
	assert.Len(t, s.Operations[2].Up, 1)
	assert.Contains(t, s.Operations[3].Up[0], "idx_users_slug")
	assert.Contains(t, warningText(s), "SQLite cannot add constraints to an existing table; rebuild the table to enforce them")
}

func TestGenerateDiff_IndexChanges(t *testing.T) {
	before := shop()
	before.Tables[0].Indexes = []schema.Index{{Name: "idx_old", Fields: []string{"username"}}}
	after := shop()
	after.Tables[0].Indexes = []schema.Index{{Name: "uq_users_username", Fields: []string{"username"}, Unique: true}}

	s, err := GenerateDiff(before, after, dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []OperationType{OpDropIndex, OpAddIndex}, opTypes(s))
	assert.Equal(t, []string{`DROP INDEX IF EXISTS "idx_old";`}, s.Operations[0].Up)
	assert.Equal(t, []string{`CREATE UNIQUE INDEX "uq_users_username" ON "users" ("username");`}, s.Operations[1].Up)
	assert.Equal(t, []string{`DROP INDEX IF EXISTS "uq_users_username";`}, s.Operations[1].Down)
}

func TestRiskFor(t *testing.T) {
	assert.Equal(t, RiskLow, RiskFor(0))
	assert.Equal(t, RiskLow, RiskFor(9))
	assert.Equal(t, RiskMedium, RiskFor(10))
	assert.Equal(t, RiskMedium, RiskFor(24))
	assert.Equal(t, RiskHigh, RiskFor(25))
	assert.True(t, RiskHigh.AtLeast(RiskMedium))
	assert.False(t, RiskLow.AtLeast(RiskMedium))
}

func TestGeneratePlan(t *testing.T) {
	first, err := GenerateCreate(shop(), dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)
	first.Metadata.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	after := shop()
	after.Tables = after.Tables[:1]
	second, err := GenerateDiff(shop(), after, dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)
	second.Metadata.CreatedAt = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	p := GeneratePlan([]*Script{second, nil, first})
	require.Len(t, p.Scripts, 2)
	assert.Same(t, first, p.Scripts[0])
	assert.Same(t, second, p.Scripts[1])
	assert.Equal(t, len(first.Operations)+len(second.Operations), p.TotalOperations)
	assert.Equal(t, first.Metadata.EstimatedTime+second.Metadata.EstimatedTime, p.EstimatedTime)
	assert.Equal(t, RiskMedium, p.RiskLevel)
	assert.Equal(t, 1, p.DataLossOperations)

	empty := GeneratePlan(nil)
	assert.Equal(t, RiskLow, empty.RiskLevel)
	assert.Zero(t, empty.TotalOperations)
}

func TestRollbackScript(t *testing.T) {
	s, err := GenerateCreate(shop(), dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	text := RollbackScript(s, "0")
	assert.True(t, strings.HasPrefix(text, "-- Rollback of migration 1 to version 0\n"))
	assert.Contains(t, text, "-- Dialect: MySQL\n")
	assert.Contains(t, text, "START TRANSACTION;\n\nDROP INDEX `idx_orders_user_id` ON `orders`;")
	assert.True(t, strings.HasSuffix(text, "DROP TABLE IF EXISTS `users`;\n\nCOMMIT;\n"))

	s.DownQueries = nil
	assert.Contains(t, RollbackScript(s, "0"), "-- No down queries were recorded for this migration.")
}

func TestScript_WriteAndLoad(t *testing.T) {
	s, err := GenerateCreate(shop(), dialect.PostgreSQL, DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "migrations", s.FileName()+".yaml")
	require.NoError(t, s.WriteScript(path))

	loaded, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.Version, loaded.Version)
	assert.Equal(t, s.Dialect, loaded.Dialect)
	assert.Equal(t, s.UpQueries, loaded.UpQueries)
	assert.Equal(t, s.DownQueries, loaded.DownQueries)
	assert.Equal(t, opTypes(s), opTypes(loaded))
	assert.Equal(t, s.Metadata.RiskLevel, loaded.Metadata.RiskLevel)
	assert.True(t, s.Metadata.CreatedAt.Equal(loaded.Metadata.CreatedAt))
}

func TestLoadScript_Errors(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading migration script")
}

func TestScript_SQL(t *testing.T) {
	after := shop()
	after.Tables = after.Tables[:1]
	s, err := GenerateDiff(shop(), after, dialect.MySQL, DefaultOptions())
	require.NoError(t, err)

	text := s.SQL()
	assert.True(t, strings.HasPrefix(text, "-- Migration 1 (mysql)\n"), text)
	assert.Contains(t, text, "-- Risk: MEDIUM (score 10), data loss: yes, estimated time: 1s\n")
	assert.Contains(t, text, "-- +up\nDROP TABLE IF EXISTS `orders`;\n")
	assert.Contains(t, text, "-- +down\n-- CREATE TABLE `orders` (\n")
	assert.Equal(t, "1_mysql", s.FileName())
}
