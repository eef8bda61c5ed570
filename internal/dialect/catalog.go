package dialect

import "github.com/reloquent/schemaforge/internal/schema"

var allActions = []string{"CASCADE", "SET NULL", "SET DEFAULT", "RESTRICT", "NO ACTION"}

func mysql() *Dialect {
	return &Dialect{
		Name:                 MySQL,
		DisplayName:          "MySQL",
		QuoteOpen:            "`",
		QuoteClose:           "`",
		MaxIdentifierLength:  64,
		AutoIncrement:        AutoIncrementInline,
		AutoIncrementKeyword: "AUTO_INCREMENT",
		Features: Features{
			JSON:               true,
			CheckConstraints:   true,
			GeneratedColumns:   true,
			CTEs:               true,
			NativeEnum:         true,
			FulltextIndexes:    true,
			AlterColumnType:    true,
			AlterAddConstraint: true,
			TableIfNotExists:   true,
			InlineIndexes:      true,
		},
		NowExpression: "CURRENT_TIMESTAMP",
		TrueLiteral:   "1",
		FalseLiteral:  "0",
		Comments:      CommentInline,
		TableOptions: []TableOption{
			{Key: "engine", Format: "ENGINE={value}", Default: "InnoDB"},
			{Key: "charset", Format: "DEFAULT CHARSET={value}", Default: "utf8mb4"},
			{Key: "collate", Format: "COLLATE={value}", Default: "utf8mb4_unicode_ci"},
		},
		Formats: Formats{
			AddColumn:      "ALTER TABLE {table} ADD COLUMN {definition}",
			DropColumn:     "ALTER TABLE {table} DROP COLUMN {column}",
			ModifyColumn:   "ALTER TABLE {table} MODIFY COLUMN {definition}",
			DropTable:      "DROP TABLE IF EXISTS {table}",
			DropIndex:      "DROP INDEX {index} ON {table}",
			DropConstraint: "ALTER TABLE {table} DROP CONSTRAINT {constraint}",
			DropForeignKey: "ALTER TABLE {table} DROP FOREIGN KEY {constraint}",
			Begin:          "START TRANSACTION;",
			Commit:         "COMMIT;",
		},
		DeleteActions: []string{"CASCADE", "SET NULL", "RESTRICT", "NO ACTION"},
		UpdateActions: []string{"CASCADE", "SET NULL", "RESTRICT", "NO ACTION"},
		types: map[schema.FieldType]TypeSpec{
			schema.TypeInt:       {Native: "INT"},
			schema.TypeBigInt:    {Native: "BIGINT"},
			schema.TypeSmallInt:  {Native: "SMALLINT"},
			schema.TypeTinyInt:   {Native: "TINYINT"},
			schema.TypeDecimal:   {Native: "DECIMAL", Params: ParamPrecision, DefaultPrecision: 10, DefaultScale: 2},
			schema.TypeFloat:     {Native: "FLOAT"},
			schema.TypeDouble:    {Native: "DOUBLE"},
			schema.TypeChar:      {Native: "CHAR", Params: ParamLength, DefaultLength: 1},
			schema.TypeVarchar:   {Native: "VARCHAR", Params: ParamLength, DefaultLength: 255},
			schema.TypeText:      {Native: "TEXT"},
			schema.TypeLongText:  {Native: "LONGTEXT"},
			schema.TypeBoolean:   {Native: "TINYINT(1)"},
			schema.TypeDate:      {Native: "DATE"},
			schema.TypeTime:      {Native: "TIME"},
			schema.TypeDateTime:  {Native: "DATETIME"},
			schema.TypeTimestamp: {Native: "TIMESTAMP"},
			schema.TypeJSON:      {Native: "JSON"},
			schema.TypeBlob:      {Native: "BLOB"},
			schema.TypeEnum:      {Native: "ENUM", NativeEnum: true},
		},
	}
}

func postgres() *Dialect {
	return &Dialect{
		Name:                 PostgreSQL,
		DisplayName:          "PostgreSQL",
		QuoteOpen:            `"`,
		QuoteClose:           `"`,
		MaxIdentifierLength:  63,
		AutoIncrement:        AutoIncrementIdentity,
		AutoIncrementKeyword: "GENERATED BY DEFAULT AS IDENTITY",
		Features: Features{
			JSON:               true,
			UUID:               true,
			Arrays:             true,
			PartialIndexes:     true,
			CheckConstraints:   true,
			GeneratedColumns:   true,
			CTEs:               true,
			AlterColumnType:    true,
			AlterAddConstraint: true,
			TableIfNotExists:   true,
			IndexIfNotExists:   true,
		},
		NowExpression: "CURRENT_TIMESTAMP",
		TrueLiteral:   "TRUE",
		FalseLiteral:  "FALSE",
		Comments:      CommentStatement,
		TableOptions: []TableOption{
			{Key: "tablespace", Format: "TABLESPACE {value}"},
		},
		Formats: Formats{
			AddColumn:      "ALTER TABLE {table} ADD COLUMN {definition}",
			DropColumn:     "ALTER TABLE {table} DROP COLUMN {column}",
			ModifyColumn:   "ALTER TABLE {table} ALTER COLUMN {column} TYPE {type}",
			SetNotNull:     "ALTER TABLE {table} ALTER COLUMN {column} SET NOT NULL",
			DropNotNull:    "ALTER TABLE {table} ALTER COLUMN {column} DROP NOT NULL",
			SetDefault:     "ALTER TABLE {table} ALTER COLUMN {column} SET DEFAULT {default}",
			DropDefault:    "ALTER TABLE {table} ALTER COLUMN {column} DROP DEFAULT",
			DropTable:      "DROP TABLE IF EXISTS {table}",
			DropIndex:      "DROP INDEX IF EXISTS {index}",
			DropConstraint: "ALTER TABLE {table} DROP CONSTRAINT {constraint}",
			Begin:          "BEGIN;",
			Commit:         "COMMIT;",
		},
		DeleteActions: allActions,
		UpdateActions: allActions,
		types: map[schema.FieldType]TypeSpec{
			schema.TypeInt:       {Native: "INTEGER"},
			schema.TypeBigInt:    {Native: "BIGINT"},
			schema.TypeSmallInt:  {Native: "SMALLINT"},
			schema.TypeDecimal:   {Native: "NUMERIC", Params: ParamPrecision, DefaultPrecision: 10, DefaultScale: 2},
			schema.TypeFloat:     {Native: "REAL"},
			schema.TypeDouble:    {Native: "DOUBLE PRECISION"},
			schema.TypeChar:      {Native: "CHAR", Params: ParamLength, DefaultLength: 1},
			schema.TypeVarchar:   {Native: "VARCHAR", Params: ParamLength, DefaultLength: 255},
			schema.TypeText:      {Native: "TEXT"},
			schema.TypeBoolean:   {Native: "BOOLEAN"},
			schema.TypeDate:      {Native: "DATE"},
			schema.TypeTime:      {Native: "TIME"},
			schema.TypeTimestamp: {Native: "TIMESTAMP"},
			schema.TypeJSON:      {Native: "JSONB"},
			schema.TypeUUID:      {Native: "UUID"},
			schema.TypeBlob:      {Native: "BYTEA"},
			schema.TypeArray:     {Native: "TEXT[]"},
			schema.TypeEnum:      {Native: "VARCHAR", EnumCheck: true},
		},
	}
}

func sqlserver() *Dialect {
	return &Dialect{
		Name:                 SQLServer,
		DisplayName:          "SQL Server",
		QuoteOpen:            "[",
		QuoteClose:           "]",
		MaxIdentifierLength:  128,
		AutoIncrement:        AutoIncrementIdentity,
		AutoIncrementKeyword: "IDENTITY(1,1)",
		Features: Features{
			UUID:               true,
			PartialIndexes:     true,
			CheckConstraints:   true,
			GeneratedColumns:   true,
			CTEs:               true,
			AlterColumnType:    true,
			AlterAddConstraint: true,
			InlineIndexes:      true,
		},
		NowExpression: "GETDATE()",
		TrueLiteral:   "1",
		FalseLiteral:  "0",
		Comments:      CommentNone,
		Formats: Formats{
			AddColumn:      "ALTER TABLE {table} ADD {definition}",
			DropColumn:     "ALTER TABLE {table} DROP COLUMN {column}",
			ModifyColumn:   "ALTER TABLE {table} ALTER COLUMN {column} {type}{null}",
			DropTable:      "DROP TABLE IF EXISTS {table}",
			DropIndex:      "DROP INDEX {index} ON {table}",
			DropConstraint: "ALTER TABLE {table} DROP CONSTRAINT {constraint}",
			Begin:          "BEGIN TRANSACTION;",
			Commit:         "COMMIT TRANSACTION;",
		},
		DeleteActions: []string{"CASCADE", "SET NULL", "SET DEFAULT", "NO ACTION"},
		UpdateActions: []string{"CASCADE", "SET NULL", "SET DEFAULT", "NO ACTION"},
		types: map[schema.FieldType]TypeSpec{
			schema.TypeInt:       {Native: "INT"},
			schema.TypeBigInt:    {Native: "BIGINT"},
			schema.TypeSmallInt:  {Native: "SMALLINT"},
			schema.TypeTinyInt:   {Native: "TINYINT"},
			schema.TypeDecimal:   {Native: "DECIMAL", Params: ParamPrecision, DefaultPrecision: 10, DefaultScale: 2},
			schema.TypeFloat:     {Native: "REAL"},
			schema.TypeDouble:    {Native: "FLOAT"},
			schema.TypeChar:      {Native: "NCHAR", Params: ParamLength, DefaultLength: 1},
			schema.TypeVarchar:   {Native: "NVARCHAR", Params: ParamLength, DefaultLength: 255},
			schema.TypeText:      {Native: "NVARCHAR(MAX)"},
			schema.TypeBoolean:   {Native: "BIT"},
			schema.TypeDate:      {Native: "DATE"},
			schema.TypeTime:      {Native: "TIME"},
			schema.TypeDateTime:  {Native: "DATETIME2"},
			schema.TypeTimestamp: {Native: "DATETIME2"},
			schema.TypeUUID:      {Native: "UNIQUEIDENTIFIER"},
			schema.TypeBlob:      {Native: "VARBINARY(MAX)"},
			schema.TypeEnum:      {Native: "NVARCHAR", EnumCheck: true},
		},
	}
}

func oracle() *Dialect {
	return &Dialect{
		Name:                Oracle,
		DisplayName:         "Oracle",
		QuoteOpen:           `"`,
		QuoteClose:          `"`,
		MaxIdentifierLength: 128,
		AutoIncrement:       AutoIncrementSequence,
		Features: Features{
			CheckConstraints:   true,
			GeneratedColumns:   true,
			CTEs:               true,
			AlterColumnType:    true,
			AlterAddConstraint: true,
		},
		NowExpression: "SYSTIMESTAMP",
		TrueLiteral:   "1",
		FalseLiteral:  "0",
		Comments:      CommentStatement,
		TableOptions: []TableOption{
			{Key: "tablespace", Format: "TABLESPACE {value}"},
		},
		Formats: Formats{
			AddColumn:      "ALTER TABLE {table} ADD ({definition})",
			DropColumn:     "ALTER TABLE {table} DROP COLUMN {column}",
			ModifyColumn:   "ALTER TABLE {table} MODIFY ({column} {type}{default_change}{null_change})",
			DropTable:      "DROP TABLE {table} CASCADE CONSTRAINTS",
			DropIndex:      "DROP INDEX {index}",
			DropConstraint: "ALTER TABLE {table} DROP CONSTRAINT {constraint}",
			CreateSequence: "CREATE SEQUENCE {sequence} START WITH 1 INCREMENT BY 1",
			DropSequence:   "DROP SEQUENCE {sequence}",
			NextValue:      "{sequence}.NEXTVAL",
			Begin:          "SET TRANSACTION READ WRITE;",
			Commit:         "COMMIT;",
		},
		DeleteActions: []string{"CASCADE", "SET NULL"},
		UpdateActions: nil,
		types: map[schema.FieldType]TypeSpec{
			schema.TypeInt:       {Native: "NUMBER(10)"},
			schema.TypeBigInt:    {Native: "NUMBER(19)"},
			schema.TypeSmallInt:  {Native: "NUMBER(5)"},
			schema.TypeTinyInt:   {Native: "NUMBER(3)"},
			schema.TypeDecimal:   {Native: "NUMBER", Params: ParamPrecision, DefaultPrecision: 10, DefaultScale: 2},
			schema.TypeFloat:     {Native: "BINARY_FLOAT"},
			schema.TypeDouble:    {Native: "BINARY_DOUBLE"},
			schema.TypeChar:      {Native: "CHAR", Params: ParamLength, DefaultLength: 1},
			schema.TypeVarchar:   {Native: "VARCHAR2", Params: ParamLength, DefaultLength: 255},
			schema.TypeText:      {Native: "CLOB"},
			schema.TypeBoolean:   {Native: "NUMBER(1)"},
			schema.TypeDate:      {Native: "DATE"},
			schema.TypeDateTime:  {Native: "TIMESTAMP"},
			schema.TypeTimestamp: {Native: "TIMESTAMP"},
			schema.TypeBlob:      {Native: "BLOB"},
			schema.TypeEnum:      {Native: "VARCHAR2", EnumCheck: true},
		},
	}
}

func sqlite() *Dialect {
	return &Dialect{
		Name:                 SQLite,
		DisplayName:          "SQLite",
		QuoteOpen:            `"`,
		QuoteClose:           `"`,
		MaxIdentifierLength:  128,
		AutoIncrement:        AutoIncrementInline,
		AutoIncrementKeyword: "AUTOINCREMENT",
		InlinePrimaryKey:     true,
		Features: Features{
			JSON:             true,
			PartialIndexes:   true,
			CheckConstraints: true,
			GeneratedColumns: true,
			CTEs:             true,
			TableIfNotExists: true,
			IndexIfNotExists: true,
		},
		NowExpression: "CURRENT_TIMESTAMP",
		TrueLiteral:   "1",
		FalseLiteral:  "0",
		Comments:      CommentNone,
		Formats: Formats{
			AddColumn:  "ALTER TABLE {table} ADD COLUMN {definition}",
			DropColumn: "ALTER TABLE {table} DROP COLUMN {column}",
			DropTable:  "DROP TABLE IF EXISTS {table}",
			DropIndex:  "DROP INDEX IF EXISTS {index}",
			Begin:      "BEGIN TRANSACTION;",
			Commit:     "COMMIT;",
		},
		DeleteActions: allActions,
		UpdateActions: allActions,
		types: map[schema.FieldType]TypeSpec{
			schema.TypeInt:       {Native: "INTEGER"},
			schema.TypeBigInt:    {Native: "INTEGER"},
			schema.TypeSmallInt:  {Native: "INTEGER"},
			schema.TypeTinyInt:   {Native: "INTEGER"},
			schema.TypeDecimal:   {Native: "NUMERIC", Params: ParamPrecision, DefaultPrecision: 10, DefaultScale: 2},
			schema.TypeFloat:     {Native: "REAL"},
			schema.TypeDouble:    {Native: "REAL"},
			schema.TypeChar:      {Native: "TEXT"},
			schema.TypeVarchar:   {Native: "TEXT"},
			schema.TypeText:      {Native: "TEXT"},
			schema.TypeLongText:  {Native: "TEXT"},
			schema.TypeBoolean:   {Native: "INTEGER"},
			schema.TypeDate:      {Native: "DATE"},
			schema.TypeTime:      {Native: "TIME"},
			schema.TypeDateTime:  {Native: "DATETIME"},
			schema.TypeTimestamp: {Native: "TIMESTAMP"},
			schema.TypeJSON:      {Native: "TEXT"},
			schema.TypeBlob:      {Native: "BLOB"},
			schema.TypeEnum:      {Native: "TEXT", EnumCheck: true},
		},
	}
}

func ansi() *Dialect {
	return &Dialect{
		Name:                ANSI,
		DisplayName:         "ANSI SQL",
		QuoteOpen:           `"`,
		QuoteClose:          `"`,
		MaxIdentifierLength: 128,
		AutoIncrement:       AutoIncrementNone,
		Features: Features{
			CheckConstraints:   true,
			CTEs:               true,
			AlterColumnType:    true,
			AlterAddConstraint: true,
		},
		NowExpression: "CURRENT_TIMESTAMP",
		TrueLiteral:   "TRUE",
		FalseLiteral:  "FALSE",
		Comments:      CommentNone,
		Formats: Formats{
			AddColumn:      "ALTER TABLE {table} ADD COLUMN {definition}",
			DropColumn:     "ALTER TABLE {table} DROP COLUMN {column}",
			ModifyColumn:   "ALTER TABLE {table} ALTER COLUMN {column} SET DATA TYPE {type}",
			SetNotNull:     "ALTER TABLE {table} ALTER COLUMN {column} SET NOT NULL",
			DropNotNull:    "ALTER TABLE {table} ALTER COLUMN {column} DROP NOT NULL",
			SetDefault:     "ALTER TABLE {table} ALTER COLUMN {column} SET DEFAULT {default}",
			DropDefault:    "ALTER TABLE {table} ALTER COLUMN {column} DROP DEFAULT",
			DropTable:      "DROP TABLE {table}",
			DropIndex:      "DROP INDEX {index}",
			DropConstraint: "ALTER TABLE {table} DROP CONSTRAINT {constraint}",
			Begin:          "START TRANSACTION;",
			Commit:         "COMMIT;",
		},
		DeleteActions: allActions,
		UpdateActions: allActions,
		types: map[schema.FieldType]TypeSpec{
			schema.TypeInt:       {Native: "INTEGER"},
			schema.TypeBigInt:    {Native: "BIGINT"},
			schema.TypeSmallInt:  {Native: "SMALLINT"},
			schema.TypeDecimal:   {Native: "DECIMAL", Params: ParamPrecision, DefaultPrecision: 10, DefaultScale: 2},
			schema.TypeFloat:     {Native: "REAL"},
			schema.TypeDouble:    {Native: "DOUBLE PRECISION"},
			schema.TypeChar:      {Native: "CHAR", Params: ParamLength, DefaultLength: 1},
			schema.TypeVarchar:   {Native: "VARCHAR", Params: ParamLength, DefaultLength: 255},
			schema.TypeText:      {Native: "CLOB"},
			schema.TypeBoolean:   {Native: "BOOLEAN"},
			schema.TypeDate:      {Native: "DATE"},
			schema.TypeTime:      {Native: "TIME"},
			schema.TypeTimestamp: {Native: "TIMESTAMP"},
			schema.TypeBlob:      {Native: "BLOB"},
			schema.TypeEnum:      {Native: "VARCHAR", EnumCheck: true},
		},
	}
}
