package sqlstore

import (
	"fmt"
	"strings"
)

// dialect holds the SQL that differs between database/sql backends.
type dialect struct {
	name   string // registered cache backend kind
	driver string // database/sql driver name

	placeholder func(i int) string // 1-based
	ident       func(name string) string
	createTable func(table string) string
	upsert      func(table string) string
}

var sqliteDialect = dialect{
	name:        "sqlite",
	driver:      "sqlite",
	placeholder: func(int) string { return "?" },
	ident:       sqliteIdent,
	createTable: func(table string) string {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	cache_key  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`, table)
	},
	upsert: func(table string) string {
		return fmt.Sprintf(`INSERT INTO %s (cache_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`, table)
	},
}

var mssqlDialect = dialect{
	name:        "mssql",
	driver:      "sqlserver",
	placeholder: func(i int) string { return fmt.Sprintf("@p%d", i) },
	ident:       msFQN,
	createTable: func(table string) string {
		return fmt.Sprintf(`IF OBJECT_ID(N'%s', N'U') IS NULL
CREATE TABLE %s (
	cache_key  NVARCHAR(256) NOT NULL PRIMARY KEY,
	payload    VARBINARY(MAX) NOT NULL,
	updated_at DATETIME2 NOT NULL
)`, strings.ReplaceAll(table, "'", "''"), table)
	},
	upsert: func(table string) string {
		return fmt.Sprintf(`MERGE %s WITH (HOLDLOCK) AS tgt
USING (SELECT @p1 AS cache_key, @p2 AS payload, @p3 AS updated_at) AS src
ON tgt.cache_key = src.cache_key
WHEN MATCHED THEN UPDATE SET payload = src.payload, updated_at = src.updated_at
WHEN NOT MATCHED THEN INSERT (cache_key, payload, updated_at) VALUES (src.cache_key, src.payload, src.updated_at);`, table)
	},
}

// sqliteIdent quotes a possibly schema-qualified name ("main.cache").
func sqliteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// msIdent quotes a single SQL Server identifier.
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly qualified name like "dbo.ares_cache".
func msFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = msIdent(p)
	}
	return strings.Join(parts, ".")
}
