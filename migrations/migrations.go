// Package migrations embeds the SQL schema migrations applied on startup.
package migrations

import "embed"

// FS holds the numbered up/down migration files under sql/.
//
//go:embed sql/*.sql
var FS embed.FS

// Dir is the directory inside FS that holds the migrations.
const Dir = "sql"
