// Package migrations holds the Postgres schema, applied at startup by golang-migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
