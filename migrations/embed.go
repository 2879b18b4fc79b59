// Package migrations ships the Postgres schema inside the binaries.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
