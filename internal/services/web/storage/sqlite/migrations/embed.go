package migrations

import "embed"

// FS holds the web store schema migrations.
//
//go:embed *.sql
var FS embed.FS
