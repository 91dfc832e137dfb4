package migrations

import "embed"

// FS holds the schema migrations applied at startup, in file name order.
//
//go:embed *.sql
var FS embed.FS
