package migrations

import "embed"

// FS holds the attribution schema migrations shipped with the binary.
//
//go:embed *.sql
var FS embed.FS
