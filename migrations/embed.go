package migrations

import "embed"

// FS chứa toàn bộ file goose SQL, build cùng binary migrate.
//
//go:embed *.sql
var FS embed.FS
