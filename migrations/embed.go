// Package migrations embeds all SQL migration files so the binary is
// self-contained and can apply its schema on startup regardless of the
// working directory it is launched from.
package migrations

import "embed"

// FS contains all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
