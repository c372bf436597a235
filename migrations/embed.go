// Package migrations embeds the goose SQL migrations of the gradebook schema.
package migrations

import "embed"

// FS holds every *.sql migration at the package root.
//
//go:embed *.sql
var FS embed.FS
