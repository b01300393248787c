// Package migrations embeds the schema files applied at startup.
package migrations

import "embed"

// Files holds the ordered *.sql schema scripts.
//
//go:embed *.sql
var Files embed.FS
