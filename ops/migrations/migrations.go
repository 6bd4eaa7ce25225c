// Package migrations embeds the SQL schema and seed files applied by the
// migrate manager.
package migrations

import "embed"

//go:embed sql seeds
var FS embed.FS

const (
	// SQLDir is the migrations directory inside FS.
	SQLDir = "sql"
	// SeedsDir is the seeds directory inside FS.
	SeedsDir = "seeds"
)
