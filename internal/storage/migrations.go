package storage

import "embed"

// migrations holds the goose SQL migrations applied by Open.
//
//go:embed migrations/*.sql
var migrations embed.FS
