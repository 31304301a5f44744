// Package appfs embeds the files the binaries ship with.
package appfs

import "embed"

//go:embed migrations/*.sql
var FS embed.FS

// MigrationsDir is the directory of FS holding the goose migrations.
const MigrationsDir = "migrations"
