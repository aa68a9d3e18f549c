package database

import _ "embed"

// Schema is the DDL produced by all migrations, for tests and tools that
// need a ready database without running the migrator.
//
//go:embed sqlc/schema.sql
var Schema string
