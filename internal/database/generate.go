package database

// This file documents code generation for the database package.
//
// To regenerate schema.sql and the sqlc query code after editing a migration
// or queries.sql:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
//go:generate sh -c "cd ../.. && sqlc generate -f internal/database/sqlc/sqlc.yaml"
