// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver. Schema changes are embedded goose
// migrations applied with Migrate.
package postgres
