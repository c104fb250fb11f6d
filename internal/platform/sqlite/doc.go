// Package sqlite implements the store interfaces with GORM on SQLite. It is
// the default backend for local runs and needs no external database.
package sqlite
