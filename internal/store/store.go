// Package store persists custom pattern definitions in PostgreSQL so they
// survive restarts and can be managed through the HTTP API. The built-in
// pattern set never lives here — only operator-supplied overrides.
package store

import "database/sql"

// Store provides access to the PostgreSQL database for custom pattern CRUD.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given database connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}
