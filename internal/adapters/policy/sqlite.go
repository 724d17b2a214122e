package policy

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var _ ports.PolicyStore = (*SQLiteStore)(nil)

// SQLiteStore reads the policy from a settings(type, data) table whose data column holds JSON.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to open settings database"), "path", path)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the global settings row.
func (s *SQLiteStore) Load(ctx context.Context) (*domain.Policy, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM settings WHERE type = ? LIMIT 1", GlobalSettingsType,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, zerr.Wrap(domain.ErrPolicyNotFound, "no global settings row")
		}
		return nil, zerr.Wrap(err, "failed to query global settings")
	}

	var doc document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, zerr.Wrap(err, "failed to decode global settings")
	}
	return doc.toPolicy(), nil
}

// Close closes the database.
func (s *SQLiteStore) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return zerr.Wrap(err, "failed to close settings database")
	}
	return nil
}
