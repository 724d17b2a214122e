package policy

import (
	"context"
	"errors"
	"os"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.PolicyStore = (*FileStore)(nil)

// FileStore reads the policy from a YAML document, for studios without a database.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the YAML file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load parses the YAML document.
func (s *FileStore) Load(_ context.Context) (*domain.Policy, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrPolicyNotFound, "policy file missing"), "path", s.path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read policy file"), "path", s.path)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse policy file"), "path", s.path)
	}
	return doc.toPolicy(), nil
}

// Close is a no-op.
func (s *FileStore) Close(_ context.Context) error {
	return nil
}
