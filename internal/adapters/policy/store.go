package policy

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

// StoreOpener opens the policy store addressed by uri.
type StoreOpener func(ctx context.Context, uri string, env domain.Environment) (ports.PolicyStore, error)

// OpenStore picks the backend by URI scheme: mongodb:// and mongodb+srv:// use MongoDB,
// sqlite:// a SQLite file, file:// or a path ending in .yaml/.yml a YAML document.
func OpenStore(_ context.Context, uri string, env domain.Environment) (ports.PolicyStore, error) {
	lower := strings.ToLower(uri)
	switch {
	case strings.HasPrefix(lower, "mongodb://"), strings.HasPrefix(lower, "mongodb+srv://"):
		name := env.DatabaseName
		if name == "" {
			name = DefaultDatabaseName
		}
		return NewMongoStore(uri, name, domain.DefaultHTTPTimeout)
	case strings.HasPrefix(lower, "sqlite://"):
		return NewSQLiteStore(uri[len("sqlite://"):])
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(uri)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid policy file uri"), "uri", uri)
		}
		return NewFileStore(filepath.FromSlash(u.Path)), nil
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return NewFileStore(uri), nil
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedStore, "unknown database uri scheme"), "uri", redact(uri))
	}
}

// redact drops credentials from uri before it is logged.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	return u.Redacted()
}
