package policy

import (
	"context"
	"os"
	"runtime"

	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PolicyGateway = (*Gateway)(nil)

// Gateway loads the environment and policy once and derives the bootstrap inputs from them.
type Gateway struct {
	logger ports.Logger
	open   StoreOpener
	env    func() domain.Environment
	goos   string
	getenv func(string) string
	home   func() (string, error)
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithStoreOpener replaces the URI-based store selection.
func WithStoreOpener(open StoreOpener) Option {
	return func(g *Gateway) {
		g.open = open
	}
}

// WithEnvironment replaces the process environment snapshot.
func WithEnvironment(env domain.Environment) Option {
	return func(g *Gateway) {
		g.env = func() domain.Environment { return env }
	}
}

// WithPlatform overrides the operating system and the lookups used for the default cache location.
func WithPlatform(goos string, getenv func(string) string, home string) Option {
	return func(g *Gateway) {
		g.goos = goos
		g.getenv = getenv
		g.home = func() (string, error) { return home, nil }
	}
}

// NewGateway creates a new Gateway.
func NewGateway(logger ports.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		logger: logger,
		open:   OpenStore,
		env:    ReadEnvironment,
		goos:   runtime.GOOS,
		getenv: os.Getenv,
		home:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load returns the policy record. An unreachable store, a missing document or an empty URI
// result in NoPolicy rather than an error; only invalid version strings fail.
func (g *Gateway) Load(ctx context.Context) (*domain.PolicyRecord, error) {
	env := g.env()
	policy := g.loadPolicy(ctx, env)

	record := &domain.PolicyRecord{
		Env:      env,
		Policy:   policy,
		NoPolicy: policy == nil,
		Staging:  env.UseStaging,
	}

	requested := env.Version
	if requested == "" {
		requested = policy.ExpectedVersion(record.Staging)
	}
	req, err := domain.ParseRequest(requested)
	if err != nil {
		return nil, zerr.Wrap(err, "invalid requested version")
	}
	record.Request = req

	if env.Path != "" {
		record.RemoteSources = []string{env.Path}
	} else {
		record.RemoteSources = policy.Remotes(g.goos)
	}

	record.LocalDir = policy.LocalDir(g.goos)
	if record.LocalDir == "" {
		home, err := g.home()
		if err != nil {
			return nil, zerr.Wrap(err, "failed to locate home directory")
		}
		record.LocalDir = DefaultLocalDir(g.goos, g.getenv, home)
	}

	return record, nil
}

func (g *Gateway) loadPolicy(ctx context.Context, env domain.Environment) *domain.Policy {
	if env.DatabaseURI == "" {
		g.logger.Warn("no database uri set; continuing without studio policy")
		return nil
	}

	store, err := g.open(ctx, env.DatabaseURI, env)
	if err != nil {
		g.logger.Warn("policy store unavailable: " + err.Error())
		return nil
	}
	defer func() {
		if err := store.Close(ctx); err != nil {
			g.logger.Warn(err.Error())
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, domain.DefaultHTTPTimeout)
	defer cancel()

	policy, err := store.Load(loadCtx)
	if err != nil {
		g.logger.Warn("failed to load studio policy: " + err.Error())
		return nil
	}
	return policy
}
