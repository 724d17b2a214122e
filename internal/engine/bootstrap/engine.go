// Package bootstrap constructs package handlers: it discovers, resolves and retrieves
// the version a package runs with, reporting each step to an event sink.
package bootstrap

import (
	"context"
	"errors"
	"os"

	"go.trai.ch/igniter/internal/adapters/fs" //nolint:depguard // Shared long path handling
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/igniter/internal/engine/resolver"
)

// Engine builds PackageHandlers.
type Engine struct {
	discoverer ports.Discoverer
	retriever  ports.Retriever
}

// NewEngine creates a new Engine.
func NewEngine(discoverer ports.Discoverer, retriever ports.Retriever) *Engine {
	return &Engine{
		discoverer: discoverer,
		retriever:  retriever,
	}
}

// discard drops events when the caller passes no sink.
type discard struct{}

func (discard) Emit(domain.Event) {}

// run is the state of one handler construction.
type run struct {
	spec domain.PackageSpec
	sink ports.EventSink
}

func (r *run) state(s domain.BootstrapState, v domain.Version) {
	r.sink.Emit(domain.Event{Kind: domain.EventState, Package: r.spec.Name, State: s, Version: v})
}

func (r *run) warn(msg string, err error) {
	r.sink.Emit(domain.Event{Kind: domain.EventWarning, Package: r.spec.Name, Message: msg, Err: err})
}

func (r *run) fail(err error) error {
	r.sink.Emit(domain.Event{Kind: domain.EventFailed, Package: r.spec.Name, State: domain.StateFailed, Err: err})
	return err
}

// NewPackageHandler resolves the version spec runs with and places it on disk.
// Steps are strictly ordered: discover, resolve, retrieve and validate. sink may be nil.
func (e *Engine) NewPackageHandler(
	ctx context.Context,
	spec domain.PackageSpec,
	sink ports.EventSink,
) (*domain.PackageHandler, error) {
	if sink == nil {
		sink = discard{}
	}
	if spec.Type == "" {
		spec.Type = domain.TypeAddOn
	}
	r := &run{spec: spec, sink: sink}

	r.state(domain.StateDiscovering, domain.Version{})
	in, remoteErr, err := e.discover(ctx, r)
	if err != nil {
		return nil, r.fail(err)
	}

	r.state(domain.StateResolving, domain.Version{})
	decision, err := resolver.Resolve(in)
	if err != nil {
		if remoteErr != nil && errors.Is(err, domain.ErrVersionNotFound) {
			err = errors.Join(err, remoteErr)
		}
		return nil, r.fail(err)
	}

	running, state, err := e.place(ctx, r, decision)
	if err != nil {
		return nil, r.fail(err)
	}

	h := &domain.PackageHandler{
		Name:             spec.Name,
		Type:             spec.Type,
		LocalDir:         spec.LocalDir,
		RemoteSources:    spec.RemoteSources,
		InstallDir:       spec.InstallDir,
		RetrieveLocally:  spec.RetrieveLocally,
		RunningVersion:   running,
		InstalledVersion: in.Installed,
		NoPolicy:         spec.NoPolicy,
		State:            state,
	}
	r.state(domain.StateReady, running)
	return h, nil
}

// discover collects the installed build, the local cache and the remotes.
// Unreadable sources are warnings; remoteErr is kept to explain a later VersionNotFound.
func (e *Engine) discover(ctx context.Context, r *run) (in resolver.Input, remoteErr, err error) {
	spec := r.spec
	in = resolver.Input{
		Request:         spec.Request,
		RetrieveLocally: spec.RetrieveLocally,
		NoPolicy:        spec.NoPolicy,
	}

	if spec.InstallDir != "" {
		installed, err := e.discoverer.InstalledVersion(spec.InstallDir, spec.Name)
		if err != nil {
			r.warn("installed build ignored", err)
		} else {
			in.Installed = installed
		}
	}

	opts := ports.ScanOptions{PriorityToArchives: spec.RetrieveLocally}

	if spec.LocalDir != "" && exists(spec.LocalDir) {
		local, err := e.discoverer.Collect(ctx, []string{spec.LocalDir}, spec.Name, opts)
		switch {
		case ctx.Err() != nil:
			return in, nil, ctx.Err()
		case err != nil:
			r.warn("local cache could not be scanned", err)
		default:
			in.Local = local.Versions
		}
	}

	if len(spec.RemoteSources) > 0 {
		remote, err := e.discoverer.Collect(ctx, spec.RemoteSources, spec.Name, opts)
		switch {
		case ctx.Err() != nil:
			return in, nil, ctx.Err()
		case err != nil:
			r.warn("no remote source could be scanned", err)
			remoteErr = err
		default:
			for _, f := range remote.Failures {
				r.warn("remote source skipped: "+f.Source, f.Err)
			}
			in.Remote = remote.Versions
		}
	}

	return in, remoteErr, nil
}

// place carries out the decision and returns the running version with the state it reached.
func (e *Engine) place(ctx context.Context, r *run, d resolver.Decision) (domain.Version, domain.BootstrapState, error) {
	switch d.Action {
	case resolver.ActionUseInstalled:
		r.state(domain.StateUsingInstalled, d.Version)
		return d.Version, domain.StateUsingInstalled, nil

	case resolver.ActionUseLocal, resolver.ActionUseRemote:
		r.state(domain.StateUsingLocal, d.Version)
		return d.Version, domain.StateUsingLocal, nil

	case resolver.ActionUnpackLocal:
		r.state(domain.StateUsingLocal, d.Version)
		v, err := e.retrieve(ctx, r, d.Version)
		return v, domain.StateUsingLocal, err

	default:
		r.state(domain.StateRetrieving, d.Version)
		v, err := e.retrieve(ctx, r, d.Version)
		if err != nil {
			return domain.Version{}, domain.StateRetrieving, err
		}
		r.state(domain.StateUsingRetrieved, v)
		return v, domain.StateUsingRetrieved, nil
	}
}

func (e *Engine) retrieve(ctx context.Context, r *run, v domain.Version) (domain.Version, error) {
	return e.retriever.Retrieve(ctx, ports.RetrieveRequest{
		Package:        r.spec.Name,
		Version:        v,
		LocalDir:       r.spec.LocalDir,
		SkipValidation: r.spec.SkipValidation,
		Sink:           r.sink,
	})
}

func exists(path string) bool {
	_, err := os.Stat(fs.SanitizeLongPath(path))
	return err == nil
}
