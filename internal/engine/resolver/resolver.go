// Package resolver decides which version of a package runs.
package resolver

import (
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/zerr"
)

// Action is what the bootstrap does with the chosen version.
type Action uint8

const (
	// ActionUseInstalled runs the installed build in place.
	ActionUseInstalled Action = iota
	// ActionUseLocal runs an unpacked directory of the local cache in place.
	ActionUseLocal
	// ActionUnpackLocal unpacks an archive of the local cache next to itself.
	ActionUnpackLocal
	// ActionUseRemote runs a remote directory in place.
	ActionUseRemote
	// ActionRetrieve places a remote version into the local cache.
	ActionRetrieve
)

var actionNames = [...]string{
	ActionUseInstalled: "use-installed",
	ActionUseLocal:     "use-local",
	ActionUnpackLocal:  "unpack-local",
	ActionUseRemote:    "use-remote",
	ActionRetrieve:     "retrieve",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Input is everything the resolver looks at.
type Input struct {
	// Installed is the installed build; zero when the package has none.
	Installed domain.Version
	// Local and Remote are the discovered versions, sorted ascending.
	Local  []domain.Version
	Remote []domain.Version
	// Request is already filtered to the policy side in effect.
	Request domain.Request
	// RetrieveLocally forces remote versions into the local cache.
	RetrieveLocally bool
	// NoPolicy selects the fallback: installed build first, then the local cache.
	NoPolicy bool
}

// Decision is the resolver's output.
type Decision struct {
	Action  Action
	Version domain.Version
}

type source uint8

const (
	fromInstalled source = iota
	fromLocal
	fromRemote
)

type candidate struct {
	version domain.Version
	from    source
}

// Resolve applies the decision table and the MAJOR.MINOR compatibility gate.
func Resolve(in Input) (Decision, error) {
	var (
		picked candidate
		err    error
	)
	if in.Request.Kind == domain.RequestLiteral {
		picked, err = literal(in)
	} else {
		picked, err = greatest(in)
	}
	if err != nil {
		return Decision{}, err
	}

	if !in.Installed.IsZero() && !picked.version.SameMajorMinor(in.Installed) {
		return Decision{}, zerr.With(
			zerr.With(
				zerr.Wrap(domain.ErrVersionIncompatible, "selected version does not match the installed build"),
				"version", picked.version.String(),
			),
			"installed", in.Installed.String(),
		)
	}

	return Decision{Action: action(picked, in.RetrieveLocally), Version: picked.version}, nil
}

func literal(in Input) (candidate, error) {
	want := in.Request.Version

	if !in.Installed.IsZero() && in.Installed.Equal(want) {
		return candidate{version: in.Installed, from: fromInstalled}, nil
	}
	if v, ok := bestMatch(in.Local, want); ok {
		return candidate{version: v, from: fromLocal}, nil
	}
	if v, ok := bestMatch(in.Remote, want); ok {
		return candidate{version: v, from: fromRemote}, nil
	}

	return candidate{}, zerr.With(
		zerr.Wrap(domain.ErrVersionNotFound, "requested version is not available locally or on any remote"),
		"version", want.String(),
	)
}

func greatest(in Input) (candidate, error) {
	candidates := make([]candidate, 0, 3)
	if !in.Installed.IsZero() {
		candidates = append(candidates, candidate{version: in.Installed, from: fromInstalled})
	}
	if v, ok := domain.MaxVersion(in.Local...); ok {
		candidates = append(candidates, candidate{version: v, from: fromLocal})
	}

	// Without a policy the installed build or the local cache wins; remotes are a last resort.
	if in.NoPolicy && len(candidates) > 0 {
		return candidates[0], nil
	}

	if v, ok := domain.MaxVersion(in.Remote...); ok {
		candidates = append(candidates, candidate{version: v, from: fromRemote})
	}
	if len(candidates) == 0 {
		return candidate{}, zerr.Wrap(domain.ErrVersionNotFound, "no version is available")
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.version.Compare(best.version) > 0 {
			best = c
		}
	}
	return best, nil
}

// bestMatch returns the highest ranked entry of vs equal to want.
func bestMatch(vs []domain.Version, want domain.Version) (domain.Version, bool) {
	var matches []domain.Version
	for _, v := range vs {
		if v.Equal(want) {
			matches = append(matches, v)
		}
	}
	return domain.MaxVersion(matches...)
}

func action(c candidate, retrieveLocally bool) Action {
	switch c.from {
	case fromInstalled:
		return ActionUseInstalled
	case fromLocal:
		if c.version.IsArchive() {
			return ActionUnpackLocal
		}
		return ActionUseLocal
	default:
		if c.version.IsDir() && !c.version.DownloadRequired() && !retrieveLocally {
			return ActionUseRemote
		}
		return ActionRetrieve
	}
}
