package ports

import (
	"context"

	"go.trai.ch/igniter/internal/core/domain"
)

// RetrieveRequest describes one version to place into the local cache.
type RetrieveRequest struct {
	Package string
	// Version carries the location the version is currently available at.
	Version        domain.Version
	LocalDir       string
	SkipValidation bool
	// Sink receives progress events. It may be nil.
	Sink EventSink
}

// Retriever places versions into the local cache with integrity.
//
//go:generate mockgen -source=retriever.go -destination=mocks/mock_retriever.go -package=mocks
type Retriever interface {
	// Retrieve returns the version located at its unpacked directory under LocalDir.
	Retrieve(ctx context.Context, req RetrieveRequest) (domain.Version, error)
}
