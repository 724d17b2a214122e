package ports

import (
	"context"
	"io"
)

// Artifact is a streamed remote file. The caller closes Body.
type Artifact struct {
	Body        io.ReadCloser
	Size        int64 // -1 if unknown
	ContentType string
}

// ArtifactInfo is the metadata returned by a HEAD request.
type ArtifactInfo struct {
	Size        int64
	ContentType string
}

// Fetcher talks to HTTP version sources.
//
//go:generate mockgen -source=fetcher.go -destination=mocks/mock_fetcher.go -package=mocks
type Fetcher interface {
	// Fetch streams the body at url.
	Fetch(ctx context.Context, url string) (*Artifact, error)

	// Head returns metadata for url without downloading it.
	Head(ctx context.Context, url string) (ArtifactInfo, error)

	// Index returns the absolute link targets of the HTML listing at url.
	Index(ctx context.Context, url string) ([]string, error)
}
