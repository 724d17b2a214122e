package ports

import "context"

// Hasher computes file digests.
//
//go:generate mockgen -destination=mocks/mock_hasher.go -package=mocks -source=hasher.go
type Hasher interface {
	// SumFile returns the hex-encoded SHA-256 of the file at path.
	SumFile(ctx context.Context, path string) (string, error)
}
