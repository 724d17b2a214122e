package ports

import "context"

// Verifier checks an unpacked version against its checksums manifest.
//
//go:generate mockgen -destination=mocks/mock_verifier.go -package=mocks -source=verifier.go
type Verifier interface {
	// VerifyDir validates the version rooted at root for package pkg.
	VerifyDir(ctx context.Context, root, pkg string) error
}
