package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher computes SHA-256 digests of files.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// SumFile streams the file at path through SHA-256 in fixed-size blocks and returns the hex digest.
// The context is checked between blocks.
func (h *Hasher) SumFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(SanitizeLongPath(path)) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	sum, err := SumReader(ctx, f)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", zerr.With(err, "path", path)
	}
	return sum, nil
}

// SumReader hashes r in fixed-size blocks and returns the hex digest.
func SumReader(ctx context.Context, r io.Reader) (string, error) {
	digest := sha256.New()
	if _, err := CopyBuffer(ctx, digest, r, nil); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}
