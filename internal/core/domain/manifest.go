package domain

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"go.trai.ch/zerr"
)

const sha256HexLen = 64

// ManifestEntry is one "<sha256>:<path>" line of a checksums manifest.
type ManifestEntry struct {
	Hash string
	// Path is relative to the version root and always uses forward slashes.
	Path string
}

// Manifest is the parsed content of a checksums file.
type Manifest struct {
	Entries []ManifestEntry
}

// Add appends an entry.
func (m *Manifest) Add(hash, path string) {
	m.Entries = append(m.Entries, ManifestEntry{Hash: strings.ToLower(hash), Path: path})
}

// Index maps every listed path to its hash.
func (m *Manifest) Index() map[string]string {
	idx := make(map[string]string, len(m.Entries))
	for _, e := range m.Entries {
		idx[e.Path] = e.Hash
	}
	return idx
}

// WriteTo writes the manifest in its on-disk format.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, e := range m.Entries {
		n, err := fmt.Fprintf(w, "%s:%s\n", e.Hash, e.Path)
		total += int64(n)
		if err != nil {
			return total, zerr.Wrap(err, "failed to write checksums manifest")
		}
	}
	return total, nil
}

// ParseManifest reads a checksums manifest. Blank lines are ignored.
func ParseManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		hash, path, ok := strings.Cut(line, ":")
		if !ok || path == "" || !isSHA256Hex(hash) {
			return nil, zerr.With(ErrManifestMalformed, "line", lineNo)
		}
		if _, dup := seen[path]; dup {
			return nil, zerr.With(zerr.With(ErrManifestMalformed, "line", lineNo), "duplicate_path", path)
		}
		seen[path] = struct{}{}
		m.Add(hash, path)
	}
	if err := scanner.Err(); err != nil {
		return nil, zerr.Wrap(err, "failed to read checksums manifest")
	}
	return m, nil
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256HexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ChecksumError reports a file whose hash differs from the manifest.
// It unwraps to ErrChecksumMismatch.
type ChecksumError struct {
	Path     string
	Expected string
	Got      string
}

// Error returns both hashes for diagnosis.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s\nexpected: %s\ngot:      %s", e.Path, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }
