// Package discovery enumerates the versions that directories, archives and HTTP indexes offer.
package discovery

import (
	"errors"
	"os"
	"regexp"

	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/zerr"
)

var versionAssignment = regexp.MustCompile(`(?m)^__version__\s*=\s*["']([^"']+)["']`)

// ParseVersionFile extracts the __version__ assignment of a version.py body.
func ParseVersionFile(data []byte) (domain.Version, error) {
	m := versionAssignment.FindSubmatch(data)
	if m == nil {
		return domain.Version{}, zerr.Wrap(domain.ErrVersionFileMissing, "no __version__ assignment")
	}
	return domain.ParseVersion(string(m[1]))
}

// ReadVersionFile reads <root>/<pkg>/version.py.
func ReadVersionFile(root, pkg string) (domain.Version, error) {
	p := domain.VersionFilePath(root, pkg)
	data, err := os.ReadFile(fs.SanitizeLongPath(p)) //nolint:gosec // Path is built from a scanned root
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Version{}, zerr.With(zerr.Wrap(domain.ErrVersionFileMissing, "version.py not found"), "path", p)
		}
		return domain.Version{}, zerr.With(zerr.Wrap(err, "failed to read version file"), "path", p)
	}
	v, err := ParseVersionFile(data)
	if err != nil {
		return domain.Version{}, zerr.With(err, "path", p)
	}
	return v, nil
}
