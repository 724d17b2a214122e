package discovery

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/igniter/internal/adapters/fs"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
	"go.trai.ch/zerr"
)

// majorMinorDir matches the MAJOR.MINOR grouping directories of a version tree.
var majorMinorDir = regexp.MustCompile(`^v?(\d+)\.(\d+)$`)

// dirScanner walks filesystem roots.
type dirScanner struct {
	archiver ports.Archiver
	logger   ports.Logger
}

func (s *dirScanner) scan(ctx context.Context, root, pkg string) ([]domain.Version, error) {
	info, err := os.Stat(fs.SanitizeLongPath(root))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "version source is not accessible"), "source", root)
	}

	if !info.IsDir() {
		if !isArchiveName(root) {
			return nil, zerr.With(zerr.New("version source is neither a directory nor a zip archive"), "source", root)
		}
		if v, ok := s.candidate(root, pkg, ""); ok {
			return []domain.Version{v}, nil
		}
		return nil, nil
	}

	return s.scanDir(ctx, root, pkg, "", true)
}

func (s *dirScanner) scanDir(ctx context.Context, dir, pkg, filter string, top bool) ([]domain.Version, error) {
	entries, err := os.ReadDir(fs.SanitizeLongPath(dir))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to list version source"), "source", dir)
	}

	var found []domain.Version
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || strings.Contains(name, domain.TempSuffix) {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() && top {
			if m := majorMinorDir.FindStringSubmatch(name); m != nil {
				nested, err := s.scanDir(ctx, path, pkg, m[1]+"."+m[2], false)
				if err != nil {
					s.logger.Warn("skipping unreadable version directory " + path)
					continue
				}
				found = append(found, nested...)
				continue
			}
		}

		if !entry.IsDir() && !isArchiveName(name) {
			continue
		}
		if v, ok := s.candidate(path, pkg, filter); ok {
			found = append(found, v)
		}
	}
	return found, nil
}

// candidate validates a directory or archive whose name carries a version.
func (s *dirScanner) candidate(path, pkg, filter string) (domain.Version, bool) {
	name := filepath.Base(path)
	isArchive := isArchiveName(name)
	if isArchive {
		name = name[:len(name)-len(domain.ArchiveExt)]
	}

	v, ok := domain.FindVersion(name)
	if !ok {
		return domain.Version{}, false
	}
	if filter != "" && v.MajorMinor() != filter {
		return domain.Version{}, false
	}

	var reported domain.Version
	var err error
	if isArchive {
		reported, err = s.archiveVersion(path, pkg)
	} else {
		reported, err = ReadVersionFile(path, pkg)
	}
	if err != nil {
		s.logger.Warn("ignoring " + path + ": " + err.Error())
		return domain.Version{}, false
	}
	if !reported.Equal(v) {
		s.logger.Warn("ignoring " + path + ": version.py reports " + reported.String() + ", expected " + v.String())
		return domain.Version{}, false
	}
	return v.WithLocation(path), true
}

func (s *dirScanner) archiveVersion(path, pkg string) (domain.Version, error) {
	data, err := s.archiver.ReadFile(path, domain.VersionFileEntry(pkg))
	if err != nil {
		return domain.Version{}, err
	}
	return ParseVersionFile(data)
}

func isArchiveName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), domain.ArchiveExt)
}
