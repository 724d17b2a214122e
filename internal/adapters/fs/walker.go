// Package fs provides file system adapters for walking, hashing and copying files.
package fs

import (
	iofs "io/fs"
	"iter"
	"path"
	"path/filepath"

	"go.trai.ch/zerr"
)

// Rules filter walked files.
// Patterns use path.Match syntax and are tried against the slash-separated relative path
// and against the base name.
type Rules struct {
	Include []string
	Exclude []string
}

// Excluded reports whether rel is excluded.
func (r Rules) Excluded(rel string) bool {
	return matchAny(r.Exclude, rel)
}

// Included reports whether the file rel passes the include patterns. An empty include list admits everything.
func (r Rules) Included(rel string) bool {
	return len(r.Include) == 0 || matchAny(r.Include, rel)
}

func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, p := range patterns {
		if ok, _ := path.Match(p, rel); ok {
			return true
		}
		if ok, _ := path.Match(p, base); ok {
			return true
		}
	}
	return false
}

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the slash-separated paths, relative to root, of every regular file under root
// that passes rules. .git directories are always skipped. Walk errors are yielded and end the walk.
func (w *Walker) WalkFiles(root string, rules Rules) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(SanitizeLongPath(root), func(p string, d iofs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(SanitizeLongPath(root), p)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if d.Name() == ".git" || rules.Excluded(rel) {
					return filepath.SkipDir
				}
				return nil
			}

			if !d.Type().IsRegular() || rules.Excluded(rel) || !rules.Included(rel) {
				return nil
			}

			if !yield(rel, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			yield("", zerr.With(zerr.Wrap(err, "failed to walk directory"), "root", root))
		}
	}
}
