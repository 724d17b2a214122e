package fs

import (
	"path/filepath"
	"runtime"
	"strings"
)

const (
	extendedPrefix    = `\\?\`
	extendedUNCPrefix = `\\?\UNC\`
)

// SanitizeLongPath rewrites path to the Windows extended-length form so the legacy
// 260 character limit does not apply. On other systems path is returned unchanged.
func SanitizeLongPath(path string) string {
	return sanitizeLongPath(runtime.GOOS, path)
}

func sanitizeLongPath(goos, path string) string {
	if goos != "windows" || path == "" || strings.HasPrefix(path, extendedPrefix) {
		return path
	}
	if goos == runtime.GOOS {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	if strings.HasPrefix(path, `\\`) {
		return extendedUNCPrefix + path[2:]
	}
	return extendedPrefix + path
}
