package policy

import (
	"path/filepath"
)

// versionsSubdir is appended to the user data directory to form the default local cache.
var versionsSubdir = filepath.Join("quadpype", "versions")

// UserDataDir returns the per-user application data directory for goos:
// %LOCALAPPDATA% on Windows, ~/Library/Application Support on macOS and
// $XDG_DATA_HOME or ~/.local/share elsewhere.
func UserDataDir(goos string, getenv func(string) string, home string) string {
	switch goos {
	case "windows":
		if dir := getenv("LOCALAPPDATA"); dir != "" {
			return dir
		}
		return filepath.Join(home, "AppData", "Local")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support")
	default:
		if dir := getenv("XDG_DATA_HOME"); dir != "" {
			return dir
		}
		return filepath.Join(home, ".local", "share")
	}
}

// DefaultLocalDir returns the default local version cache for goos.
func DefaultLocalDir(goos string, getenv func(string) string, home string) string {
	return filepath.Join(UserDataDir(goos, getenv, home), versionsSubdir)
}
