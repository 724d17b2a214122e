package bootstrap

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/igniter/internal/core/domain"
)

const (
	// PythonPathVar is the interpreter search path.
	PythonPathVar = "PYTHONPATH"
	// VersionVar carries the running platform version to child processes.
	VersionVar = "QUADPYPE_VERSION"
	// ReposRootVar points to the running platform version root.
	ReposRootVar = "QUADPYPE_REPOS_ROOT"
)

// SearchPaths returns the directories h contributes to PYTHONPATH, highest priority first.
func SearchPaths(h *domain.PackageHandler) []string {
	root := filepath.Clean(h.RunningVersion.Location)
	if h.Type != domain.TypePackage {
		return []string{root}
	}
	return []string{
		filepath.Join(root, h.Name, "vendor", "python", "common"),
		filepath.Join(root, h.Name, "tools"),
		root,
	}
}

// Expose prepends h's search paths to PYTHONPATH in env, skipping entries already present.
// For the platform package it also sets QUADPYPE_VERSION and QUADPYPE_REPOS_ROOT.
func Expose(h *domain.PackageHandler, env map[string]string) {
	var current []string
	if existing := env[PythonPathVar]; existing != "" {
		current = filepath.SplitList(existing)
	}

	paths := SearchPaths(h)
	merged := make([]string, 0, len(paths)+len(current))
	for _, p := range paths {
		if !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	for _, p := range current {
		if p != "" && !slices.Contains(merged, p) {
			merged = append(merged, p)
		}
	}
	env[PythonPathVar] = strings.Join(merged, string(os.PathListSeparator))

	if h.Type == domain.TypePackage {
		env[VersionVar] = h.RunningVersion.String()
		env[ReposRootVar] = filepath.Clean(h.RunningVersion.Location)
	}
}

// ExposeProcess applies Expose to the environment of the running process.
func ExposeProcess(h *domain.PackageHandler) error {
	env := map[string]string{PythonPathVar: os.Getenv(PythonPathVar)}
	Expose(h, env)
	for key, value := range env {
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}
