package domain

import (
	"path/filepath"
	"time"
)

const (
	// PlatformPackageName is the name of the platform package.
	PlatformPackageName = "quadpype"

	// ChecksumsFileName is the name of the checksum manifest at a version root.
	ChecksumsFileName = "checksums"

	// LicenseFileName is the optional license file at a version root. It is never listed in the manifest.
	LicenseFileName = "LICENSE"

	// VersionFileName is the file inside a package directory that exports __version__.
	VersionFileName = "version.py"

	// ArchiveExt is the extension of packaged versions.
	ArchiveExt = ".zip"

	// TempSuffix marks sibling directories that hold an unpack in progress.
	TempSuffix = ".tmp-"

	// LockFileExt is the extension of per-destination install lock files.
	LockFileExt = ".lock"

	// ConfigFileName is the default name of the bootstrap configuration file.
	ConfigFileName = "igniter.yaml"

	// HashBlockSize is the read size used when hashing and downloading.
	HashBlockSize = 128 << 10

	// DefaultHTTPTimeout bounds a single HTTP request.
	DefaultHTTPTimeout = 30 * time.Second

	// StaleLockAge is the age after which an install lock is considered abandoned.
	StaleLockAge = 10 * time.Minute

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// VersionDir returns the unpacked location of v under localDir: <local>/<MAJOR.MINOR>/<full-version>.
func VersionDir(localDir string, v Version) string {
	return filepath.Join(localDir, v.MajorMinor(), v.String())
}

// VersionArchive returns the archived copy location of v under localDir: <local>/<MAJOR.MINOR>/<full-version>.zip.
func VersionArchive(localDir string, v Version) string {
	return filepath.Join(localDir, v.MajorMinor(), v.String()+ArchiveExt)
}

// VersionFilePath returns the version.py path of pkg inside a version root.
func VersionFilePath(root, pkg string) string {
	return filepath.Join(root, pkg, VersionFileName)
}

// VersionFileEntry returns the zip entry name of pkg's version.py.
func VersionFileEntry(pkg string) string {
	return pkg + "/" + VersionFileName
}
