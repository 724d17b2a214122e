package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidVersion is returned when a string is not a valid semantic version.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrVersionNotFound is returned when a requested version is absent from the local cache and every remote.
	ErrVersionNotFound = zerr.New("version not found")

	// ErrVersionIncompatible is returned when the selected version's MAJOR.MINOR differs from the installed build.
	ErrVersionIncompatible = zerr.New("version incompatible with installed build")

	// ErrIntegrity is returned when an unpacked version does not match its checksum manifest.
	ErrIntegrity = zerr.New("version integrity check failed")

	// ErrRetrieveIO is returned when a network or filesystem failure interrupts retrieval.
	ErrRetrieveIO = zerr.New("failed to retrieve version")

	// ErrChecksumsMissing is returned when a version root has no checksums manifest.
	ErrChecksumsMissing = zerr.New("checksums manifest missing")

	// ErrChecksumMismatch is returned when a file's SHA-256 differs from the manifest.
	ErrChecksumMismatch = zerr.New("checksum mismatch")

	// ErrManifestMalformed is returned when a checksums line cannot be parsed.
	ErrManifestMalformed = zerr.New("malformed checksums manifest")

	// ErrVersionFileMissing is returned when a package has no version.py.
	ErrVersionFileMissing = zerr.New("version file missing")

	// ErrVersionFileMismatch is returned when version.py reports a different version than its container.
	ErrVersionFileMismatch = zerr.New("version file does not match container")

	// ErrUnsafePath is returned when an archive entry or manifest path escapes its root.
	ErrUnsafePath = zerr.New("path escapes destination")

	// ErrPackageNotFound is returned when the registry has no package with the requested name.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrRegistryNotInitialized is returned when the process-wide registry is read before bootstrap.
	ErrRegistryNotInitialized = zerr.New("package registry not initialized")

	// ErrInvalidPackageType is returned when a package type is neither "package" nor "add_on".
	ErrInvalidPackageType = zerr.New("invalid package type")

	// ErrNoSources is returned when discovery is asked to scan an empty source list.
	ErrNoSources = zerr.New("no version sources configured")

	// ErrLockTimeout is returned when the install lock could not be taken in time.
	ErrLockTimeout = zerr.New("timed out waiting for install lock")

	// ErrArtifactNotFound is returned when a remote artifact does not exist.
	ErrArtifactNotFound = zerr.New("artifact not found")

	// ErrRateLimited is returned when a remote rejects a request for rate limiting.
	ErrRateLimited = zerr.New("rate limited by upstream")

	// ErrUpstreamDown is returned when a remote fails or its circuit breaker is open.
	ErrUpstreamDown = zerr.New("upstream unavailable")

	// ErrUnsupportedStore is returned when a database URI scheme has no policy store.
	ErrUnsupportedStore = zerr.New("unsupported policy store")

	// ErrPolicyNotFound is returned when the policy store has no global settings document.
	ErrPolicyNotFound = zerr.New("policy document not found")

	// ErrConfigInvalid is returned when igniter.yaml cannot be mapped to package specs.
	ErrConfigInvalid = zerr.New("invalid configuration")
)
