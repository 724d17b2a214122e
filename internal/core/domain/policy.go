package domain

// Policy is the studio document that pins production and staging versions and lists version sources.
type Policy struct {
	ProductionVersion string
	StagingVersion    string
	// RemoteVersionsDirs is keyed by OS name ("windows", "linux", "darwin").
	RemoteVersionsDirs map[string][]string
	// LocalVersionsDir is keyed by OS name and overrides the user cache location.
	LocalVersionsDir map[string]string
}

// ExpectedVersion returns the version string for the side in effect.
func (p *Policy) ExpectedVersion(staging bool) string {
	if p == nil {
		return ""
	}
	if staging {
		return p.StagingVersion
	}
	return p.ProductionVersion
}

// Remotes returns the remote sources configured for goos.
func (p *Policy) Remotes(goos string) []string {
	if p == nil {
		return nil
	}
	return p.RemoteVersionsDirs[goos]
}

// LocalDir returns the local cache override for goos, or "".
func (p *Policy) LocalDir(goos string) string {
	if p == nil {
		return ""
	}
	return p.LocalVersionsDir[goos]
}

// Environment is a snapshot of the QUADPYPE_* variables taken once per process.
type Environment struct {
	Executable          string
	Root                string
	Path                string
	Version             string
	DatabaseURI         string
	DatabaseName        string
	UseStaging          bool
	IsStaging           bool
	DontValidateVersion bool
}

// PolicyRecord is everything the bootstrap needs from the settings side, resolved in one call.
type PolicyRecord struct {
	Env Environment
	// Policy is nil when no policy document could be loaded.
	Policy *Policy
	// NoPolicy is set when the gateway fell back because Policy is nil.
	NoPolicy bool
	// Staging is set when the staging side of the policy is in effect.
	Staging bool
	// Request is the effective request for the platform package.
	Request Request
	// RemoteSources are the sources for the running OS.
	RemoteSources []string
	// LocalDir is the user-writable cache for the running OS.
	LocalDir string
}
