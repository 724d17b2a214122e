package domain

// Config is the bootstrap configuration: the platform package plus optional add-ons.
type Config struct {
	// Platform is the platform package name.
	Platform string
	// RetrieveLocally applies to the platform package.
	RetrieveLocally bool
	// Packages are additional packages, ordered by name.
	Packages []PackageConfig
}

// PackageConfig describes one additional package.
type PackageConfig struct {
	Name            string
	Type            PackageType
	LocalDir        string
	Remotes         []string
	Version         string
	RetrieveLocally bool
	InstallDir      string
}

// DefaultConfig bootstraps the platform package alone.
func DefaultConfig() *Config {
	return &Config{
		Platform:        PlatformPackageName,
		RetrieveLocally: true,
	}
}
