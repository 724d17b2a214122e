package config

// Ignitefile represents the structure of the igniter.yaml configuration file.
type Ignitefile struct {
	Version         string                `yaml:"version"`
	Platform        string                `yaml:"platform"`
	RetrieveLocally *bool                 `yaml:"retrieve_locally"`
	Packages        map[string]PackageDTO `yaml:"packages"`
}

// PackageDTO represents an add-on package in the configuration.
type PackageDTO struct {
	Type            string   `yaml:"type"`
	LocalDir        string   `yaml:"local_dir"`
	Remotes         []string `yaml:"remotes"`
	Version         string   `yaml:"version"`
	RetrieveLocally *bool    `yaml:"retrieve_locally"`
	InstallDir      string   `yaml:"install_dir"`
}
