package domain

import "go.trai.ch/zerr"

// PackageType distinguishes the platform from its add-ons.
type PackageType string

const (
	// TypePackage is the platform package itself.
	TypePackage PackageType = "package"
	// TypeAddOn is an optional add-on package.
	TypeAddOn PackageType = "add_on"
)

// ParsePackageType validates s. An empty string defaults to TypeAddOn.
func ParsePackageType(s string) (PackageType, error) {
	switch PackageType(s) {
	case TypePackage:
		return TypePackage, nil
	case TypeAddOn, "":
		return TypeAddOn, nil
	default:
		return "", zerr.With(ErrInvalidPackageType, "type", s)
	}
}

// PackageSpec is the input for constructing a PackageHandler.
type PackageSpec struct {
	Name            string
	Type            PackageType
	LocalDir        string
	RemoteSources   []string
	Request         Request
	RetrieveLocally bool
	// InstallDir is the read-only directory shipped with the installer, if any.
	InstallDir string
	// SkipValidation disables integrity checks (debug only).
	SkipValidation bool
	// NoPolicy is propagated from the policy gateway.
	NoPolicy bool
}

// PackageHandler is a package whose running version has been resolved and placed on disk.
// It is not mutated after construction.
type PackageHandler struct {
	Name            string
	Type            PackageType
	LocalDir        string
	RemoteSources   []string
	InstallDir      string
	RetrieveLocally bool
	// RunningVersion is located at a readable unpacked directory.
	RunningVersion Version
	// InstalledVersion is the installed build version; zero when InstallDir is unset.
	InstalledVersion Version
	// NoPolicy is set when the policy gateway fell back.
	NoPolicy bool
	// State is the terminal success state reached during construction.
	State BootstrapState
}
