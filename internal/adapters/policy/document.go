package policy

import "go.trai.ch/igniter/internal/core/domain"

// GlobalSettingsType identifies the policy document in every store.
const GlobalSettingsType = "global_settings"

// document is the minimal slice of the global settings the bootstrap reads.
// quadpype_path and local_quadpype_path are the legacy names of the source keys.
type document struct {
	ProductionVersion  string              `json:"production_version" bson:"production_version" yaml:"production_version"`
	StagingVersion     string              `json:"staging_version" bson:"staging_version" yaml:"staging_version"`
	RemoteVersionsDirs map[string][]string `json:"remote_versions_dirs" bson:"remote_versions_dirs" yaml:"remote_versions_dirs"`
	LocalVersionsDir   map[string]string   `json:"local_versions_dir" bson:"local_versions_dir" yaml:"local_versions_dir"`
	LegacyPath         map[string][]string `json:"quadpype_path" bson:"quadpype_path" yaml:"quadpype_path"`
	LegacyLocalPath    map[string]string   `json:"local_quadpype_path" bson:"local_quadpype_path" yaml:"local_quadpype_path"`
}

func (d *document) toPolicy() *domain.Policy {
	remotes := d.RemoteVersionsDirs
	if len(remotes) == 0 {
		remotes = d.LegacyPath
	}
	local := d.LocalVersionsDir
	if len(local) == 0 {
		local = d.LegacyLocalPath
	}
	return &domain.Policy{
		ProductionVersion:  d.ProductionVersion,
		StagingVersion:     d.StagingVersion,
		RemoteVersionsDirs: remotes,
		LocalVersionsDir:   local,
	}
}
