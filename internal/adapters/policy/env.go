// Package policy resolves the process environment and the studio policy document
// into the record that drives the bootstrap.
package policy

import (
	"os"

	"github.com/spf13/viper"
	"go.trai.ch/igniter/internal/core/domain"
)

// DefaultDatabaseName is used when QUADPYPE_DATABASE_NAME is unset.
const DefaultDatabaseName = "quadpype"

// ReadEnvironment snapshots the QUADPYPE_* variables.
func ReadEnvironment() domain.Environment {
	v := viper.New()
	v.SetEnvPrefix("QUADPYPE")
	v.SetDefault("database_name", DefaultDatabaseName)

	_ = v.BindEnv("executable")
	_ = v.BindEnv("root")
	_ = v.BindEnv("path")
	_ = v.BindEnv("version")
	_ = v.BindEnv("database_name")
	_ = v.BindEnv("use_staging")
	_ = v.BindEnv("is_staging")
	_ = v.BindEnv("dont_validate_version")
	_ = v.BindEnv("db_uri", "QUADPYPE_DB_URI", "QUADPYPE_MONGO")

	executable := v.GetString("executable")
	if executable == "" {
		executable, _ = os.Executable()
	}

	return domain.Environment{
		Executable:          executable,
		Root:                v.GetString("root"),
		Path:                v.GetString("path"),
		Version:             v.GetString("version"),
		DatabaseURI:         v.GetString("db_uri"),
		DatabaseName:        v.GetString("database_name"),
		UseStaging:          v.GetString("use_staging") == "1",
		IsStaging:           v.GetString("is_staging") == "1",
		DontValidateVersion: v.GetString("dont_validate_version") != "",
	}
}
