package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/igniter/internal/app"
	"go.trai.ch/igniter/internal/core/domain"
)

func (c *CLI) newVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List the versions available locally and on the remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			local, _ := cmd.Flags().GetBool("local")
			remote, _ := cmd.Flags().GetBool("remote")
			pkg, _ := cmd.Flags().GetString("package")

			res, err := c.app.Versions(cmd.Context(), app.VersionsOptions{
				ConfigPath: c.configPath,
				Package:    pkg,
				Local:      local,
				Remote:     remote,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if local || !remote {
				writeVersions(out, "local", res.Local)
			}
			if remote || !local {
				writeVersions(out, "remote", res.Remote)
			}
			for _, f := range res.Failures {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "unreachable %s: %v\n", f.Source, f.Err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("local", false, "List the local cache only")
	cmd.Flags().Bool("remote", false, "List the remote sources only")
	cmd.Flags().StringP("package", "p", "", "Package to list (defaults to the platform)")
	return cmd
}

func writeVersions(w io.Writer, title string, versions []domain.Version) {
	_, _ = fmt.Fprintf(w, "%s:\n", title)
	if len(versions) == 0 {
		_, _ = fmt.Fprintln(w, "  (none)")
		return
	}
	for _, v := range versions {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", v, v.Location)
	}
}
