package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/igniter/internal/core/ports"
)

func (c *CLI) newPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack SRC OUT",
		Short: "Create a version archive with its checksum manifest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, _ := cmd.Flags().GetString("package")
			include, _ := cmd.Flags().GetStringSlice("include")
			exclude, _ := cmd.Flags().GetStringSlice("exclude")

			manifest, err := c.app.Pack(cmd.Context(), args[0], args[1], ports.PackOptions{
				Package: pkg,
				Include: include,
				Exclude: exclude,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "packed %d files into %s\n", len(manifest.Entries), args[1])
			return nil
		},
	}
	cmd.Flags().StringP("package", "p", "quadpype", "Package whose version file names the archive")
	cmd.Flags().StringSlice("include", nil, "Glob of paths to include (repeatable)")
	cmd.Flags().StringSlice("exclude", nil, "Glob of paths to exclude (repeatable)")
	return cmd
}
