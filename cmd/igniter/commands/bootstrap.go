package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"
	"go.trai.ch/igniter/internal/app"
)

func (c *CLI) newBootstrapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Resolve, retrieve and expose every configured package",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			useVersion, _ := cmd.Flags().GetString("use-version")
			printEnv, _ := cmd.Flags().GetBool("print-env")

			res, err := c.app.Bootstrap(cmd.Context(), app.BootstrapOptions{
				ConfigPath: c.configPath,
				UseVersion: useVersion,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if printEnv {
				writeEnv(out, res.Env)
				return nil
			}
			for _, h := range res.Manager.List("") {
				_, _ = fmt.Fprintf(out, "%s %s (%s) %s\n", h.Name, h.RunningVersion, h.State, h.RunningVersion.Location)
			}
			return nil
		},
	}
	cmd.Flags().String("use-version", "", "Run the platform with this version instead of the studio policy (or \"latest\")")
	cmd.Flags().Bool("print-env", false, "Print the environment exposing the packages as KEY=VALUE lines")
	return cmd
}

func writeEnv(w io.Writer, env map[string]string) {
	for _, key := range slices.Sorted(maps.Keys(env)) {
		_, _ = fmt.Fprintf(w, "%s=%s\n", key, env[key])
	}
}
