package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/igniter/internal/core/domain"
)

func (c *CLI) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how the running platform version relates to the studio policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.app.Status(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}

			rows := [][2]string{
				{"version", st.Version.String()},
				{"build version", orUnknown(st.BuildVersion)},
				{"running from build", yesNo(st.RunningFromBuild)},
				{"staging enabled", yesNo(st.StagingEnabled)},
				{"running staging", yesNo(st.RunningStaging)},
				{"studio policy", yesNo(!st.NoPolicy)},
				{"expected version", orUnknown(st.Expected)},
				{"studio latest", st.StudioLatest.String()},
				{"newer than expected", st.HigherThanLatest.String()},
			}
			for _, row := range rows {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", row[0]+":", row[1])
			}
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orUnknown(v domain.Version) string {
	if v.IsZero() {
		return "unknown"
	}
	return v.String()
}
