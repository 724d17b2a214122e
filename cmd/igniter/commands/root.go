// Package commands implements the CLI commands for igniter.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/igniter/internal/app"
	"go.trai.ch/igniter/internal/build"
	"go.trai.ch/igniter/internal/core/domain"
	"go.trai.ch/igniter/internal/core/ports"
)

// DefaultConfigPath is the configuration file read when --config is not given.
const DefaultConfigPath = "igniter.yaml"

// CLI represents the command line interface for igniter.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	configPath string
	jsonLogs   bool
	setJSON    func(bool)
}

// Application represents the application logic interface.
type Application interface {
	Bootstrap(ctx context.Context, opts app.BootstrapOptions) (*app.BootstrapResult, error)
	Versions(ctx context.Context, opts app.VersionsOptions) (*app.VersionsResult, error)
	Pack(ctx context.Context, src, out string, opts ports.PackOptions) (*domain.Manifest, error)
	Verify(ctx context.Context, dir, pkg string) error
	Status(ctx context.Context, configPath string) (*app.Status, error)
}

// Option configures a CLI.
type Option func(*CLI)

// WithJSONLogs registers the callback that switches the logger to JSON when --json is set.
func WithJSONLogs(fn func(enable bool)) Option {
	return func(c *CLI) {
		c.setJSON = fn
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	rootCmd := &cobra.Command{
		Use:           "igniter",
		Short:         "Bootstrap and manage QuadPype versions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", DefaultConfigPath, "Path to the igniter configuration file")
	rootCmd.PersistentFlags().BoolVar(&c.jsonLogs, "json", false, "Emit logs as JSON")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if c.setJSON != nil {
			c.setJSON(c.jsonLogs)
		}
	}

	rootCmd.AddCommand(c.newBootstrapCmd())
	rootCmd.AddCommand(c.newVersionsCmd())
	rootCmd.AddCommand(c.newPackCmd())
	rootCmd.AddCommand(c.newVerifyCmd())
	rootCmd.AddCommand(c.newStatusCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
