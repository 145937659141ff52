// Package commands implements the devlog CLI commands.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/mash-protocol/devlog/internal/app"
	"github.com/mash-protocol/devlog/internal/config"
	"github.com/mash-protocol/devlog/internal/filter"
	"github.com/mash-protocol/devlog/pkg/version"
)

// env carries state shared by subcommands of one invocation.
type env struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	app    *app.App
	logger *slog.Logger
}

// open loads the configuration and builds the engine on first use.
func (e *env) open(cmd *cobra.Command) (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, err
	}
	if e.logLevel != "" {
		cfg.LogLevel = e.logLevel
	}
	level, err := config.SlogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a, err := app.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	e.cfg = cfg
	e.app = a
	e.logger = logger
	return a, nil
}

func (e *env) close() error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close()
	e.app = nil
	return err
}

// NewRoot constructs the root devlog command.
func NewRoot() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *env) {
	e := &env{}

	root := &cobra.Command{
		Use:   "devlog",
		Short: "Inspect and manage device logs",
		Long: `devlog registers the logs described by a configuration file and lets you
append to, dump, export and flush them. Persistent backends (flash, file,
redis) keep entries between invocations.`,
		SilenceUsage: true,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}
	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", os.Getenv("DEVLOG_CONFIG"), "Configuration file (YAML)")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "Diagnostic log level: debug|info|warn|error")

	root.AddCommand(
		newListCommand(e),
		newDumpCommand(e),
		newExportCommand(e),
		newStatsCommand(e),
		newFlushCommand(e),
		newAppendCommand(e),
		newViewCommand(),
		newShellCommand(e),
		newMetricsCommand(e),
		newVersionCommand(),
	)
	return root, e
}

// Run executes the CLI with args and releases every backend afterwards,
// including when the command fails.
func Run(args []string, stdout, stderr io.Writer) error {
	root, e := newRoot()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if cerr := e.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Execute runs the CLI with os.Args.
func Execute() int {
	if err := Run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		return 1
	}
	return 0
}

// compileFilter reads the --filter flag.
func compileFilter(cmd *cobra.Command) (*filter.Filter, error) {
	expr, _ := cmd.Flags().GetString("filter")
	f, err := filter.Compile(expr)
	if err != nil {
		return nil, errors.Wrap(err, "invalid --filter")
	}
	return f, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the devlog version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Banner())
		},
	}
}
