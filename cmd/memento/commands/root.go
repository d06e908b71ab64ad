// Package commands provides the CLI commands for memento.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/migrate"
	"github.com/Git-on-my-level/memento-protocol-sub004/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// ResolverFunc builds the configuration resolver for a run.
type ResolverFunc func(opts ...config.Option) (*config.Resolver, error)

// app carries the global flags and the resolver shared by subcommands.
type app struct {
	build ResolverFunc

	// Global flags
	logLevel   string
	prettyLogs bool
	dir        string

	resolver *config.Resolver
	migrated []migrate.Result
}

// NewRootCommand creates the command tree. build is called once per run,
// after logging has been set up.
func NewRootCommand(build ResolverFunc) *cobra.Command {
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "memento",
		Short: "memento - behavioural templates for AI coding assistants",
		Long: `memento installs modes, workflows, agents and hooks into a project.

Configuration is read from built-in defaults, ~/.mementorc, ~/.memento/config.yaml,
./.mementorc, ./.memento/config.yaml and MEMENTO_* environment variables,
later sources winning. Run 'memento config --help' to inspect and edit it.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(logging.Config{
				Level:  logging.ParseLevel(a.logLevel),
				Output: cmd.ErrOrStderr(),
				Pretty: a.prettyLogs,
			})
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "WARN", "Log level (DEBUG|INFO|WARN|ERROR|OFF)")
	root.PersistentFlags().BoolVar(&a.prettyLogs, "pretty-logs", true, "Human-readable log output")
	root.PersistentFlags().StringVar(&a.dir, "dir", "", "Project root (defaults to the working directory)")

	root.SetVersionTemplate(fmt.Sprintf("memento %s (%s)\n", Version, BuildTime))

	root.AddCommand(newConfigCommand(a))

	return root
}

// Execute runs the root command against the real environment.
func Execute() error {
	return NewRootCommand(config.New).Execute()
}

// open builds the resolver on first use and migrates legacy files of both
// scopes. extra options apply on top of the global flags.
func (a *app) open(extra ...config.Option) (*config.Resolver, error) {
	if a.resolver != nil && len(extra) == 0 {
		return a.resolver, nil
	}

	opts := []config.Option{config.WithLogger(logging.Component("config"))}
	if a.dir != "" {
		opts = append(opts, config.WithWorkDir(a.dir))
	}

	r, err := a.build(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("initializing configuration: %w", err)
	}

	a.resolver = r
	a.migrated = r.Migrate()
	return r, nil
}
