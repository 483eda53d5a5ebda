// Package cli implements the command line driving adapter with cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/ciannotate/internal/config"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// ErrTestsFailed is returned by report --fail-on-failure when a run concludes
// with failures or errors.
var ErrTestsFailed = errors.New("test report has failures")

// Deps are the collaborators the commands need from outside the package.
// The publisher and store constructors are injected so commands can be tested
// without network or disk.
type Deps struct {
	Out io.Writer
	Err io.Writer

	LoadConfig   func() (*config.Config, error)
	NewPublisher func(cfg *config.Config) (driven.CheckPublisher, error)
	// OpenStore opens the run history at path and applies migrations.
	OpenStore func(ctx context.Context, path string) (driven.RunStore, io.Closer, error)
}

func (d Deps) withDefaults() Deps {
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Err == nil {
		d.Err = os.Stderr
	}
	if d.LoadConfig == nil {
		d.LoadConfig = config.Load
	}
	return d
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	deps  Deps
	cfg   *config.Config
	debug bool
}

// NewRootCommand builds the ciannotate command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	a := &app{deps: deps.withDefaults()}

	root := &cobra.Command{
		Use:   "ciannotate",
		Short: "Turn test and coverage reports into GitHub check runs and badges",
		Long: `ciannotate normalizes Jest and pytest JUnit reports into GitHub check runs
with line annotations, and renders coverage badges from Jest (istanbul) and
coverage.py JSON summaries.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(a.deps.Out)
	root.SetErr(a.deps.Err)

	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newReportCommand(a),
		newBadgeCommand(a),
		newServeCommand(a),
	)

	return root
}

// setup loads configuration and installs the default logger.
func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := a.deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.deps.Err, &slog.HandlerOptions{Level: level})))

	if cfg.ProjectFile != "" {
		slog.Debug("project file applied", "path", cfg.ProjectFile)
	}
	return nil
}

// publisher returns the configured check publisher. Publishing needs a token
// and a target repository.
func (a *app) publisher() (driven.CheckPublisher, error) {
	if !a.cfg.HasGitHubCredentials() {
		return nil, errors.New("publishing needs GITHUB_TOKEN and GITHUB_REPOSITORY")
	}
	if a.deps.NewPublisher == nil {
		return nil, errors.New("no publisher available")
	}
	return a.deps.NewPublisher(a.cfg)
}

// store opens the run history when a database path is configured. The
// returned close function is never nil.
func (a *app) store(ctx context.Context) (driven.RunStore, func(), error) {
	noop := func() {}
	if a.cfg.DBPath == "" || a.deps.OpenStore == nil {
		return nil, noop, nil
	}

	store, closer, err := a.deps.OpenStore(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, noop, fmt.Errorf("opening run history: %w", err)
	}
	slog.Debug("run history opened", "path", a.cfg.DBPath)

	return store, func() {
		if err := closer.Close(); err != nil {
			slog.Error("error closing run history", "error", err)
		}
	}, nil
}
