// Package cli implements the trainwatch command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/trainwatch/internal/config"
	"github.com/tOgg1/trainwatch/internal/data"
	"github.com/tOgg1/trainwatch/internal/logging"
	"github.com/tOgg1/trainwatch/internal/tour"
)

// app carries state shared by every command for one invocation.
type app struct {
	version string

	configFile string
	logLevel   string
	logFormat  string

	cfg       *config.Config
	logCloser io.Closer
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	return newRootCmd(version).ExecuteContext(ctx)
}

func newRootCmd(version string) *cobra.Command {
	a := &app{version: version}
	cmd := &cobra.Command{
		Use:   "trainwatch",
		Short: "Terminal dashboard for distributed training jobs",
		Long: "trainwatch shows training jobs, GPU reservations, loss curves and annotations\n" +
			"in the terminal, with a guided tour and optional root-cause analysis.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/trainwatch/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug|info|warn|error")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: console|json")

	cmd.AddCommand(
		newUICmd(a),
		newJobsCmd(a),
		newReservationsCmd(a),
		newTourCmd(a),
		newAnalyzeCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads configuration and initializes stderr logging. Flags win over
// the file and environment.
func (a *app) setup() error {
	loader := config.NewLoader()
	if a.configFile != "" {
		loader.SetConfigFile(a.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	if err := a.initLogging(""); err != nil {
		return err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logging.Logger.Debug().Str("file", used).Msg("config loaded")
	}
	return nil
}

// initLogging (re)initializes the global logger, writing to file when set.
func (a *app) initLogging(file string) error {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
	closer, err := logging.Init(logging.Config{
		Level:        a.cfg.Logging.Level,
		Format:       a.cfg.Logging.Format,
		File:         file,
		EnableCaller: a.cfg.Logging.EnableCaller,
	})
	if err != nil {
		return err
	}
	a.logCloser = closer
	return nil
}

// provider opens the mock data store, seeded from the configured fixture
// file or the built-in fleet.
func (a *app) provider(ctx context.Context) (*data.SQLiteProvider, error) {
	if path := a.cfg.Dashboard.FixtureFile; path != "" {
		fixtures, err := data.LoadFixtureFile(path)
		if err != nil {
			return nil, err
		}
		return data.NewSQLiteProvider(ctx, fixtures)
	}
	return data.NewDefaultProvider(ctx)
}

// scenarios returns the configured tours, falling back to the built-in ones.
func (a *app) scenarios() ([]tour.Scenario, error) {
	if path := a.cfg.Tour.ScenarioFile; path != "" {
		return tour.LoadScenarioFile(path)
	}
	return tour.DefaultScenarios(), nil
}

func (a *app) scenario(id string) (tour.Scenario, error) {
	scenarios, err := a.scenarios()
	if err != nil {
		return tour.Scenario{}, err
	}
	if s, ok := tour.FindScenario(scenarios, id); ok {
		return s, nil
	}
	return tour.Scenario{}, unknownError("scenario", id, tour.ScenarioIDs(scenarios))
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the trainwatch version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "trainwatch %s\n", strings.TrimSpace(a.version))
			return err
		},
	}
}
