package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/trainwatch/internal/analysis"
	"github.com/tOgg1/trainwatch/internal/capture"
	"github.com/tOgg1/trainwatch/internal/dashboard"
	"github.com/tOgg1/trainwatch/internal/logging"
)

var errNoTTY = errors.New("the dashboard requires an interactive terminal; use the jobs, reservations or tour commands instead")

func newUICmd(a *app) *cobra.Command {
	var autoCapture bool
	var theme string
	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"dashboard"},
		Short:   "Launch the trainwatch dashboard",
		Long:    "Launch the trainwatch terminal dashboard.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !hasTTY() {
				return errNoTTY
			}
			if cmd.Flags().Changed("auto-capture") {
				a.cfg.Tour.AutoCapture = autoCapture
			}
			if theme != "" {
				a.cfg.Dashboard.Theme = theme
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}
			return runUI(cmd, a)
		},
	}
	cmd.Flags().BoolVar(&autoCapture, "auto-capture", false, "capture every tour step before moving on")
	cmd.Flags().StringVar(&theme, "theme", "", "theme: default|high-contrast")
	return cmd
}

func runUI(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	// The dashboard owns the terminal, so logs go to a file from here on.
	if err := a.initLogging(cfg.LogFile()); err != nil {
		return err
	}
	logger := logging.Component("cli")

	scenarios, err := a.scenarios()
	if err != nil {
		return err
	}
	provider, err := a.provider(ctx)
	if err != nil {
		return err
	}
	defer provider.Close()

	recorder := capture.NewRecorder()
	deps := dashboard.Deps{
		Provider: provider,
		Recorder: recorder,
		Capture:  capture.NewFileService(cfg.CaptureDir(), recorder),
	}
	if cfg.Analysis.Configured() {
		deps.Analyzer = analysis.NewClient(cfg.Analysis)
	}

	model, err := dashboard.NewModel(ctx, dashboard.Config{
		Theme:           cfg.Dashboard.Theme,
		PageSize:        cfg.Dashboard.PageSize,
		User:            currentUser(),
		AutoCapture:     cfg.Tour.AutoCapture,
		DefaultScenario: cfg.Tour.DefaultScenario,
		Scenarios:       scenarios,
	}, deps)
	if err != nil {
		return err
	}

	logger.Info().
		Str("capture_dir", cfg.CaptureDir()).
		Bool("analysis", cfg.Analysis.Configured()).
		Msg("dashboard starting")
	return dashboard.Run(ctx, model)
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func currentUser() string {
	for _, key := range []string{"TRAINWATCH_USER", "USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
