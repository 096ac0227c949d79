package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tOgg1/trainwatch/internal/analysis"
	"github.com/tOgg1/trainwatch/internal/data"
	"github.com/tOgg1/trainwatch/internal/logging"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var logsFile, metricsFile, jobID string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Ask the configured model for a root-cause analysis",
		Long: "Sends job logs and metrics to the analysis endpoint and prints its answer.\n" +
			"Without an endpoint, or when the call fails, a short explanation is printed instead.",
		Example: "  trainwatch analyze --job job-mixtral-pretrain\n" +
			"  trainwatch analyze --logs train.log --metrics loss.txt",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.WithContext(cmd.Context(), logging.Component("analysis"))
			var logs, metrics string
			switch {
			case jobID != "" && (logsFile != "" || metricsFile != ""):
				return fmt.Errorf("--job cannot be combined with --logs or --metrics")
			case jobID != "":
				provider, err := a.provider(ctx)
				if err != nil {
					return err
				}
				defer provider.Close()
				if logs, metrics, err = data.AnalysisInput(ctx, provider, jobID); err != nil {
					return fmt.Errorf("job %q: %w", jobID, err)
				}
			case logsFile != "" || metricsFile != "":
				var err error
				if logs, err = readOptional(logsFile); err != nil {
					return err
				}
				if metrics, err = readOptional(metricsFile); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --job, --logs or --metrics is required")
			}

			text := analysis.NewClient(a.cfg.Analysis).AnalyzeOrFallback(ctx, logs, metrics)
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&logsFile, "logs", "", "file with job logs")
	cmd.Flags().StringVar(&metricsFile, "metrics", "", "file with metric summaries")
	cmd.Flags().StringVar(&jobID, "job", "", "analyze a job from the demo fleet")
	return cmd
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}
