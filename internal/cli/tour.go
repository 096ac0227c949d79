package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTourCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tour",
		Short: "Inspect guided tour scenarios",
	}
	cmd.AddCommand(newTourListCmd(a), newTourShowCmd(a))
	return cmd
}

func newTourListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List available scenarios",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios, err := a.scenarios()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(scenarios))
			for _, s := range scenarios {
				id := s.ID
				if id == a.cfg.Tour.DefaultScenario {
					id += " *"
				}
				rows = append(rows, []string{id, s.Title, fmt.Sprint(len(s.Steps))})
			}
			return writeTable(cmd.OutOrStdout(), []string{"ID", "TITLE", "STEPS"}, rows)
		},
	}
}

func newTourShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the steps of a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.scenario(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", s.Title, s.ID)
			for i, step := range s.Steps {
				fmt.Fprintf(out, "\n%d/%d  %s", i+1, len(s.Steps), step.Title)
				if step.Action != "" {
					fmt.Fprintf(out, "  [%s]", step.Action)
				}
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimSpace(step.Content), "\n") {
					fmt.Fprintf(out, "    %s\n", strings.TrimSpace(line))
				}
			}
			return nil
		},
	}
}
