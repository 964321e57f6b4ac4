package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storygraph/internal/analyze"
	"storygraph/internal/story"
)

func newPathCmd(app *App) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "path FILE... --to NODE",
		Short: "Print the shortest sequence of choices from the start to a node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				return errors.New("--to is required")
			}
			doc, err := app.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			if !doc.Has(target) {
				return fmt.Errorf("node %q does not exist", target)
			}
			steps, ok := analyze.ShortestPath(doc, target)
			if !ok {
				return fmt.Errorf("node %q is not reachable from %q", target, doc.StartNodeID)
			}
			if app.json() {
				return writeJSON(cmd.OutOrStdout(), steps)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, doc.StartNodeID)
			for _, s := range steps {
				if s.Outcome != story.OutcomeNone {
					fmt.Fprintf(out, "  --%s [%s]--> %s\n", s.ChoiceID, s.Outcome, s.To)
				} else {
					fmt.Fprintf(out, "  --%s--> %s\n", s.ChoiceID, s.To)
				}
			}
			fmt.Fprintf(out, "%s\n", plural(len(steps), "step"))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "Target node id")
	return cmd
}
