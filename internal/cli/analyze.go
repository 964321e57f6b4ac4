package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storygraph/internal/analyze"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE...",
		Short: "Report reachability, ending distances and branching statistics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			report, err := analyze.Analyze(doc)
			if err != nil {
				return err
			}
			if app.json() {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printAnalysis(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printAnalysis(w io.Writer, r analyze.Report) {
	s := r.Stats
	fmt.Fprintf(w, "Nodes: %d  Choices: %d  Endings: %d\n", s.Nodes, s.Choices, s.Endings)
	fmt.Fprintf(w, "Average branching: %.2f  Average text length: %.0f\n", s.AvgBranching, s.AvgTextLength)
	fmt.Fprintf(w, "Reachable: %d of %d\n", len(r.Reachable), s.Nodes)
	list(w, "Orphaned", r.Orphaned)
	list(w, "Unused", r.Unused)
	list(w, "Self-referencing", r.SelfReferencing)
	list(w, "High branching", s.HighBranching)

	if len(r.Endings) > 0 {
		fmt.Fprintln(w, "Endings:")
		for _, id := range r.Endings {
			d := r.EndingDistances[id]
			if d.Reachable {
				fmt.Fprintf(w, "  %s: %s\n", id, plural(d.Hops, "step"))
			} else {
				fmt.Fprintf(w, "  %s: %s\n", id, d)
			}
		}
	}
	if len(r.Transitions) > 0 {
		fmt.Fprintln(w, "Chapter transitions:")
		for _, t := range r.Transitions {
			fmt.Fprintf(w, "  %s -> %s via %s (chapter %d -> %d)\n", t.From, t.To, t.ChoiceID, t.FromChapter+1, t.ToChapter+1)
		}
	}
}

func list(w io.Writer, label string, ids []string) {
	if len(ids) == 0 {
		return
	}
	fmt.Fprintf(w, "%s: %s\n", label, strings.Join(ids, ", "))
}
