package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"storygraph/internal/validate"
)

func newValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check chapters for dangling references, dead choices and other defects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := app.load(cmd.Context(), args)
			if err != nil {
				return err
			}
			report := validate.Validate(doc)

			out := cmd.OutOrStdout()
			if app.json() {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				for _, f := range report.Errors {
					fmt.Fprintf(out, "ERROR: %s\n", f)
				}
				for _, f := range report.Warnings {
					fmt.Fprintf(out, "WARN: %s\n", f)
				}
				fmt.Fprintf(out, "%s, %s\n", plural(len(report.Errors), "error"), plural(len(report.Warnings), "warning"))
			}
			if report.HasErrors() {
				return fmt.Errorf("%w:\n%w", ErrFindings, report.Err())
			}
			return nil
		},
	}
}
