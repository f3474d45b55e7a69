package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Preview pending changes in both directions",
		Long: `Status runs dry-run transfers in both directions and reports what a push
or pull would change, followed by an advisory integrity summary. Nothing
is transferred or modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}

			if progressEnabled() {
				callback, finish := hashProgress()
				a.verifier.SetProgressCallback(callback)
				defer finish()
			}

			report, err := a.driver.Status(ctx)
			return emitReport(a, report, err)
		},
	}
}
