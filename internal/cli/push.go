package cli

import (
	"context"
	"fmt"

	"github.com/sdejongh/confsync/pkg/sync"
	"github.com/spf13/cobra"
)

// NewPushCommand creates the push command
func NewPushCommand() *cobra.Command {
	var (
		force  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Send the local configuration directory to the remote host",
		Long: `Push builds a fresh checksum manifest of the local directory, transfers
the directory to the remote host, and publishes the manifest alongside it
so the remote side can be verified later.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}

			if !force && !dryRun {
				if !confirm(fmt.Sprintf("Push %s to %s?", a.localDir, a.endpoint)) {
					fmt.Println("Push aborted.")
					a.Close()
					return nil
				}
			}

			if progressEnabled() {
				callback, finish := hashProgress()
				a.builder.SetProgressCallback(callback)
				defer finish()
			}

			report, err := a.driver.Push(ctx, sync.PushOptions{DryRun: dryRun})
			return emitReport(a, report, err)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip interactive confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without transferring")

	return cmd
}
