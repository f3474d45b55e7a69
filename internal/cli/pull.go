package cli

import (
	"context"
	"fmt"

	"github.com/sdejongh/confsync/pkg/sync"
	"github.com/spf13/cobra"
)

// NewPullCommand creates the pull command
func NewPullCommand() *cobra.Command {
	var (
		force    bool
		dryRun   bool
		noBackup bool
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Retrieve the remote configuration directory",
		Long: `Pull snapshots the local directory, fetches the remote checksum manifest,
transfers the remote directory down, and verifies the result against the
manifest. On verification failure the most recent snapshot is reported;
already-copied files are never rolled back automatically.`,
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
				if !confirm(fmt.Sprintf("Pull %s into %s?", a.endpoint, a.localDir)) {
					fmt.Println("Pull aborted.")
					a.Close()
					return nil
				}
			}

			if progressEnabled() {
				callback, finish := hashProgress()
				a.verifier.SetProgressCallback(callback)
				defer finish()
			}

			report, err := a.driver.Pull(ctx, sync.PullOptions{
				DryRun:   dryRun,
				NoBackup: noBackup,
			})
			return emitReport(a, report, err)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip interactive confirmation")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview changes without transferring")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip the pre-pull snapshot")

	return cmd
}
