package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewBackupCommand creates the backup command
func NewBackupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage local snapshots",
		Long:  `Create, list, or prune the tar.gz snapshots taken before pull operations.`,
	}

	cmd.AddCommand(newBackupCreateCommand())
	cmd.AddCommand(newBackupListCommand())
	cmd.AddCommand(newBackupPruneCommand())

	return cmd
}

func newBackupCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a snapshot of the local directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			path, err := a.rotator.Create(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Snapshot created: %s\n", path)
			return nil
		},
	}
}

func newBackupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List existing snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			snapshots, err := a.rotator.List()
			if err != nil {
				return err
			}
			if len(snapshots) == 0 {
				fmt.Println("No snapshots found.")
				return nil
			}

			for _, path := range snapshots {
				fmt.Println(path)
			}
			return nil
		},
	}
}

func newBackupPruneCommand() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove all but the most recent snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("keep") {
				keep = a.cfg.Backup.Keep
			}

			removed, err := a.rotator.Prune(keep)
			if err != nil {
				return err
			}

			fmt.Printf("Removed %d snapshot(s).\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "number of snapshots to keep (default from config)")

	return cmd
}
