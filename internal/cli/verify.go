package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the local directory against its checksum manifest",
		Long: `Verify recomputes the digest of every file named by the local manifest
and reports mismatched or missing entries. On first use a baseline
manifest is created instead. When the remote manifest is reachable, a
drift comparison is reported for information.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			a, err := newApp(false)
			if err != nil {
				return err
			}

			if progressEnabled() {
				callback, finish := hashProgress()
				a.verifier.SetProgressCallback(callback)
				defer finish()
			}

			report, err := a.driver.Verify(ctx)
			return emitReport(a, report, err)
		},
	}
}
