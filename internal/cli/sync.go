package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// SyncOptions holds flags for the sync command.
type SyncOptions struct {
	*RootOptions
	Force bool
}

// syncReport is the JSON payload printed after a sync.
type syncReport struct {
	Result string `json:"result"`
	Detail string `json:"detail"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the local mirror with the remote feed",
		Long: `Download the current remote feed, replace the local mirror if its
content changed, and rebuild the hash store and watermark from it.

With --force the store and watermark are rebuilt even when the
downloaded content is identical to the current mirror. This recovers a
damaged local store without waiting for upstream content to change.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "rebuild even when feed content is unchanged")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	app, err := newApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	result, syncErr := app.synchronizer().Sync(cmd.Context(), opts.Force)

	report := syncReport{Result: string(result), Detail: result.Describe()}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := f.Emit(report, func(w io.Writer) {
		fmt.Fprintln(w, report.Detail)
	}); err != nil {
		return err
	}

	if syncErr != nil {
		return WrapExitError(ExitFailure, "synchronization failed", syncErr)
	}
	return nil
}
