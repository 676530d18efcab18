package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/malscan/malscan/internal/hashing"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	ForceUpdate bool
	Offline     bool
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Hash a file and check it against the local threat store",
		Long: `Compute the SHA-256 digest of a file, bring the local mirror up to
date if it is stale, and report whether the digest is known malicious.

Every recoverable failure along the way (remote unreachable, sync
failed, store missing) degrades to a warning plus a best-effort verdict
from whatever local state exists. Only bad invocations abort without a
verdict.

Example:
  malscan scan ./suspicious.exe
  malscan scan --force-update ./suspicious.exe`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Argument errors above print usage; failures past this
			// point do not.
			cmd.SilenceUsage = true
			return runScan(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ForceUpdate, "force-update", false, "rebuild store and watermark even when feed content is unchanged")
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "skip the freshness check and synchronization")

	return cmd
}

func runScan(opts *ScanOptions, filePath string, cmd *cobra.Command) error {
	digest, err := hashing.SHA256File(filePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash file", err)
	}

	app, err := newApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()

	if !opts.Offline {
		fresh := app.evaluator().Evaluate(ctx)
		slog.Debug("freshness evaluated",
			"state", fresh.State.String(),
			"signal", string(fresh.Signal),
			"remote", fresh.Remote,
			"local", fresh.Local,
		)

		// Unknown freshness counts as requiring an update attempt.
		if opts.ForceUpdate || !fresh.IsUpToDate() {
			result, syncErr := app.synchronizer().Sync(ctx, opts.ForceUpdate)
			if syncErr != nil {
				// Degrade: answer from whatever local state exists.
				slog.Warn("synchronization failed, using existing local data",
					"result", string(result), "error", syncErr)
			}
		}
	}

	entry, lookupErr := app.store.Lookup(ctx, digest)
	verdict, err := buildVerdict(digest, entry, lookupErr)
	if err != nil {
		return WrapExitError(ExitFailure, "lookup failed", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(verdict, verdict.renderText)
}
