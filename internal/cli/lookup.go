package cli

import (
	"github.com/spf13/cobra"

	"github.com/malscan/malscan/internal/feed"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <sha256>",
		Short: "Look up a digest directly, without hashing a file",
		Long: `Resolve a SHA-256 digest against the local hash store. Purely local:
no freshness check and no synchronization.

Example:
  malscan lookup e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runLookup(opts, args[0], cmd)
		},
	}

	return cmd
}

func runLookup(opts *LookupOptions, rawDigest string, cmd *cobra.Command) error {
	digest, err := feed.NormalizeDigest(rawDigest)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid digest", err)
	}

	app, err := newApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer app.Close()

	entry, lookupErr := app.store.Lookup(cmd.Context(), digest)
	verdict, err := buildVerdict(digest, entry, lookupErr)
	if err != nil {
		return WrapExitError(ExitFailure, "lookup failed", err)
	}

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return f.Emit(verdict, verdict.renderText)
}
