package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewInitDBCommand creates the initdb command.
func NewInitDBCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initdb",
		Short: "Create the hash store schema",
		Long: `Create the hash store tables if they do not exist. Idempotent; safe
to run repeatedly. A sync also creates the schema, so this is only
needed to pre-initialize an empty store.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			app, err := newApp(rootOpts)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.store.Init(); err != nil {
				return WrapExitError(ExitFailure, "failed to initialize store", err)
			}

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Emit(map[string]string{"status": "initialized", "path": app.cfg.DBPath()}, func(w io.Writer) {
				fmt.Fprintf(w, "hash store initialized at %s\n", app.cfg.DBPath())
			})
		},
	}

	return cmd
}
