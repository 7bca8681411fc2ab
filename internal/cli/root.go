package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // Will be set during build

type rootOptions struct {
	json bool
}

// NewRootCmd builds the taxctl command tree on top of deps.
func NewRootCmd(deps DepsFactory) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "taxctl",
		Short: "taxctl - Taxfolio from the command line",
		Long: `taxctl signs you in to Taxfolio and talks to the Taxfolio API
with the same session handling as the web client.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print machine readable JSON")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxctl version %s\n", version)
		},
	})

	rootCmd.AddCommand(newLoginCmd(deps, opts))
	rootCmd.AddCommand(newTokenCmd(deps, opts))
	rootCmd.AddCommand(newWhoAmICmd(deps, opts))
	rootCmd.AddCommand(newLogoutCmd(deps, opts))
	rootCmd.AddCommand(newWatchCmd(deps, opts))
	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context, deps DepsFactory) error {
	if err := NewRootCmd(deps).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// withDeps builds the dependencies for one command run and releases them after.
func withDeps(factory DepsFactory, run func(d *Deps) error) error {
	d, err := factory()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if d.Close != nil {
		defer d.Close()
	}
	return run(d)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
