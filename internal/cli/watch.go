package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/taxfolio-client/realtime"
	"github.com/spf13/cobra"
)

func newWatchCmd(deps DepsFactory, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print import, analysis and tax calculation progress as it happens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(deps, func(d *Deps) error {
				return runWatch(cmd, d, opts)
			})
		},
	}
}

func runWatch(cmd *cobra.Command, d *Deps, opts *rootOptions) error {
	ctx := cmd.Context()
	if _, err := silentToken(ctx, d); err != nil {
		return err
	}

	updates, unsubscribe := d.Realtime.State().Subscribe(64)
	defer unsubscribe()

	d.Realtime.Start(ctx)
	defer d.Realtime.Stop()

	if !opts.json {
		fmt.Fprintln(cmd.ErrOrStderr(), "Watching for notifications, press Ctrl+C to stop")
	}
	for {
		select {
		case <-ctx.Done():
			return drainUpdates(cmd, updates, opts)
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := printUpdate(cmd, update, opts); err != nil {
				return err
			}
		}
	}
}

// drainUpdates prints what was already received before an interrupt.
func drainUpdates(cmd *cobra.Command, updates <-chan realtime.Update, opts *rootOptions) error {
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := printUpdate(cmd, update, opts); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func printUpdate(cmd *cobra.Command, update realtime.Update, opts *rootOptions) error {
	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		return enc.Encode(update)
	}
	n := update.Notification
	line := fmt.Sprintf("%-34s %5.1f%%", update.Target, n.ProgressPerc)
	if n.ExternalIdentifier != "" {
		line += " [" + n.ExternalIdentifier + "]"
	}
	if n.Message != "" {
		line += " " + n.Message
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
	return err
}
