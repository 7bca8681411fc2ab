package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type logoutOutput struct {
	SignedOut bool   `json:"signedOut"`
	LogoutURL string `json:"logoutUrl,omitempty"`
}

func newLogoutCmd(deps DepsFactory, opts *rootOptions) *cobra.Command {
	var noBrowser bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the cached tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(deps, func(d *Deps) error {
				logoutURL := d.Session.SignOut(cmd.Context())
				if logoutURL == "" {
					return errNotSignedIn
				}

				if !noBrowser && d.OpenURL != nil {
					if err := d.OpenURL(logoutURL); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Could not open browser automatically: %v\n", err)
					}
				}

				if opts.json {
					return printJSON(cmd.OutOrStdout(), logoutOutput{SignedOut: true, LogoutURL: logoutURL})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out")
				fmt.Fprintf(cmd.OutOrStdout(), "  End the browser session at: %s\n", logoutURL)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Do not open the provider logout page")
	return cmd
}
