package cli

import (
	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/spf13/cobra"
)

func newWhoAmICmd(deps DepsFactory, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(deps, func(d *Deps) error {
				res, err := silentToken(cmd.Context(), d)
				if err != nil {
					return err
				}

				account := res.Account
				if account == nil {
					accounts := d.Session.Accounts(cmd.Context())
					if len(accounts) == 0 {
						return errNotSignedIn
					}
					account = &accounts[0]
				}

				user := appuser.FromAccount(*account)
				if opts.json {
					return printJSON(cmd.OutOrStdout(), user)
				}
				printUser(cmd, user)
				return nil
			})
		},
	}
}
