package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type tokenOutput struct {
	AccessToken string    `json:"accessToken"`
	ExpiresOn   time.Time `json:"expiresOn"`
	Account     string    `json:"account,omitempty"`
}

func newTokenCmd(deps DepsFactory, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print an access token for the Taxfolio API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(deps, func(d *Deps) error {
				res, err := silentToken(cmd.Context(), d)
				if err != nil {
					return err
				}
				if !opts.json {
					fmt.Fprintln(cmd.OutOrStdout(), res.AccessToken)
					return nil
				}
				out := tokenOutput{AccessToken: res.AccessToken, ExpiresOn: res.ExpiresOn}
				if res.Account != nil {
					out.Account = res.Account.HomeAccountID
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}
