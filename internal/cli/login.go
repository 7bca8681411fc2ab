package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in. Please run 'taxctl login' first")

func newLoginCmd(deps DepsFactory, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in through the browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(deps, func(d *Deps) error {
				return runLogin(cmd, d, opts)
			})
		},
	}
}

func runLogin(cmd *cobra.Command, d *Deps, opts *rootOptions) error {
	ctx := cmd.Context()
	if d.InteractiveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.InteractiveTimeout)
		defer cancel()
	}

	if !opts.json {
		fmt.Fprintln(cmd.ErrOrStderr(), "Opening the browser to sign in...")
	}
	res, err := d.Session.AcquireTokenInteractive(ctx)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if !res.OK() || res.Account == nil {
		return fmt.Errorf("login failed: %s", res.Outcome)
	}

	if d.Provisioner != nil {
		if err := d.Provisioner.SignUpSignIn(ctx, res.AccessToken); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Could not register the account with Taxfolio: %v\n", err)
		}
	}

	user := appuser.FromAccount(*res.Account)
	if opts.json {
		return printJSON(cmd.OutOrStdout(), user)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Login successful!")
	printUser(cmd, user)
	return nil
}

func printUser(cmd *cobra.Command, user *appuser.User) {
	out := cmd.OutOrStdout()
	if user.Name != "" {
		fmt.Fprintf(out, "  User: %s (%s)\n", user.Name, user.Username)
	} else {
		fmt.Fprintf(out, "  User: %s\n", user.Username)
	}
	fmt.Fprintf(out, "  Account: %s\n", user.HomeAccountID)
}

// silentToken returns a token or errNotSignedIn when the session holds none.
func silentToken(ctx context.Context, d *Deps) (session.TokenResult, error) {
	res, err := d.Session.AcquireTokenSilent(ctx)
	if err != nil {
		return session.TokenResult{}, err
	}
	if !res.OK() {
		return session.TokenResult{}, errNotSignedIn
	}
	return res, nil
}
