package resources

import (
	"context"
	"net/http"

	"github.com/jrsteele09/taxfolio-client/apiclient"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/pkg/errors"
)

type IdentityResource struct {
	f *apiclient.Fetcher
}

var _ session.Provisioner = (*IdentityResource)(nil)

// SignUpSignIn creates or links the backend user for a freshly signed-in account.
// The token is passed explicitly because it is issued before the session is active.
func (r *IdentityResource) SignUpSignIn(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("IdentityResource.SignUpSignIn missing access token")
	}
	err := r.f.Call(ctx, http.MethodPost, "/Identity/SignUpSignIn", nil, nil, apiclient.WithBearer(accessToken))
	return errors.Wrap(err, "IdentityResource.SignUpSignIn")
}
