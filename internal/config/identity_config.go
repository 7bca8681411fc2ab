package config

import "time"

const (
	clientIDVar             = "IDENTITY_CLIENT_ID"
	authorityVar            = "IDENTITY_AUTHORITY"
	knownAuthorityVar       = "IDENTITY_KNOWN_AUTHORITY"
	redirectURIVar          = "IDENTITY_REDIRECT_URI"
	resetPasswordVar        = "IDENTITY_RESET_PASSWORD_AUTHORITY"
	postLogoutRedirectVar   = "IDENTITY_POST_LOGOUT_REDIRECT_URI"
	apiScopeVar             = "API_SCOPE"
	interactiveTimeoutVar   = "IDENTITY_INTERACTIVE_TIMEOUT"
	tokenCachePassphraseVar = "TOKEN_CACHE_PASSPHRASE"

	// tokenRenewalOffset is how long before expiry the provider itself refreshes a token.
	tokenRenewalOffset = 300 * time.Second

	// renewalSkew keeps our renewal strictly after the provider's own refresh.
	renewalSkew = 1 * time.Second
)

type Identity struct{}

var _ IdentityConfig = Identity{}

func (Identity) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

// GetAuthority is the issuer used for sign-up/sign-in, e.g.
// "https://tenant.b2clogin.com/tenant.onmicrosoft.com/B2C_1_signupsignin/v2.0"
func (Identity) GetAuthority() string {
	return GetEnv(authorityVar, "")
}

func (Identity) GetKnownAuthority() string {
	return GetEnv(knownAuthorityVar, "")
}

func (Identity) GetRedirectURI() string {
	return GetEnv(redirectURIVar, EnvVars{}.GetBaseURL()+"/callback")
}

func (Identity) GetResetPasswordAuthority() string {
	return GetEnv(resetPasswordVar, "")
}

func (Identity) GetPostLogoutRedirectURI() string {
	return GetEnv(postLogoutRedirectVar, EnvVars{}.GetBaseURL()+"/")
}

func (Identity) GetAPIScope() string {
	return GetEnv(apiScopeVar, "")
}

// GetScopes is the fixed scope set for every login and token request.
func (i Identity) GetScopes() []string {
	scopes := []string{"openid"}
	if apiScope := i.GetAPIScope(); apiScope != "" {
		scopes = append(scopes, apiScope)
	}
	return scopes
}

func (Identity) GetTokenRenewalOffset() time.Duration {
	return tokenRenewalOffset
}

func (Identity) GetRenewalSkew() time.Duration {
	return renewalSkew
}

func (Identity) GetInteractiveTimeout() time.Duration {
	return GetEnvDuration(interactiveTimeoutVar, 5*time.Minute)
}

// GetTokenCachePassphrase enables encryption of the on-disk token cache when set.
func (Identity) GetTokenCachePassphrase() string {
	return GetEnv(tokenCachePassphraseVar, "")
}
