package identity

import "time"

// Account is the identity provider's record of a signed-in user. The session core
// only needs the stable identifier and the display claims.
type Account struct {
	HomeAccountID  string         `json:"homeAccountId"`  // Stable identifier: "<object id>.<tenant id>"
	LocalAccountID string         `json:"localAccountId"` // Object id within the tenant
	Environment    string         `json:"environment"`    // Authority host the account was issued by
	TenantID       string         `json:"tenantId"`
	Username       string         `json:"username"`
	Name           string         `json:"name,omitempty"`
	IDTokenClaims  map[string]any `json:"idTokenClaims,omitempty"`
}

// AuthResult is the outcome of a successful token request.
type AuthResult struct {
	Account     Account
	AccessToken string
	IDToken     string
	Scopes      []string
	ExpiresOn   time.Time // Zero when the provider did not report an expiry
	FromCache   bool
}

// Request describes an interactive login or token request.
type Request struct {
	Scopes    []string
	Authority string // Overrides the configured authority (e.g. password reset policy)
	LoginHint string
	Prompt    string
}

// SilentRequest describes a non-interactive token request for a cached account.
type SilentRequest struct {
	Account      Account
	Scopes       []string
	ForceRefresh bool
}
