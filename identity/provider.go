package identity

import (
	"context"
	"net/url"
)

// Provider is the identity client contract the session core is written against.
// Implementations serialise access to their own account/token cache.
type Provider interface {
	// Initialize prepares the client (metadata discovery, cache load). Safe to call repeatedly.
	Initialize(ctx context.Context) error

	// HandleRedirect processes an authorization response delivered to the redirect URI.
	// It returns (nil, nil) when params carry no response.
	HandleRedirect(ctx context.Context, params url.Values) (*AuthResult, error)

	// LoginRedirect returns the URL the user agent must be sent to in order to sign in.
	LoginRedirect(ctx context.Context, req Request) (string, error)

	// AcquireTokenInteractive prompts the user (popup or loopback browser round trip).
	AcquireTokenInteractive(ctx context.Context, req Request) (*AuthResult, error)

	// AcquireTokenSilent returns a valid token for a cached account without prompting.
	AcquireTokenSilent(ctx context.Context, req SilentRequest) (*AuthResult, error)

	Accounts(ctx context.Context) ([]Account, error)
	SetActiveAccount(account Account)
	ActiveAccount() *Account

	// LogoutRedirect forgets the account locally and returns the end-session URL.
	LogoutRedirect(ctx context.Context, account Account) (string, error)

	AddEventCallback(listener EventListener) string
	RemoveEventCallback(id string)
}
