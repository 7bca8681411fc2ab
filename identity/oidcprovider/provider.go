package oidcprovider

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/identity/flowrepo"
	autherrors "github.com/jrsteele09/taxfolio-client/internal/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultRenewalOffset = 300 * time.Second

type Config struct {
	ClientID              string
	Authority             string
	KnownAuthorities      []string // Hosts whose discovery documents report a different issuer
	RedirectURI           string
	PostLogoutRedirectURI string
	RenewalOffset         time.Duration // Cached tokens closer than this to expiry are refreshed
	Cache                 Cache
	Flows                 flowrepo.Repo
	Interactor            Interactor
	HTTPClient            *http.Client
	Now                   func() time.Time
}

// authorityConfig is the discovered configuration of one authority (user flow).
type authorityConfig struct {
	provider      *oidc.Provider
	verifier      *oidc.IDTokenVerifier
	endpoint      oauth2.Endpoint
	endSessionURL string
}

// Provider is an identity.Provider speaking OpenID Connect authorization code flow
// with PKCE against a B2C-style authority.
type Provider struct {
	cfg    Config
	events identity.EventRegistry

	authoritiesLock sync.RWMutex
	authorities     map[string]*authorityConfig

	mu     sync.Mutex
	loaded bool
	cache  *CacheData
	active *identity.Account
}

var _ identity.Provider = (*Provider)(nil)

func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("[oidcprovider New] client id is required")
	}
	if cfg.Authority == "" {
		return nil, errors.New("[oidcprovider New] authority is required")
	}
	if cfg.RenewalOffset <= 0 {
		cfg.RenewalOffset = defaultRenewalOffset
	}
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache()
	}
	if cfg.Flows == nil {
		cfg.Flows = flowrepo.NewInMemoryRepo(flowrepo.DefaultTTL)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Provider{
		cfg:         cfg,
		authorities: make(map[string]*authorityConfig),
	}, nil
}

// Initialize discovers the default authority and loads the token cache. It may be
// called repeatedly; once successful it does nothing.
func (p *Provider) Initialize(ctx context.Context) error {
	if _, err := p.authority(ctx, p.cfg.Authority); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return nil
	}
	data, err := p.cfg.Cache.Load(ctx)
	if err != nil {
		return fmt.Errorf("[oidcprovider Initialize] failed to load token cache: %w", err)
	}
	p.cache = data
	p.loaded = true
	return nil
}

func (p *Provider) httpContext(ctx context.Context) context.Context {
	if p.cfg.HTTPClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.cfg.HTTPClient)
}

func (p *Provider) isKnownAuthority(authority string) bool {
	u, err := url.Parse(authority)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(p.cfg.KnownAuthorities, func(host string) bool {
		return strings.EqualFold(host, u.Host)
	})
}

// authority returns the discovered configuration for an authority URL, discovering
// it on first use.
func (p *Provider) authority(ctx context.Context, authority string) (*authorityConfig, error) {
	p.authoritiesLock.RLock()
	ac, exists := p.authorities[authority]
	p.authoritiesLock.RUnlock()
	if exists {
		return ac, nil
	}

	discoveryCtx := p.httpContext(ctx)
	if p.isKnownAuthority(authority) {
		discoveryCtx = oidc.InsecureIssuerURLContext(discoveryCtx, authority)
	}

	provider, err := oidc.NewProvider(discoveryCtx, authority)
	if err != nil {
		return nil, fmt.Errorf("[oidcprovider authority] failed to discover %s: %w", authority, err)
	}

	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&extra); err != nil {
		log.Warn().Err(err).Str("authority", authority).Msg("failed to read discovery claims")
	}

	endpoint := provider.Endpoint()
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	ac = &authorityConfig{
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{
			ClientID: p.cfg.ClientID,
			Now:      p.cfg.Now,
		}),
		endpoint:      endpoint,
		endSessionURL: extra.EndSessionEndpoint,
	}

	p.authoritiesLock.Lock()
	p.authorities[authority] = ac
	p.authoritiesLock.Unlock()
	return ac, nil
}

func (p *Provider) oauth2Config(ac *authorityConfig, redirectURI string, scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    p.cfg.ClientID,
		Endpoint:    ac.endpoint,
		RedirectURL: redirectURI,
		Scopes:      requestScopes(scopes),
	}
}

// requestScopes adds offline_access so the authority returns a refresh token.
func requestScopes(scopes []string) []string {
	out := append([]string(nil), scopes...)
	if !slices.Contains(out, oidc.ScopeOfflineAccess) {
		out = append(out, oidc.ScopeOfflineAccess)
	}
	return out
}

// beginFlow registers a pending authorization request and returns its URL.
func (p *Provider) beginFlow(ctx context.Context, req identity.Request, redirectURI string) (string, error) {
	authority := req.Authority
	if authority == "" {
		authority = p.cfg.Authority
	}
	ac, err := p.authority(ctx, authority)
	if err != nil {
		return "", err
	}

	state := generateRandomString(32)
	nonce := generateRandomString(32)
	verifier := oauth2.GenerateVerifier()

	err = p.cfg.Flows.Upsert(state, &flowrepo.PendingFlow{
		CodeVerifier: verifier,
		Nonce:        nonce,
		Authority:    authority,
		RedirectURI:  redirectURI,
		Scopes:       req.Scopes,
		CreatedAt:    p.cfg.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("[oidcprovider beginFlow] failed to store flow: %w", err)
	}

	opts := []oauth2.AuthCodeOption{oidc.Nonce(nonce), oauth2.S256ChallengeOption(verifier)}
	if req.LoginHint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", req.LoginHint))
	}
	if req.Prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", req.Prompt))
	}
	return p.oauth2Config(ac, redirectURI, req.Scopes).AuthCodeURL(state, opts...), nil
}

func (p *Provider) LoginRedirect(ctx context.Context, req identity.Request) (string, error) {
	return p.beginFlow(ctx, req, p.cfg.RedirectURI)
}

// HandleRedirect completes a flow started by LoginRedirect. Params without a code or
// an error are not an authorization response and yield (nil, nil).
func (p *Provider) HandleRedirect(ctx context.Context, params url.Values) (*identity.AuthResult, error) {
	if params.Get("code") == "" && params.Get("error") == "" {
		return nil, nil
	}
	res, err := p.completeFlow(ctx, params)
	if err != nil {
		p.events.Emit(identity.Event{Type: identity.EventLoginFailure, Err: err})
		return nil, err
	}
	p.events.Emit(identity.Event{Type: identity.EventLoginSuccess, Result: res})
	return res, nil
}

// AcquireTokenInteractive runs the authorization flow through the configured
// interactor instead of a redirect of the caller's user agent.
func (p *Provider) AcquireTokenInteractive(ctx context.Context, req identity.Request) (*identity.AuthResult, error) {
	if p.cfg.Interactor == nil {
		return nil, &identity.ProviderError{Code: identity.CodeInteractionRequired, Err: autherrors.ErrUnsupported}
	}

	params, err := p.cfg.Interactor.Interact(ctx, func(redirectURI string) (string, error) {
		return p.beginFlow(ctx, req, redirectURI)
	})
	if err != nil {
		return nil, &identity.ProviderError{Code: identity.CodeAccessDenied, Description: "interaction did not complete", Err: err}
	}

	res, err := p.completeFlow(ctx, params)
	if err != nil {
		return nil, err
	}
	p.events.Emit(identity.Event{Type: identity.EventAcquireTokenSuccess, Result: res})
	return res, nil
}

func (p *Provider) completeFlow(ctx context.Context, params url.Values) (*identity.AuthResult, error) {
	state := params.Get("state")
	if oauthErr := params.Get("error"); oauthErr != "" {
		if state != "" {
			_ = p.cfg.Flows.Delete(state)
		}
		return nil, identity.NewProviderError(oauthErr, params.Get("error_description"))
	}
	if state == "" {
		return nil, autherrors.ErrInvalidState
	}

	flow, err := p.cfg.Flows.Get(state)
	if err != nil {
		return nil, autherrors.Wrapf(err, "[oidcprovider completeFlow] state %q", state)
	}
	if err := p.cfg.Flows.Delete(state); err != nil {
		return nil, fmt.Errorf("[oidcprovider completeFlow] failed to delete flow: %w", err)
	}

	ac, err := p.authority(ctx, flow.Authority)
	if err != nil {
		return nil, err
	}

	token, err := p.oauth2Config(ac, flow.RedirectURI, flow.Scopes).Exchange(
		p.httpContext(ctx),
		params.Get("code"),
		oauth2.VerifierOption(flow.CodeVerifier),
	)
	if err != nil {
		return nil, tokenError("code exchange", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, autherrors.ErrMissingIDToken
	}
	idToken, err := ac.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[oidcprovider completeFlow] id token verification failed: %w", err)
	}
	if idToken.Nonce != flow.Nonce {
		return nil, autherrors.ErrInvalidNonce
	}

	account, err := accountFromIDToken(idToken)
	if err != nil {
		return nil, err
	}

	entry := CacheEntry{
		Account:      account,
		Authority:    flow.Authority,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      rawIDToken,
		Scopes:       flow.Scopes,
		ExpiresOn:    tokenExpiry(token),
	}
	if err := p.store(ctx, entry); err != nil {
		return nil, err
	}
	return resultFromEntry(entry, false), nil
}

// AcquireTokenSilent serves the cached access token while it outlives the renewal
// offset and otherwise redeems the refresh token.
func (p *Provider) AcquireTokenSilent(ctx context.Context, req identity.SilentRequest) (*identity.AuthResult, error) {
	p.mu.Lock()
	entry, ok := p.lookupLocked(req.Account.HomeAccountID)
	p.mu.Unlock()
	if !ok {
		return nil, &identity.ProviderError{Code: identity.CodeInteractionRequired, Err: autherrors.ErrNoAccount}
	}

	if !req.ForceRefresh && entry.AccessToken != "" && entry.ExpiresOn.Sub(p.cfg.Now()) > p.cfg.RenewalOffset {
		return resultFromEntry(entry, true), nil
	}
	if entry.RefreshToken == "" {
		return nil, &identity.ProviderError{Code: identity.CodeInteractionRequired, Err: autherrors.ErrNoRefreshToken}
	}

	ac, err := p.authority(ctx, entry.Authority)
	if err != nil {
		return nil, err
	}
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = entry.Scopes
	}

	// An already expired token forces the TokenSource to refresh.
	stale := &oauth2.Token{RefreshToken: entry.RefreshToken, Expiry: time.Unix(1, 0)}
	token, err := p.oauth2Config(ac, p.cfg.RedirectURI, scopes).TokenSource(p.httpContext(ctx), stale).Token()
	if err != nil {
		return nil, tokenError("refresh", err)
	}

	entry.AccessToken = token.AccessToken
	entry.RefreshToken = token.RefreshToken
	entry.ExpiresOn = tokenExpiry(token)
	if rawIDToken, ok := token.Extra("id_token").(string); ok && rawIDToken != "" {
		entry.IDToken = rawIDToken
	}
	if err := p.store(ctx, entry); err != nil {
		return nil, err
	}
	return resultFromEntry(entry, false), nil
}

func (p *Provider) Accounts(ctx context.Context) ([]identity.Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache == nil {
		return nil, nil
	}
	return p.cache.accounts(), nil
}

func (p *Provider) SetActiveAccount(account identity.Account) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = &account
}

func (p *Provider) ActiveAccount() *identity.Account {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// LogoutRedirect forgets the account and returns the authority's end-session URL.
func (p *Provider) LogoutRedirect(ctx context.Context, account identity.Account) (string, error) {
	p.mu.Lock()
	entry, ok := p.lookupLocked(account.HomeAccountID)
	if ok {
		p.cache.remove(account.HomeAccountID)
	}
	if p.active != nil && p.active.HomeAccountID == account.HomeAccountID {
		p.active = nil
	}
	var saveErr error
	if p.cache != nil {
		saveErr = p.cfg.Cache.Save(ctx, p.cache)
	}
	p.mu.Unlock()

	if saveErr != nil {
		return "", fmt.Errorf("[oidcprovider LogoutRedirect] failed to save token cache: %w", saveErr)
	}
	p.events.Emit(identity.Event{Type: identity.EventLogoutSuccess})

	authority := p.cfg.Authority
	if ok && entry.Authority != "" {
		authority = entry.Authority
	}
	ac, err := p.authority(ctx, authority)
	if err != nil || ac.endSessionURL == "" {
		return p.cfg.PostLogoutRedirectURI, nil
	}

	logoutURL, err := url.Parse(ac.endSessionURL)
	if err != nil {
		return "", fmt.Errorf("[oidcprovider LogoutRedirect] invalid end_session_endpoint: %w", err)
	}
	q := logoutURL.Query()
	if p.cfg.PostLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", p.cfg.PostLogoutRedirectURI)
	}
	if ok && entry.IDToken != "" {
		q.Set("id_token_hint", entry.IDToken)
	}
	logoutURL.RawQuery = q.Encode()
	return logoutURL.String(), nil
}

func (p *Provider) AddEventCallback(listener identity.EventListener) string {
	return p.events.Add(listener)
}

func (p *Provider) RemoveEventCallback(id string) {
	p.events.Remove(id)
}

func (p *Provider) lookupLocked(homeAccountID string) (CacheEntry, bool) {
	if p.cache == nil {
		return CacheEntry{}, false
	}
	entry, ok := p.cache.Entries[homeAccountID]
	return entry, ok
}

func (p *Provider) store(ctx context.Context, entry CacheEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cache == nil {
		p.cache = newCacheData()
	}
	p.cache.put(entry)
	if err := p.cfg.Cache.Save(ctx, p.cache); err != nil {
		return fmt.Errorf("[oidcprovider store] failed to save token cache: %w", err)
	}
	return nil
}

func resultFromEntry(entry CacheEntry, fromCache bool) *identity.AuthResult {
	return &identity.AuthResult{
		Account:     entry.Account,
		AccessToken: entry.AccessToken,
		IDToken:     entry.IDToken,
		Scopes:      entry.Scopes,
		ExpiresOn:   entry.ExpiresOn,
		FromCache:   fromCache,
	}
}

// tokenError converts token endpoint failures into provider errors so the B2C
// user-flow codes are classified in one place.
func tokenError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		pe := identity.NewProviderError(re.ErrorCode, re.ErrorDescription)
		pe.Err = err
		return pe
	}
	return &identity.ProviderError{Code: identity.CodeServerError, Description: op + " failed", Err: err}
}

// tokenExpiry prefers expires_in and falls back to the access token's exp claim.
func tokenExpiry(token *oauth2.Token) time.Time {
	if !token.Expiry.IsZero() {
		return token.Expiry
	}
	return expiryFromJWT(token.AccessToken)
}

// expiryFromJWT reads exp without verifying the signature; the token was received
// directly from the token endpoint.
func expiryFromJWT(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

type idTokenClaims struct {
	ObjectID          string   `json:"oid"`
	TenantID          string   `json:"tid"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Email             string   `json:"email"`
	Emails            []string `json:"emails"`
}

func accountFromIDToken(idToken *oidc.IDToken) (identity.Account, error) {
	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return identity.Account{}, fmt.Errorf("[oidcprovider accountFromIDToken] failed to extract claims: %w", err)
	}
	var all map[string]any
	if err := idToken.Claims(&all); err != nil {
		return identity.Account{}, fmt.Errorf("[oidcprovider accountFromIDToken] failed to extract claims: %w", err)
	}

	localID := claims.ObjectID
	if localID == "" {
		localID = idToken.Subject
	}
	homeID := localID
	if claims.TenantID != "" {
		homeID = localID + "." + claims.TenantID
	}

	username := claims.PreferredUsername
	switch {
	case username != "":
	case len(claims.Emails) > 0:
		username = claims.Emails[0]
	default:
		username = claims.Email
	}

	environment := ""
	if u, err := url.Parse(idToken.Issuer); err == nil {
		environment = u.Host
	}

	return identity.Account{
		HomeAccountID:  homeID,
		LocalAccountID: localID,
		Environment:    environment,
		TenantID:       claims.TenantID,
		Username:       username,
		Name:           claims.Name,
		IDTokenClaims:  all,
	}, nil
}

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
