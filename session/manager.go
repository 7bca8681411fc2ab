package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/taxfolio-client/identity"
	autherrors "github.com/jrsteele09/taxfolio-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// acquireTimeout bounds one shared acquisition, interactive fallback included.
const acquireTimeout = 5 * time.Minute

// Provisioner creates or links the backend user record for a freshly signed-in account.
type Provisioner interface {
	SignUpSignIn(ctx context.Context, accessToken string) error
}

type Options struct {
	Scopes                 []string
	ResetPasswordAuthority string
	Provisioner            Provisioner
	Logger                 *zerolog.Logger
}

// Manager owns the authentication lifecycle: initialization, sign-in, silent and
// interactive token acquisition, renewal scheduling and sign-out. AcquireTokenSilent
// is the single token entry point for every other component.
type Manager struct {
	store       *TokenStore
	scopes      []string
	resetPolicy string
	provisioner Provisioner
	log         zerolog.Logger

	initMu      sync.Mutex
	initialized bool
	listenerID  string

	stateMu sync.RWMutex
	state   State

	flight singleflight.Group
}

var _ identity.EventListener = (*Manager)(nil)

func NewManager(store *TokenStore, opts Options) *Manager {
	logger := log.With().Str("component", "session").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Manager{
		store:       store,
		scopes:      opts.Scopes,
		resetPolicy: opts.ResetPasswordAuthority,
		provisioner: opts.Provisioner,
		log:         logger,
	}
}

// SetProvisioner wires the backend provisioning call after construction; the
// provisioner usually depends on an API client that itself needs the Manager.
func (m *Manager) SetProvisioner(p Provisioner) {
	m.initMu.Lock()
	defer m.initMu.Unlock()
	m.provisioner = p
}

// Initialize bootstraps the identity client once per process and registers the
// login-success observer. A failure is returned and retried on the next call.
func (m *Manager) Initialize(ctx context.Context) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if m.initialized {
		return nil
	}
	m.setState(StateInitializing)

	client, err := m.store.Client(ctx)
	if err != nil {
		m.setState(StateUninitialized)
		return fmt.Errorf("%w: %w", autherrors.ErrInitialization, err)
	}
	if err := client.Initialize(ctx); err != nil {
		m.setState(StateUninitialized)
		return fmt.Errorf("%w: %w", autherrors.ErrInitialization, err)
	}

	m.listenerID = client.AddEventCallback(m)
	m.initialized = true
	m.setState(StateIdle)
	return nil
}

// OnEvent reschedules renewal from every successful interactive login.
func (m *Manager) OnEvent(event identity.Event) {
	if event.Type != identity.EventLoginSuccess || event.Result == nil {
		return
	}
	m.scheduleRenewal(event.Result.ExpiresOn)
}

// HandleRedirect processes the authorization response delivered to the redirect URI.
// Known B2C user-flow codes become navigation outcomes; any other provider error is
// an initialization failure.
func (m *Manager) HandleRedirect(ctx context.Context, params url.Values) (RedirectOutcome, error) {
	if err := m.Initialize(ctx); err != nil {
		return RedirectOutcome{}, err
	}
	client, err := m.store.Client(ctx)
	if err != nil {
		return RedirectOutcome{}, fmt.Errorf("%w: %w", autherrors.ErrInitialization, err)
	}

	res, err := client.HandleRedirect(ctx, params)
	if err != nil {
		switch identity.CodeOf(err) {
		case identity.CodeForgotPassword:
			return m.resetPassword(ctx, client), nil
		case identity.CodeCancelledSignUp:
			m.log.Info().Msg("sign-up cancelled by user")
			return RedirectOutcome{Action: RedirectHome}, nil
		default:
			return RedirectOutcome{}, fmt.Errorf("%w: handle redirect: %w", autherrors.ErrInitialization, err)
		}
	}
	if res == nil {
		return RedirectOutcome{Action: RedirectNone}, nil
	}

	m.completeLogin(ctx, client, res.Account)
	account := res.Account
	return RedirectOutcome{Action: RedirectSignedIn, Account: &account}, nil
}

// completeLogin provisions the backend user for a freshly signed-in account and
// arms renewal. Failures are logged only.
func (m *Manager) completeLogin(ctx context.Context, client identity.Provider, account identity.Account) {
	res, err := client.AcquireTokenSilent(ctx, identity.SilentRequest{Account: account, Scopes: m.scopes})
	if err != nil {
		m.log.Error().Err(err).Str("account", account.HomeAccountID).Msg("failed to acquire token after login")
		return
	}

	m.initMu.Lock()
	provisioner := m.provisioner
	m.initMu.Unlock()
	if provisioner != nil {
		if err := provisioner.SignUpSignIn(ctx, res.AccessToken); err != nil {
			m.log.Error().Err(err).Str("account", account.HomeAccountID).Msg("failed to provision user")
		}
	}

	m.scheduleRenewal(res.ExpiresOn)
	m.setState(StateActive)
}

func (m *Manager) resetPassword(ctx context.Context, client identity.Provider) RedirectOutcome {
	location, err := client.LoginRedirect(ctx, identity.Request{
		Scopes:    m.scopes,
		Authority: m.resetPolicy,
	})
	if err != nil {
		m.log.Error().Err(err).Msg("failed to redirect to password reset policy")
		return RedirectOutcome{Action: RedirectHome}
	}
	return RedirectOutcome{Action: RedirectPasswordReset, Location: location}
}

// SignIn returns the URL that starts an interactive redirect login. Errors are
// logged and reported as an empty URL.
func (m *Manager) SignIn(ctx context.Context) string {
	if err := m.Initialize(ctx); err != nil {
		m.log.Error().Err(err).Msg("login error")
		return ""
	}
	client, err := m.store.Client(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("login error")
		return ""
	}

	location, err := client.LoginRedirect(ctx, identity.Request{Scopes: m.scopes})
	if err != nil {
		m.log.Error().Err(err).Msg("login error")
		return ""
	}
	return location
}

// AcquireTokenSilent returns a token for the first known account without prompting,
// falling back to interactive acquisition. With no accounts it reports
// OutcomeNoAccount. Concurrent callers share one provider round trip that runs
// detached from any single caller; a caller whose ctx ends stops waiting and gets
// ctx.Err(). Any other error is an initialization failure.
func (m *Manager) AcquireTokenSilent(ctx context.Context) (TokenResult, error) {
	return m.acquireShared(ctx, false)
}

func (m *Manager) acquireShared(ctx context.Context, forceRefresh bool) (TokenResult, error) {
	if err := m.Initialize(ctx); err != nil {
		return TokenResult{}, err
	}

	key := "silent"
	if forceRefresh {
		key = "renew"
	}
	ch := m.flight.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), acquireTimeout)
		defer cancel()
		return m.acquireSilent(flightCtx, forceRefresh)
	})

	select {
	case <-ctx.Done():
		return TokenResult{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return TokenResult{}, r.Err
		}
		return r.Val.(TokenResult), nil
	}
}

func (m *Manager) acquireSilent(ctx context.Context, forceRefresh bool) (TokenResult, error) {
	client, err := m.store.Client(ctx)
	if err != nil {
		return TokenResult{}, fmt.Errorf("%w: %w", autherrors.ErrInitialization, err)
	}

	accounts, err := client.Accounts(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to read accounts")
	}
	if len(accounts) == 0 {
		m.log.Error().Err(autherrors.ErrNoAccount).Msg("no accounts found")
		m.setState(StateIdle)
		return TokenResult{Outcome: OutcomeNoAccount}, nil
	}

	account := accounts[0]
	client.SetActiveAccount(account)

	res, err := client.AcquireTokenSilent(ctx, identity.SilentRequest{
		Account:      account,
		Scopes:       m.scopes,
		ForceRefresh: forceRefresh,
	})
	if err != nil {
		// No prompt once the shared acquisition has run out of time.
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			m.log.Error().Err(err).Msg("silent token acquisition timed out")
			m.setState(StateExpired)
			return TokenResult{Outcome: OutcomeInteractionFailed}, nil
		}
		m.log.Error().Err(err).Str("code", string(identity.CodeOf(err))).Msg("error acquiring token silently")
		return m.acquireInteractive(ctx, client)
	}

	m.scheduleRenewal(res.ExpiresOn)
	m.setState(StateActive)
	return acquired(res), nil
}

// AcquireTokenInteractive prompts the user for the configured scopes. A failure is
// logged and reported as OutcomeInteractionFailed.
func (m *Manager) AcquireTokenInteractive(ctx context.Context) (TokenResult, error) {
	if err := m.Initialize(ctx); err != nil {
		return TokenResult{}, err
	}
	client, err := m.store.Client(ctx)
	if err != nil {
		return TokenResult{}, fmt.Errorf("%w: %w", autherrors.ErrInitialization, err)
	}
	return m.acquireInteractive(ctx, client)
}

func (m *Manager) acquireInteractive(ctx context.Context, client identity.Provider) (TokenResult, error) {
	res, err := client.AcquireTokenInteractive(ctx, identity.Request{Scopes: m.scopes})
	if err != nil {
		m.log.Error().Err(err).Msg("error acquiring token interactively")
		m.setState(StateExpired)
		return TokenResult{Outcome: OutcomeInteractionFailed}, nil
	}

	m.scheduleRenewal(res.ExpiresOn)
	m.setState(StateActive)
	return acquired(res), nil
}

// AccessToken adapts AcquireTokenSilent to a plain token supplier. An empty token
// means unauthenticated.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	res, err := m.AcquireTokenSilent(ctx)
	if err != nil {
		return "", err
	}
	return res.AccessToken, nil
}

// IsAuthenticated reports whether the identity client knows any account. It does
// not prove the token is still valid; use AcquireTokenSilent for that.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	return len(m.Accounts(ctx)) > 0
}

func (m *Manager) Accounts(ctx context.Context) []identity.Account {
	client, err := m.store.Client(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("identity client unavailable")
		return nil
	}
	accounts, err := client.Accounts(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("failed to read accounts")
		return nil
	}
	return accounts
}

// SignOut returns the logout redirect URL for the first account and cancels renewal.
// Without an account nothing changes and an empty URL is returned.
func (m *Manager) SignOut(ctx context.Context) string {
	if err := m.Initialize(ctx); err != nil {
		m.log.Error().Err(err).Msg("logout error")
		return ""
	}
	client, err := m.store.Client(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("logout error")
		return ""
	}

	accounts, _ := client.Accounts(ctx)
	if len(accounts) == 0 {
		m.log.Error().Err(autherrors.ErrNoActiveAccount).Msg("account not found")
		return ""
	}

	location, err := client.LogoutRedirect(ctx, accounts[0])
	if err != nil {
		m.log.Error().Err(err).Msg("logout error")
		return ""
	}

	m.store.Renewal().Cancel()
	m.setState(StateIdle)
	return location
}

func (m *Manager) State() State {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

func (m *Manager) setState(s State) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.state = s
}

func (m *Manager) scheduleRenewal(expiry time.Time) {
	if m.store.Renewal().Schedule(expiry, m.renew) {
		due, _ := m.store.Renewal().Pending()
		m.log.Debug().Time("expires_on", expiry).Time("renew_at", due).Msg("token renewal scheduled")
	}
}

func (m *Manager) renew() {
	m.setState(StateRenewing)
	// A plain silent call would be served the cached token, whose expiry is what
	// armed this timer.
	res, err := m.acquireShared(context.Background(), true)
	if err != nil {
		m.log.Error().Err(err).Msg("token renewal failed")
		m.setState(StateExpired)
		return
	}
	if res.Outcome == OutcomeInteractionFailed {
		m.log.Warn().Msg("token renewal could not obtain a token")
	}
}
