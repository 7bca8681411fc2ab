package routeguard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/jrsteele09/taxfolio-client/routeguard"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	result   session.TokenResult
	err      error
	accounts []identity.Account
	calls    int
	// accountGone makes IsAuthenticated report an account that Accounts no longer returns.
	accountGone bool
}

func (f *fakeSession) AcquireTokenSilent(context.Context) (session.TokenResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeSession) IsAuthenticated(context.Context) bool {
	return len(f.accounts) > 0 || f.accountGone
}

func (f *fakeSession) Accounts(context.Context) []identity.Account {
	return f.accounts
}

type fakeRealtime struct {
	mu     sync.Mutex
	starts int
}

func (f *fakeRealtime) Start(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

var alice = identity.Account{
	HomeAccountID:  "oid-1.tid-1",
	LocalAccountID: "oid-1",
	Environment:    "login.example.com",
	TenantID:       "tid-1",
	Username:       "alice@example.com",
	Name:           "Alice",
	IDTokenClaims:  map[string]any{"oid": "oid-1"},
}

func signedIn() *fakeSession {
	return &fakeSession{
		result:   session.TokenResult{AccessToken: "token", Outcome: session.OutcomeAcquired, Account: &alice},
		accounts: []identity.Account{alice},
	}
}

type fixture struct {
	guard    *routeguard.Guard
	users    *appuser.Store
	store    *localstore.Store
	realtime *fakeRealtime
}

func newFixture(sess routeguard.Session) fixture {
	nop := zerolog.Nop()
	f := fixture{
		users:    appuser.NewStore(),
		store:    localstore.New(afero.NewMemMapFs(), "/data/localstore.json"),
		realtime: &fakeRealtime{},
	}
	f.guard = routeguard.New(sess, f.users, f.store, f.realtime, routeguard.Options{Locales: locales, Logger: &nop})
	return f
}

func request(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestEvaluate_AuthenticatedUser(t *testing.T) {
	f := newFixture(signedIn())

	d := f.guard.Evaluate(request("/dashboard"))
	require.True(t, d.Authenticated)
	require.Empty(t, d.Redirect)

	view := f.users.View()
	require.NotNil(t, view.User)
	require.True(t, view.User.IsAuthenticated)
	require.Equal(t, "alice@example.com", view.User.Username)

	id, ok, err := f.store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "oid-1.tid-1", id)
	require.Equal(t, 1, f.realtime.starts)
}

func TestEvaluate_RootRedirectsToDashboard(t *testing.T) {
	f := newFixture(signedIn())
	require.Equal(t, "/dashboard", f.guard.Evaluate(request("/")).Redirect)

	r := request("/")
	r.AddCookie(&http.Cookie{Name: routeguard.LocaleCookie, Value: "fr"})
	require.Equal(t, "/fr/dashboard", f.guard.Evaluate(r).Redirect)

	// Only the bare root redirects.
	require.Empty(t, f.guard.Evaluate(request("/fr")).Redirect)
}

func TestEvaluate_DashboardRequiresAuthentication(t *testing.T) {
	tests := []struct {
		name     string
		session  *fakeSession
		path     string
		redirect string
	}{
		{name: "no account", session: &fakeSession{result: session.TokenResult{Outcome: session.OutcomeNoAccount}}, path: "/dashboard", redirect: "/"},
		{name: "interaction failed", session: &fakeSession{result: session.TokenResult{Outcome: session.OutcomeInteractionFailed}, accounts: []identity.Account{alice}}, path: "/dashboard/tax-report", redirect: "/"},
		{name: "initialization error", session: &fakeSession{err: errors.New("boom")}, path: "/de/dashboard", redirect: "/de"},
		{name: "public page", session: &fakeSession{result: session.TokenResult{Outcome: session.OutcomeNoAccount}}, path: "/about", redirect: ""},
		{name: "lookalike route", session: &fakeSession{result: session.TokenResult{Outcome: session.OutcomeNoAccount}}, path: "/dashboards", redirect: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.session)
			require.NoError(t, f.store.Set(localstore.KeyUserAccountID, "stale"))
			f.users.SetUser(appuser.FromAccount(alice))

			d := f.guard.Evaluate(request(tt.path))
			require.False(t, d.Authenticated)
			require.Equal(t, tt.redirect, d.Redirect)

			require.Nil(t, f.users.View().User)
			_, ok, err := f.store.Get(localstore.KeyUserAccountID)
			require.NoError(t, err)
			require.False(t, ok)
			require.Zero(t, f.realtime.starts)
		})
	}
}

func TestMiddleware(t *testing.T) {
	f := newFixture(&fakeSession{result: session.TokenResult{Outcome: session.OutcomeNoAccount}})
	served := false
	handler := f.guard.Middleware(func(w http.ResponseWriter, r *http.Request) {
		served = true
	})

	w := httptest.NewRecorder()
	handler(w, request("/fr/dashboard"))
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/fr", w.Header().Get("Location"))
	require.False(t, served)

	w = httptest.NewRecorder()
	handler(w, request("/"))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, served)
}

func TestMiddleware_SkipsPrefetch(t *testing.T) {
	sess := &fakeSession{result: session.TokenResult{Outcome: session.OutcomeNoAccount}}
	f := newFixture(sess)
	served := false
	handler := f.guard.Middleware(func(w http.ResponseWriter, r *http.Request) {
		served = true
	})

	r := request("/dashboard")
	r.Header.Set("Sec-Purpose", "prefetch;prerender")
	w := httptest.NewRecorder()
	handler(w, r)
	require.True(t, served)
	require.Zero(t, sess.calls)
}

func TestEvaluate_AccountRemovedDuringNavigation(t *testing.T) {
	sess := signedIn()
	sess.accounts = nil
	sess.accountGone = true
	f := newFixture(sess)
	require.NoError(t, f.store.Set(localstore.KeyUserAccountID, "oid-1.tid-1"))
	f.users.SetUser(appuser.FromAccount(alice))

	d := f.guard.Evaluate(request("/dashboard"))
	require.False(t, d.Authenticated)
	require.Equal(t, "/", d.Redirect)
	require.Nil(t, f.users.View().User)

	_, ok, err := f.store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, f.realtime.starts)
}

func TestEvaluate_AbandonedRequestKeepsUserView(t *testing.T) {
	f := newFixture(&fakeSession{err: context.Canceled, accounts: []identity.Account{alice}})
	require.NoError(t, f.store.Set(localstore.KeyUserAccountID, "oid-1.tid-1"))
	f.users.SetUser(appuser.FromAccount(alice))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := f.guard.Evaluate(request("/dashboard").WithContext(ctx))
	require.False(t, d.Authenticated)

	require.NotNil(t, f.users.View().User)
	id, ok, err := f.store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "oid-1.tid-1", id)
}
