package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/taxfolio-client/apiclient"
	"github.com/jrsteele09/taxfolio-client/apiclient/resources"
	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/identity/identityfake"
	"github.com/jrsteele09/taxfolio-client/internal/config"
	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/jrsteele09/taxfolio-client/realtime"
	"github.com/jrsteele09/taxfolio-client/routeguard"
	"github.com/jrsteele09/taxfolio-client/server"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

var alice = identity.Account{
	HomeAccountID:  "oid-1.tid-1",
	LocalAccountID: "oid-1",
	TenantID:       "tid-1",
	Username:       "alice@example.com",
	Name:           "Alice Example",
}

type backend struct {
	srv *httptest.Server

	mu   sync.Mutex
	auth []string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /Exchange/List", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.auth = append(b.auth, r.Header.Get("Authorization"))
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode([]resources.Exchange{{ID: 1, Name: "Kraken"}})
	})
	mux.HandleFunc("GET /User/GetCountries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"title":"Forbidden","detail":"no subscription"}`))
	})
	mux.HandleFunc("GET /User/GetUserDefaultFYearDetails", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(resources.UserDefaultFYearDetails{FYearText: "2025/26", LocalCurrency: "GBP"})
	})
	mux.HandleFunc("GET /reports/tax-2025.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="tax-2025.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.7"))
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

type fixture struct {
	provider *identityfake.FakeProvider
	manager  *session.Manager
	channel  *realtime.Channel
	users    *appuser.Store
	store    *localstore.Store
	backend  *backend
	server   *server.Server
}

func newFixture(t *testing.T, accounts ...identity.Account) *fixture {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("LOCALES", "en,fr")

	nop := zerolog.Nop()
	provider := identityfake.NewFakeProvider(accounts...)
	provider.SilentFn = func(req identity.SilentRequest) (*identity.AuthResult, error) {
		return &identity.AuthResult{Account: req.Account, AccessToken: "access-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
	}
	manager := session.NewManager(
		session.NewTokenStoreWithClient(provider, session.NewRenewalScheduler(session.SystemClock, 301*time.Second)),
		session.Options{Scopes: []string{"openid"}, ResetPasswordAuthority: "https://login.example.com/b2c_1_reset", Logger: &nop},
	)

	b := newBackend(t)
	fetcher, err := apiclient.NewFetcher(b.srv.URL, nil, manager.AccessToken)
	require.NoError(t, err)

	channel := realtime.New(realtime.Options{
		HubURL:          b.srv.URL + "/realtimeNotifications",
		Token:           manager.AccessToken,
		ReconnectDelays: []time.Duration{0, 10 * time.Millisecond},
		Logger:          &nop,
	})
	t.Cleanup(channel.Stop)

	users := appuser.NewStore()
	store := localstore.New(afero.NewMemMapFs(), "/data/localstore.json")
	guard := routeguard.New(manager, users, store, channel, routeguard.Options{
		Locales: routeguard.Locales{Default: "en", Supported: []string{"en", "fr"}},
		Logger:  &nop,
	})

	srv, err := server.New(config.New(), server.Deps{
		Session:  manager,
		API:      resources.New(fetcher),
		Realtime: channel,
		Guard:    guard,
		Users:    users,
		Store:    store,
	})
	require.NoError(t, err)

	return &fixture{provider: provider, manager: manager, channel: channel, users: users, store: store, backend: b, server: srv}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := server.New(config.New(), server.Deps{})
	require.Error(t, err)
}

func TestPages_AnonymousDashboardRedirectsHome(t *testing.T) {
	f := newFixture(t)

	w := f.get("/fr/dashboard")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/fr", w.Header().Get("Location"))

	w = f.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `href="/auth/signin"`)
	require.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	require.False(t, f.channel.Started())
}

func TestPages_SignedIn(t *testing.T) {
	f := newFixture(t, alice)

	w := f.get("/")
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = f.get("/dashboard/tax-report")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Alice Example")
	require.Contains(t, body, `data-route="dashboard-tax-report"`)
	require.True(t, f.channel.Started())

	id, ok, err := f.store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, alice.HomeAccountID, id)
}

func TestSignIn(t *testing.T) {
	f := newFixture(t)

	w := f.get(server.RouteSignIn)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, f.provider.LoginURL, w.Header().Get("Location"))

	f.provider.LoginErr = &identity.ProviderError{Code: identity.CodeServerError}
	w = f.get(server.RouteSignIn)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCallback(t *testing.T) {
	tests := []struct {
		name     string
		redirect func(url.Values) (*identity.AuthResult, error)
		code     int
		location string
	}{
		{
			name: "signed in",
			redirect: func(url.Values) (*identity.AuthResult, error) {
				return &identity.AuthResult{Account: alice, AccessToken: "access-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
			},
			code:     http.StatusFound,
			location: "/dashboard",
		},
		{
			name: "forgot password",
			redirect: func(url.Values) (*identity.AuthResult, error) {
				return nil, &identity.ProviderError{Code: identity.CodeForgotPassword}
			},
			code:     http.StatusFound,
			location: "https://login.example.com/authorize?authority=" + url.QueryEscape("https://login.example.com/b2c_1_reset"),
		},
		{
			name: "cancelled sign-up",
			redirect: func(url.Values) (*identity.AuthResult, error) {
				return nil, &identity.ProviderError{Code: identity.CodeCancelledSignUp}
			},
			code:     http.StatusFound,
			location: "/",
		},
		{
			name:     "not a redirect response",
			code:     http.StatusFound,
			location: "/",
		},
		{
			name: "provider failure",
			redirect: func(url.Values) (*identity.AuthResult, error) {
				return nil, &identity.ProviderError{Code: identity.CodeServerError}
			},
			code: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.provider.RedirectFn = tt.redirect

			w := f.get(server.RouteCallback + "?code=abc&state=xyz")
			require.Equal(t, tt.code, w.Code)
			if tt.location != "" {
				require.Equal(t, tt.location, w.Header().Get("Location"))
			}
		})
	}
}

func TestSignOut(t *testing.T) {
	f := newFixture(t, alice)
	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)
	require.NotNil(t, f.users.View().User)

	w := f.get(server.RouteSignOut)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, f.provider.LogoutURL, w.Header().Get("Location"))
	require.Equal(t, []identity.Account{alice}, f.provider.Logouts())

	require.Nil(t, f.users.View().User)
	require.False(t, f.channel.Started())
	_, ok, err := f.store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSignOut_WithoutAccountGoesHome(t *testing.T) {
	f := newFixture(t)

	w := f.get(server.RouteSignOut)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestAPI_Me(t *testing.T) {
	f := newFixture(t, alice)
	require.Equal(t, http.StatusOK, f.get("/dashboard").Code)

	w := f.get(server.RouteAPIMe)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		User    *appuser.User `json:"user"`
		Session string        `json:"session"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	require.NotNil(t, me.User)
	require.True(t, me.User.IsAuthenticated)
	require.Equal(t, "active", me.Session)
}

func TestAPI_Notifications(t *testing.T) {
	f := newFixture(t)
	f.channel.State().Apply(realtime.TargetTaxCalculationProgress, realtime.Notification{ProgressPerc: 42})

	w := f.get(server.RouteAPINotifications)
	require.Equal(t, http.StatusOK, w.Code)
	var snap realtime.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotNil(t, snap.TaxCalculation)
	require.Equal(t, 42.0, snap.TaxCalculation.ProgressPerc)
}

func TestAPI_ProxiesWithBearerToken(t *testing.T) {
	f := newFixture(t, alice)

	w := f.get(server.RouteAPIExchanges)
	require.Equal(t, http.StatusOK, w.Code)
	var exchanges []resources.Exchange
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exchanges))
	require.Equal(t, "Kraken", exchanges[0].Name)

	f.backend.mu.Lock()
	defer f.backend.mu.Unlock()
	require.Equal(t, []string{"Bearer access-token"}, f.backend.auth)
}

func TestAPI_BackendStatusPassesThrough(t *testing.T) {
	f := newFixture(t, alice)

	w := f.get(server.RouteAPICountries)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "no subscription")

	w = f.get(server.RouteAPIFYear)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "2025/26")
}

func TestAPI_TaxReportDownload(t *testing.T) {
	f := newFixture(t, alice)

	w := f.get(server.RouteAPITaxReport)
	require.Equal(t, http.StatusBadRequest, w.Code)

	link := f.backend.srv.URL + "/reports/tax-2025.pdf"
	w = f.get(server.RouteAPITaxReport + "?url=" + url.QueryEscape(link))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="tax-2025.pdf"`, w.Header().Get("Content-Disposition"))
	require.Equal(t, "%PDF-1.7", w.Body.String())
}

func TestAPI_CorsPreflight(t *testing.T) {
	f := newFixture(t)

	r := httptest.NewRequest(http.MethodOptions, server.RouteAPIExchanges, nil)
	r.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	f.server.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	r = httptest.NewRequest(http.MethodOptions, server.RouteAPIExchanges, nil)
	r.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	f.server.ServeHTTP(w, r)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_UnknownRoute(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusNotFound, f.get("/api/nothing-here").Code)
}

func TestRecoverMiddleware(t *testing.T) {
	f := newFixture(t)
	handler := server.ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}, f.server.RecoverMiddleware)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "Internal Server Error"))
}
