package routeguard

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const dashboardRoute = "dashboard"

// Session is the part of the session manager the guard relies on.
type Session interface {
	AcquireTokenSilent(ctx context.Context) (session.TokenResult, error)
	IsAuthenticated(ctx context.Context) bool
	Accounts(ctx context.Context) []identity.Account
}

// KeyValueStore persists the signed-in account id between runs.
type KeyValueStore interface {
	Set(key, value string) error
	Remove(key string) error
}

// Realtime is started once a navigation proves the user is signed in.
type Realtime interface {
	Start(ctx context.Context)
}

type Options struct {
	Locales Locales
	// Skip reports requests that are not real navigations. Defaults to IsPrefetch.
	Skip   func(r *http.Request) bool
	Logger *zerolog.Logger
}

// Decision is the guard's verdict for one navigation. An empty Redirect lets the
// navigation through.
type Decision struct {
	Authenticated bool
	Redirect      string
}

type Guard struct {
	session  Session
	users    *appuser.Store
	store    KeyValueStore
	realtime Realtime
	locales  Locales
	skip     func(r *http.Request) bool
	log      zerolog.Logger
}

func New(sess Session, users *appuser.Store, store KeyValueStore, realtime Realtime, opts Options) *Guard {
	if opts.Skip == nil {
		opts.Skip = IsPrefetch
	}
	if opts.Locales.Default == "" {
		opts.Locales.Default = "en"
	}
	logger := log.With().Str("component", "routeguard").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Guard{
		session:  sess,
		users:    users,
		store:    store,
		realtime: realtime,
		locales:  opts.Locales,
		skip:     opts.Skip,
		log:      logger,
	}
}

func (g *Guard) Locales() Locales {
	return g.locales
}

// IsPrefetch flags speculative loads (link prefetch, prerender) that should not
// touch session state.
func IsPrefetch(r *http.Request) bool {
	for _, h := range []string{"Sec-Purpose", "Purpose", "X-Moz"} {
		v := strings.ToLower(r.Header.Get(h))
		if strings.Contains(v, "prefetch") || strings.Contains(v, "prerender") {
			return true
		}
	}
	return false
}

// Evaluate refreshes the user view for the navigation to r and decides whether it
// must be redirected.
func (g *Guard) Evaluate(r *http.Request) Decision {
	ctx := r.Context()
	authenticated := g.authenticate(ctx)

	locale := g.locales.Current(r)
	_, path := g.locales.Split(r.URL.Path)
	name := RouteName(path)

	switch {
	case isDashboard(name) && !authenticated:
		return Decision{Redirect: g.locales.LocalePath(locale, "/")}
	case r.URL.Path == "/" && authenticated:
		return Decision{Authenticated: true, Redirect: g.locales.LocalePath(locale, "/"+dashboardRoute)}
	}
	return Decision{Authenticated: authenticated}
}

func isDashboard(name string) bool {
	return name == dashboardRoute || strings.HasPrefix(name, dashboardRoute+"-")
}

func (g *Guard) authenticate(ctx context.Context) bool {
	res, err := g.session.AcquireTokenSilent(ctx)
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned request; the shared session state is not its to clear.
			return false
		}
		g.log.Error().Err(err).Msg("error acquiring token")
		g.signedOut()
		return false
	}

	authenticated := g.session.IsAuthenticated(ctx) && res.OK()
	if !authenticated {
		g.signedOut()
		return false
	}

	accounts := g.session.Accounts(ctx)
	if len(accounts) == 0 {
		g.signedOut()
		return false
	}
	account := accounts[0]
	g.users.SetUser(appuser.FromAccount(account))
	if err := g.store.Set(localstore.KeyUserAccountID, account.HomeAccountID); err != nil {
		g.log.Error().Err(err).Msg("failed to persist account id")
		g.signedOut()
		return false
	}
	g.realtime.Start(ctx)
	return true
}

func (g *Guard) signedOut() {
	g.users.Clear()
	if err := g.store.Remove(localstore.KeyUserAccountID); err != nil {
		g.log.Warn().Err(err).Msg("failed to remove persisted account id")
	}
}

// Middleware runs the guard before page handlers and answers redirects with a 302.
func (g *Guard) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if g.skip(r) {
			next(w, r)
			return
		}
		d := g.Evaluate(r)
		if d.Redirect != "" {
			http.Redirect(w, r, d.Redirect, http.StatusFound)
			return
		}
		next(w, r)
	}
}
