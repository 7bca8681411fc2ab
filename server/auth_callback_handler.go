package server

import (
	"net/http"

	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog/log"
)

// SignInHandler sends the browser to the identity provider.
func (s *Server) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := s.session.SignIn(r.Context())
		if location == "" {
			http.Error(w, "Sign-in is currently unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Redirect(w, r, location, http.StatusFound)
	}
}

// CallbackHandler completes the redirect flow at the registered redirect URI.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.Form covers both query params and form_post bodies
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid callback parameters", http.StatusBadRequest)
			return
		}

		outcome, err := s.session.HandleRedirect(r.Context(), r.Form)
		if err != nil {
			log.Error().Err(err).Msg("failed to handle authentication redirect")
			http.Error(w, "Authentication failed", http.StatusInternalServerError)
			return
		}

		locales := s.guard.Locales()
		locale := locales.Current(r)
		switch outcome.Action {
		case session.RedirectSignedIn:
			http.Redirect(w, r, locales.LocalePath(locale, RouteDashboard), http.StatusFound)
		case session.RedirectPasswordReset:
			http.Redirect(w, r, outcome.Location, http.StatusFound)
		default:
			http.Redirect(w, r, locales.LocalePath(locale, RouteHome), http.StatusFound)
		}
	}
}

// SignOutHandler ends the session locally and at the identity provider.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := s.session.SignOut(r.Context())

		s.realtime.Stop()
		s.realtime.State().Reset()
		s.users.Clear()
		if err := s.store.Remove(localstore.KeyUserAccountID); err != nil {
			log.Warn().Err(err).Msg("failed to remove persisted account id")
		}

		if location == "" {
			locales := s.guard.Locales()
			location = locales.LocalePath(locales.Current(r), RouteHome)
		}
		http.Redirect(w, r, location, http.StatusFound)
	}
}
