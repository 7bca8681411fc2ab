package session

import (
	"time"

	"github.com/jrsteele09/taxfolio-client/identity"
)

// Outcome says why a token request did or did not yield a token. Only
// OutcomeAcquired carries a token; every other outcome means "unauthenticated".
type Outcome int

const (
	OutcomeAcquired Outcome = iota
	OutcomeNoAccount
	OutcomeInteractionFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAcquired:
		return "acquired"
	case OutcomeNoAccount:
		return "no_account"
	case OutcomeInteractionFailed:
		return "interaction_failed"
	}
	return "unknown"
}

type TokenResult struct {
	AccessToken string
	ExpiresOn   time.Time
	Account     *identity.Account
	Outcome     Outcome
}

func (r TokenResult) OK() bool {
	return r.Outcome == OutcomeAcquired && r.AccessToken != ""
}

func acquired(res *identity.AuthResult) TokenResult {
	account := res.Account
	return TokenResult{
		AccessToken: res.AccessToken,
		ExpiresOn:   res.ExpiresOn,
		Account:     &account,
		Outcome:     OutcomeAcquired,
	}
}

// RedirectAction tells the HTTP layer where to send the user after a redirect response.
type RedirectAction int

const (
	RedirectNone RedirectAction = iota
	RedirectSignedIn
	RedirectPasswordReset
	RedirectHome
)

type RedirectOutcome struct {
	Action   RedirectAction
	Location string // External URL for RedirectPasswordReset
	Account  *identity.Account
}

// State is the session lifecycle state, exposed for diagnostics.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateIdle
	StateActive
	StateRenewing
	StateExpired
)

func (s State) String() string {
	return [...]string{"uninitialized", "initializing", "idle", "active", "renewing", "expired"}[s]
}
