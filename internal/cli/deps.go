package cli

import (
	"context"
	"time"

	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/realtime"
	"github.com/jrsteele09/taxfolio-client/session"
)

// Session is the part of the session manager the commands drive.
type Session interface {
	AcquireTokenSilent(ctx context.Context) (session.TokenResult, error)
	AcquireTokenInteractive(ctx context.Context) (session.TokenResult, error)
	Accounts(ctx context.Context) []identity.Account
	SignOut(ctx context.Context) string
}

// Realtime is the notification channel watched by the watch command.
type Realtime interface {
	Start(ctx context.Context)
	Stop()
	State() *realtime.State
}

// Deps is everything a command needs. Close releases it after the command ran.
type Deps struct {
	Session            Session
	Provisioner        session.Provisioner
	Realtime           Realtime
	OpenURL            func(url string) error
	InteractiveTimeout time.Duration
	Close              func()
}

// DepsFactory builds Deps lazily so that help and flag errors need no configuration.
type DepsFactory func() (*Deps, error)
