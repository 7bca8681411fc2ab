package flowrepo

import "time"

// PendingFlow is the client side of an authorization request that has been sent to
// the authority and not yet answered. It is keyed by the OAuth state parameter.
type PendingFlow struct {
	CodeVerifier string
	Nonce        string
	Authority    string
	RedirectURI  string
	Scopes       []string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, flow *PendingFlow) error
	Get(state string) (*PendingFlow, error)
	Delete(state string) error
}
