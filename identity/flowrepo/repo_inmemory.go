package flowrepo

import (
	"errors"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/taxfolio-client/internal/errors"
)

// DefaultTTL bounds how long the user may take to complete a sign-in.
const DefaultTTL = 10 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Flows older than the TTL are reported as expired and swept on write.
type InMemoryRepo struct {
	mu    sync.RWMutex
	flows map[string]*PendingFlow
	ttl   time.Duration
	now   func() time.Time
}

// NewInMemoryRepo creates a new in-memory pending flow repository
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryRepo{
		flows: make(map[string]*PendingFlow),
		ttl:   ttl,
		now:   time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (r *InMemoryRepo) WithClock(now func() time.Time) *InMemoryRepo {
	r.now = now
	return r
}

// Upsert stores or updates a pending flow
func (r *InMemoryRepo) Upsert(state string, flow *PendingFlow) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow == nil {
		return errors.New("flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()
	r.flows[state] = copyFlow(flow)
	return nil
}

// Get retrieves a pending flow by state parameter
func (r *InMemoryRepo) Get(state string) (*PendingFlow, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flow, exists := r.flows[state]
	if !exists {
		return nil, autherrors.ErrInvalidState
	}
	if r.expired(flow) {
		return nil, autherrors.ErrFlowExpired
	}
	return copyFlow(flow), nil
}

// Delete removes a pending flow
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.flows, state)
	return nil
}

func (r *InMemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.flows)
}

func (r *InMemoryRepo) expired(flow *PendingFlow) bool {
	return r.now().Sub(flow.CreatedAt) > r.ttl
}

func (r *InMemoryRepo) sweepLocked() {
	for state, flow := range r.flows {
		if r.expired(flow) {
			delete(r.flows, state)
		}
	}
}

// copyFlow prevents callers from mutating stored state.
func copyFlow(f *PendingFlow) *PendingFlow {
	return &PendingFlow{
		CodeVerifier: f.CodeVerifier,
		Nonce:        f.Nonce,
		Authority:    f.Authority,
		RedirectURI:  f.RedirectURI,
		Scopes:       append([]string(nil), f.Scopes...),
		CreatedAt:    f.CreatedAt,
	}
}
