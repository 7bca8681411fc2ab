package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/taxfolio-client/identity"
)

// ProviderFactory builds the identity client. It is invoked at most once per
// successful construction.
type ProviderFactory func(ctx context.Context) (identity.Provider, error)

// TokenStore is the process-wide holder of the identity client and the renewal
// timer. Construct one per process and inject it; nothing else may create a
// second client or a second timer.
type TokenStore struct {
	mu      sync.Mutex
	factory ProviderFactory
	client  identity.Provider
	renewal *RenewalScheduler
}

func NewTokenStore(factory ProviderFactory, renewal *RenewalScheduler) *TokenStore {
	return &TokenStore{
		factory: factory,
		renewal: renewal,
	}
}

// NewTokenStoreWithClient wraps an already constructed client.
func NewTokenStoreWithClient(client identity.Provider, renewal *RenewalScheduler) *TokenStore {
	return &TokenStore{
		client:  client,
		renewal: renewal,
	}
}

// Client returns the identity client, constructing it on first use. A failed
// construction is not cached.
func (s *TokenStore) Client(ctx context.Context) (identity.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	if s.factory == nil {
		return nil, fmt.Errorf("[TokenStore Client] no provider factory configured")
	}

	client, err := s.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("[TokenStore Client] failed to create identity client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *TokenStore) Renewal() *RenewalScheduler {
	return s.renewal
}
