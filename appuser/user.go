package appuser

import (
	"sync"

	"github.com/jrsteele09/taxfolio-client/identity"
)

// User is the account as the UI sees it; raw ID token claims are never exposed.
type User struct {
	HomeAccountID   string `json:"homeAccountId"`
	LocalAccountID  string `json:"localAccountId"`
	Environment     string `json:"environment"`
	TenantID        string `json:"tenantId"`
	Username        string `json:"username"`
	Name            string `json:"name,omitempty"`
	IsAuthenticated bool   `json:"isAuthenticated"`
}

type View struct {
	User      *User   `json:"user"`
	UserImage *string `json:"userImage"`
}

// FromAccount projects an authenticated account into a User.
func FromAccount(account identity.Account) *User {
	return &User{
		HomeAccountID:   account.HomeAccountID,
		LocalAccountID:  account.LocalAccountID,
		Environment:     account.Environment,
		TenantID:        account.TenantID,
		Username:        account.Username,
		Name:            account.Name,
		IsAuthenticated: true,
	}
}

// Store holds the current user view. The zero value is an empty view.
type Store struct {
	mu   sync.RWMutex
	view View
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) SetUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.view.User = nil
		return
	}
	u := *user
	s.view.User = &u
}

func (s *Store) SetUserImage(image *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.UserImage = image
}

// Clear drops the user and the user image.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = View{}
}

// View returns a copy of the current view.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{UserImage: s.view.UserImage}
	if s.view.User != nil {
		u := *s.view.User
		v.User = &u
	}
	return v
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view.User != nil && s.view.User.IsAuthenticated
}
