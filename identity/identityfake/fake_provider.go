package identityfake

import (
	"context"
	"net/url"
	"sync"

	"github.com/jrsteele09/taxfolio-client/identity"
)

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider is a scriptable in-memory identity.Provider.
// Zero-value hooks behave like an empty, healthy provider.
type FakeProvider struct {
	lock sync.Mutex

	InitErr     error
	accounts    []identity.Account
	active      *identity.Account
	LoginURL    string
	LogoutURL   string
	RedirectFn  func(params url.Values) (*identity.AuthResult, error)
	SilentFn    func(req identity.SilentRequest) (*identity.AuthResult, error)
	// SilentCtxFn takes precedence over SilentFn when the hook needs the call context.
	SilentCtxFn func(ctx context.Context, req identity.SilentRequest) (*identity.AuthResult, error)
	PopupFn     func(req identity.Request) (*identity.AuthResult, error)
	LoginErr    error
	events      identity.EventRegistry
	loginReqs   []identity.Request
	silentReqs  []identity.SilentRequest
	logouts     []identity.Account
	initCalls   int
	silentCalls int
	popupCalls  int
}

func NewFakeProvider(accounts ...identity.Account) *FakeProvider {
	return &FakeProvider{
		accounts:  accounts,
		LoginURL:  "https://login.example.com/authorize",
		LogoutURL: "https://login.example.com/logout",
	}
}

func (f *FakeProvider) Initialize(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.initCalls++
	return f.InitErr
}

func (f *FakeProvider) HandleRedirect(ctx context.Context, params url.Values) (*identity.AuthResult, error) {
	if f.RedirectFn == nil {
		return nil, nil
	}
	result, err := f.RedirectFn(params)
	if err == nil && result != nil {
		f.AddAccount(result.Account)
		f.events.Emit(identity.Event{Type: identity.EventLoginSuccess, Result: result})
	}
	return result, err
}

func (f *FakeProvider) LoginRedirect(ctx context.Context, req identity.Request) (string, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginReqs = append(f.loginReqs, req)
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	loginURL := f.LoginURL
	if req.Authority != "" {
		loginURL += "?authority=" + url.QueryEscape(req.Authority)
	}
	return loginURL, nil
}

func (f *FakeProvider) AcquireTokenInteractive(ctx context.Context, req identity.Request) (*identity.AuthResult, error) {
	f.lock.Lock()
	f.popupCalls++
	fn := f.PopupFn
	f.lock.Unlock()

	if fn == nil {
		return nil, &identity.ProviderError{Code: identity.CodeAccessDenied, Description: "popup window closed"}
	}
	result, err := fn(req)
	if err == nil && result != nil {
		f.AddAccount(result.Account)
		f.events.Emit(identity.Event{Type: identity.EventAcquireTokenSuccess, Result: result})
	}
	return result, err
}

func (f *FakeProvider) AcquireTokenSilent(ctx context.Context, req identity.SilentRequest) (*identity.AuthResult, error) {
	f.lock.Lock()
	f.silentCalls++
	fn := f.SilentFn
	ctxFn := f.SilentCtxFn
	f.silentReqs = append(f.silentReqs, req)
	f.lock.Unlock()

	if ctxFn != nil {
		return ctxFn(ctx, req)
	}
	if fn == nil {
		return nil, &identity.ProviderError{Code: identity.CodeInteractionRequired}
	}
	return fn(req)
}

func (f *FakeProvider) Accounts(ctx context.Context) ([]identity.Account, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]identity.Account(nil), f.accounts...), nil
}

func (f *FakeProvider) SetActiveAccount(account identity.Account) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.active = &account
}

func (f *FakeProvider) ActiveAccount() *identity.Account {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.active
}

func (f *FakeProvider) LogoutRedirect(ctx context.Context, account identity.Account) (string, error) {
	f.lock.Lock()
	f.logouts = append(f.logouts, account)
	remaining := f.accounts[:0]
	for _, a := range f.accounts {
		if a.HomeAccountID != account.HomeAccountID {
			remaining = append(remaining, a)
		}
	}
	f.accounts = remaining
	f.active = nil
	f.lock.Unlock()

	f.events.Emit(identity.Event{Type: identity.EventLogoutSuccess})
	return f.LogoutURL, nil
}

func (f *FakeProvider) AddEventCallback(listener identity.EventListener) string {
	return f.events.Add(listener)
}

func (f *FakeProvider) RemoveEventCallback(id string) {
	f.events.Remove(id)
}

// Emit raises an event as if the provider had produced it.
func (f *FakeProvider) Emit(event identity.Event) {
	f.events.Emit(event)
}

func (f *FakeProvider) AddAccount(account identity.Account) {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, a := range f.accounts {
		if a.HomeAccountID == account.HomeAccountID {
			return
		}
	}
	f.accounts = append(f.accounts, account)
}

func (f *FakeProvider) ListenerCount() int {
	return f.events.Len()
}

func (f *FakeProvider) InitCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.initCalls
}

func (f *FakeProvider) SilentCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.silentCalls
}

// SilentRequests returns the silent requests received so far.
func (f *FakeProvider) SilentRequests() []identity.SilentRequest {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]identity.SilentRequest(nil), f.silentReqs...)
}

func (f *FakeProvider) PopupCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.popupCalls
}

func (f *FakeProvider) LoginRequests() []identity.Request {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]identity.Request(nil), f.loginReqs...)
}

func (f *FakeProvider) Logouts() []identity.Account {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]identity.Account(nil), f.logouts...)
}
