package oidcprovider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// Interactor runs one interactive authorization round trip. buildURL receives the
// redirect URI the interactor listens on and returns the authorization URL to show
// the user; Interact returns the parameters delivered to that redirect URI.
type Interactor interface {
	Interact(ctx context.Context, buildURL func(redirectURI string) (string, error)) (url.Values, error)
}

// OpenURLFunc presents the authorization URL to the user, typically by launching a browser.
type OpenURLFunc func(authURL string) error

const loopbackCallbackPath = "/auth/callback"

const loopbackDonePage = `<!doctype html><html><body><p>Sign-in complete. You can close this window.</p></body></html>`

// LoopbackInteractor receives the authorization response on a one-shot HTTP listener
// bound to the loopback interface.
type LoopbackInteractor struct {
	Addr    string // host:port to listen on; port 0 picks an ephemeral port
	OpenURL OpenURLFunc
}

func NewLoopbackInteractor(open OpenURLFunc) *LoopbackInteractor {
	return &LoopbackInteractor{Addr: "127.0.0.1:0", OpenURL: open}
}

func (l *LoopbackInteractor) Interact(ctx context.Context, buildURL func(redirectURI string) (string, error)) (url.Values, error) {
	listener, err := net.Listen("tcp", l.Addr)
	if err != nil {
		return nil, fmt.Errorf("[LoopbackInteractor Interact] failed to listen: %w", err)
	}

	redirectURI := fmt.Sprintf("http://%s%s", listener.Addr().String(), loopbackCallbackPath)
	results := make(chan url.Values, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+loopbackCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		select {
		case results <- r.URL.Query():
		default:
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(loopbackDonePage))
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("loopback listener stopped")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL, err := buildURL(redirectURI)
	if err != nil {
		return nil, err
	}
	if l.OpenURL != nil {
		if err := l.OpenURL(authURL); err != nil {
			return nil, fmt.Errorf("[LoopbackInteractor Interact] failed to open browser: %w", err)
		}
	}

	select {
	case params := <-results:
		return params, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
