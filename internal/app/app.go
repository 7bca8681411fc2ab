// Package app wires the session core shared by the web client and the CLI.
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/jrsteele09/taxfolio-client/apiclient"
	"github.com/jrsteele09/taxfolio-client/apiclient/resources"
	"github.com/jrsteele09/taxfolio-client/appuser"
	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/identity/flowrepo"
	"github.com/jrsteele09/taxfolio-client/identity/oidcprovider"
	"github.com/jrsteele09/taxfolio-client/internal/config"
	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/jrsteele09/taxfolio-client/realtime"
	"github.com/jrsteele09/taxfolio-client/routeguard"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const tokenCacheFile = "token_cache.bin"

type Options struct {
	// Interactor enables interactive acquisition. The web client leaves it nil and
	// signs in through the redirect flow.
	Interactor oidcprovider.Interactor
	FS         afero.Fs
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Core is one process's session core and everything built on it.
type Core struct {
	Config   config.Config
	Session  *session.Manager
	Fetcher  *apiclient.Fetcher
	API      *resources.API
	Realtime *realtime.Channel
	Users    *appuser.Store
	Store    *localstore.Store
	Guard    *routeguard.Guard
}

func New(c config.Config, opts Options) (*Core, error) {
	if c.GetClientID() == "" || c.GetAuthority() == "" {
		return nil, fmt.Errorf("[app New] identity client id and authority must be configured")
	}
	if opts.FS == nil {
		opts.FS = afero.NewOsFs()
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: c.GetAPITimeout()}
	}
	logger := log.Logger
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	dataFolder := c.GetDataFolder()
	if err := opts.FS.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, fmt.Errorf("[app New] failed to create data folder: %w", err)
	}

	providerConfig := oidcprovider.Config{
		ClientID:              c.GetClientID(),
		Authority:             c.GetAuthority(),
		RedirectURI:           c.GetRedirectURI(),
		PostLogoutRedirectURI: c.GetPostLogoutRedirectURI(),
		RenewalOffset:         c.GetTokenRenewalOffset(),
		Cache:                 oidcprovider.NewFileCache(opts.FS, filepath.Join(dataFolder, tokenCacheFile), c.GetTokenCachePassphrase()),
		Flows:                 flowrepo.NewInMemoryRepo(flowrepo.DefaultTTL),
		Interactor:            opts.Interactor,
		HTTPClient:            opts.HTTPClient,
	}
	if known := c.GetKnownAuthority(); known != "" {
		providerConfig.KnownAuthorities = []string{known}
	}

	// Renewal fires one skew ahead of the provider's refresh window and forces a refresh.
	renewal := session.NewRenewalScheduler(session.SystemClock, c.GetTokenRenewalOffset()+c.GetRenewalSkew())
	store := session.NewTokenStore(func(context.Context) (identity.Provider, error) {
		return oidcprovider.New(providerConfig)
	}, renewal)

	sessionLog := logger.With().Str("component", "session").Logger()
	manager := session.NewManager(store, session.Options{
		Scopes:                 c.GetScopes(),
		ResetPasswordAuthority: c.GetResetPasswordAuthority(),
		Logger:                 &sessionLog,
	})

	fetcher, err := apiclient.NewFetcher(c.GetAPIBaseURL(), opts.HTTPClient, manager.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("[app New] %w", err)
	}
	api := resources.New(fetcher)
	manager.SetProvisioner(api.Identity)

	realtimeLog := logger.With().Str("component", "realtime").Logger()
	channel := realtime.New(realtime.Options{
		HubURL: c.GetAPIBaseURL() + c.GetRealtimeHubPath(),
		Token:  manager.AccessToken,
		Logger: &realtimeLog,
	})

	users := appuser.NewStore()
	localStore := localstore.New(opts.FS, filepath.Join(dataFolder, localstore.FileName))

	guardLog := logger.With().Str("component", "routeguard").Logger()
	guard := routeguard.New(manager, users, localStore, channel, routeguard.Options{
		Locales: routeguard.Locales{Default: c.GetDefaultLocale(), Supported: c.GetLocales()},
		Logger:  &guardLog,
	})

	return &Core{
		Config:   c,
		Session:  manager,
		Fetcher:  fetcher,
		API:      api,
		Realtime: channel,
		Users:    users,
		Store:    localStore,
		Guard:    guard,
	}, nil
}

// Close stops background work started on behalf of the session.
func (c *Core) Close() {
	c.Realtime.Stop()
}
