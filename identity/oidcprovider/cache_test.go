package oidcprovider_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/taxfolio-client/identity"
	"github.com/jrsteele09/taxfolio-client/identity/oidcprovider"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func sampleCache() *oidcprovider.CacheData {
	return &oidcprovider.CacheData{
		Entries: map[string]oidcprovider.CacheEntry{
			"oid-1.tid-1": {
				Account:      identity.Account{HomeAccountID: "oid-1.tid-1", Username: "alice@example.com"},
				Authority:    "https://login.example.com/b2c_1_signin",
				AccessToken:  "access",
				RefreshToken: "refresh",
				ExpiresOn:    time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC),
			},
		},
		Order: []string{"oid-1.tid-1"},
	}
}

func TestFileCache_MissingFileIsEmpty(t *testing.T) {
	cache := oidcprovider.NewFileCache(afero.NewMemMapFs(), "/data/tokens.json", "")

	data, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, data.Entries)
}

func TestFileCache_PlainRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := oidcprovider.NewFileCache(fs, "/data/tokens.json", "")
	require.NoError(t, cache.Save(context.Background(), sampleCache()))

	raw, err := afero.ReadFile(fs, "/data/tokens.json")
	require.NoError(t, err)
	require.Contains(t, string(raw), "refresh")

	data, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleCache(), data)
}

func TestFileCache_SealedWithPassphrase(t *testing.T) {
	fs := afero.NewMemMapFs()
	cache := oidcprovider.NewFileCache(fs, "/data/tokens.bin", "correct horse")
	require.NoError(t, cache.Save(context.Background(), sampleCache()))

	raw, err := afero.ReadFile(fs, "/data/tokens.bin")
	require.NoError(t, err)
	require.NotContains(t, string(raw), "refresh")

	data, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, sampleCache(), data)

	_, err = oidcprovider.NewFileCache(fs, "/data/tokens.bin", "wrong").Load(context.Background())
	require.Error(t, err)
}

func TestMemoryCache_IsolatesSavedData(t *testing.T) {
	cache := oidcprovider.NewMemoryCache()
	data := sampleCache()
	require.NoError(t, cache.Save(context.Background(), data))

	data.Order = nil
	loaded, err := cache.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"oid-1.tid-1"}, loaded.Order)
}
