package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/taxfolio-client/internal/app"
	"github.com/jrsteele09/taxfolio-client/internal/config"
	"github.com/jrsteele09/taxfolio-client/session"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresIdentityConfig(t *testing.T) {
	t.Setenv("IDENTITY_CLIENT_ID", "")
	t.Setenv("IDENTITY_AUTHORITY", "")

	_, err := app.New(config.New(), app.Options{FS: afero.NewMemMapFs()})
	require.Error(t, err)
}

func TestNew_WiresSessionCore(t *testing.T) {
	t.Setenv("IDENTITY_CLIENT_ID", "client-123")
	t.Setenv("IDENTITY_AUTHORITY", "https://login.example.com/tenant/b2c_1_signin/v2.0")
	t.Setenv("API_BASE_URL", "http://localhost:5000")
	t.Setenv("DATA_FOLDER", "/data")
	t.Setenv("LOCALES", "en,fr")

	fsys := afero.NewMemMapFs()
	nop := zerolog.Nop()
	core, err := app.New(config.New(), app.Options{FS: fsys, Logger: &nop})
	require.NoError(t, err)
	defer core.Close()

	require.NotNil(t, core.Session)
	require.NotNil(t, core.API.Identity)
	require.NotNil(t, core.Realtime)
	require.Equal(t, "/fr/dashboard", core.Guard.Locales().LocalePath("fr", "/dashboard"))

	exists, err := afero.DirExists(fsys, "/data")
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, session.StateUninitialized, core.Session.State())
}

// An unreachable authority surfaces as an initialization failure and leaves the
// core retryable.
func TestNew_InitializationFailureIsRetryable(t *testing.T) {
	var discoveryCalls atomic.Int32
	authority := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		discoveryCalls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "down"})
	}))
	defer authority.Close()

	t.Setenv("IDENTITY_CLIENT_ID", "client-123")
	t.Setenv("IDENTITY_AUTHORITY", authority.URL)
	t.Setenv("DATA_FOLDER", "/data")

	nop := zerolog.Nop()
	core, err := app.New(config.New(), app.Options{FS: afero.NewMemMapFs(), Logger: &nop})
	require.NoError(t, err)
	defer core.Close()

	_, err = core.Session.AcquireTokenSilent(context.Background())
	require.Error(t, err)
	_, err = core.Session.AcquireTokenSilent(context.Background())
	require.Error(t, err)
	require.Equal(t, int32(2), discoveryCalls.Load())
}
