package localstore_test

import (
	"testing"

	"github.com/jrsteele09/taxfolio-client/localstore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGetRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := localstore.New(fs, "/data/localstore.json")

	_, ok, err := store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(localstore.KeyUserAccountID, "oid-1.tid-1"))
	v, ok, err := store.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "oid-1.tid-1", v)

	reopened := localstore.New(fs, "/data/localstore.json")
	v, _, err = reopened.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.Equal(t, "oid-1.tid-1", v)

	require.NoError(t, store.Remove(localstore.KeyUserAccountID))
	require.NoError(t, store.Remove(localstore.KeyUserAccountID))
	_, ok, err = reopened.Get(localstore.KeyUserAccountID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/localstore.json", []byte("{not json"), 0o600))

	_, _, err := localstore.New(fs, "/data/localstore.json").Get("any")
	require.Error(t, err)
}
