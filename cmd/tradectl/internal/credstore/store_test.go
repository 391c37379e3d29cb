package credstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradedesk/tradedesk/pkg/sdk"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStores_Contract(t *testing.T) {
	backends := map[string]func(t *testing.T) sdk.CredentialStore{
		"file": func(t *testing.T) sdk.CredentialStore {
			store, err := NewFileStore(filepath.Join(t.TempDir(), "nested", credentialsFile))
			require.NoError(t, err)
			return store
		},
		"sql": func(t *testing.T) sdk.CredentialStore {
			store, err := OpenSQLStore(context.Background(), ":memory:")
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
		"redis": func(t *testing.T) sdk.CredentialStore {
			_, client := newTestRedis(t)
			return NewRedisStore(client)
		},
		"memory": func(t *testing.T) sdk.CredentialStore {
			return sdk.NewMemoryStore()
		},
	}

	for name, build := range backends {
		t.Run(name, func(t *testing.T) {
			store := build(t)
			ctx := context.Background()

			_, ok, err := store.Load(ctx, sdk.DefaultStorageKey)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Save(ctx, sdk.DefaultStorageKey, "first"))
			require.NoError(t, store.Save(ctx, sdk.DefaultStorageKey, "second"))
			require.NoError(t, store.Save(ctx, "other", "kept"))

			value, ok, err := store.Load(ctx, sdk.DefaultStorageKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "second", value)

			require.NoError(t, store.Delete(ctx, sdk.DefaultStorageKey))
			require.NoError(t, store.Delete(ctx, sdk.DefaultStorageKey), "deleting a missing key succeeds")

			_, ok, err = store.Load(ctx, sdk.DefaultStorageKey)
			require.NoError(t, err)
			assert.False(t, ok)

			value, ok, err = store.Load(ctx, "other")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "kept", value)
		})
	}
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), credentialsFile)
	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())

	require.NoError(t, store.Save(context.Background(), sdk.DefaultStorageKey, "tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_RemovesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), credentialsFile)
	store, err := NewFileStore(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sdk.DefaultStorageKey, "tok"))
	require.NoError(t, store.Delete(ctx, sdk.DefaultStorageKey))

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), credentialsFile)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = store.Load(context.Background(), sdk.DefaultStorageKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupted")
}

func TestSQLStore_SurvivesReopen(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "credentials.db")
	ctx := context.Background()

	store, err := OpenSQLStore(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sdk.DefaultStorageKey, "persisted"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	value, ok, err := reopened.Load(ctx, sdk.DefaultStorageKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", value)
}

func TestRedisStore_Namespacing(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisStore(client)

	require.NoError(t, store.Save(context.Background(), sdk.DefaultStorageKey, "tok"))

	got, err := mr.Get("tradedesk:auth_token")
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.False(t, mr.Exists("auth_token"))
	assert.Zero(t, mr.TTL("tradedesk:auth_token"))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	fileStore, err := Open(ctx, Options{Backend: BackendFile, DSN: filepath.Join(t.TempDir(), credentialsFile)})
	require.NoError(t, err)
	assert.NoError(t, fileStore.Close())

	sqlStore, err := Open(ctx, Options{Backend: BackendSQL, DSN: ":memory:"})
	require.NoError(t, err)
	assert.NoError(t, sqlStore.Close())

	mr, _ := newTestRedis(t)
	redisStore, err := Open(ctx, Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, redisStore.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}

func TestOpen_RedisUnreachable(t *testing.T) {
	// nothing listens on port 1
	_, err := Open(context.Background(), Options{Backend: BackendRedis, RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
}
