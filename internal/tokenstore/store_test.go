package tokenstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	tok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok, "empty store loads nothing")

	require.NoError(t, s.Save(ctx, "abc"))
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Save(ctx, "def"))
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "def", tok, "save overwrites")

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx), "clear is idempotent")
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	storeContract(t, s)
	assert.NoError(t, s.Close())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	storeContract(t, s)
}

func TestSQLiteStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	ctx := context.Background()

	first, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, "persisted"))
	require.NoError(t, first.Close())

	second, err := NewSQLite(path)
	require.NoError(t, err, "migrations are re-runnable")
	t.Cleanup(func() { _ = second.Close() })

	tok, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "persisted", tok)
}

type failingStore struct{ Memory }

func (f *failingStore) Save(context.Context, string) error { return errors.New("disk full") }

func TestCache(t *testing.T) {
	ctx := context.Background()
	backing := NewMemory()
	require.NoError(t, backing.Save(ctx, "stored"))

	c := NewCache(backing)
	assert.Empty(t, c.Token(), "nothing until restored")

	tok, err := c.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stored", tok)
	assert.Equal(t, "stored", c.Token())

	require.NoError(t, c.Set(ctx, "fresh"))
	persisted, _ := backing.Load(ctx)
	assert.Equal(t, "fresh", persisted)

	require.NoError(t, c.Clear(ctx))
	assert.Empty(t, c.Token())
	persisted, _ = backing.Load(ctx)
	assert.Empty(t, persisted)
}

func TestCacheKeepsTokenWhenSaveFails(t *testing.T) {
	c := NewCache(&failingStore{})
	err := c.Set(context.Background(), "live")
	require.Error(t, err)
	assert.Equal(t, "live", c.Token())
}
