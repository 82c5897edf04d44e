// Package tokenstore persists the session token between runs.
package tokenstore

import (
	"context"
	"fmt"
	"sync"
)

// TokenKey is the single key the token is stored under.
const TokenKey = "token"

// Store persists one token. Load returns "" when nothing is stored.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Close() error
}

// Memory keeps the token for the life of the process.
type Memory struct {
	mu    sync.Mutex
	token string
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *Memory) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *Memory) Clear(context.Context) error {
	return m.Save(context.Background(), "")
}

func (m *Memory) Close() error { return nil }

// Cache fronts a Store with the current token so every API call can read it
// without touching the backing store. It implements remote.TokenSource.
type Cache struct {
	store Store

	mu    sync.RWMutex
	token string
}

func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// Token returns the token currently in use.
func (c *Cache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Restore loads the persisted token into the cache.
func (c *Cache) Restore(ctx context.Context) (string, error) {
	tok, err := c.store.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
	return tok, nil
}

// Set persists token and makes it current. The cache is updated even when
// persisting fails, so the running session keeps working.
func (c *Cache) Set(ctx context.Context, token string) error {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	if err := c.store.Save(ctx, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Clear forgets the token in memory and in the store.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	return c.store.Close()
}
