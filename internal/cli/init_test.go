package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/config"
	"budgetbuddy/internal/log"
)

func TestSetupLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "budgetbuddy.log")
	logger, closer, err := SetupLogger("debug", path, log.ComponentApp)
	require.NoError(t, err)

	logger.Debug("hello from test", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
	assert.Contains(t, string(data), "component=app")
}

func TestSetupLoggerStderr(t *testing.T) {
	logger, closer, err := SetupLogger("info", "", log.ComponentApp)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.NoError(t, closer.Close())
}

func TestOpenTokenStore(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"memory", config.Config{TokenStore: config.TokenStoreMemory}},
		{"sqlite", config.Config{TokenStore: config.TokenStoreSQLite, TokenDBPath: filepath.Join(t.TempDir(), "state.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := OpenTokenStore(&tt.cfg, log.Discard())
			require.NoError(t, err)
			defer store.Close()

			require.NoError(t, store.Save(ctx, "tok"))
			got, err := store.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, "tok", got)
		})
	}

	_, err := OpenTokenStore(&config.Config{TokenStore: "redis"}, log.Discard())
	assert.Error(t, err)
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("TOKEN_STORE", "memory")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, config.BackendMemory, cfg.DataBackend)

	t.Setenv("DATA_BACKEND", "carrier-pigeon")
	_, err = LoadAndValidateConfig()
	assert.Error(t, err)
}

func TestGracefulShutdownStop(t *testing.T) {
	ctx, stop := GracefulShutdown(log.Discard(), time.Second, nil)
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by stop")
	}
}

func TestTerminalLogFile(t *testing.T) {
	cache := t.TempDir()
	orig := userCacheDir
	userCacheDir = func() (string, error) { return cache, nil }
	t.Cleanup(func() { userCacheDir = orig })

	dbDir := filepath.Join(t.TempDir(), "state")
	cfg := &config.Config{TokenStore: config.TokenStoreSQLite, TokenDBPath: filepath.Join(dbDir, "session.db")}
	assert.Equal(t, filepath.Join(dbDir, "budgetbuddy.log"), TerminalLogFile(cfg))

	cfg.TokenStore = config.TokenStoreMemory
	assert.Equal(t, filepath.Join(cache, "budgetbuddy", "budgetbuddy.log"), TerminalLogFile(cfg),
		"memory store never touches the database directory")
	_, err := os.Stat(dbDir)
	assert.True(t, os.IsNotExist(err))

	cfg.LogFile = "/var/log/bb.log"
	assert.Equal(t, "/var/log/bb.log", TerminalLogFile(cfg))

	cfg.LogFile = ""
	userCacheDir = func() (string, error) { return "", errors.New("no home") }
	assert.Empty(t, TerminalLogFile(cfg))
}
