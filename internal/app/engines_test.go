package app

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetmint/internal/domain/item"
	"budgetmint/internal/infrastructure/crypto"
	"budgetmint/internal/infrastructure/store"
	"budgetmint/internal/shared/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Store:      config.StoreConfig{Backend: config.BackendMemory, MaxBatchSize: 50},
		Encryption: config.EncryptionConfig{Key: "0123456789abcdef0123456789abcdef"},
		Plaid: config.PlaidConfig{
			ClientID: "client-id",
			Secret:   "secret",
			Env:      "sandbox",
			Timeout:  10 * time.Second,
		},
		Sync: config.SyncConfig{
			RetryAttempts:        4,
			RetryInitialInterval: 250 * time.Millisecond,
		},
	}
}

func TestOpenStore_Memory(t *testing.T) {
	logger, hook := test.NewNullLogger()

	s, closers, err := OpenStore(context.Background(), memoryConfig(), logger)
	require.NoError(t, err)
	assert.Empty(t, closers)
	assert.Equal(t, 50, s.MaxBatchSize())
	assert.IsType(t, &store.MemoryStore{}, s)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "in-memory")
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := memoryConfig()
	cfg.Store.Backend = "redis"

	_, _, err := OpenStore(context.Background(), cfg, logger)
	assert.ErrorContains(t, err, `unsupported store backend "redis"`)
}

func TestNewEngines_Memory(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	engines, err := NewEngines(ctx, memoryConfig(), logger)
	require.NoError(t, err)
	defer engines.Close()

	assert.NotNil(t, engines.Links)
	assert.NotNil(t, engines.Syncer)
	assert.NotNil(t, engines.Refresher)

	// Tokens written through the engines' item repository are sealed in the shared store.
	require.NoError(t, engines.Items.Save(ctx, &item.LinkedItem{
		ItemID:      "item-1",
		UserID:      "u1",
		AccessToken: "access-sandbox-abc",
	}))
	raw, err := engines.Store.Get(ctx, item.Collection, "item-1")
	require.NoError(t, err)
	assert.NotEqual(t, "access-sandbox-abc", raw.Fields[item.FieldAccessToken])

	got, err := engines.Items.Get(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "access-sandbox-abc", got.AccessToken)
}

func TestNewEngines_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "missing plaid credentials",
			mutate:  func(c *config.Config) { c.Plaid.Secret = "" },
			wantErr: "PLAID_CLIENT_ID and PLAID_SECRET are required",
		},
		{
			name:    "unknown plaid environment",
			mutate:  func(c *config.Config) { c.Plaid.Env = "staging" },
			wantErr: `unknown plaid environment "staging"`,
		},
		{
			name:    "short encryption key",
			mutate:  func(c *config.Config) { c.Encryption.Key = "short" },
			wantErr: crypto.ErrInvalidKey.Error(),
		},
		{
			name:    "unsupported backend",
			mutate:  func(c *config.Config) { c.Store.Backend = "sqlite" },
			wantErr: "unsupported store backend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			cfg := memoryConfig()
			tt.mutate(cfg)

			engines, err := NewEngines(context.Background(), cfg, logger)
			assert.Nil(t, engines)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRetryPolicy(t *testing.T) {
	p := RetryPolicy(memoryConfig())
	assert.Equal(t, 4, p.Attempts)
	assert.Equal(t, 250*time.Millisecond, p.InitialInterval)
}
