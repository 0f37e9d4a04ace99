package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolvedJournalPath_Default(t *testing.T) {
	var cfg Config
	require.Equal(t, "transaction.log", cfg.ResolvedJournalPath())

	var nilCfg *Config
	require.Equal(t, "transaction.log", nilCfg.ResolvedJournalPath())
}

func TestResolvedJournalPath_UsesConfiguredValue(t *testing.T) {
	cfg := Config{JournalPath: " /var/lib/chat/../chat/transaction.log "}
	require.Equal(t, "/var/lib/chat/transaction.log", cfg.ResolvedJournalPath())
}

func TestDrainDuration(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 30*time.Second, cfg.DrainDuration())
	cfg.DrainTimeout = 2
	require.Equal(t, 2*time.Second, cfg.DrainDuration())
	cfg.DrainTimeout = 0
	require.Equal(t, 30*time.Second, cfg.DrainDuration())
}

func TestContextRoundTrip(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), &cfg)
	require.Same(t, &cfg, FromContext(ctx))
}
