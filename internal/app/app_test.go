package app

import (
	"context"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() AppConfig {
	return AppConfig{
		Secret:     "secret",
		Host:       "0.0.0.0",
		Port:       8080,
		LogLevel:   "info",
		UsersLimit: 9,
		Storage:    StorageRedis,
		SessionTTL: time.Hour,
		RedisHost:  "localhost",
		RedisPort:  6379,
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*AppConfig)
		wantErr bool
	}{
		{name: "valid", modify: func(*AppConfig) {}},
		{name: "memory storage", modify: func(c *AppConfig) { c.Storage = StorageMemory }},
		{name: "memory storage zero ttl", modify: func(c *AppConfig) { c.Storage = StorageMemory; c.SessionTTL = 0 }, wantErr: true},
		{name: "empty secret", modify: func(c *AppConfig) { c.Secret = "" }, wantErr: true},
		{name: "bad port", modify: func(c *AppConfig) { c.Port = 0 }, wantErr: true},
		{name: "zero users limit", modify: func(c *AppConfig) { c.UsersLimit = 0 }, wantErr: true},
		{name: "bad log level", modify: func(c *AppConfig) { c.LogLevel = "loud" }, wantErr: true},
		{name: "unknown storage", modify: func(c *AppConfig) { c.Storage = "disk" }, wantErr: true},
		{name: "zero ttl", modify: func(c *AppConfig) { c.SessionTTL = 0 }, wantErr: true},
		{name: "empty redis host", modify: func(c *AppConfig) { c.RedisHost = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	level, err := parseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = parseLogLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestNewSessionRepo(t *testing.T) {
	ctx := context.Background()

	cfg := validConfig()
	cfg.Storage = StorageMemory
	repo, closeRepo, err := newSessionRepo(ctx, &cfg, slog.Default())
	require.NoError(t, err)
	assert.NotNil(t, repo)
	assert.NoError(t, closeRepo())

	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	cfg = validConfig()
	cfg.RedisHost = s.Host()
	cfg.RedisPort = port
	repo, closeRepo, err = newSessionRepo(ctx, &cfg, slog.Default())
	require.NoError(t, err)
	defer closeRepo()

	exists, err := repo.IsSessionExists(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	s.Close()
	cfg.RedisPort = port
	_, _, err = newSessionRepo(ctx, &cfg, slog.Default())
	assert.Error(t, err)
}
