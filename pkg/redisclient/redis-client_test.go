package redisclient

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	s := miniredis.RunT(t)

	rc, err := NewRedisClient(context.Background(), &Config{
		Host: s.Host(),
		Port: mustPort(t, s.Port()),
	})
	require.NoError(t, err)
	defer rc.Close()

	assert.NoError(t, rc.Set(context.Background(), "k", "v", 0).Err())
}

func TestNewRedisClientUnreachable(t *testing.T) {
	s := miniredis.RunT(t)
	port := mustPort(t, s.Port())
	s.Close()

	_, err := NewRedisClient(context.Background(), &Config{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
