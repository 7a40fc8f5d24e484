package inmemory

import (
	"log/slog"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo(t *testing.T) {
	r := NewRepo(slog.Default())
	c1 := connection.NewConn(&websocket.Conn{})
	c2 := connection.NewConn(&websocket.Conn{})

	require.NoError(t, r.Add(c1, "u1"))
	require.NoError(t, r.Add(c2, "u2"))
	assert.ErrorIs(t, r.Add(c1, "u3"), connection.ErrAlreadyExists)
	assert.ErrorIs(t, r.Add(connection.NewConn(&websocket.Conn{}), "u1"), connection.ErrAlreadyExists)

	conn, err := r.GetConn("u2")
	require.NoError(t, err)
	assert.Same(t, c2, conn)

	assert.Equal(t, []string{"u1", "u2"}, r.UserIds())
	assert.Equal(t, []*connection.Conn{c2, c1}, r.GetConns([]string{"u2", "missing", "u1"}))

	userId, err := r.RemoveByConn(c1)
	require.NoError(t, err)
	assert.Equal(t, "u1", userId)
	_, err = r.RemoveByConn(c1)
	assert.ErrorIs(t, err, connection.ErrNotFound)

	conn, err = r.RemoveByUserId("u2")
	require.NoError(t, err)
	assert.Same(t, c2, conn)
	_, err = r.GetConn("u2")
	assert.ErrorIs(t, err, connection.ErrNotFound)
	assert.Empty(t, r.UserIds())
}
