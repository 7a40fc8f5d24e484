package controller

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

const (
	closeCodeSessionClosed = 4000
	closeCodeLeft          = 4001
	closeCodeReplaced      = 4002

	closeWriteTimeout = time.Second
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) writeToConn(ctx context.Context, conn wsrouter.Conn, output *Output) error {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.InfoContext(ctx, "failed to write to conn", "type", output.Type, "error", err)
		return err
	}

	return nil
}

// broadcast writes output to every conn. A failing conn does not stop the others.
func (c controller) broadcast(ctx context.Context, conns []*connection.Conn, output *Output) error {
	var firstErr error
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// closeConn sends a close frame with code and closes the underlying connection.
func (c controller) closeConn(ctx context.Context, conn *connection.Conn, code int, reason string) {
	if conn == nil {
		return
	}

	msg := websocket.FormatCloseMessage(code, reason)
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout)); err != nil {
		c.logger.DebugContext(ctx, "failed to write close message", "error", err)
	}

	if err := conn.Close(); err != nil {
		c.logger.DebugContext(ctx, "failed to close conn", "error", err)
	}
}
