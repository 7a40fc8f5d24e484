package controller

import (
	"context"
	"net/http"

	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdMw(), c.wsLoggerMw())
	mux.SetErrorHandler(c.handleWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)
	wsrouter.Handle(mux, "GET_SESSION", c.handleGetSession)
	wsrouter.Handle(mux, "LEAVE_SESSION", c.handleLeaveSession)

	// roles
	wsrouter.Handle(mux, "PROMOTE_TO_PRIMARY", c.handlePromoteToPrimary)
	wsrouter.Handle(mux, "PROMOTE_TO_ADMIN", c.handlePromoteToAdmin)
	wsrouter.Handle(mux, "DEMOTE_TO_SECONDARY", c.handleDemoteToSecondary)

	// video
	wsrouter.Handle(mux, "VIDEO_ACTION", c.handleVideoAction)
	wsrouter.Handle(mux, "UPDATE_VIDEO_STATE", c.handleUpdateVideoState)
	wsrouter.Handle(mux, "SET_VIDEO_URL", c.handleSetVideoURL)

	return mux
}

func (c controller) handleWSError(ctx context.Context, conn wsrouter.Conn, err error) {
	status, code, message := mapError(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(ctx, "websocket message failed", "error", err)
	} else {
		c.logger.DebugContext(ctx, "websocket message rejected", "error", err)
	}

	c.writeToConn(ctx, conn, &Output{
		Type: "ERROR",
		Payload: map[string]string{
			"message_type": wsrouter.MessageType(ctx),
			"code":         code,
			"message":      message,
		},
	})
}
