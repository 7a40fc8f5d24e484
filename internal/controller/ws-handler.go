package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/service/session"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

func (c controller) connectSession(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "session-id")

	auth, err := c.sessionService.Authenticate(r.Context(), r.URL.Query().Get("auth-token"))
	if err != nil {
		c.writeError(w, r, fmt.Errorf("failed to authenticate: %w", err))
		return
	}

	if auth.SessionId != sessionId {
		c.writeError(w, r, session.ErrInvalidAuthToken)
		return
	}

	wsConn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	conn := connection.NewConn(wsConn)
	defer conn.Close()

	ctx := context.WithValue(r.Context(), sessionIdCtxKey, sessionId)
	ctx = context.WithValue(ctx, userIdCtxKey, auth.UserId)

	connectResp, err := c.sessionService.ConnectUser(ctx, &session.ConnectUserParams{
		Conn:      conn,
		SessionId: sessionId,
		UserId:    auth.UserId,
	})
	if err != nil {
		c.handleWSError(ctx, conn, fmt.Errorf("failed to connect user: %w", err))
		return
	}
	defer c.disconnect(ctx, conn)

	c.closeConn(ctx, connectResp.ReplacedConn, closeCodeReplaced, "connected from another place")

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "SESSION_STATE",
		Payload: map[string]any{
			"session":           connectResp.Session,
			"user":              connectResp.User,
			"local_video_state": connectResp.LocalVideoState,
			"auth_token":        connectResp.AuthToken,
		},
	}); err != nil {
		return
	}

	c.broadcast(ctx, connectResp.Conns, &Output{
		Type: "USER_CONNECTED",
		Payload: map[string]any{
			"user": connectResp.User,
		},
	})

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, conn *connection.Conn) {
	resp, err := c.sessionService.DisconnectUser(ctx, &session.DisconnectUserParams{
		Conn:      conn,
		SessionId: c.getSessionIdFromCtx(ctx),
	})
	if err != nil {
		if !errors.Is(err, session.ErrConnectionNotFound) {
			c.logger.InfoContext(ctx, "failed to disconnect user", "error", err)
		}
		return
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "USER_DISCONNECTED",
		Payload: map[string]any{
			"user": resp.User,
		},
	})
}

type EmptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	return nil
}

func (c controller) handleGetSession(ctx context.Context, conn wsrouter.Conn, _ EmptyInput) error {
	sess, err := c.sessionService.GetSession(ctx, c.getSessionIdFromCtx(ctx))
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	return c.writeToConn(ctx, conn, &Output{
		Type: "SESSION_STATE",
		Payload: map[string]any{
			"session": sess,
		},
	})
}

func (c controller) handleLeaveSession(ctx context.Context, _ wsrouter.Conn, _ EmptyInput) error {
	resp, err := c.sessionService.LeaveSession(ctx, &session.LeaveSessionParams{
		SessionId: c.getSessionIdFromCtx(ctx),
		UserId:    c.getUserIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to leave session: %w", err)
	}

	c.closeConn(ctx, resp.LeftConn, closeCodeLeft, "left session")

	if resp.IsSessionDeleted {
		c.broadcast(ctx, resp.Conns, &Output{
			Type: "SESSION_CLOSED",
			Payload: map[string]any{
				"session_id": c.getSessionIdFromCtx(ctx),
			},
		})
		for _, conn := range resp.Conns {
			c.closeConn(ctx, conn, closeCodeSessionClosed, "session closed")
		}

		return nil
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "USER_LEFT",
		Payload: map[string]any{
			"left_user":       resp.LeftUser,
			"new_admin":       resp.NewAdmin,
			"primary_users":   resp.Session.PrimaryUsers,
			"secondary_users": resp.Session.SecondaryUsers,
		},
	})

	return nil
}

type UpdateRoleInput struct {
	UserId string `json:"user_id" validate:"required"`
}

func (c controller) updateRole(
	ctx context.Context,
	input UpdateRoleInput,
	update func(context.Context, *session.UpdateRoleParams) (session.UpdateRoleResponse, error),
) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", errInvalidInput, validationErrors)
	}

	resp, err := update(ctx, &session.UpdateRoleParams{
		SessionId: c.getSessionIdFromCtx(ctx),
		SenderId:  c.getUserIdFromCtx(ctx),
		UserId:    input.UserId,
	})
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "ROLES_UPDATED",
		Payload: map[string]any{
			"primary_users":   resp.PrimaryUsers,
			"secondary_users": resp.SecondaryUsers,
		},
	})

	return nil
}

func (c controller) handlePromoteToPrimary(ctx context.Context, _ wsrouter.Conn, input UpdateRoleInput) error {
	return c.updateRole(ctx, input, c.sessionService.PromoteToPrimary)
}

func (c controller) handlePromoteToAdmin(ctx context.Context, _ wsrouter.Conn, input UpdateRoleInput) error {
	return c.updateRole(ctx, input, c.sessionService.PromoteToAdmin)
}

func (c controller) handleDemoteToSecondary(ctx context.Context, _ wsrouter.Conn, input UpdateRoleInput) error {
	return c.updateRole(ctx, input, c.sessionService.DemoteToSecondary)
}

type VideoActionInput struct {
	Type    string   `json:"type" validate:"required"`
	Time    *float64 `json:"time"`
	Volume  *float64 `json:"volume"`
	Quality string   `json:"quality"`
}

func (c controller) handleVideoAction(ctx context.Context, _ wsrouter.Conn, input VideoActionInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", errInvalidInput, validationErrors)
	}

	senderId := c.getUserIdFromCtx(ctx)
	resp, err := c.sessionService.PerformVideoAction(ctx, &session.PerformVideoActionParams{
		SessionId: c.getSessionIdFromCtx(ctx),
		SenderId:  senderId,
		Type:      input.Type,
		Time:      input.Time,
		Volume:    input.Volume,
		Quality:   input.Quality,
	})
	if err != nil {
		return fmt.Errorf("failed to perform video action: %w", err)
	}

	if resp.IsLocal {
		c.broadcast(ctx, resp.Conns, &Output{
			Type: "LOCAL_VIDEO_STATE_UPDATED",
			Payload: map[string]any{
				"local_video_state": resp.LocalVideoState,
			},
		})

		return nil
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "VIDEO_STATE_UPDATED",
		Payload: map[string]any{
			"video_state": resp.VideoState,
			"updated_at":  resp.UpdatedAt,
			"updated_by":  senderId,
		},
	})

	return nil
}

type UpdateVideoStateInput struct {
	IsPlaying    *bool    `json:"is_playing"`
	CurrentTime  *float64 `json:"current_time"`
	Duration     *float64 `json:"duration"`
	PlaybackRate *float64 `json:"playback_rate"`
	Quality      *string  `json:"quality"`
}

func (c controller) handleUpdateVideoState(ctx context.Context, _ wsrouter.Conn, input UpdateVideoStateInput) error {
	senderId := c.getUserIdFromCtx(ctx)
	resp, err := c.sessionService.UpdateVideoState(ctx, &session.UpdateVideoStateParams{
		SessionId:    c.getSessionIdFromCtx(ctx),
		SenderId:     senderId,
		IsPlaying:    input.IsPlaying,
		CurrentTime:  input.CurrentTime,
		Duration:     input.Duration,
		PlaybackRate: input.PlaybackRate,
		Quality:      input.Quality,
	})
	if err != nil {
		return fmt.Errorf("failed to update video state: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "VIDEO_STATE_UPDATED",
		Payload: map[string]any{
			"video_state": resp.VideoState,
			"updated_at":  resp.UpdatedAt,
			"updated_by":  senderId,
		},
	})

	return nil
}

type SetVideoURLInput struct {
	VideoURL string `json:"video_url" validate:"required,max=2048"`
}

func (c controller) handleSetVideoURL(ctx context.Context, _ wsrouter.Conn, input SetVideoURLInput) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %v", errInvalidInput, validationErrors)
	}

	resp, err := c.sessionService.SetVideoURL(ctx, &session.SetVideoURLParams{
		SessionId: c.getSessionIdFromCtx(ctx),
		SenderId:  c.getUserIdFromCtx(ctx),
		VideoURL:  input.VideoURL,
	})
	if err != nil {
		return fmt.Errorf("failed to set video url: %w", err)
	}

	c.broadcast(ctx, resp.Conns, &Output{
		Type: "VIDEO_UPDATED",
		Payload: map[string]any{
			"video_url":   resp.VideoURL,
			"video_id":    resp.VideoId,
			"video_state": resp.VideoState,
			"updated_at":  resp.UpdatedAt,
		},
	})

	return nil
}
