package controller

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/watchtogether/internal/service/session"
	"github.com/sharetube/watchtogether/pkg/rest"
)

func (c controller) healthz(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": map[string]any{
		"status":          "OK",
		"connected_users": len(c.sessionService.ConnectedUserIds()),
	}})
}

// readInput decodes and validates a request body, writing the error response itself on failure.
func (c controller) readInput(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		c.logger.DebugContext(r.Context(), "failed to read json", "error", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": map[string]string{
			"code":    "INVALID_PAYLOAD",
			"message": err.Error(),
		}})
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		c.logger.DebugContext(r.Context(), "validation failed", "errors", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return false
	}

	return true
}

type createSessionInput struct {
	VideoURL string  `json:"video_url" validate:"required,max=2048"`
	UserName string  `json:"user_name" validate:"required,max=32"`
	Avatar   *string `json:"avatar" validate:"omitempty,url,max=2048"`
}

type createSessionOutput struct {
	SessionId string          `json:"session_id"`
	User      session.User    `json:"user"`
	AuthToken string          `json:"auth_token"`
	Session   session.Session `json:"session"`
}

func (c controller) createSession(w http.ResponseWriter, r *http.Request) {
	var input createSessionInput
	if !c.readInput(w, r, &input) {
		return
	}

	resp, err := c.sessionService.CreateSession(r.Context(), &session.CreateSessionParams{
		VideoURL: input.VideoURL,
		UserName: input.UserName,
		Avatar:   input.Avatar,
	})
	if err != nil {
		c.writeError(w, r, fmt.Errorf("failed to create session: %w", err))
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": createSessionOutput{
		SessionId: resp.SessionId,
		User:      resp.User,
		AuthToken: resp.AuthToken,
		Session:   resp.Session,
	}})
}

type joinSessionInput struct {
	UserName string  `json:"user_name" validate:"required,max=32"`
	Avatar   *string `json:"avatar" validate:"omitempty,url,max=2048"`
}

type joinSessionOutput struct {
	User      session.User    `json:"user"`
	AuthToken string          `json:"auth_token"`
	Session   session.Session `json:"session"`
}

func (c controller) joinSession(w http.ResponseWriter, r *http.Request) {
	sessionId := chi.URLParam(r, "session-id")

	var input joinSessionInput
	if !c.readInput(w, r, &input) {
		return
	}

	resp, err := c.sessionService.JoinSession(r.Context(), &session.JoinSessionParams{
		SessionId: sessionId,
		UserName:  input.UserName,
		Avatar:    input.Avatar,
	})
	if err != nil {
		c.writeError(w, r, fmt.Errorf("failed to join session: %w", err))
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": joinSessionOutput{
		User:      resp.User,
		AuthToken: resp.AuthToken,
		Session:   resp.Session,
	}})
}

func (c controller) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := c.sessionService.GetSession(r.Context(), chi.URLParam(r, "session-id"))
	if err != nil {
		c.writeError(w, r, fmt.Errorf("failed to get session: %w", err))
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": sess})
}

func (c controller) getPrimaryUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.sessionService.GetPrimaryUsers(r.Context(), chi.URLParam(r, "session-id"))
	if err != nil {
		c.writeError(w, r, fmt.Errorf("failed to get primary users: %w", err))
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": users})
}

func (c controller) getSecondaryUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.sessionService.GetSecondaryUsers(r.Context(), chi.URLParam(r, "session-id"))
	if err != nil {
		c.writeError(w, r, fmt.Errorf("failed to get secondary users: %w", err))
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": users})
}
