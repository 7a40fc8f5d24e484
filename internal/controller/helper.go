package controller

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/service/session"
	"github.com/sharetube/watchtogether/pkg/rest"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

var errInvalidInput = errors.New("invalid input")

// generateTimeBasedId returns a sortable unique id for log correlation.
func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{session.ErrInvalidVideoUrl, http.StatusBadRequest, "INVALID_VIDEO_URL"},
	{session.ErrInvalidSessionId, http.StatusBadRequest, "INVALID_SESSION_ID"},
	{session.ErrInvalidParams, http.StatusBadRequest, "INVALID_PARAMS"},
	{session.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
	{session.ErrUsersLimitReached, http.StatusConflict, "USERS_LIMIT_REACHED"},
	{session.ErrInvalidAuthToken, http.StatusUnauthorized, "INVALID_AUTH_TOKEN"},
	{domain.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
	{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrInvalidRoleTransition, http.StatusConflict, "INVALID_ROLE_TRANSITION"},
	{domain.ErrInvalidActionType, http.StatusUnprocessableEntity, "INVALID_ACTION_TYPE"},
	{domain.ErrInvalidActionPayload, http.StatusUnprocessableEntity, "INVALID_ACTION_PAYLOAD"},
	{domain.ErrInvalidVideoState, http.StatusUnprocessableEntity, "INVALID_VIDEO_STATE"},
	{wsrouter.ErrUnknownMessageType, http.StatusBadRequest, "UNKNOWN_MESSAGE_TYPE"},
	{wsrouter.ErrInvalidPayload, http.StatusUnprocessableEntity, "INVALID_PAYLOAD"},
	{errInvalidInput, http.StatusUnprocessableEntity, "INVALID_PAYLOAD"},
}

// mapError resolves err to an http status, a code and a client-facing message.
// Unknown errors are reported as internal without their details.
func mapError(err error) (int, string, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code, err.Error()
		}
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR", "internal error"
}

func (c controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := mapError(err)
	if status == http.StatusInternalServerError {
		c.logger.ErrorContext(r.Context(), "request failed", "error", err)
	} else {
		c.logger.DebugContext(r.Context(), "request rejected", "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": map[string]string{
		"code":    code,
		"message": message,
	}})
}
