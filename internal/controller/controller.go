package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sharetube/watchtogether/internal/service/session"
	"github.com/sharetube/watchtogether/pkg/validator"
	"github.com/sharetube/watchtogether/pkg/wsrouter"
)

type iSessionService interface {
	CreateSession(context.Context, *session.CreateSessionParams) (session.CreateSessionResponse, error)
	JoinSession(context.Context, *session.JoinSessionParams) (session.JoinSessionResponse, error)
	GetSession(context.Context, string) (session.Session, error)
	GetPrimaryUsers(context.Context, string) ([]session.User, error)
	GetSecondaryUsers(context.Context, string) ([]session.User, error)
	Authenticate(context.Context, string) (session.AuthenticateResponse, error)
	ConnectUser(context.Context, *session.ConnectUserParams) (session.ConnectUserResponse, error)
	DisconnectUser(context.Context, *session.DisconnectUserParams) (session.DisconnectUserResponse, error)
	LeaveSession(context.Context, *session.LeaveSessionParams) (session.LeaveSessionResponse, error)
	PromoteToPrimary(context.Context, *session.UpdateRoleParams) (session.UpdateRoleResponse, error)
	PromoteToAdmin(context.Context, *session.UpdateRoleParams) (session.UpdateRoleResponse, error)
	DemoteToSecondary(context.Context, *session.UpdateRoleParams) (session.UpdateRoleResponse, error)
	PerformVideoAction(context.Context, *session.PerformVideoActionParams) (session.PerformVideoActionResponse, error)
	UpdateVideoState(context.Context, *session.UpdateVideoStateParams) (session.UpdateVideoStateResponse, error)
	SetVideoURL(context.Context, *session.SetVideoURLParams) (session.SetVideoURLResponse, error)
	ConnectedUserIds() []string
}

type controller struct {
	sessionService iSessionService
	upgrader       websocket.Upgrader
	wsmux          *wsrouter.WSRouter
	validate       *validator.Validator
	logger         *slog.Logger
}

func NewController(sessionService iSessionService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		sessionService: sessionService,
		validate:       validator.NewValidator(),
		logger:         logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
