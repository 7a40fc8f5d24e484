package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/repository/session"
	"github.com/sharetube/watchtogether/pkg/keymutex"
	"github.com/sharetube/watchtogether/pkg/randstr"
)

var (
	ErrInvalidVideoUrl    = errors.New("invalid video url")
	ErrInvalidSessionId   = errors.New("invalid session id")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUsersLimitReached  = errors.New("users limit reached")
	ErrInvalidAuthToken   = errors.New("invalid auth token")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidParams      = errors.New("invalid params")
)

const (
	sessionIdLength         = 7
	sessionIdCreateAttempts = 5
)

// SessionRepo is the session registry the service persists to.
type SessionRepo interface {
	CreateSession(context.Context, *session.Session) error
	GetSession(context.Context, string) (session.Session, error)
	IsSessionExists(context.Context, string) (bool, error)
	DeleteSession(context.Context, string) error
	GetUsersCount(context.Context, string) (int, error)
	AddUser(context.Context, *session.AddUserParams) error
	RemoveUser(context.Context, *session.RemoveUserParams) error
	UpdateUserRoles(context.Context, *session.UpdateUserRolesParams) error
	UpdateUserIsOnline(context.Context, *session.UpdateUserIsOnlineParams) error
	UpdateUserLocalState(context.Context, *session.UpdateUserLocalStateParams) error
	UpdateVideoState(context.Context, *session.UpdateVideoStateParams) error
	UpdateVideo(context.Context, *session.UpdateVideoParams) error
}

type iConnRepo interface {
	Add(*connection.Conn, string) error
	RemoveByConn(*connection.Conn) (string, error)
	RemoveByUserId(string) (*connection.Conn, error)
	GetConn(string) (*connection.Conn, error)
	GetConns([]string) []*connection.Conn
	UserIds() []string
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	UsersLimit int
	Secret     string
	// TokenTTL bounds auth token lifetime. Zero issues tokens without expiry.
	TokenTTL time.Duration
}

type service struct {
	sessionRepo SessionRepo
	connRepo    iConnRepo
	generator   iGenerator
	locks       *keymutex.KeyMutex
	usersLimit  int
	secret      []byte
	tokenTTL    time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(sessionRepo SessionRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		sessionRepo: sessionRepo,
		connRepo:    connRepo,
		generator:   randstr.New([]byte("abcdefghijklmnopqrstuvwxyz0123456789")),
		locks:       keymutex.New(),
		usersLimit:  cfg.UsersLimit,
		secret:      []byte(cfg.Secret),
		tokenTTL:    cfg.TokenTTL,
		logger:      logger.With("component", "session.service"),
		now:         time.Now,
	}
}
