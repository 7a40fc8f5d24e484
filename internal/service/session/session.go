package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/repository/session"
	"github.com/sharetube/watchtogether/pkg/ytvideo"
)

type CreateSessionParams struct {
	VideoURL string
	UserName string
	Avatar   *string
}

type CreateSessionResponse struct {
	SessionId string
	User      User
	AuthToken string
	Session   Session
}

func (s service) CreateSession(ctx context.Context, params *CreateSessionParams) (CreateSessionResponse, error) {
	if err := params.Validate(); err != nil {
		return CreateSessionResponse{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	videoId, err := ytvideo.ExtractID(params.VideoURL)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to extract video id", "video_url", params.VideoURL, "error", err)
		return CreateSessionResponse{}, ErrInvalidVideoUrl
	}

	creator := domain.NewUser(uuid.NewString(), params.UserName, params.Avatar, domain.Admin{})

	var created domain.Session
	for attempt := 1; ; attempt++ {
		sessionId := s.generator.GenerateRandomString(sessionIdLength)
		err := s.createSessionWithId(ctx, sessionId, func() domain.Session {
			created = domain.NewSession(sessionId, params.VideoURL, videoId, creator, s.now())
			return created
		})
		if err == nil {
			break
		}

		if !errors.Is(err, session.ErrSessionAlreadyExists) || attempt >= sessionIdCreateAttempts {
			s.logger.InfoContext(ctx, "failed to create session", "error", err)
			return CreateSessionResponse{}, fmt.Errorf("failed to create session: %w", err)
		}

		s.logger.DebugContext(ctx, "session id collision", "session_id", sessionId)
	}

	authToken, err := s.generateJWT(created.Id, creator.Id)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate jwt", "error", err)
		return CreateSessionResponse{}, fmt.Errorf("failed to generate jwt: %w", err)
	}

	s.logger.InfoContext(ctx, "session created", "session_id", created.Id, "user_id", creator.Id)
	return CreateSessionResponse{
		SessionId: created.Id,
		User:      toUser(created.Users[0]),
		AuthToken: authToken,
		Session:   toSession(created),
	}, nil
}

// createSessionWithId stores the session built by newSession unless sessionId is taken.
func (s service) createSessionWithId(ctx context.Context, sessionId string, newSession func() domain.Session) error {
	exists, err := s.sessionRepo.IsSessionExists(ctx, sessionId)
	if err != nil {
		return err
	}

	if exists {
		return session.ErrSessionAlreadyExists
	}

	stored := toRepoSession(newSession())
	return s.sessionRepo.CreateSession(ctx, &stored)
}

type JoinSessionParams struct {
	SessionId string
	UserName  string
	Avatar    *string
}

type JoinSessionResponse struct {
	User      User
	AuthToken string
	Session   Session
}

func (s service) JoinSession(ctx context.Context, params *JoinSessionParams) (JoinSessionResponse, error) {
	if params.SessionId == "" {
		return JoinSessionResponse{}, ErrInvalidSessionId
	}

	if err := params.Validate(); err != nil {
		return JoinSessionResponse{}, fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return JoinSessionResponse{}, err
	}

	usersCount, err := s.sessionRepo.GetUsersCount(ctx, sess.Id)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get users count", "error", err)
		return JoinSessionResponse{}, fmt.Errorf("failed to get users count: %w", err)
	}

	if s.usersLimit > 0 && usersCount >= s.usersLimit {
		return JoinSessionResponse{}, ErrUsersLimitReached
	}

	user := domain.NewUser(uuid.NewString(), params.UserName, params.Avatar, domain.Secondary{})
	sess.AddUser(user)
	sess.UpdatedAt = s.now()

	if err := s.sessionRepo.AddUser(ctx, &session.AddUserParams{
		SessionId: sess.Id,
		User:      toRepoUser(user),
		UpdatedAt: sess.UpdatedAt.UnixMilli(),
	}); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return JoinSessionResponse{}, ErrSessionNotFound
		}

		s.logger.InfoContext(ctx, "failed to add user", "error", err)
		return JoinSessionResponse{}, fmt.Errorf("failed to add user: %w", err)
	}

	authToken, err := s.generateJWT(sess.Id, user.Id)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate jwt", "error", err)
		return JoinSessionResponse{}, fmt.Errorf("failed to generate jwt: %w", err)
	}

	s.logger.InfoContext(ctx, "user joined", "session_id", sess.Id, "user_id", user.Id)
	return JoinSessionResponse{
		User:      toUser(user),
		AuthToken: authToken,
		Session:   toSession(sess),
	}, nil
}

func (s service) GetSession(ctx context.Context, sessionId string) (Session, error) {
	sess, err := s.getSession(ctx, sessionId)
	if err != nil {
		return Session{}, err
	}

	return toSession(sess), nil
}

func (s service) GetPrimaryUsers(ctx context.Context, sessionId string) ([]User, error) {
	sess, err := s.getSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	return toUsers(domain.PrimaryUsers(sess)), nil
}

func (s service) GetSecondaryUsers(ctx context.Context, sessionId string) ([]User, error) {
	sess, err := s.getSession(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	return toUsers(domain.SecondaryUsers(sess)), nil
}

type LeaveSessionParams struct {
	SessionId string
	UserId    string
}

type LeaveSessionResponse struct {
	IsSessionDeleted bool
	LeftUser         User
	NewAdmin         *User
	Session          Session
	// LeftConn is the leaving user's connection, already unregistered.
	LeftConn *connection.Conn
	// Conns are the remaining users' connections. When the session is deleted they are
	// unregistered as well.
	Conns []*connection.Conn
}

func (s service) LeaveSession(ctx context.Context, params *LeaveSessionParams) (LeaveSessionResponse, error) {
	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return LeaveSessionResponse{}, err
	}

	before := sess.Clone()
	leaving, err := before.User(params.UserId)
	if err != nil {
		return LeaveSessionResponse{}, err
	}

	terminated, err := domain.Leave(&sess, params.UserId)
	if err != nil {
		return LeaveSessionResponse{}, err
	}
	sess.UpdatedAt = s.now()

	resp := LeaveSessionResponse{
		IsSessionDeleted: terminated,
		LeftUser:         toUser(*leaving),
	}

	if terminated {
		if err := s.sessionRepo.DeleteSession(ctx, sess.Id); err != nil {
			s.logger.InfoContext(ctx, "failed to delete session", "error", err)
			return LeaveSessionResponse{}, fmt.Errorf("failed to delete session: %w", err)
		}

		resp.Conns = make([]*connection.Conn, 0, len(before.Users))
		for _, u := range before.Users {
			conn, err := s.connRepo.RemoveByUserId(u.Id)
			if err != nil {
				continue
			}

			if u.Id == params.UserId {
				resp.LeftConn = conn
			} else {
				resp.Conns = append(resp.Conns, conn)
			}
		}

		s.logger.InfoContext(ctx, "session deleted", "session_id", sess.Id)
		return resp, nil
	}

	if err := s.sessionRepo.RemoveUser(ctx, &session.RemoveUserParams{
		SessionId: sess.Id,
		UserId:    params.UserId,
		Roles:     roleChanges(before, sess),
		UpdatedAt: sess.UpdatedAt.UnixMilli(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to remove user", "error", err)
		return LeaveSessionResponse{}, fmt.Errorf("failed to remove user: %w", err)
	}

	leftConn, err := s.connRepo.RemoveByUserId(params.UserId)
	if err == nil {
		resp.LeftConn = leftConn
	}

	if leaving.IsAdmin() {
		if admin, ok := sess.Admin(); ok {
			newAdmin := toUser(*admin)
			resp.NewAdmin = &newAdmin
		}
	}

	resp.Session = toSession(sess)
	resp.Conns = s.getConns(sess.Users)

	s.logger.InfoContext(ctx, "user left", "session_id", sess.Id, "user_id", params.UserId)
	return resp, nil
}
