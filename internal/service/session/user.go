package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/repository/session"
)

type AuthenticateResponse struct {
	SessionId string
	UserId    string
}

// Authenticate resolves an auth token to its user while the user is still in the session.
func (s service) Authenticate(ctx context.Context, authToken string) (AuthenticateResponse, error) {
	claims, err := s.parseJWT(authToken)
	if err != nil {
		s.logger.DebugContext(ctx, "failed to parse jwt", "error", err)
		return AuthenticateResponse{}, ErrInvalidAuthToken
	}

	sess, err := s.getSession(ctx, claims.SessionId)
	if err != nil {
		return AuthenticateResponse{}, err
	}

	if _, err := sess.User(claims.UserId); err != nil {
		return AuthenticateResponse{}, ErrInvalidAuthToken
	}

	return AuthenticateResponse{
		SessionId: claims.SessionId,
		UserId:    claims.UserId,
	}, nil
}

// ConnectedUserIds lists the users with an open connection across all sessions.
func (s service) ConnectedUserIds() []string {
	return s.connRepo.UserIds()
}

type ConnectUserParams struct {
	Conn      *connection.Conn
	SessionId string
	UserId    string
}

type ConnectUserResponse struct {
	User User
	// AuthToken is a fresh token for the user, replacing the one used to connect.
	AuthToken       string
	Session         Session
	LocalVideoState LocalVideoState
	// ReplacedConn is a previous connection of the same user, already unregistered.
	ReplacedConn *connection.Conn
	// Conns are the other users' connections.
	Conns []*connection.Conn
}

func (s service) ConnectUser(ctx context.Context, params *ConnectUserParams) (ConnectUserResponse, error) {
	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return ConnectUserResponse{}, err
	}

	user, err := sess.User(params.UserId)
	if err != nil {
		return ConnectUserResponse{}, err
	}

	replacedConn, err := s.connRepo.RemoveByUserId(params.UserId)
	if err != nil && !errors.Is(err, connection.ErrNotFound) {
		return ConnectUserResponse{}, err
	}

	if err := s.connRepo.Add(params.Conn, params.UserId); err != nil {
		s.logger.InfoContext(ctx, "failed to add conn", "error", err)
		return ConnectUserResponse{}, fmt.Errorf("failed to add conn: %w", err)
	}

	if err := s.sessionRepo.UpdateUserIsOnline(ctx, &session.UpdateUserIsOnlineParams{
		SessionId: sess.Id,
		UserId:    user.Id,
		IsOnline:  true,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update user is online", "error", err)
		return ConnectUserResponse{}, fmt.Errorf("failed to update user is online: %w", err)
	}
	user.IsOnline = true

	authToken, err := s.generateJWT(sess.Id, user.Id)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate jwt", "error", err)
		return ConnectUserResponse{}, fmt.Errorf("failed to generate jwt: %w", err)
	}

	return ConnectUserResponse{
		User:            toUser(*user),
		AuthToken:       authToken,
		Session:         toSession(sess),
		LocalVideoState: toLocalVideoState(*user),
		ReplacedConn:    replacedConn,
		Conns:           s.getConns(sess.Users, user.Id),
	}, nil
}

type DisconnectUserParams struct {
	Conn      *connection.Conn
	SessionId string
}

type DisconnectUserResponse struct {
	User  User
	Conns []*connection.Conn
}

// DisconnectUser marks the connection's user offline. The user stays in the session.
func (s service) DisconnectUser(ctx context.Context, params *DisconnectUserParams) (DisconnectUserResponse, error) {
	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	userId, err := s.connRepo.RemoveByConn(params.Conn)
	if err != nil {
		return DisconnectUserResponse{}, ErrConnectionNotFound
	}

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return DisconnectUserResponse{}, err
	}

	user, err := sess.User(userId)
	if err != nil {
		return DisconnectUserResponse{}, err
	}

	if err := s.sessionRepo.UpdateUserIsOnline(ctx, &session.UpdateUserIsOnlineParams{
		SessionId: sess.Id,
		UserId:    userId,
		IsOnline:  false,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update user is online", "error", err)
		return DisconnectUserResponse{}, fmt.Errorf("failed to update user is online: %w", err)
	}
	user.IsOnline = false

	return DisconnectUserResponse{
		User:  toUser(*user),
		Conns: s.getConns(sess.Users, userId),
	}, nil
}

type UpdateRoleParams struct {
	SessionId string
	SenderId  string
	UserId    string
}

type UpdateRoleResponse struct {
	PrimaryUsers   []User
	SecondaryUsers []User
	Conns          []*connection.Conn
}

func (s service) updateRole(ctx context.Context, params *UpdateRoleParams, transition func(*domain.Session, string, string) error) (UpdateRoleResponse, error) {
	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return UpdateRoleResponse{}, err
	}

	before := sess.Clone()
	if err := transition(&sess, params.SenderId, params.UserId); err != nil {
		s.logger.DebugContext(ctx, "role transition rejected", "error", err)
		return UpdateRoleResponse{}, err
	}
	sess.UpdatedAt = s.now()

	if err := domain.ValidateRoles(sess.Users); err != nil {
		s.logger.ErrorContext(ctx, "role invariant violated", "error", err)
		return UpdateRoleResponse{}, err
	}

	if err := s.saveRoles(ctx, before, sess); err != nil {
		return UpdateRoleResponse{}, err
	}

	return UpdateRoleResponse{
		PrimaryUsers:   toUsers(domain.PrimaryUsers(sess)),
		SecondaryUsers: toUsers(domain.SecondaryUsers(sess)),
		Conns:          s.getConns(sess.Users),
	}, nil
}

func (s service) PromoteToPrimary(ctx context.Context, params *UpdateRoleParams) (UpdateRoleResponse, error) {
	return s.updateRole(ctx, params, domain.PromoteToPrimary)
}

func (s service) PromoteToAdmin(ctx context.Context, params *UpdateRoleParams) (UpdateRoleResponse, error) {
	return s.updateRole(ctx, params, domain.PromoteToAdmin)
}

func (s service) DemoteToSecondary(ctx context.Context, params *UpdateRoleParams) (UpdateRoleResponse, error) {
	return s.updateRole(ctx, params, domain.DemoteToSecondary)
}
