package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/repository/session"
)

func toRepoUser(u domain.User) session.User {
	order, _ := domain.OrderOf(u.Role)
	var avatar string
	if u.Avatar != nil {
		avatar = *u.Avatar
	}

	return session.User{
		Id:       u.Id,
		Name:     u.Name,
		Avatar:   avatar,
		Role:     string(u.Role.Kind()),
		Order:    order,
		IsOnline: u.IsOnline,
		Volume:   u.Volume,
		Muted:    u.Muted,
	}
}

func toRepoSession(s domain.Session) session.Session {
	users := make([]session.User, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, toRepoUser(u))
	}

	return session.Session{
		Id:        s.Id,
		VideoURL:  s.VideoURL,
		VideoId:   s.VideoId,
		CreatedAt: s.CreatedAt.UnixMilli(),
		UpdatedAt: s.UpdatedAt.UnixMilli(),
		Users:     users,
		VideoState: session.VideoState{
			IsPlaying:    s.VideoState.IsPlaying,
			CurrentTime:  s.VideoState.CurrentTime,
			Duration:     s.VideoState.Duration,
			Volume:       s.VideoState.Volume,
			Muted:        s.VideoState.Muted,
			PlaybackRate: s.VideoState.PlaybackRate,
			Quality:      s.VideoState.Quality,
		},
	}
}

func toDomainSession(s session.Session) (domain.Session, error) {
	users := make([]domain.User, 0, len(s.Users))
	for _, u := range s.Users {
		role, err := domain.ParseRole(u.Role, u.Order)
		if err != nil {
			return domain.Session{}, fmt.Errorf("failed to parse role of user %s: %w", u.Id, err)
		}

		var avatar *string
		if u.Avatar != "" {
			avatar = &u.Avatar
		}

		users = append(users, domain.User{
			Id:       u.Id,
			Name:     u.Name,
			Avatar:   avatar,
			Role:     role,
			IsOnline: u.IsOnline,
			Volume:   u.Volume,
			Muted:    u.Muted,
		})
	}

	return domain.Session{
		Id:        s.Id,
		VideoURL:  s.VideoURL,
		VideoId:   s.VideoId,
		CreatedAt: time.UnixMilli(s.CreatedAt),
		UpdatedAt: time.UnixMilli(s.UpdatedAt),
		Users:     users,
		VideoState: domain.VideoState{
			IsPlaying:    s.VideoState.IsPlaying,
			CurrentTime:  s.VideoState.CurrentTime,
			Duration:     s.VideoState.Duration,
			Volume:       s.VideoState.Volume,
			Muted:        s.VideoState.Muted,
			PlaybackRate: s.VideoState.PlaybackRate,
			Quality:      s.VideoState.Quality,
		},
	}, nil
}

func toUser(u domain.User) User {
	order, _ := domain.OrderOf(u.Role)
	return User{
		Id:       u.Id,
		Name:     u.Name,
		Avatar:   u.Avatar,
		Role:     string(u.Role.Kind()),
		Order:    order,
		IsOnline: u.IsOnline,
	}
}

func toUsers(users []domain.User) []User {
	res := make([]User, 0, len(users))
	for _, u := range users {
		res = append(res, toUser(u))
	}

	return res
}

func toVideoState(v domain.VideoState) VideoState {
	return VideoState{
		IsPlaying:    v.IsPlaying,
		CurrentTime:  v.CurrentTime,
		Duration:     v.Duration,
		PlaybackRate: v.PlaybackRate,
		Quality:      v.Quality,
	}
}

func toLocalVideoState(u domain.User) LocalVideoState {
	return LocalVideoState{
		Volume: u.Volume,
		Muted:  u.Muted,
	}
}

func toSession(s domain.Session) Session {
	return Session{
		Id:             s.Id,
		VideoURL:       s.VideoURL,
		VideoId:        s.VideoId,
		CreatedAt:      s.CreatedAt.UnixMilli(),
		UpdatedAt:      s.UpdatedAt.UnixMilli(),
		PrimaryUsers:   toUsers(domain.PrimaryUsers(s)),
		SecondaryUsers: toUsers(domain.SecondaryUsers(s)),
		VideoState:     toVideoState(s.VideoState),
	}
}

// getSession loads the session and converts it to its domain form.
func (s service) getSession(ctx context.Context, sessionId string) (domain.Session, error) {
	if sessionId == "" {
		return domain.Session{}, ErrInvalidSessionId
	}

	stored, err := s.sessionRepo.GetSession(ctx, sessionId)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return domain.Session{}, ErrSessionNotFound
		}

		s.logger.InfoContext(ctx, "failed to get session", "error", err)
		return domain.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	return toDomainSession(stored)
}

func (s service) getConns(users []domain.User, exceptIds ...string) []*connection.Conn {
	userIds := make([]string, 0, len(users))
outer:
	for _, u := range users {
		for _, exceptId := range exceptIds {
			if u.Id == exceptId {
				continue outer
			}
		}
		userIds = append(userIds, u.Id)
	}

	return s.connRepo.GetConns(userIds)
}

// roleChanges lists users present in after whose role differs from before.
func roleChanges(before, after domain.Session) []session.UserRole {
	changes := make([]session.UserRole, 0)
	for _, u := range after.Users {
		prev, err := before.User(u.Id)
		if err == nil && prev.Role == u.Role {
			continue
		}

		order, _ := domain.OrderOf(u.Role)
		changes = append(changes, session.UserRole{
			UserId: u.Id,
			Role:   string(u.Role.Kind()),
			Order:  order,
		})
	}

	return changes
}

func (s service) saveRoles(ctx context.Context, before, after domain.Session) error {
	changes := roleChanges(before, after)
	if len(changes) == 0 {
		return nil
	}

	if err := s.sessionRepo.UpdateUserRoles(ctx, &session.UpdateUserRolesParams{
		SessionId: after.Id,
		Roles:     changes,
		UpdatedAt: after.UpdatedAt.UnixMilli(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update user roles", "error", err)
		return fmt.Errorf("failed to update user roles: %w", err)
	}

	return nil
}
