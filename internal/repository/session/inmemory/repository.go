package inmemory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/sharetube/watchtogether/internal/repository/session"
)

type repo struct {
	sessions map[string]session.Session
	mu       sync.RWMutex
	logger   *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		sessions: make(map[string]session.Session),
		logger:   logger.With("component", "session.inmemory"),
	}
}

func clone(s session.Session) session.Session {
	s.Users = slices.Clone(s.Users)
	return s
}

func userIndex(s session.Session, userId string) int {
	return slices.IndexFunc(s.Users, func(u session.User) bool {
		return u.Id == userId
	})
}

func (r *repo) CreateSession(ctx context.Context, s *session.Session) error {
	r.logger.DebugContext(ctx, "called", "session_id", s.Id)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.Id]; ok {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSessionAlreadyExists)
		return session.ErrSessionAlreadyExists
	}

	r.sessions[s.Id] = clone(*s)
	return nil
}

func (r *repo) IsSessionExists(ctx context.Context, sessionId string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.sessions[sessionId]
	return ok, nil
}

func (r *repo) GetSession(ctx context.Context, sessionId string) (session.Session, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionId)
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSessionNotFound)
		return session.Session{}, session.ErrSessionNotFound
	}

	return clone(s), nil
}

func (r *repo) DeleteSession(ctx context.Context, sessionId string) error {
	r.logger.DebugContext(ctx, "called", "session_id", sessionId)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionId]; !ok {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSessionNotFound)
		return session.ErrSessionNotFound
	}

	delete(r.sessions, sessionId)
	return nil
}

func (r *repo) GetUsersCount(ctx context.Context, sessionId string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions[sessionId].Users), nil
}

func (r *repo) AddUser(ctx context.Context, params *session.AddUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[params.SessionId]
	if !ok {
		return session.ErrSessionNotFound
	}

	if userIndex(s, params.User.Id) >= 0 {
		return session.ErrUserAlreadyExists
	}

	s.Users = append(slices.Clone(s.Users), params.User)
	s.UpdatedAt = params.UpdatedAt
	r.sessions[params.SessionId] = s
	return nil
}

func (r *repo) RemoveUser(ctx context.Context, params *session.RemoveUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[params.SessionId]
	if !ok {
		return session.ErrSessionNotFound
	}

	i := userIndex(s, params.UserId)
	if i < 0 {
		return session.ErrUserNotFound
	}

	users := slices.Delete(slices.Clone(s.Users), i, i+1)
	if err := applyRoles(users, params.Roles); err != nil {
		return err
	}

	s.Users = users
	s.UpdatedAt = params.UpdatedAt
	r.sessions[params.SessionId] = s
	return nil
}

// updateUser applies fn to the stored user after copying the roster.
func (r *repo) updateUser(sessionId, userId string, fn func(*session.User)) error {
	s, ok := r.sessions[sessionId]
	if !ok {
		return session.ErrSessionNotFound
	}

	i := userIndex(s, userId)
	if i < 0 {
		return session.ErrUserNotFound
	}

	s.Users = slices.Clone(s.Users)
	fn(&s.Users[i])
	r.sessions[sessionId] = s
	return nil
}

// applyRoles sets the given roles on users in place. Nothing is changed when a user is missing.
func applyRoles(users []session.User, roles []session.UserRole) error {
	indexes := make([]int, 0, len(roles))
	for _, role := range roles {
		i := slices.IndexFunc(users, func(u session.User) bool { return u.Id == role.UserId })
		if i < 0 {
			return session.ErrUserNotFound
		}
		indexes = append(indexes, i)
	}

	for j, i := range indexes {
		users[i].Role = roles[j].Role
		users[i].Order = roles[j].Order
	}

	return nil
}

func (r *repo) UpdateUserRoles(ctx context.Context, params *session.UpdateUserRolesParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[params.SessionId]
	if !ok {
		return session.ErrSessionNotFound
	}

	users := slices.Clone(s.Users)
	if err := applyRoles(users, params.Roles); err != nil {
		return err
	}

	s.Users = users
	s.UpdatedAt = params.UpdatedAt
	r.sessions[params.SessionId] = s
	return nil
}

func (r *repo) UpdateUserIsOnline(ctx context.Context, params *session.UpdateUserIsOnlineParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.updateUser(params.SessionId, params.UserId, func(u *session.User) {
		u.IsOnline = params.IsOnline
	})
}

func (r *repo) UpdateUserLocalState(ctx context.Context, params *session.UpdateUserLocalStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.updateUser(params.SessionId, params.UserId, func(u *session.User) {
		if params.Volume != nil {
			u.Volume = *params.Volume
		}
		if params.Muted != nil {
			u.Muted = *params.Muted
		}
	})
}

func (r *repo) UpdateVideoState(ctx context.Context, params *session.UpdateVideoStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[params.SessionId]
	if !ok {
		return session.ErrSessionNotFound
	}

	if params.IsPlaying != nil {
		s.VideoState.IsPlaying = *params.IsPlaying
	}
	if params.CurrentTime != nil {
		s.VideoState.CurrentTime = *params.CurrentTime
	}
	if params.Duration != nil {
		s.VideoState.Duration = *params.Duration
	}
	if params.PlaybackRate != nil {
		s.VideoState.PlaybackRate = *params.PlaybackRate
	}
	if params.Quality != nil {
		s.VideoState.Quality = *params.Quality
	}
	s.UpdatedAt = params.UpdatedAt
	r.sessions[params.SessionId] = s
	return nil
}

func (r *repo) UpdateVideo(ctx context.Context, params *session.UpdateVideoParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[params.SessionId]
	if !ok {
		return session.ErrSessionNotFound
	}

	s.VideoURL = params.VideoURL
	s.VideoId = params.VideoId
	s.VideoState.IsPlaying = params.IsPlaying
	s.VideoState.CurrentTime = params.CurrentTime
	s.VideoState.Duration = params.Duration
	s.UpdatedAt = params.UpdatedAt
	r.sessions[params.SessionId] = s
	return nil
}
