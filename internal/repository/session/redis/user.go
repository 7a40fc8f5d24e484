package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/sharetube/watchtogether/internal/repository/session"
	"github.com/sharetube/watchtogether/pkg/omitnil"
)

func (r repo) getUser(ctx context.Context, sessionId, userId string) (session.User, error) {
	var user session.User
	res := r.rc.HGetAll(ctx, r.getUserKey(sessionId, userId))
	if err := res.Err(); err != nil {
		return session.User{}, err
	}

	if len(res.Val()) == 0 {
		return session.User{}, session.ErrUserNotFound
	}

	if err := res.Scan(&user); err != nil {
		return session.User{}, err
	}
	user.Id = userId

	return user, nil
}

func (r repo) GetUsersCount(ctx context.Context, sessionId string) (int, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionId)
	count, err := r.rc.ZCard(ctx, r.getUserListKey(sessionId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return 0, err
	}

	return int(count), nil
}

func (r repo) AddUser(ctx context.Context, params *session.AddUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.requireKey(ctx, r.getSessionKey(params.SessionId), session.ErrSessionNotFound); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	userKey := r.getUserKey(params.SessionId, params.User.Id)
	exists, err := r.rc.Exists(ctx, userKey).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if exists > 0 {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrUserAlreadyExists)
		return session.ErrUserAlreadyExists
	}

	pipe := r.rc.TxPipeline()
	r.hSetStruct(ctx, pipe, userKey, params.User)
	pipe.Expire(ctx, userKey, r.expireDuration)
	pipe.HSet(ctx, r.getSessionKey(params.SessionId), "updated_at", params.UpdatedAt)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	userListKey := r.getUserListKey(params.SessionId)
	if err := r.addWithIncrement(ctx, userListKey, params.User.Id); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}
	if err := r.rc.Expire(ctx, userListKey, r.expireDuration).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) RemoveUser(ctx context.Context, params *session.RemoveUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	userListKey := r.getUserListKey(params.SessionId)
	if err := r.rc.ZScore(ctx, userListKey, params.UserId).Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			err = session.ErrUserNotFound
		}
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	for _, role := range params.Roles {
		if err := r.requireKey(ctx, r.getUserKey(params.SessionId, role.UserId), session.ErrUserNotFound); err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return err
		}
	}

	pipe := r.rc.TxPipeline()
	pipe.ZRem(ctx, userListKey, params.UserId)
	pipe.Del(ctx, r.getUserKey(params.SessionId, params.UserId))
	for _, role := range params.Roles {
		pipe.HSet(ctx, r.getUserKey(params.SessionId, role.UserId), "role", role.Role, "order", role.Order)
	}
	pipe.HSet(ctx, r.getSessionKey(params.SessionId), "updated_at", params.UpdatedAt)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateUserRoles(ctx context.Context, params *session.UpdateUserRolesParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	for _, role := range params.Roles {
		if err := r.requireKey(ctx, r.getUserKey(params.SessionId, role.UserId), session.ErrUserNotFound); err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return err
		}
	}

	pipe := r.rc.TxPipeline()
	for _, role := range params.Roles {
		pipe.HSet(ctx, r.getUserKey(params.SessionId, role.UserId), "role", role.Role, "order", role.Order)
	}
	pipe.HSet(ctx, r.getSessionKey(params.SessionId), "updated_at", params.UpdatedAt)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateUserIsOnline(ctx context.Context, params *session.UpdateUserIsOnlineParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	userKey := r.getUserKey(params.SessionId, params.UserId)
	if err := r.requireKey(ctx, userKey, session.ErrUserNotFound); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if err := r.rc.HSet(ctx, userKey, "is_online", params.IsOnline).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateUserLocalState(ctx context.Context, params *session.UpdateUserLocalStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	userKey := r.getUserKey(params.SessionId, params.UserId)
	if err := r.requireKey(ctx, userKey, session.ErrUserNotFound); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	fields := omitnil.Fields(map[string]any{
		"volume": params.Volume,
		"muted":  params.Muted,
	})
	if len(fields) == 0 {
		return nil
	}

	if err := r.rc.HSet(ctx, userKey, fields).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
