package redis

import (
	"context"
	"fmt"

	"github.com/sharetube/watchtogether/internal/repository/session"
)

func (r repo) getSessionKey(sessionId string) string {
	return "session:" + sessionId
}

func (r repo) getVideoStateKey(sessionId string) string {
	return "session:" + sessionId + ":video-state"
}

func (r repo) getUserListKey(sessionId string) string {
	return "session:" + sessionId + ":users"
}

func (r repo) getUserKey(sessionId, userId string) string {
	return "session:" + sessionId + ":user:" + userId
}

func (r repo) CreateSession(ctx context.Context, s *session.Session) error {
	r.logger.DebugContext(ctx, "called", "session_id", s.Id)
	sessionKey := r.getSessionKey(s.Id)

	created, err := r.rc.HSetNX(ctx, sessionKey, "video_id", s.VideoId).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if !created {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSessionAlreadyExists)
		return session.ErrSessionAlreadyExists
	}

	if err := r.fillSession(ctx, s); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		if delErr := r.rc.Del(ctx, r.sessionKeys(s)...).Err(); delErr != nil {
			r.logger.WarnContext(ctx, "failed to clean up partially created session", "session_id", s.Id, "error", delErr)
		}
		return err
	}

	return nil
}

// sessionKeys lists every key written for s.
func (r repo) sessionKeys(s *session.Session) []string {
	keys := []string{
		r.getSessionKey(s.Id),
		r.getVideoStateKey(s.Id),
		r.getUserListKey(s.Id),
	}
	for _, user := range s.Users {
		keys = append(keys, r.getUserKey(s.Id, user.Id))
	}

	return keys
}

// fillSession writes the fields of a session whose key was just claimed.
func (r repo) fillSession(ctx context.Context, s *session.Session) error {
	sessionKey := r.getSessionKey(s.Id)
	if err := r.rc.Expire(ctx, sessionKey, r.expireDuration).Err(); err != nil {
		return err
	}

	pipe := r.rc.TxPipeline()

	r.hSetStruct(ctx, pipe, sessionKey, s)

	videoStateKey := r.getVideoStateKey(s.Id)
	r.hSetStruct(ctx, pipe, videoStateKey, s.VideoState)
	pipe.Expire(ctx, videoStateKey, r.expireDuration)

	for _, user := range s.Users {
		userKey := r.getUserKey(s.Id, user.Id)
		r.hSetStruct(ctx, pipe, userKey, user)
		pipe.Expire(ctx, userKey, r.expireDuration)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		return err
	}

	userListKey := r.getUserListKey(s.Id)
	for _, user := range s.Users {
		if err := r.addWithIncrement(ctx, userListKey, user.Id); err != nil {
			return err
		}
	}

	return r.rc.Expire(ctx, userListKey, r.expireDuration).Err()
}

func (r repo) IsSessionExists(ctx context.Context, sessionId string) (bool, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionId)
	res, err := r.rc.Exists(ctx, r.getSessionKey(sessionId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return false, fmt.Errorf("failed to check if session exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) getUserIds(ctx context.Context, sessionId string) ([]string, error) {
	return r.rc.ZRange(ctx, r.getUserListKey(sessionId), 0, -1).Result()
}

func (r repo) GetSession(ctx context.Context, sessionId string) (session.Session, error) {
	r.logger.DebugContext(ctx, "called", "session_id", sessionId)

	var s session.Session
	if err := r.rc.HGetAll(ctx, r.getSessionKey(sessionId)).Scan(&s); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Session{}, err
	}

	if s.VideoId == "" {
		r.logger.DebugContext(ctx, "returned", "error", session.ErrSessionNotFound)
		return session.Session{}, session.ErrSessionNotFound
	}
	s.Id = sessionId

	if err := r.rc.HGetAll(ctx, r.getVideoStateKey(sessionId)).Scan(&s.VideoState); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Session{}, err
	}

	userIds, err := r.getUserIds(ctx, sessionId)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Session{}, err
	}

	s.Users = make([]session.User, 0, len(userIds))
	for _, userId := range userIds {
		user, err := r.getUser(ctx, sessionId, userId)
		if err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return session.Session{}, err
		}

		s.Users = append(s.Users, user)
	}

	if err := r.expireSession(ctx, sessionId, userIds); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return session.Session{}, err
	}

	return s, nil
}

// expireSession pushes back the expiration of every key of the session.
func (r repo) expireSession(ctx context.Context, sessionId string, userIds []string) error {
	pipe := r.rc.Pipeline()
	pipe.Expire(ctx, r.getSessionKey(sessionId), r.expireDuration)
	pipe.Expire(ctx, r.getVideoStateKey(sessionId), r.expireDuration)
	pipe.Expire(ctx, r.getUserListKey(sessionId), r.expireDuration)
	for _, userId := range userIds {
		pipe.Expire(ctx, r.getUserKey(sessionId, userId), r.expireDuration)
	}

	return r.executePipe(ctx, pipe)
}

func (r repo) DeleteSession(ctx context.Context, sessionId string) error {
	r.logger.DebugContext(ctx, "called", "session_id", sessionId)
	if err := r.requireKey(ctx, r.getSessionKey(sessionId), session.ErrSessionNotFound); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	userIds, err := r.getUserIds(ctx, sessionId)
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	keys := []string{
		r.getSessionKey(sessionId),
		r.getVideoStateKey(sessionId),
		r.getUserListKey(sessionId),
	}
	for _, userId := range userIds {
		keys = append(keys, r.getUserKey(sessionId, userId))
	}

	if err := r.rc.Del(ctx, keys...).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
