package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchtogether/internal/repository/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, slog.Default(), time.Hour), s
}

func newTestSession() *session.Session {
	return &session.Session{
		Id:        "abc1234",
		VideoURL:  "https://youtu.be/dQw4w9WgXcQ",
		VideoId:   "dQw4w9WgXcQ",
		CreatedAt: 1000,
		UpdatedAt: 1000,
		Users: []session.User{
			{Id: "admin", Name: "alice", Role: "admin", Volume: 0.5},
		},
		VideoState: session.VideoState{
			Volume:       0.5,
			PlaybackRate: 1,
			Quality:      "auto",
		},
	}
}

func TestCreateAndGetSession(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateSession(ctx, newTestSession()))

	s, err := r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "abc1234", s.Id)
	assert.Equal(t, "dQw4w9WgXcQ", s.VideoId)
	assert.Equal(t, int64(1000), s.CreatedAt)
	assert.Equal(t, "auto", s.VideoState.Quality)
	assert.Equal(t, 1.0, s.VideoState.PlaybackRate)
	assert.False(t, s.VideoState.IsPlaying)
	require.Len(t, s.Users, 1)
	assert.Equal(t, "admin", s.Users[0].Id)
	assert.Equal(t, "alice", s.Users[0].Name)
	assert.Equal(t, "admin", s.Users[0].Role)

	exists, err := r.IsSessionExists(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateSessionSetsExpiration(t *testing.T) {
	r, mr := newTestRepo(t)
	require.NoError(t, r.CreateSession(context.Background(), newTestSession()))

	for _, key := range []string{
		"session:abc1234",
		"session:abc1234:video-state",
		"session:abc1234:users",
		"session:abc1234:user:admin",
	} {
		assert.Equal(t, time.Hour, mr.TTL(key), key)
	}
}

func TestCreateSessionCleansUpOnFailure(t *testing.T) {
	r, mr := newTestRepo(t)
	ctx := context.Background()

	// a user list of the wrong type makes the ordered insert fail after the session key is claimed
	require.NoError(t, mr.Set("session:abc1234:users", "garbage"))

	assert.Error(t, r.CreateSession(ctx, newTestSession()))
	assert.False(t, mr.Exists("session:abc1234"))
	assert.False(t, mr.Exists("session:abc1234:user:admin"))

	require.NoError(t, r.CreateSession(ctx, newTestSession()))
	_, err := r.GetSession(ctx, "abc1234")
	assert.NoError(t, err)
}

func TestCreateSessionAlreadyExists(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, r.CreateSession(ctx, newTestSession()))
	assert.ErrorIs(t, r.CreateSession(ctx, newTestSession()), session.ErrSessionAlreadyExists)
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := newTestRepo(t)

	_, err := r.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestUsersKeepJoinOrder(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSession(ctx, newTestSession()))

	for _, id := range []string{"u1", "u2", "u3"} {
		require.NoError(t, r.AddUser(ctx, &session.AddUserParams{
			SessionId: "abc1234",
			User:      session.User{Id: id, Name: id, Role: "secondary", Volume: 0.5},
			UpdatedAt: 2000,
		}))
	}

	require.NoError(t, r.RemoveUser(ctx, &session.RemoveUserParams{
		SessionId: "abc1234",
		UserId:    "u2",
		UpdatedAt: 3000,
	}))
	require.NoError(t, r.AddUser(ctx, &session.AddUserParams{
		SessionId: "abc1234",
		User:      session.User{Id: "u4", Name: "u4", Role: "secondary"},
		UpdatedAt: 4000,
	}))

	s, err := r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	ids := make([]string, 0, len(s.Users))
	for _, u := range s.Users {
		ids = append(ids, u.Id)
	}
	assert.Equal(t, []string{"admin", "u1", "u3", "u4"}, ids)
	assert.Equal(t, int64(4000), s.UpdatedAt)

	count, err := r.GetUsersCount(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestAddUserErrors(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	err := r.AddUser(ctx, &session.AddUserParams{SessionId: "missing", User: session.User{Id: "u1"}})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	require.NoError(t, r.CreateSession(ctx, newTestSession()))
	err = r.AddUser(ctx, &session.AddUserParams{SessionId: "abc1234", User: session.User{Id: "admin"}})
	assert.ErrorIs(t, err, session.ErrUserAlreadyExists)

	err = r.RemoveUser(ctx, &session.RemoveUserParams{SessionId: "abc1234", UserId: "nobody"})
	assert.ErrorIs(t, err, session.ErrUserNotFound)
}

func TestRemoveUserAppliesRoles(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSession(ctx, newTestSession()))
	require.NoError(t, r.AddUser(ctx, &session.AddUserParams{
		SessionId: "abc1234",
		User:      session.User{Id: "u1", Name: "u1", Role: "primary", Order: 1},
	}))
	require.NoError(t, r.AddUser(ctx, &session.AddUserParams{
		SessionId: "abc1234",
		User:      session.User{Id: "u2", Name: "u2", Role: "primary", Order: 2},
	}))

	err := r.RemoveUser(ctx, &session.RemoveUserParams{
		SessionId: "abc1234",
		UserId:    "admin",
		Roles:     []session.UserRole{{UserId: "ghost", Role: "admin"}},
	})
	assert.ErrorIs(t, err, session.ErrUserNotFound)

	s, err := r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	require.Len(t, s.Users, 3, "a rejected removal must not change the roster")
	assert.Equal(t, "admin", s.Users[0].Role)

	require.NoError(t, r.RemoveUser(ctx, &session.RemoveUserParams{
		SessionId: "abc1234",
		UserId:    "admin",
		Roles: []session.UserRole{
			{UserId: "u1", Role: "admin"},
			{UserId: "u2", Role: "primary", Order: 1},
		},
		UpdatedAt: 5000,
	}))

	s, err = r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	require.Len(t, s.Users, 2)
	assert.Equal(t, "u1", s.Users[0].Id)
	assert.Equal(t, "admin", s.Users[0].Role)
	assert.Equal(t, 0, s.Users[0].Order)
	assert.Equal(t, "primary", s.Users[1].Role)
	assert.Equal(t, 1, s.Users[1].Order)
	assert.Equal(t, int64(5000), s.UpdatedAt)
}

func TestUpdateUserRolesAndFlags(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSession(ctx, newTestSession()))
	require.NoError(t, r.AddUser(ctx, &session.AddUserParams{
		SessionId: "abc1234",
		User:      session.User{Id: "u1", Name: "bob", Role: "secondary", Volume: 0.5},
	}))

	require.NoError(t, r.UpdateUserRoles(ctx, &session.UpdateUserRolesParams{
		SessionId: "abc1234",
		Roles:     []session.UserRole{{UserId: "u1", Role: "primary", Order: 1}},
		UpdatedAt: 5000,
	}))
	require.NoError(t, r.UpdateUserIsOnline(ctx, &session.UpdateUserIsOnlineParams{
		SessionId: "abc1234",
		UserId:    "u1",
		IsOnline:  true,
	}))
	muted := true
	require.NoError(t, r.UpdateUserLocalState(ctx, &session.UpdateUserLocalStateParams{
		SessionId: "abc1234",
		UserId:    "u1",
		Muted:     &muted,
	}))

	s, err := r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	require.Len(t, s.Users, 2)
	u := s.Users[1]
	assert.Equal(t, "primary", u.Role)
	assert.Equal(t, 1, u.Order)
	assert.True(t, u.IsOnline)
	assert.True(t, u.Muted)
	assert.Equal(t, 0.5, u.Volume)

	err = r.UpdateUserRoles(ctx, &session.UpdateUserRolesParams{
		SessionId: "abc1234",
		Roles:     []session.UserRole{{UserId: "ghost", Role: "primary", Order: 2}},
	})
	assert.ErrorIs(t, err, session.ErrUserNotFound)
}

func TestUpdateVideoState(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSession(ctx, newTestSession()))

	playing := true
	currentTime := 42.5
	require.NoError(t, r.UpdateVideoState(ctx, &session.UpdateVideoStateParams{
		SessionId:   "abc1234",
		IsPlaying:   &playing,
		CurrentTime: &currentTime,
		UpdatedAt:   6000,
	}))

	s, err := r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	assert.True(t, s.VideoState.IsPlaying)
	assert.Equal(t, 42.5, s.VideoState.CurrentTime)
	assert.Equal(t, "auto", s.VideoState.Quality)
	assert.Equal(t, int64(6000), s.UpdatedAt)

	require.NoError(t, r.UpdateVideo(ctx, &session.UpdateVideoParams{
		SessionId: "abc1234",
		VideoURL:  "https://www.youtube.com/watch?v=9bZkp7q19f0",
		VideoId:   "9bZkp7q19f0",
		UpdatedAt: 7000,
	}))

	s, err = r.GetSession(ctx, "abc1234")
	require.NoError(t, err)
	assert.Equal(t, "9bZkp7q19f0", s.VideoId)
	assert.False(t, s.VideoState.IsPlaying)
	assert.Equal(t, 0.0, s.VideoState.CurrentTime)

	err = r.UpdateVideoState(ctx, &session.UpdateVideoStateParams{SessionId: "missing"})
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	r, mr := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSession(ctx, newTestSession()))

	require.NoError(t, r.DeleteSession(ctx, "abc1234"))
	assert.Empty(t, mr.Keys())
	assert.ErrorIs(t, r.DeleteSession(ctx, "abc1234"), session.ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	r, mr := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.CreateSession(ctx, newTestSession()))

	mr.FastForward(30 * time.Minute)
	_, err := r.GetSession(ctx, "abc1234")
	require.NoError(t, err)

	mr.FastForward(59 * time.Minute)
	_, err = r.GetSession(ctx, "abc1234")
	require.NoError(t, err, "reads must refresh expiration")

	mr.FastForward(2 * time.Hour)
	_, err = r.GetSession(ctx, "abc1234")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}
