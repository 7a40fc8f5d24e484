package redis

import (
	"context"

	"github.com/sharetube/watchtogether/internal/repository/session"
	"github.com/sharetube/watchtogether/pkg/omitnil"
)

func (r repo) UpdateVideoState(ctx context.Context, params *session.UpdateVideoStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	videoStateKey := r.getVideoStateKey(params.SessionId)
	if err := r.requireKey(ctx, videoStateKey, session.ErrSessionNotFound); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	fields := omitnil.Fields(map[string]any{
		"is_playing":    params.IsPlaying,
		"current_time":  params.CurrentTime,
		"duration":      params.Duration,
		"playback_rate": params.PlaybackRate,
		"quality":       params.Quality,
	})

	pipe := r.rc.TxPipeline()
	if len(fields) > 0 {
		pipe.HSet(ctx, videoStateKey, fields)
	}
	pipe.HSet(ctx, r.getSessionKey(params.SessionId), "updated_at", params.UpdatedAt)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateVideo(ctx context.Context, params *session.UpdateVideoParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	sessionKey := r.getSessionKey(params.SessionId)
	if err := r.requireKey(ctx, sessionKey, session.ErrSessionNotFound); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, sessionKey,
		"video_url", params.VideoURL,
		"video_id", params.VideoId,
		"updated_at", params.UpdatedAt,
	)
	pipe.HSet(ctx, r.getVideoStateKey(params.SessionId),
		"is_playing", params.IsPlaying,
		"current_time", params.CurrentTime,
		"duration", params.Duration,
	)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
