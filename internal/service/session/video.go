package session

import (
	"context"
	"fmt"

	"github.com/sharetube/watchtogether/internal/domain"
	"github.com/sharetube/watchtogether/internal/repository/connection"
	"github.com/sharetube/watchtogether/internal/repository/session"
	"github.com/sharetube/watchtogether/pkg/ytvideo"
)

type PerformVideoActionParams struct {
	SessionId string
	SenderId  string
	Type      string
	Time      *float64
	Volume    *float64
	Quality   string
}

type PerformVideoActionResponse struct {
	// IsLocal is set for actions that only changed the sender's own preferences.
	IsLocal         bool
	VideoState      VideoState
	LocalVideoState LocalVideoState
	UpdatedAt       int64
	// Conns receive the result: every user for shared actions, the sender for local ones.
	Conns []*connection.Conn
}

func (s service) PerformVideoAction(ctx context.Context, params *PerformVideoActionParams) (PerformVideoActionResponse, error) {
	actionType, err := domain.ParseActionType(params.Type)
	if err != nil {
		return PerformVideoActionResponse{}, err
	}

	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return PerformVideoActionResponse{}, err
	}

	if err := domain.PerformVideoAction(&sess, domain.VideoAction{
		Type:    actionType,
		UserId:  params.SenderId,
		Time:    params.Time,
		Volume:  params.Volume,
		Quality: params.Quality,
	}); err != nil {
		s.logger.DebugContext(ctx, "video action rejected", "type", actionType, "error", err)
		return PerformVideoActionResponse{}, err
	}

	sender, err := sess.User(params.SenderId)
	if err != nil {
		return PerformVideoActionResponse{}, err
	}

	if actionType.IsLocal() {
		if err := s.sessionRepo.UpdateUserLocalState(ctx, &session.UpdateUserLocalStateParams{
			SessionId: sess.Id,
			UserId:    sender.Id,
			Volume:    &sender.Volume,
			Muted:     &sender.Muted,
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to update user local state", "error", err)
			return PerformVideoActionResponse{}, fmt.Errorf("failed to update user local state: %w", err)
		}

		resp := PerformVideoActionResponse{
			IsLocal:         true,
			VideoState:      toVideoState(sess.VideoState),
			LocalVideoState: toLocalVideoState(*sender),
			UpdatedAt:       sess.UpdatedAt.UnixMilli(),
		}
		if conn, err := s.connRepo.GetConn(sender.Id); err == nil {
			resp.Conns = []*connection.Conn{conn}
		}

		return resp, nil
	}

	sess.UpdatedAt = s.now()
	if err := s.saveVideoState(ctx, sess); err != nil {
		return PerformVideoActionResponse{}, err
	}

	return PerformVideoActionResponse{
		VideoState:      toVideoState(sess.VideoState),
		LocalVideoState: toLocalVideoState(*sender),
		UpdatedAt:       sess.UpdatedAt.UnixMilli(),
		Conns:           s.getConns(sess.Users),
	}, nil
}

func (s service) saveVideoState(ctx context.Context, sess domain.Session) error {
	v := sess.VideoState
	if err := s.sessionRepo.UpdateVideoState(ctx, &session.UpdateVideoStateParams{
		SessionId:    sess.Id,
		IsPlaying:    &v.IsPlaying,
		CurrentTime:  &v.CurrentTime,
		Duration:     &v.Duration,
		PlaybackRate: &v.PlaybackRate,
		Quality:      &v.Quality,
		UpdatedAt:    sess.UpdatedAt.UnixMilli(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update video state", "error", err)
		return fmt.Errorf("failed to update video state: %w", err)
	}

	return nil
}

type UpdateVideoStateParams struct {
	SessionId    string
	SenderId     string
	IsPlaying    *bool
	CurrentTime  *float64
	Duration     *float64
	PlaybackRate *float64
	Quality      *string
}

type UpdateVideoStateResponse struct {
	VideoState VideoState
	UpdatedAt  int64
	Conns      []*connection.Conn
}

func (s service) UpdateVideoState(ctx context.Context, params *UpdateVideoStateParams) (UpdateVideoStateResponse, error) {
	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return UpdateVideoStateResponse{}, err
	}

	if err := domain.UpdateVideoState(&sess, params.SenderId, domain.VideoStatePatch{
		IsPlaying:    params.IsPlaying,
		CurrentTime:  params.CurrentTime,
		Duration:     params.Duration,
		PlaybackRate: params.PlaybackRate,
		Quality:      params.Quality,
	}); err != nil {
		s.logger.DebugContext(ctx, "video state update rejected", "error", err)
		return UpdateVideoStateResponse{}, err
	}
	sess.UpdatedAt = s.now()

	if err := s.saveVideoState(ctx, sess); err != nil {
		return UpdateVideoStateResponse{}, err
	}

	return UpdateVideoStateResponse{
		VideoState: toVideoState(sess.VideoState),
		UpdatedAt:  sess.UpdatedAt.UnixMilli(),
		Conns:      s.getConns(sess.Users),
	}, nil
}

type SetVideoURLParams struct {
	SessionId string
	SenderId  string
	VideoURL  string
}

type SetVideoURLResponse struct {
	VideoURL   string
	VideoId    string
	VideoState VideoState
	UpdatedAt  int64
	Conns      []*connection.Conn
}

func (s service) SetVideoURL(ctx context.Context, params *SetVideoURLParams) (SetVideoURLResponse, error) {
	videoId, err := ytvideo.ExtractID(params.VideoURL)
	if err != nil {
		return SetVideoURLResponse{}, ErrInvalidVideoUrl
	}

	unlock := s.locks.Lock(params.SessionId)
	defer unlock()

	sess, err := s.getSession(ctx, params.SessionId)
	if err != nil {
		return SetVideoURLResponse{}, err
	}

	if err := domain.ChangeVideo(&sess, params.SenderId, params.VideoURL, videoId); err != nil {
		return SetVideoURLResponse{}, err
	}
	sess.UpdatedAt = s.now()

	if err := s.sessionRepo.UpdateVideo(ctx, &session.UpdateVideoParams{
		SessionId:   sess.Id,
		VideoURL:    sess.VideoURL,
		VideoId:     sess.VideoId,
		IsPlaying:   sess.VideoState.IsPlaying,
		CurrentTime: sess.VideoState.CurrentTime,
		Duration:    sess.VideoState.Duration,
		UpdatedAt:   sess.UpdatedAt.UnixMilli(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update video", "error", err)
		return SetVideoURLResponse{}, fmt.Errorf("failed to update video: %w", err)
	}

	s.logger.InfoContext(ctx, "video changed", "session_id", sess.Id, "video_id", videoId)
	return SetVideoURLResponse{
		VideoURL:   sess.VideoURL,
		VideoId:    sess.VideoId,
		VideoState: toVideoState(sess.VideoState),
		UpdatedAt:  sess.UpdatedAt.UnixMilli(),
		Conns:      s.getConns(sess.Users),
	}, nil
}
