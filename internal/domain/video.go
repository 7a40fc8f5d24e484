package domain

import (
	"fmt"
	"math"
)

const (
	DefaultVolume       = 0.5
	DefaultPlaybackRate = 1.0
	DefaultQuality      = "auto"
)

type VideoState struct {
	IsPlaying    bool
	CurrentTime  float64
	Duration     float64
	Volume       float64
	Muted        bool
	PlaybackRate float64
	Quality      string
}

func DefaultVideoState() VideoState {
	return VideoState{
		IsPlaying:    false,
		CurrentTime:  0,
		Duration:     0,
		Volume:       DefaultVolume,
		Muted:        false,
		PlaybackRate: DefaultPlaybackRate,
		Quality:      DefaultQuality,
	}
}

// clampTime keeps t within [0, duration]; an unknown (zero) duration only bounds below.
func (v VideoState) clampTime(t float64) float64 {
	if t < 0 {
		return 0
	}

	if v.Duration > 0 && t > v.Duration {
		return v.Duration
	}

	return t
}

func clampVolume(volume float64) float64 {
	return math.Min(1, math.Max(0, volume))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// VideoStatePatch holds the fields of a partial video state update; nil fields are kept.
type VideoStatePatch struct {
	IsPlaying    *bool
	CurrentTime  *float64
	Duration     *float64
	PlaybackRate *float64
	Quality      *string
}

func (p VideoStatePatch) IsEmpty() bool {
	return p.IsPlaying == nil && p.CurrentTime == nil && p.Duration == nil && p.PlaybackRate == nil && p.Quality == nil
}

func (v VideoState) Merge(p VideoStatePatch) (VideoState, error) {
	if p.IsPlaying != nil {
		v.IsPlaying = *p.IsPlaying
	}

	if p.Duration != nil {
		if !isFinite(*p.Duration) || *p.Duration < 0 {
			return VideoState{}, fmt.Errorf("%w: duration %v", ErrInvalidVideoState, *p.Duration)
		}
		v.Duration = *p.Duration
	}

	if p.CurrentTime != nil {
		if !isFinite(*p.CurrentTime) {
			return VideoState{}, fmt.Errorf("%w: current time %v", ErrInvalidVideoState, *p.CurrentTime)
		}
		v.CurrentTime = *p.CurrentTime
	}
	v.CurrentTime = v.clampTime(v.CurrentTime)

	if p.PlaybackRate != nil {
		if !isFinite(*p.PlaybackRate) || *p.PlaybackRate <= 0 {
			return VideoState{}, fmt.Errorf("%w: playback rate %v", ErrInvalidVideoState, *p.PlaybackRate)
		}
		v.PlaybackRate = *p.PlaybackRate
	}

	if p.Quality != nil {
		if *p.Quality == "" {
			return VideoState{}, fmt.Errorf("%w: empty quality", ErrInvalidVideoState)
		}
		v.Quality = *p.Quality
	}

	return v, nil
}

type ActionType string

const (
	ActionPlay    ActionType = "play"
	ActionPause   ActionType = "pause"
	ActionSeek    ActionType = "seek"
	ActionVolume  ActionType = "volume"
	ActionMute    ActionType = "mute"
	ActionUnmute  ActionType = "unmute"
	ActionQuality ActionType = "quality"
)

func ParseActionType(s string) (ActionType, error) {
	switch t := ActionType(s); t {
	case ActionPlay, ActionPause, ActionSeek, ActionVolume, ActionMute, ActionUnmute, ActionQuality:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidActionType, s)
	}
}

// IsLocal reports whether the action only affects the sender's own playback preferences.
func (t ActionType) IsLocal() bool {
	switch t {
	case ActionVolume, ActionMute, ActionUnmute:
		return true
	default:
		return false
	}
}

type VideoAction struct {
	Type   ActionType
	UserId string
	// Time is the seek target in seconds. Required for seek.
	Time *float64
	// Volume is the requested volume in [0, 1]. Required for volume.
	Volume  *float64
	Quality string
}

func CanPerform(r Role, t ActionType) bool {
	if t.IsLocal() {
		return true
	}

	return CanControlPlayback(r)
}

func ApplyVideoAction(v VideoState, a VideoAction) (VideoState, error) {
	switch a.Type {
	case ActionPlay:
		v.IsPlaying = true
	case ActionPause:
		v.IsPlaying = false
	case ActionSeek:
		if a.Time == nil {
			return VideoState{}, fmt.Errorf("%w: missing seek time", ErrInvalidActionPayload)
		}
		if !isFinite(*a.Time) {
			return VideoState{}, fmt.Errorf("%w: seek time %v", ErrInvalidActionPayload, *a.Time)
		}
		v.CurrentTime = v.clampTime(*a.Time)
	case ActionVolume:
		if a.Volume == nil {
			return VideoState{}, fmt.Errorf("%w: missing volume", ErrInvalidActionPayload)
		}
		if !isFinite(*a.Volume) {
			return VideoState{}, fmt.Errorf("%w: volume %v", ErrInvalidActionPayload, *a.Volume)
		}
		v.Volume = clampVolume(*a.Volume)
	case ActionMute:
		v.Muted = true
	case ActionUnmute:
		v.Muted = false
	case ActionQuality:
		if a.Quality == "" {
			return VideoState{}, fmt.Errorf("%w: empty quality", ErrInvalidActionPayload)
		}
		v.Quality = a.Quality
	default:
		return VideoState{}, fmt.Errorf("%w: %q", ErrInvalidActionType, a.Type)
	}

	return v, nil
}

// PerformVideoAction applies a on behalf of its sender. Local actions change only the
// sender's preferences; everything else changes the shared video state.
func PerformVideoAction(s *Session, a VideoAction) error {
	sender, err := s.User(a.UserId)
	if err != nil {
		return err
	}

	if !CanPerform(sender.Role, a.Type) {
		return ErrPermissionDenied
	}

	if a.Type.IsLocal() {
		local := s.VideoState
		local.Volume = sender.Volume
		local.Muted = sender.Muted

		applied, err := ApplyVideoAction(local, a)
		if err != nil {
			return err
		}

		sender.Volume = applied.Volume
		sender.Muted = applied.Muted
		return nil
	}

	applied, err := ApplyVideoAction(s.VideoState, a)
	if err != nil {
		return err
	}
	s.VideoState = applied

	return nil
}

func UpdateVideoState(s *Session, callerId string, p VideoStatePatch) error {
	caller, err := s.User(callerId)
	if err != nil {
		return err
	}

	if !CanControlPlayback(caller.Role) {
		return ErrPermissionDenied
	}

	if p.IsEmpty() {
		return fmt.Errorf("%w: empty update", ErrInvalidVideoState)
	}

	merged, err := s.VideoState.Merge(p)
	if err != nil {
		return err
	}
	s.VideoState = merged

	return nil
}

// ChangeVideo switches the session video and rewinds playback. Admin only.
func ChangeVideo(s *Session, callerId, videoURL, videoId string) error {
	if _, err := s.requireAdmin(callerId); err != nil {
		return err
	}

	s.VideoURL = videoURL
	s.VideoId = videoId
	s.VideoState.IsPlaying = false
	s.VideoState.CurrentTime = 0
	s.VideoState.Duration = 0

	return nil
}
