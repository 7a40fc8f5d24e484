package session

type User struct {
	Id       string  `json:"id"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar"`
	Role     string  `json:"role"`
	Order    int     `json:"order,omitempty"`
	IsOnline bool    `json:"is_online"`
}

type VideoState struct {
	IsPlaying    bool    `json:"is_playing"`
	CurrentTime  float64 `json:"current_time"`
	Duration     float64 `json:"duration"`
	PlaybackRate float64 `json:"playback_rate"`
	Quality      string  `json:"quality"`
}

// LocalVideoState is a user's own playback preferences.
type LocalVideoState struct {
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
}

type Session struct {
	Id             string     `json:"id"`
	VideoURL       string     `json:"video_url"`
	VideoId        string     `json:"video_id"`
	CreatedAt      int64      `json:"created_at"`
	UpdatedAt      int64      `json:"updated_at"`
	PrimaryUsers   []User     `json:"primary_users"`
	SecondaryUsers []User     `json:"secondary_users"`
	VideoState     VideoState `json:"video_state"`
}
