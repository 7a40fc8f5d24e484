package session

type Session struct {
	Id         string     `redis:"-"`
	VideoURL   string     `redis:"video_url"`
	VideoId    string     `redis:"video_id"`
	CreatedAt  int64      `redis:"created_at"`
	UpdatedAt  int64      `redis:"updated_at"`
	Users      []User     `redis:"-"`
	VideoState VideoState `redis:"-"`
}

type User struct {
	Id       string  `redis:"-"`
	Name     string  `redis:"name"`
	Avatar   string  `redis:"avatar"`
	Role     string  `redis:"role"`
	Order    int     `redis:"order"`
	IsOnline bool    `redis:"is_online"`
	Volume   float64 `redis:"volume"`
	Muted    bool    `redis:"muted"`
}

type VideoState struct {
	IsPlaying    bool    `redis:"is_playing"`
	CurrentTime  float64 `redis:"current_time"`
	Duration     float64 `redis:"duration"`
	Volume       float64 `redis:"volume"`
	Muted        bool    `redis:"muted"`
	PlaybackRate float64 `redis:"playback_rate"`
	Quality      string  `redis:"quality"`
}
