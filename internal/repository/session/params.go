package session

type AddUserParams struct {
	SessionId string
	User      User
	UpdatedAt int64
}

// RemoveUserParams removes a user and applies the resulting role changes of the remaining
// users in the same write.
type RemoveUserParams struct {
	SessionId string
	UserId    string
	Roles     []UserRole
	UpdatedAt int64
}

type UserRole struct {
	UserId string
	Role   string
	Order  int
}

type UpdateUserRolesParams struct {
	SessionId string
	Roles     []UserRole
	UpdatedAt int64
}

type UpdateUserIsOnlineParams struct {
	SessionId string
	UserId    string
	IsOnline  bool
}

type UpdateUserLocalStateParams struct {
	SessionId string
	UserId    string
	Volume    *float64
	Muted     *bool
}

type UpdateVideoStateParams struct {
	SessionId    string
	IsPlaying    *bool
	CurrentTime  *float64
	Duration     *float64
	PlaybackRate *float64
	Quality      *string
	UpdatedAt    int64
}

type UpdateVideoParams struct {
	SessionId   string
	VideoURL    string
	VideoId     string
	IsPlaying   bool
	CurrentTime float64
	Duration    float64
	UpdatedAt   int64
}
