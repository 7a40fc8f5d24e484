package domain

type User struct {
	Id       string
	Name     string
	Avatar   *string
	Role     Role
	IsOnline bool
	// Volume and Muted are the user's own playback preferences and are never shared.
	Volume float64
	Muted  bool
}

func (u User) IsAdmin() bool {
	_, ok := u.Role.(Admin)
	return ok
}

func NewUser(id, name string, avatar *string, role Role) User {
	return User{
		Id:     id,
		Name:   name,
		Avatar: avatar,
		Role:   role,
		Volume: DefaultVolume,
	}
}
