package domain

import (
	"slices"
	"time"
)

type Session struct {
	Id         string
	VideoURL   string
	VideoId    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Users      []User
	VideoState VideoState
}

func NewSession(id, videoURL, videoId string, creator User, now time.Time) Session {
	creator.Role = Admin{}

	return Session{
		Id:         id,
		VideoURL:   videoURL,
		VideoId:    videoId,
		CreatedAt:  now,
		UpdatedAt:  now,
		Users:      []User{creator},
		VideoState: DefaultVideoState(),
	}
}

func (s Session) Clone() Session {
	s.Users = slices.Clone(s.Users)
	return s
}

func (s Session) userIndex(id string) int {
	return slices.IndexFunc(s.Users, func(u User) bool { return u.Id == id })
}

// User returns a pointer into the roster so callers can mutate the user in place.
func (s *Session) User(id string) (*User, error) {
	i := s.userIndex(id)
	if i < 0 {
		return nil, ErrUserNotFound
	}

	return &s.Users[i], nil
}

func (s *Session) Admin() (*User, bool) {
	for i := range s.Users {
		if s.Users[i].IsAdmin() {
			return &s.Users[i], true
		}
	}

	return nil, false
}

func (s *Session) AddUser(u User) {
	s.Users = append(s.Users, u)
}

func (s *Session) removeUser(id string) {
	s.Users = slices.DeleteFunc(s.Users, func(u User) bool { return u.Id == id })
}
