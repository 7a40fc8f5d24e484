package domain

import "errors"

var (
	ErrPermissionDenied      = errors.New("permission denied")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidRole           = errors.New("invalid role")
	ErrInvalidRoleTransition = errors.New("invalid role transition")
	ErrInvalidActionType     = errors.New("invalid video action type")
	ErrInvalidActionPayload  = errors.New("invalid video action payload")
	ErrInvalidVideoState     = errors.New("invalid video state")
)
