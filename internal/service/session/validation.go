package session

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	userNameMaxLength = 32
	avatarMaxLength   = 2048
)

var userNameRule = []validation.Rule{
	validation.Required,
	validation.RuneLength(1, userNameMaxLength),
}

var avatarRule = []validation.Rule{
	validation.NilOrNotEmpty,
	is.URL,
	validation.Length(0, avatarMaxLength),
}

func (p *CreateSessionParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserName, userNameRule...),
		validation.Field(&p.Avatar, avatarRule...),
	)
}

func (p *JoinSessionParams) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserName, userNameRule...),
		validation.Field(&p.Avatar, avatarRule...),
	)
}
