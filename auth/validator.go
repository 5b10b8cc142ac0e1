package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credentials is the register/login payload received by the front door.
// Username must be at least 3 characters, the password at least 6; the
// 72 byte cap keeps the Argon2 input bounded.
type Credentials struct {
	Username string `json:"username" validate:"required,min=3,max=32,printascii"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func ValidateCredentials(c Credentials) error {
	return validate.Struct(c)
}
