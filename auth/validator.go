package auth

import (
	"chat-desk/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type LoginRequest struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// ValidateLogin checks the request shape before anything goes on the wire.
// Credential correctness is the backend's call, not ours.
func ValidateLogin(req LoginRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidLoginRequest, err)
	}
	return nil
}
