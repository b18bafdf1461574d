package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/meridianlegal/identity"
)

// decode parses the JSON body into dst and runs its validation rules.
// Failures classify as identity.ErrValidation.
func decode(r *http.Request, dst interface{ Validate() error }) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", identity.ErrValidation)
	}
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("%w: %v", identity.ErrValidation, err)
	}
	return nil
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (req *registerRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.LastName, validation.Required, validation.Length(1, 100)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req *loginRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
	)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (req *refreshRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.RefreshToken, validation.Required),
	)
}

type updateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (req *updateProfileRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&req.LastName, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (req *changePasswordRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.CurrentPassword, validation.Required),
		validation.Field(&req.NewPassword, validation.Required),
	)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (req *forgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (req *resetPasswordRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Token, validation.Required),
		validation.Field(&req.NewPassword, validation.Required),
	)
}

type changeEmailRequest struct {
	NewEmail        string `json:"newEmail"`
	CurrentPassword string `json:"currentPassword"`
}

func (req *changeEmailRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.NewEmail, validation.Required, is.Email),
		validation.Field(&req.CurrentPassword, validation.Required),
	)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (req *verifyEmailRequest) Validate() error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Token, validation.Required),
	)
}
