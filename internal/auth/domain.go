package auth

import "errors"

// Messages shown to the visitor. Backend details are never surfaced.
const (
	LoginFailedMessage    = "Login gagal"
	RegisterFailedMessage = "Registrasi gagal"
)

var (
	// ErrLoginFailed covers every login failure.
	ErrLoginFailed = errors.New("auth: login failed")
	// ErrRegisterFailed covers every registration failure.
	ErrRegisterFailed = errors.New("auth: registration failed")
)

// Credentials are submitted by the login form. The backend calls the email
// field "username".
type Credentials struct {
	Email    string `validate:"required,max=254"`
	Password string `validate:"required"`
}

// Registration is submitted by the register form.
type Registration struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
