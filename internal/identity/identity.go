// Package identity authenticates users and broadcasts sign-in changes.
package identity

import (
	"context"
	"errors"
	"time"
)

type User struct {
	UID   string
	Email string
}

// Session is the result of a successful sign-in or sign-up.
type Session struct {
	User      User
	IDToken   string
	ExpiresAt time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("weak password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid id token")
	ErrTooManyAttempts    = errors.New("too many attempts")
)

// MinPasswordLength matches the hosted identity service's own rule.
const MinPasswordLength = 6

// Provider is the identity service behind the sign-in screens.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) (Session, error)
	SendPasswordReset(ctx context.Context, email string) error
	VerifyIDToken(ctx context.Context, idToken string) (User, error)
}

// Message returns the text shown on the sign-in screens for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUserNotFound):
		return "E-mail ou senha incorretos."
	case errors.Is(err, ErrEmailInUse):
		return "Este e-mail já está em uso."
	case errors.Is(err, ErrWeakPassword):
		return "A senha deve ter pelo menos 6 caracteres."
	case errors.Is(err, ErrInvalidEmail):
		return "Informe um e-mail válido."
	case errors.Is(err, ErrTooManyAttempts):
		return "Muitas tentativas. Tente novamente mais tarde."
	}
	return "Ocorreu um erro. Verifique suas credenciais."
}
