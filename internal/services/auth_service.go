package services

import (
	"context"
	"strings"

	"github.com/vitaup/VitaUpBack/internal/session"
)

// Authenticator is the session manager's account surface.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, name string) (session.ProvisionReport, error)
	SignIn(ctx context.Context, email, password string) error
}

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" validate:"omitempty,max=80"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthService struct{}

func NewAuthService() *AuthService {
	return &AuthService{}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) SignUp(ctx context.Context, auth Authenticator, input SignUpInput) (session.ProvisionReport, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return session.ProvisionReport{}, err
	}
	return auth.SignUp(ctx, input.Email, input.Password, input.Name)
}

func (s *AuthService) SignIn(ctx context.Context, auth Authenticator, input SignInInput) error {
	input.Email = normalizeEmail(input.Email)
	if err := validateStruct(input); err != nil {
		return err
	}
	return auth.SignIn(ctx, input.Email, input.Password)
}
