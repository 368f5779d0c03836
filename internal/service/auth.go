package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/gouthamseattle/dance-registration-portal/internal/config"
	"github.com/gouthamseattle/dance-registration-portal/internal/domain"
)

var (
	ErrWrongCredentials = errors.New("wrong email or password")
)

// AuthService checks admin logins against the configured credentials.
// There is a single admin account; students never authenticate.
type AuthService struct {
	conf *config.APIConfig
}

func NewAuthService(conf *config.APIConfig) *AuthService {
	return &AuthService{
		conf: conf,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Admin, error) {
	if email != s.conf.AdminEmail {
		return domain.Admin{}, ErrWrongCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.conf.AdminPasswordHash), []byte(password)); err != nil {
		return domain.Admin{}, ErrWrongCredentials
	}

	return domain.Admin{Email: email}, nil
}
