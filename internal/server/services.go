package server

import (
	"fmt"

	"github.com/ecorewards/ecorewards/internal/server/auth"
	"github.com/ecorewards/ecorewards/internal/server/email"
	"github.com/ecorewards/ecorewards/internal/server/users"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	Users *users.UserStore
	Auth  *auth.AuthService
	Email *email.EmailService
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	userStore, err := users.NewUserStore(db)
	if err != nil {
		return nil, fmt.Errorf("user store: %w", err)
	}

	emailSvc := email.NewEmailService(&config.Email)
	authSvc := auth.NewAuthService(&config.Auth, userStore, emailSvc)

	return &Services{
		Users: userStore,
		Auth:  authSvc,
		Email: emailSvc,
	}, nil
}
