package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/client/models"
	"github.com/dmitrijs2005/mediminder/internal/client/remote"
	"github.com/dmitrijs2005/mediminder/internal/client/remote/rest"
	"github.com/dmitrijs2005/mediminder/internal/common"
)

// AuthClient is the account API of the backend.
type AuthClient interface {
	Register(ctx context.Context, email string, password []byte, fullName string) (api.AuthResponse, error)
	Login(ctx context.Context, email string, password []byte) (api.AuthResponse, error)
	Ping(ctx context.Context) error
}

// Session receives authentication changes. The sync engine implements it.
type Session interface {
	OnAuthenticated(ctx context.Context, id remote.Identity) error
	OnSignedOut(ctx context.Context)
	User() models.UserProfile
	SaveUser(p models.UserProfile)
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an account and sign in with it.
//   - Login: authenticate and hand the identity to the session, which
//     migrates and loads the user's data before returning.
//   - Logout: end the session and clear local data.
//   - Ping: check server liveness.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte, fullName string) (remote.Identity, error)
	Login(ctx context.Context, email string, password []byte) (remote.Identity, error)
	Logout(ctx context.Context)
	Ping(ctx context.Context) error
}

type authService struct {
	client  AuthClient
	session Session
}

func NewAuthService(client AuthClient, session Session) AuthService {
	return &authService{client: client, session: session}
}

func checkCredentials(email string, password []byte) error {
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email %q", common.ErrValidation, email)
	}
	if len(password) == 0 {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

func (a *authService) Register(ctx context.Context, email string, password []byte, fullName string) (remote.Identity, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return remote.Identity{}, err
	}
	resp, err := a.client.Register(ctx, email, password, strings.TrimSpace(fullName))
	if err != nil {
		return remote.Identity{}, fmt.Errorf("register error: %w", err)
	}
	return a.start(ctx, resp)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (remote.Identity, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return remote.Identity{}, err
	}
	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return remote.Identity{}, fmt.Errorf("login error: %w", err)
	}
	return a.start(ctx, resp)
}

// start opens the session and, when the loaded profile is still the
// placeholder, names it after the account.
func (a *authService) start(ctx context.Context, resp api.AuthResponse) (remote.Identity, error) {
	id := rest.Identity(resp)
	if err := a.session.OnAuthenticated(ctx, id); err != nil {
		return remote.Identity{}, fmt.Errorf("session error: %w", err)
	}
	if p := a.session.User(); p.IsDefault() && resp.FullName != "" {
		p.Name = resp.FullName
		p.Email = resp.Email
		a.session.SaveUser(p)
	}
	return id, nil
}

func (a *authService) Logout(ctx context.Context) {
	a.session.OnSignedOut(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
