// Package users registers accounts, signs them in and issues their tokens.
package users

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediminder/internal/api"
	"github.com/dmitrijs2005/mediminder/internal/common"
	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
	"github.com/dmitrijs2005/mediminder/internal/server/auth"
)

// Repository is the account storage. pgstore.Store implements it.
type Repository interface {
	CreateUser(ctx context.Context, u pgstore.User) (pgstore.User, error)
	UserByEmail(ctx context.Context, email string) (pgstore.User, error)
	UserByID(ctx context.Context, id string) (pgstore.User, error)
}

type Service struct {
	repo          Repository
	jwtSecret     []byte
	tokenValidity time.Duration
	adminEmails   []string
	logger        logging.Logger
}

func NewService(repo Repository, secret string, tokenValidity time.Duration, adminEmails []string, logger logging.Logger) *Service {
	admins := make([]string, 0, len(adminEmails))
	for _, e := range adminEmails {
		admins = append(admins, normalizeEmail(e))
	}
	return &Service{
		repo:          repo,
		jwtSecret:     []byte(secret),
		tokenValidity: tokenValidity,
		adminEmails:   admins,
		logger:        logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validate(req api.AuthRequest) error {
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: invalid email", common.ErrValidation)
	}
	if req.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

// Register creates an account. Without a full name the local part of the
// email is used.
func (s *Service) Register(ctx context.Context, req api.AuthRequest) (api.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return api.AuthResponse{}, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return api.AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}

	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		fullName, _, _ = strings.Cut(req.Email, "@")
	}
	role := common.RoleUser
	if slices.Contains(s.adminEmails, req.Email) {
		role = common.RoleAdmin
	}

	user, err := s.repo.CreateUser(ctx, pgstore.User{Email: req.Email, PasswordHash: hash, FullName: fullName, Role: role})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return api.AuthResponse{}, fmt.Errorf("email already registered: %w", common.ErrAlreadyExists)
		}
		return api.AuthResponse{}, err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID, "email", common.MaskEmail(user.Email), "role", user.Role)

	return s.issue(user)
}

// Login checks the credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *Service) Login(ctx context.Context, req api.AuthRequest) (api.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate(req); err != nil {
		return api.AuthResponse{}, err
	}

	user, err := s.repo.UserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return api.AuthResponse{}, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
		}
		return api.AuthResponse{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return api.AuthResponse{}, fmt.Errorf("invalid email or password: %w", common.ErrUnauthorized)
	}

	return s.issue(user)
}

func (s *Service) issue(u pgstore.User) (api.AuthResponse, error) {
	token, err := auth.GenerateToken(u.ID, u.Email, u.Role, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return api.AuthResponse{}, fmt.Errorf("generate token: %w", err)
	}
	return api.AuthResponse{Token: token, UserID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (api.UserResponse, error) {
	u, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		return api.UserResponse{}, err
	}
	return api.UserResponse{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}, nil
}

// Authenticate turns a bearer token into its claims.
func (s *Service) Authenticate(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.jwtSecret)
}
