package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/pkg/events"
	"github.com/Skotchmaster/sweet_shop/pkg/hash"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
	"github.com/Skotchmaster/sweet_shop/pkg/tokens"
)

type AuthService struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	TokenTTL  time.Duration
	Events    events.Publisher
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		return nil, fmt.Errorf("%w: Email is required", ErrValidation)
	case !strings.Contains(email, "@"):
		return nil, fmt.Errorf("%w: Email is invalid", ErrValidation)
	case req.Password == "":
		return nil, fmt.Errorf("%w: Password is required", ErrValidation)
	case name == "":
		return nil, fmt.Errorf("%w: Name is required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         tokens.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: Email already exists", ErrConflict)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(user.ID), 10), "user_registered", map[string]any{
		"userId": user.ID,
		"email":  user.Email,
	})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, fmt.Errorf("%w: Email and password are required", ErrValidation)
	}

	user, err := s.Repo.UserByCredentials(ctx, email, password)
	if err != nil {
		if errors.Is(err, repo.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	token, claims, err := tokens.NewAccessToken(
		s.JWTSecret,
		strconv.FormatUint(uint64(user.ID), 10),
		user.Name,
		user.Email,
		user.Role,
		s.ttl(),
	)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, userID uint, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(s.ttl())
	}
	return s.Repo.RevokeToken(ctx, jti, userID, expiresAt)
}

// SeedAdmin creates the configured administrator, or promotes an existing account with that email.
func (s *AuthService) SeedAdmin(ctx context.Context, name, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "auth.seed_admin")

	existing, err := s.Repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == tokens.RoleAdmin {
			return nil
		}
		l.Info("promote_admin", "user_id", existing.ID)
		return s.Repo.SetUserRole(ctx, existing.ID, tokens.RoleAdmin)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         tokens.RoleAdmin,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, admin); err != nil && !errors.Is(err, repo.ErrUserAlreadyExist) {
		return err
	}
	l.Info("admin_seeded", "user_id", admin.ID)
	return nil
}

func (s *AuthService) ttl() time.Duration {
	if s.TokenTTL <= 0 {
		return 24 * time.Hour
	}
	return s.TokenTTL
}
