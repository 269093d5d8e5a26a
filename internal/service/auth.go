package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/flyerdrop/tournees-api/internal/config"
	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
)

var (
	ErrUserEmailExists          = repository.ErrUserEmailExists
	ErrWrongPassword            = errors.New("wrong password")
	ErrUserNotConfirmed         = errors.New("email address is not confirmed")
	ErrInvalidConfirmationToken = errors.New("invalid confirmation token")
)

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByConfirmationToken(ctx context.Context, token string) (domain.User, error)
	Confirm(ctx context.Context, id uint) error
}

type AuthService struct {
	repo                AuthUserRepository
	requireConfirmation bool
	adminEmails         map[string]struct{}
}

func NewAuthService(repo AuthUserRepository, conf *config.APIConfig) *AuthService {
	admins := make(map[string]struct{}, len(conf.AdminEmails))
	for _, email := range conf.AdminEmails {
		admins[normalizeEmail(email)] = struct{}{}
	}

	return &AuthService{
		repo:                repo,
		requireConfirmation: conf.RequireEmailConfirmation,
		adminEmails:         admins,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup stores a new customer with a hashed password and a fresh
// confirmation token. The token is returned on the user so that callers can
// deliver it.
func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	hash, err := hashPassword(user.Password)
	if err != nil {
		return domain.User{}, err
	}

	user.Email = normalizeEmail(user.Email)
	user.Password = hash
	user.Role = domain.RoleCustomer
	if _, ok := s.adminEmails[user.Email]; ok {
		user.Role = domain.RoleAdmin
	}
	user.Confirmed = false
	user.ConfirmationToken = uuid.NewString()

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}
	created.ConfirmationToken = user.ConfirmationToken

	zap.L().Debug("user signed up",
		zap.Uint("user_id", created.ID),
		zap.String("confirmation_token", created.ConfirmationToken),
	)

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	if s.requireConfirmation && !user.Confirmed {
		return domain.User{}, ErrUserNotConfirmed
	}

	return user, nil
}

// Confirm consumes a confirmation token. A token can be used only once.
func (s *AuthService) Confirm(ctx context.Context, token string) (domain.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.User{}, ErrInvalidConfirmationToken
	}

	user, err := s.repo.FindByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrInvalidConfirmationToken
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByConfirmationToken -> %w", err)
	}

	if err = s.repo.Confirm(ctx, user.ID); err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Confirm -> %w", err)
	}
	user.Confirmed = true
	user.ConfirmationToken = ""

	return user, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}
