package repository

import (
	"context"
	"fmt"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository/dao"
)

var (
	ErrUserEmailExists = dao.ErrUserEmailExists
	ErrUserNotFound    = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindByConfirmationToken(ctx context.Context, token string) (dao.User, error)
	Confirm(ctx context.Context, id uint) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	var token *string
	if user.ConfirmationToken != "" {
		token = &user.ConfirmationToken
	}

	created, err := r.dao.Insert(ctx, dao.User{
		Email:             user.Email,
		Password:          user.Password,
		Name:              user.Name,
		Role:              user.Role,
		Confirmed:         user.Confirmed,
		ConfirmationToken: token,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByConfirmationToken(ctx context.Context, token string) (domain.User, error) {
	found, err := r.dao.FindByConfirmationToken(ctx, token)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByConfirmationToken -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) Confirm(ctx context.Context, id uint) error {
	if err := r.dao.Confirm(ctx, id); err != nil {
		return fmt.Errorf("r.dao.Confirm -> %w", err)
	}

	return nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	user := domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Confirmed: u.Confirmed,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.ConfirmationToken != nil {
		user.ConfirmationToken = *u.ConfirmationToken
	}

	return user
}
