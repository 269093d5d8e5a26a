package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserEmailExists = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`

	Name              string  `gorm:"not null"`
	Role              string  `gorm:"not null;default:customer"` // "customer" or "admin"
	Confirmed         bool    `gorm:"not null;default:false"`
	ConfirmationToken *string `gorm:"uniqueIndex"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.ConstraintName+err.Message, "email") {
			return User{}, ErrUserEmailExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	return d.findOne(ctx, "email = ?", email)
}

func (d *UserDAO) FindByConfirmationToken(ctx context.Context, token string) (User, error) {
	return d.findOne(ctx, "confirmation_token = ?", token)
}

func (d *UserDAO) findOne(ctx context.Context, query string, arg any) (User, error) {
	var user User

	result := d.db.WithContext(ctx).Where(query, arg).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

// Confirm marks the user as confirmed and consumes its confirmation token.
func (d *UserDAO) Confirm(ctx context.Context, id uint) error {
	result := d.db.WithContext(ctx).Model(&User{ID: id}).Updates(map[string]any{
		"confirmed":          true,
		"confirmation_token": nil,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
