package domain

import "time"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID                uint      `json:"id"`
	Email             string    `json:"email"`
	Password          string    `json:"-"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	Confirmed         bool      `json:"confirmed"`
	ConfirmationToken string    `json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
