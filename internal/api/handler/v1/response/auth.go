package response

import "github.com/flyerdrop/tournees-api/internal/domain"

type LoginResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

type SignupResponse struct {
	User domain.User `json:"user"`
	// ConfirmationToken is only returned outside production, where no email is sent.
	ConfirmationToken string `json:"confirmation_token,omitempty"`
}
