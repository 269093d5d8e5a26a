package v1

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/response"
	"github.com/flyerdrop/tournees-api/internal/api/middleware"
	"github.com/flyerdrop/tournees-api/internal/domain"
)

var errNoUserInContext = errors.New("no authenticated user")

// userFromContext returns the caller set by middleware.VerifyJWT. Only the
// id and role are filled.
func userFromContext(ctx *gin.Context) (domain.User, *response.Err) {
	raw, ok := ctx.Get(middleware.ContextKeyUserID)
	if !ok {
		return domain.User{}, response.ErrUnauthorized(errNoUserInContext)
	}
	id, ok := raw.(uint)
	if !ok || id == 0 {
		return domain.User{}, response.ErrUnauthorized(errNoUserInContext)
	}

	return domain.User{
		ID:   id,
		Role: ctx.GetString(middleware.ContextKeyRole),
	}, nil
}
