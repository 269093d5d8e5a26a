package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/response"
	"github.com/flyerdrop/tournees-api/internal/pkg/jwthelper"
)

const (
	ContextKeyUserID = "userID"
	ContextKeyRole   = "role"
)

var (
	errMissingToken      = errors.New("authorization header must be in format 'Bearer <token>'")
	errUserAgentMismatch = errors.New("token was issued to another client")
	errRoleRequired      = errors.New("insufficient role")
)

type Authenticator struct {
	key []byte
}

func NewAuthenticator(key string) *Authenticator {
	return &Authenticator{key: []byte(key)}
}

// VerifyJWT rejects requests without a valid bearer token and stores the
// user id and role of the token in the gin context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, ok := bearerToken(ctx.GetHeader("Authorization"))
		if !ok {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.key, tokenString)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}
		if claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized(errUserAgentMismatch))
			return
		}

		ctx.Set(ContextKeyUserID, claims.UserID)
		ctx.Set(ContextKeyRole, claims.Role)
		ctx.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	return strings.TrimSpace(token), true
}

// RequireRole must be mounted after VerifyJWT.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		role := ctx.GetString(ContextKeyRole)
		for _, r := range roles {
			if r == role {
				ctx.Next()
				return
			}
		}

		response.RenderErr(ctx, response.ErrPermissionDenied(errRoleRequired))
	}
}
