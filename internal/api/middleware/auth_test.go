package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/pkg/jwthelper"
)

const (
	testKey       = "a-very-long-signing-key"
	testUserAgent = "test-agent"
)

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"user_id": ctx.GetUint(ContextKeyUserID),
			"role":    ctx.GetString(ContextKeyRole),
		})
	})
	r.GET("/", handlers...)

	return r
}

func token(t *testing.T, role, userAgent string) string {
	t.Helper()

	tok, err := jwthelper.GenerateToken([]byte(testKey), 3, role, userAgent, time.Hour)
	require.NoError(t, err)

	return tok
}

func TestVerifyJWT(t *testing.T) {
	r := newTestRouter(NewAuthenticator(testKey).VerifyJWT())

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + token(t, "customer", testUserAgent), wantStatus: http.StatusOK},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "other user agent", header: "Bearer " + token(t, "customer", "other"), wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("User-Agent", testUserAgent)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	r := newTestRouter(NewAuthenticator(testKey).VerifyJWT(), RequireRole("admin"))

	for role, want := range map[string]int{"admin": http.StatusOK, "customer": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("User-Agent", testUserAgent)
		req.Header.Set("Authorization", "Bearer "+token(t, role, testUserAgent))
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		assert.Equal(t, want, w.Code, role)
	}
}
