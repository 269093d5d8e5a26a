package v1

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/api/middleware"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	return gin.New()
}

// asUser stands in for middleware.VerifyJWT.
func asUser(id uint, role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextKeyUserID, id)
		ctx.Set(middleware.ContextKeyRole, role)
		ctx.Next()
	}
}

func serve(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func errorText(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	return decode[map[string]string](t, w)["error"]
}

