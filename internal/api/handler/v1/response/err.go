package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Err is the JSON body of every error response.
type Err struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	ErrorText  string `json:"error,omitempty"`
}

func RenderErr(ctx *gin.Context, err *Err) {
	ctx.AbortWithStatusJSON(err.HTTPStatusCode, err)
}

func newErr(status int, err error) *Err {
	e := &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
	}
	if err != nil {
		e.ErrorText = err.Error()
	}

	return e
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err)
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err)
}

func ErrUnauthorized(err error) *Err {
	return newErr(http.StatusUnauthorized, err)
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err)
}

func ErrNotFound(resource, field string, value any) *Err {
	return newErr(http.StatusNotFound, fmt.Errorf("%s with %s %v not found", resource, field, value))
}

// ErrMissing reports a lookup miss whose cause already names the resource.
func ErrMissing(err error) *Err {
	return newErr(http.StatusNotFound, err)
}

// ErrConflict is used when a business rule rejects a state change.
func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err)
}

func ErrUnprocessable(err error) *Err {
	return newErr(http.StatusUnprocessableEntity, err)
}

// ErrInternalServerError logs the cause and hides it from the client.
func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	e := newErr(http.StatusInternalServerError, err)
	e.ErrorText = ""

	return e
}
