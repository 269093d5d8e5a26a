package v1

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/response"
	"github.com/flyerdrop/tournees-api/internal/service"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

// renderServiceErr maps booking errors to their HTTP status. Anything else
// is an internal error reported under the caller's name.
func renderServiceErr(ctx *gin.Context, where string, err error) {
	switch {
	case errors.Is(err, service.ErrCityNotFound),
		errors.Is(err, service.ErrTourNotFound),
		errors.Is(err, service.ErrSectorNotFound),
		errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, service.ErrParticipationNotFound):
		response.RenderErr(ctx, response.ErrMissing(err))
	case errors.Is(err, tourstatus.ErrDeadlinePassed),
		errors.Is(err, tourstatus.ErrSectorFull):
		response.RenderErr(ctx, response.ErrConflict(err))
	case errors.Is(err, tourstatus.ErrBelowMinimum),
		errors.Is(err, service.ErrNoSectorSelected):
		response.RenderErr(ctx, response.ErrUnprocessable(err))
	case errors.Is(err, service.ErrParticipationForbidden):
		response.RenderErr(ctx, response.ErrPermissionDenied(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%s -> %w", where, err)))
	}
}
