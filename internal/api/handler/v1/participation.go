package v1

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/request"
	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/response"
	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/service"
)

type ParticipationService interface {
	Submit(ctx context.Context, userID uint, sub service.Submission) (domain.Participation, error)
	ListMine(ctx context.Context, userID uint) ([]domain.Participation, error)
	Get(ctx context.Context, user domain.User, id uint) (domain.Participation, error)
}

type ParticipationHandler struct {
	svc ParticipationService
}

func NewParticipationHandler(svc ParticipationService) *ParticipationHandler {
	return &ParticipationHandler{
		svc: svc,
	}
}

// HandleCreateParticipation godoc
// @Summary      Book sectors of a tour in one call
// @Tags         participations
// @Accept       json
// @Produce      json
// @Param        request  body      request.SubmitParticipationRequest  true  "request body"
// @Success      201      {object}  domain.Participation
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /participations [post]
// @Security BearerAuth
func (h *ParticipationHandler) HandleCreateParticipation(ctx *gin.Context) {
	user, respErr := userFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.SubmitParticipationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sub := service.Submission{
		City:        req.City,
		StartDate:   req.Start(),
		SectorCodes: req.SectorCodes,
	}
	if req.Flyer != nil {
		flyer, err := req.Flyer.ToDomain()
		if err != nil {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		sub.Flyer = flyer
	}

	participation, err := h.svc.Submit(ctx.Request.Context(), user.ID, sub)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateParticipation -> h.svc.Submit", err)
		return
	}

	ctx.JSON(http.StatusCreated, participation)
}

// HandleListParticipations godoc
// @Summary      List the participations of the authenticated user
// @Tags         participations
// @Produce      json
// @Success      200  {array}   domain.Participation
// @Failure      401  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /participations [get]
// @Security BearerAuth
func (h *ParticipationHandler) HandleListParticipations(ctx *gin.Context) {
	user, respErr := userFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participations, err := h.svc.ListMine(ctx.Request.Context(), user.ID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListParticipations -> h.svc.ListMine", err)
		return
	}
	if participations == nil {
		participations = []domain.Participation{}
	}

	ctx.JSON(http.StatusOK, participations)
}

// HandleGetParticipation godoc
// @Summary      Get a participation
// @Description  Customers only see their own participations.
// @Tags         participations
// @Produce      json
// @Param        participationID  path      int  true  "participation ID"
// @Success      200              {object}  domain.Participation
// @Failure      400              {object}  response.Err
// @Failure      401              {object}  response.Err
// @Failure      403              {object}  response.Err
// @Failure      404              {object}  response.Err
// @Failure      500              {object}  response.Err
// @Router       /participations/{participationID} [get]
// @Security BearerAuth
func (h *ParticipationHandler) HandleGetParticipation(ctx *gin.Context) {
	user, respErr := userFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	id, err := strconv.ParseUint(ctx.Param("participationID"), 10, 64)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrNotFound("participation", "ID", ctx.Param("participationID")))
		return
	}

	participation, err := h.svc.Get(ctx.Request.Context(), user, uint(id))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetParticipation -> h.svc.Get", err)
		return
	}

	ctx.JSON(http.StatusOK, participation)
}
