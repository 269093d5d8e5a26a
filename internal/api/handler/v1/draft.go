package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/request"
	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/response"
	"github.com/flyerdrop/tournees-api/internal/domain"
)

type DraftService interface {
	Create(ctx context.Context, city string, start time.Time) (domain.DraftView, error)
	Get(ctx context.Context, id string) (domain.DraftView, error)
	AddSector(ctx context.Context, id, code string) (domain.DraftView, error)
	RemoveSector(ctx context.Context, id, code string) (domain.DraftView, error)
	SetFlyer(ctx context.Context, id string, flyer domain.Flyer) (domain.DraftView, error)
	Submit(ctx context.Context, id string, userID uint) (domain.Participation, error)
}

// DraftHandler drives the booking wizard. Drafts are anonymous; only the
// final submission needs a logged-in user.
type DraftHandler struct {
	svc DraftService
}

func NewDraftHandler(svc DraftService) *DraftHandler {
	return &DraftHandler{
		svc: svc,
	}
}

// HandleCreateDraft godoc
// @Summary      Start a booking draft for a tour
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Param        request  body      request.CreateDraftRequest  true  "request body"
// @Success      201      {object}  domain.DraftView
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /drafts [post]
func (h *DraftHandler) HandleCreateDraft(ctx *gin.Context) {
	var req request.CreateDraftRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	draft, err := h.svc.Create(ctx.Request.Context(), req.City, req.Start())
	if err != nil {
		renderServiceErr(ctx, "v1.HandleCreateDraft -> h.svc.Create", err)
		return
	}

	ctx.JSON(http.StatusCreated, draft)
}

// HandleGetDraft godoc
// @Summary      Get a booking draft
// @Tags         drafts
// @Produce      json
// @Param        draftID  path      string  true  "draft ID"
// @Success      200      {object}  domain.DraftView
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /drafts/{draftID} [get]
func (h *DraftHandler) HandleGetDraft(ctx *gin.Context) {
	draft, err := h.svc.Get(ctx.Request.Context(), ctx.Param("draftID"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleGetDraft -> h.svc.Get", err)
		return
	}

	ctx.JSON(http.StatusOK, draft)
}

// HandleAddSector godoc
// @Summary      Add a sector to a draft
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Param        draftID  path      string                    true  "draft ID"
// @Param        request  body      request.AddSectorRequest  true  "request body"
// @Success      200      {object}  domain.DraftView
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /drafts/{draftID}/sectors [post]
func (h *DraftHandler) HandleAddSector(ctx *gin.Context) {
	var req request.AddSectorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	draft, err := h.svc.AddSector(ctx.Request.Context(), ctx.Param("draftID"), req.SectorCode)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleAddSector -> h.svc.AddSector", err)
		return
	}

	ctx.JSON(http.StatusOK, draft)
}

// HandleRemoveSector godoc
// @Summary      Remove a sector from a draft
// @Tags         drafts
// @Produce      json
// @Param        draftID     path      string  true  "draft ID"
// @Param        sectorCode  path      string  true  "sector code"
// @Success      200         {object}  domain.DraftView
// @Failure      404         {object}  response.Err
// @Failure      500         {object}  response.Err
// @Router       /drafts/{draftID}/sectors/{sectorCode} [delete]
func (h *DraftHandler) HandleRemoveSector(ctx *gin.Context) {
	draft, err := h.svc.RemoveSector(ctx.Request.Context(), ctx.Param("draftID"), ctx.Param("sectorCode"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleRemoveSector -> h.svc.RemoveSector", err)
		return
	}

	ctx.JSON(http.StatusOK, draft)
}

// HandleSetFlyer godoc
// @Summary      Attach flyer details to a draft
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Param        draftID  path      string                true  "draft ID"
// @Param        request  body      request.FlyerRequest  true  "request body"
// @Success      200      {object}  domain.DraftView
// @Failure      400      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /drafts/{draftID}/flyer [put]
func (h *DraftHandler) HandleSetFlyer(ctx *gin.Context) {
	var req request.FlyerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	flyer, err := req.ToDomain()
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	draft, err := h.svc.SetFlyer(ctx.Request.Context(), ctx.Param("draftID"), flyer)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSetFlyer -> h.svc.SetFlyer", err)
		return
	}

	ctx.JSON(http.StatusOK, draft)
}

// HandleSubmitDraft godoc
// @Summary      Submit a draft as a participation
// @Description  The draft is deleted once the participation is recorded.
// @Tags         drafts
// @Produce      json
// @Param        draftID  path      string  true  "draft ID"
// @Success      201      {object}  domain.Participation
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      422      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /drafts/{draftID}/submit [post]
// @Security BearerAuth
func (h *DraftHandler) HandleSubmitDraft(ctx *gin.Context) {
	user, respErr := userFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	participation, err := h.svc.Submit(ctx.Request.Context(), ctx.Param("draftID"), user.ID)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleSubmitDraft -> h.svc.Submit", err)
		return
	}

	ctx.JSON(http.StatusCreated, participation)
}
