package v1

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flyerdrop/tournees-api/internal/api/handler/v1/response"
	"github.com/flyerdrop/tournees-api/internal/batch"
	"github.com/flyerdrop/tournees-api/internal/domain"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type AdminService interface {
	Overview(ctx context.Context) ([]domain.CityOverview, error)
	Export(ctx context.Context) ([]byte, error)
}

type AdminHandler struct {
	svc   AdminService
	batch batch.Runner
	now   func() time.Time
}

func NewAdminHandler(svc AdminService, runner batch.Runner) *AdminHandler {
	return &AdminHandler{
		svc:   svc,
		batch: runner,
		now:   time.Now,
	}
}

// HandleOverview godoc
// @Summary      Occupancy of every booked tour
// @Tags         admin
// @Produce      json
// @Success      200  {array}   domain.CityOverview
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/tours [get]
// @Security BearerAuth
func (h *AdminHandler) HandleOverview(ctx *gin.Context) {
	overview, err := h.svc.Overview(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleOverview -> h.svc.Overview -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}
	if overview == nil {
		overview = []domain.CityOverview{}
	}

	ctx.JSON(http.StatusOK, overview)
}

// HandleExport godoc
// @Summary      Download every participation as an XLSX workbook
// @Tags         admin
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200  {file}    file
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/participations/export [get]
// @Security BearerAuth
func (h *AdminHandler) HandleExport(ctx *gin.Context) {
	body, err := h.svc.Export(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleExport -> h.svc.Export -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	filename := fmt.Sprintf("participations-%s.xlsx", h.now().Format("20060102-150405"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	ctx.Data(http.StatusOK, xlsxContentType, body)
}

// HandleRunBatch godoc
// @Summary      Run the status batch now
// @Description  Tours whose deadline passed get their participations confirmed or cancelled.
// @Tags         admin
// @Produce      json
// @Success      200  {object}  batch.Summary
// @Failure      401  {object}  response.Err
// @Failure      403  {object}  response.Err
// @Failure      500  {object}  response.Err
// @Router       /admin/batch/run [post]
// @Security BearerAuth
func (h *AdminHandler) HandleRunBatch(ctx *gin.Context) {
	summary, err := h.batch.Run(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleRunBatch -> h.batch.Run -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, summary)
}
