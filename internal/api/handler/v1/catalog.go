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

type TourService interface {
	ListCities() []domain.City
	ListTours(ctx context.Context, city string) ([]domain.TourView, error)
}

type SectorService interface {
	ListSectors(ctx context.Context, city string, start time.Time) ([]domain.SectorView, error)
}

// CatalogHandler serves the read-only browsing endpoints: cities, their
// tours and the sectors of a tour.
type CatalogHandler struct {
	tours   TourService
	sectors SectorService
}

func NewCatalogHandler(tours TourService, sectors SectorService) *CatalogHandler {
	return &CatalogHandler{
		tours:   tours,
		sectors: sectors,
	}
}

// HandleListCities godoc
// @Summary      List the cities covered by tours
// @Tags         catalog
// @Produce      json
// @Success      200  {array}   domain.City
// @Router       /cities [get]
func (h *CatalogHandler) HandleListCities(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.tours.ListCities())
}

// HandleListTours godoc
// @Summary      List upcoming tours of a city
// @Tags         catalog
// @Produce      json
// @Param        city  path      string  true  "city name"
// @Success      200   {array}   domain.TourView
// @Failure      404   {object}  response.Err
// @Failure      500   {object}  response.Err
// @Router       /cities/{city}/tours [get]
func (h *CatalogHandler) HandleListTours(ctx *gin.Context) {
	tours, err := h.tours.ListTours(ctx.Request.Context(), ctx.Param("city"))
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListTours -> h.tours.ListTours", err)
		return
	}

	ctx.JSON(http.StatusOK, tours)
}

// HandleListSectors godoc
// @Summary      List the sectors of a tour with their occupancy
// @Tags         catalog
// @Produce      json
// @Param        city       path      string  true  "city name"
// @Param        startDate  path      string  true  "tour start date (YYYY-MM-DD)"
// @Success      200        {array}   domain.SectorView
// @Failure      400        {object}  response.Err
// @Failure      404        {object}  response.Err
// @Failure      500        {object}  response.Err
// @Router       /cities/{city}/tours/{startDate}/sectors [get]
func (h *CatalogHandler) HandleListSectors(ctx *gin.Context) {
	start, err := request.ParseDate(ctx.Param("startDate"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sectors, err := h.sectors.ListSectors(ctx.Request.Context(), ctx.Param("city"), start)
	if err != nil {
		renderServiceErr(ctx, "v1.HandleListSectors -> h.sectors.ListSectors", err)
		return
	}

	ctx.JSON(http.StatusOK, sectors)
}
