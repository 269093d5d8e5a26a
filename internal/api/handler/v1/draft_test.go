package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/service"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

type mockDraftService struct {
	mock.Mock
}

func (m *mockDraftService) Create(ctx context.Context, city string, start time.Time) (domain.DraftView, error) {
	args := m.Called(ctx, city, start)
	return args.Get(0).(domain.DraftView), args.Error(1)
}

func (m *mockDraftService) Get(ctx context.Context, id string) (domain.DraftView, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.DraftView), args.Error(1)
}

func (m *mockDraftService) AddSector(ctx context.Context, id, code string) (domain.DraftView, error) {
	args := m.Called(ctx, id, code)
	return args.Get(0).(domain.DraftView), args.Error(1)
}

func (m *mockDraftService) RemoveSector(ctx context.Context, id, code string) (domain.DraftView, error) {
	args := m.Called(ctx, id, code)
	return args.Get(0).(domain.DraftView), args.Error(1)
}

func (m *mockDraftService) SetFlyer(ctx context.Context, id string, flyer domain.Flyer) (domain.DraftView, error) {
	args := m.Called(ctx, id, flyer)
	return args.Get(0).(domain.DraftView), args.Error(1)
}

func (m *mockDraftService) Submit(ctx context.Context, id string, userID uint) (domain.Participation, error) {
	args := m.Called(ctx, id, userID)
	return args.Get(0).(domain.Participation), args.Error(1)
}

func newDraftRouter(svc *mockDraftService) *gin.Engine {
	h := NewDraftHandler(svc)
	r := newRouter()
	r.POST("/drafts", h.HandleCreateDraft)
	r.GET("/drafts/:draftID", h.HandleGetDraft)
	r.POST("/drafts/:draftID/sectors", h.HandleAddSector)
	r.DELETE("/drafts/:draftID/sectors/:sectorCode", h.HandleRemoveSector)
	r.PUT("/drafts/:draftID/flyer", h.HandleSetFlyer)
	r.POST("/drafts/:draftID/submit", asUser(12, domain.RoleCustomer), h.HandleSubmitDraft)

	return r
}

var draftStart = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

func TestDraftHandler_HandleCreateDraft(t *testing.T) {
	svc := &mockDraftService{}
	view := domain.DraftView{Draft: domain.Draft{ID: "d-1", City: "Lyon", TourStartDate: draftStart}}
	svc.On("Create", mock.Anything, "Lyon", draftStart).Return(view, nil)
	svc.On("Create", mock.Anything, "Atlantis", draftStart).Return(domain.DraftView{}, fmt.Errorf("wrap -> %w", service.ErrCityNotFound))
	svc.On("Create", mock.Anything, "Grenoble", draftStart).Return(domain.DraftView{}, tourstatus.ErrDeadlinePassed)
	r := newDraftRouter(svc)

	w := serve(t, r, http.MethodPost, "/drafts", map[string]string{"city": "Lyon", "start_date": "2025-03-17"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "d-1", decode[domain.DraftView](t, w).ID)

	w = serve(t, r, http.MethodPost, "/drafts", map[string]string{"city": "Atlantis", "start_date": "2025-03-17"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, r, http.MethodPost, "/drafts", map[string]string{"city": "Grenoble", "start_date": "2025-03-17"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = serve(t, r, http.MethodPost, "/drafts", map[string]string{"city": "Lyon", "start_date": "17/03/2025"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftHandler_Sectors(t *testing.T) {
	svc := &mockDraftService{}
	withSector := domain.DraftView{
		Draft:             domain.Draft{ID: "d-1", Selections: []domain.SectorSelection{{SectorCode: "691230701", HousingUnits: 2890}}},
		TotalHousingUnits: 2890,
	}
	svc.On("AddSector", mock.Anything, "d-1", "691230701").Return(withSector, nil)
	svc.On("AddSector", mock.Anything, "d-1", "691230301").Return(domain.DraftView{}, fmt.Errorf("sector 691230301 -> %w", tourstatus.ErrSectorFull))
	svc.On("AddSector", mock.Anything, "gone", "691230701").Return(domain.DraftView{}, service.ErrDraftNotFound)
	svc.On("RemoveSector", mock.Anything, "d-1", "691230701").Return(domain.DraftView{Draft: domain.Draft{ID: "d-1"}}, nil)
	r := newDraftRouter(svc)

	w := serve(t, r, http.MethodPost, "/drafts/d-1/sectors", map[string]string{"sector_code": "691230701"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2890, decode[domain.DraftView](t, w).TotalHousingUnits)

	w = serve(t, r, http.MethodPost, "/drafts/d-1/sectors", map[string]string{"sector_code": "691230301"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, errorText(t, w), "691230301")

	w = serve(t, r, http.MethodPost, "/drafts/gone/sectors", map[string]string{"sector_code": "691230701"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(t, r, http.MethodPost, "/drafts/d-1/sectors", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, r, http.MethodDelete, "/drafts/d-1/sectors/691230701", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[domain.DraftView](t, w).Selections)
}

func TestDraftHandler_HandleSetFlyer(t *testing.T) {
	svc := &mockDraftService{}
	want := domain.FlyerToCreate{
		Title:       "Spring sale",
		Company:     "Boulangerie Martin",
		Contact:     domain.Contact{Name: "Paul Martin", Email: "paul@example.com"},
		PrintFormat: domain.PrintFormatA5,
	}
	svc.On("SetFlyer", mock.Anything, "d-1", want).Return(domain.DraftView{Draft: domain.Draft{ID: "d-1"}}, nil)
	r := newDraftRouter(svc)

	body := map[string]any{
		"kind":         "to_create",
		"title":        "Spring sale",
		"company":      "Boulangerie Martin",
		"contact":      map[string]string{"name": "Paul Martin", "email": "paul@example.com"},
		"print_format": "A5",
	}
	w := serve(t, r, http.MethodPut, "/drafts/d-1/flyer", body)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body["print_format"] = "A3"
	w = serve(t, r, http.MethodPut, "/drafts/d-1/flyer", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNumberOfCalls(t, "SetFlyer", 1)
}

func TestDraftHandler_HandleSubmitDraft(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"submitted", nil, http.StatusCreated},
		{"below minimum", tourstatus.ErrBelowMinimum, http.StatusUnprocessableEntity},
		{"nothing selected", service.ErrNoSectorSelected, http.StatusUnprocessableEntity},
		{"deadline passed", tourstatus.ErrDeadlinePassed, http.StatusConflict},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDraftService{}
			svc.On("Submit", mock.Anything, "d-1", uint(12)).Return(domain.Participation{ID: 3, UserID: 12}, tt.err)

			w := serve(t, newDraftRouter(svc), http.MethodPost, "/drafts/d-1/submit", nil)
			require.Equal(t, tt.wantCode, w.Code)
			if tt.err == nil {
				assert.Equal(t, uint(3), decode[domain.Participation](t, w).ID)
			}
		})
	}
}

func TestDraftHandler_HandleSubmitDraft_Anonymous(t *testing.T) {
	svc := &mockDraftService{}
	r := newRouter()
	r.POST("/drafts/:draftID/submit", NewDraftHandler(svc).HandleSubmitDraft)

	w := serve(t, r, http.MethodPost, "/drafts/d-1/submit", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
