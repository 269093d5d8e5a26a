package v1

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/batch"
	"github.com/flyerdrop/tournees-api/internal/domain"
)

type stubAdminService struct {
	overview []domain.CityOverview
	export   []byte
	err      error
}

func (s *stubAdminService) Overview(context.Context) ([]domain.CityOverview, error) {
	return s.overview, s.err
}

func (s *stubAdminService) Export(context.Context) ([]byte, error) {
	return s.export, s.err
}

type stubRunner struct {
	summary batch.Summary
	err     error
	runs    int
}

func (r *stubRunner) Run(context.Context) (batch.Summary, error) {
	r.runs++

	return r.summary, r.err
}

func TestAdminHandler_HandleOverview(t *testing.T) {
	svc := &stubAdminService{overview: []domain.CityOverview{{City: "Lyon"}}}
	r := newRouter()
	r.GET("/admin/tours", NewAdminHandler(svc, &stubRunner{}).HandleOverview)

	w := serve(t, r, http.MethodGet, "/admin/tours", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Lyon", decode[[]domain.CityOverview](t, w)[0].City)

	svc.overview = nil
	w = serve(t, r, http.MethodGet, "/admin/tours", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	svc.err = errors.New("db down")
	w = serve(t, r, http.MethodGet, "/admin/tours", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminHandler_HandleExport(t *testing.T) {
	svc := &stubAdminService{export: []byte("PK\x03\x04")}
	h := NewAdminHandler(svc, &stubRunner{})
	h.now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	r := newRouter()
	r.GET("/admin/participations/export", h.HandleExport)

	w := serve(t, r, http.MethodGet, "/admin/participations/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="participations-20250301-093000.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, []byte("PK\x03\x04"), w.Body.Bytes())

	svc.err = errors.New("excelize failed")
	w = serve(t, r, http.MethodGet, "/admin/participations/export", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminHandler_HandleRunBatch(t *testing.T) {
	runner := &stubRunner{summary: batch.Summary{ToursScanned: 3, ToursUpdated: 2}}
	r := newRouter()
	r.POST("/admin/batch/run", NewAdminHandler(&stubAdminService{}, runner).HandleRunBatch)

	w := serve(t, r, http.MethodPost, "/admin/batch/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[batch.Summary](t, w)
	assert.Equal(t, 3, got.ToursScanned)
	assert.Equal(t, 2, got.ToursUpdated)
	assert.Equal(t, 1, runner.runs)

	runner.err = context.Canceled
	w = serve(t, r, http.MethodPost, "/admin/batch/run", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
