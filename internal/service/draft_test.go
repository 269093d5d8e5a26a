package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

func TestDraftService_Lifecycle(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	env.draftService.newID = func() string { return "draft-1" }
	tour := lyonTour(t, env)
	ctx := context.Background()

	view, err := env.draftService.Create(ctx, "Lyon", tour.StartDate)
	require.NoError(t, err)
	assert.Equal(t, "draft-1", view.ID)
	assert.Equal(t, "Lyon", view.City)
	assert.Zero(t, view.TotalHousingUnits)

	view, err = env.draftService.AddSector(ctx, "draft-1", codePartDieu)
	require.NoError(t, err)
	assert.Equal(t, 2890, view.TotalHousingUnits)
	assert.False(t, view.MinimumReached)

	view, err = env.draftService.AddSector(ctx, "draft-1", codePartDieu)
	require.NoError(t, err)
	assert.Len(t, view.Selections, 1)

	view, err = env.draftService.AddSector(ctx, "draft-1", codeMonplaisir)
	require.NoError(t, err)
	assert.Equal(t, 6280, view.TotalHousingUnits)
	assert.True(t, view.MinimumReached)
	assert.Equal(t, int64(28260), view.CostCents)

	view, err = env.draftService.AddSector(ctx, "draft-1", codeChapelle)
	require.NoError(t, err)
	view, err = env.draftService.RemoveSector(ctx, "draft-1", codeChapelle)
	require.NoError(t, err)
	assert.Equal(t, 6280, view.TotalHousingUnits)

	flyer := domain.FlyerToCreate{Title: "Opening", Company: "Café Gris", PrintFormat: domain.PrintFormatA5}
	view, err = env.draftService.SetFlyer(ctx, "draft-1", flyer)
	require.NoError(t, err)
	require.NotNil(t, view.Flyer)
	assert.Equal(t, domain.FlyerKindToCreate, view.Flyer.Kind)

	p, err := env.draftService.Submit(ctx, "draft-1", 12)
	require.NoError(t, err)
	assert.Equal(t, uint(12), p.UserID)
	assert.Equal(t, 6280, p.TotalHousingUnits)
	assert.False(t, p.HasFlyer)
	assert.Equal(t, flyer, p.Flyer.Flyer())

	_, err = env.draftService.Get(ctx, "draft-1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDraftService_AddSector_Full(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)
	for i := 0; i < 5; i++ {
		env.store.seed(t, tour, domain.ParticipationPending, codePartDieu)
	}

	view, err := env.draftService.Create(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)

	_, err = env.draftService.AddSector(context.Background(), view.ID, codePartDieu)
	assert.ErrorIs(t, err, tourstatus.ErrSectorFull)

	_, err = env.draftService.AddSector(context.Background(), view.ID, "unknown")
	assert.ErrorIs(t, err, ErrSectorNotFound)
}

func TestDraftService_DeadlinePassed(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)

	view, err := env.draftService.Create(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)

	env.now = tour.Deadline.AddDate(0, 0, 1)
	_, err = env.draftService.AddSector(context.Background(), view.ID, codePartDieu)
	assert.ErrorIs(t, err, tourstatus.ErrDeadlinePassed)

	_, err = env.draftService.Create(context.Background(), "Lyon", tour.StartDate)
	assert.ErrorIs(t, err, tourstatus.ErrDeadlinePassed)
}

func TestDraftService_Create_OutsideWindow(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tours := env.schedule.Tours("Lyon", env.now)
	require.NotEmpty(t, tours)
	beyond := tours[len(tours)-1].StartDate.AddDate(0, 0, 200*14)

	_, err := env.draftService.Create(context.Background(), "Lyon", beyond)
	assert.ErrorIs(t, err, ErrTourNotFound)

	_, err = env.tours.GetTour(context.Background(), "Lyon", beyond)
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestDraftService_SubmitBelowMinimumKeepsDraft(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)

	view, err := env.draftService.Create(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)
	_, err = env.draftService.AddSector(context.Background(), view.ID, codeChapelle)
	require.NoError(t, err)

	_, err = env.draftService.Submit(context.Background(), view.ID, 3)
	assert.ErrorIs(t, err, tourstatus.ErrBelowMinimum)

	_, err = env.draftService.Get(context.Background(), view.ID)
	assert.NoError(t, err)
}
