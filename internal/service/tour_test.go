package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

var testNow = time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)

func TestTourService_ListCities(t *testing.T) {
	env := newTestEnv(t, testNow, nil)

	cities := env.tours.ListCities()
	require.Len(t, cities, 3)
	assert.Equal(t, "Grenoble", cities[0].Name)
	assert.Equal(t, "Lyon", cities[1].Name)
	assert.Equal(t, 9, cities[1].SectorCount)
	assert.Equal(t, 18950, cities[1].TotalHousingUnits)
}

func TestTourService_ListTours(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)
	for i := 0; i < 5; i++ {
		env.store.seed(t, tour, domain.ParticipationPending, codePartDieu)
	}
	env.store.seed(t, tour, domain.ParticipationCancelled, codePartDieu)

	views, err := env.tours.ListTours(context.Background(), "lyon")
	require.NoError(t, err)
	require.NotEmpty(t, views)

	var found bool
	for _, v := range views {
		assert.Equal(t, "Lyon", v.City)
		if v.StartDate.Equal(tour.StartDate) {
			found = true
			assert.Equal(t, 5, v.Participants)
			assert.Equal(t, domain.TourBouclee, v.Status)
			continue
		}
		assert.Zero(t, v.Participants)
		if !v.StartDate.Before(tour.StartDate) {
			assert.Equal(t, domain.TourAvailable, v.Status)
		}
	}
	assert.True(t, found)
}

func TestTourService_ListTours_UnknownCity(t *testing.T) {
	env := newTestEnv(t, testNow, nil)

	_, err := env.tours.ListTours(context.Background(), "Atlantis")
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestTourService_GetTour(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)
	for i := 0; i < 3; i++ {
		env.store.seed(t, tour, domain.ParticipationPending, codeChapelle)
	}

	view, err := env.tours.GetTour(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)
	assert.Equal(t, domain.TourAvailable, view.Status)
	assert.Equal(t, 3, view.Participants)

	env.now = tour.Deadline.AddDate(0, 0, 1)
	view, err = env.tours.GetTour(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)
	assert.Equal(t, domain.TourConfirmed, view.Status)

	env.now = tour.StartDate.AddDate(0, 0, 1)
	view, err = env.tours.GetTour(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)
	assert.Equal(t, domain.TourExpired, view.Status)
}

func TestTourService_GetTour_WrongDate(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)

	_, err := env.tours.GetTour(context.Background(), "Lyon", tour.StartDate.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestTourService_DeadlineWithoutQuorumCancels(t *testing.T) {
	env := newTestEnv(t, testNow, nil)
	tour := lyonTour(t, env)
	env.store.seed(t, tour, domain.ParticipationPending, codeChapelle)
	env.store.seed(t, tour, domain.ParticipationPending, codePartDieu)

	env.now = tour.Deadline.AddDate(0, 0, 1)
	view, err := env.tours.GetTour(context.Background(), "Lyon", tour.StartDate)
	require.NoError(t, err)
	assert.Equal(t, domain.TourCancelled, view.Status)
}
