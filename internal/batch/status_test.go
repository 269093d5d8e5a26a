package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

type fakeStore struct {
	participations []domain.Participation
	selections     []domain.SectorSelection
	listErr        error
	failCity       string
	updates        map[domain.ParticipationStatus][]uint
}

func (s *fakeStore) ListParticipations(_ context.Context, filter repository.Filter) ([]domain.Participation, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []domain.Participation
	for _, p := range s.participations {
		if filter.ExcludeStatus != "" && p.Status == filter.ExcludeStatus {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

func (s *fakeStore) CountDistinctParticipationsPerSector(_ context.Context, ids []uint) (map[string]int, error) {
	wanted := make(map[uint]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var selected []domain.SectorSelection
	for _, sel := range s.selections {
		if wanted[sel.ParticipationID] {
			selected = append(selected, sel)
		}
	}

	return tourstatus.CountDistinct(selected), nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, ids []uint, status domain.ParticipationStatus) error {
	for _, id := range ids {
		for _, p := range s.participations {
			if p.ID == id && p.City == s.failCity {
				return errors.New("write failed")
			}
		}
	}
	if s.updates == nil {
		s.updates = map[domain.ParticipationStatus][]uint{}
	}
	s.updates[status] = append(s.updates[status], ids...)

	return nil
}

// add registers a participation of the tour with one selection per code.
func (s *fakeStore) add(city string, start time.Time, status domain.ParticipationStatus, codes ...string) uint {
	id := uint(len(s.participations) + 1)
	s.participations = append(s.participations, domain.Participation{
		ID:            id,
		City:          city,
		TourStartDate: start,
		Status:        status,
	})
	for _, code := range codes {
		s.selections = append(s.selections, domain.SectorSelection{ParticipationID: id, SectorCode: code})
	}

	return id
}

var (
	jobNow     = time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)
	closedTour = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	openTour   = time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
)

func newJob(store Store) *StatusJob {
	return NewStatusJob(store, tourstatus.NewEngine(time.UTC), func() time.Time { return jobNow })
}

func TestStatusJob_Run(t *testing.T) {
	store := &fakeStore{}
	// Lyon: sector A reaches the validation threshold.
	confirmed := []uint{
		store.add("Lyon", closedTour, domain.ParticipationPending, "A"),
		store.add("Lyon", closedTour, domain.ParticipationPending, "A", "B"),
		store.add("Lyon", closedTour, domain.ParticipationPending, "A"),
	}
	// Grenoble: no sector reaches the threshold.
	cancelled := store.add("Grenoble", closedTour, domain.ParticipationPending, "X")
	// Villeurbanne: full sector, already reclassified.
	for i := 0; i < 5; i++ {
		store.add("Villeurbanne", closedTour, domain.ParticipationBouclee, "V")
	}
	// Registrations still open.
	open := store.add("Lyon", openTour, domain.ParticipationPending, "A")

	summary, err := newJob(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.ToursScanned)
	assert.Equal(t, 1, summary.ToursOpen)
	assert.Equal(t, 2, summary.ToursUpdated)
	assert.Equal(t, 1, summary.ToursUnchanged)
	assert.Zero(t, summary.ToursFailed)
	assert.Equal(t, 4, summary.ParticipationsUpdated)
	assert.False(t, summary.HasFailures())

	assert.ElementsMatch(t, confirmed, store.updates[domain.ParticipationConfirmed])
	assert.Equal(t, []uint{cancelled}, store.updates[domain.ParticipationCancelled])
	assert.Empty(t, store.updates[domain.ParticipationBouclee])
	for _, ids := range store.updates {
		assert.NotContains(t, ids, open)
	}
}

func TestStatusJob_Run_IsolatesFailures(t *testing.T) {
	store := &fakeStore{failCity: "Grenoble"}
	store.add("Grenoble", closedTour, domain.ParticipationPending, "X")
	lyon := store.add("Lyon", closedTour, domain.ParticipationPending, "A")

	summary, err := newJob(store).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ToursFailed)
	assert.Equal(t, 1, summary.ToursUpdated)
	assert.True(t, summary.HasFailures())
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "Grenoble", summary.Failures[0].City)
	assert.Equal(t, "2025-03-10", summary.Failures[0].StartDate)
	assert.Equal(t, []uint{lyon}, store.updates[domain.ParticipationCancelled])
}

func TestStatusJob_Run_ListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}

	_, err := newJob(store).Run(context.Background())
	assert.Error(t, err)
}

func TestStatusJob_Run_CancelledContext(t *testing.T) {
	store := &fakeStore{}
	store.add("Lyon", closedTour, domain.ParticipationPending, "A")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newJob(store).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.updates)
}

func TestStatusJob_Run_Idempotent(t *testing.T) {
	store := &fakeStore{}
	store.add("Lyon", closedTour, domain.ParticipationConfirmed, "A")
	store.add("Lyon", closedTour, domain.ParticipationConfirmed, "A")
	store.add("Lyon", closedTour, domain.ParticipationConfirmed, "A")

	summary, err := newJob(store).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ToursUnchanged)
	assert.Empty(t, store.updates)
}
