package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flyerdrop/tournees-api/internal/dataset"
	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/geo"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

const (
	codeChapelle   = "691230701"
	codePartDieu   = "691230301"
	codeMonplaisir = "691230801"
	costPerMille   = int64(4500)
)

type memStore struct {
	mu             sync.Mutex
	nextID         uint
	participations []domain.Participation
	selections     []domain.SectorSelection
	selectionsErr  error
}

func (s *memStore) ListParticipations(_ context.Context, filter repository.Filter) ([]domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Participation
	for _, p := range s.participations {
		if filter.City != "" && p.City != filter.City {
			continue
		}
		if filter.StartDate != nil && p.TourStartDate.Format(domain.DateLayout) != filter.StartDate.Format(domain.DateLayout) {
			continue
		}
		if filter.ExcludeStatus != "" && p.Status == filter.ExcludeStatus {
			continue
		}
		if filter.UserID != 0 && p.UserID != filter.UserID {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

func (s *memStore) CountDistinctParticipationsPerSector(ctx context.Context, ids []uint) (map[string]int, error) {
	selections, _ := s.ListSelections(ctx, ids)

	return tourstatus.CountDistinct(selections), nil
}

func (s *memStore) ListSelections(_ context.Context, ids []uint) ([]domain.SectorSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []domain.SectorSelection
	for _, sel := range s.selections {
		if _, ok := wanted[sel.ParticipationID]; ok {
			out = append(out, sel)
		}
	}

	return out, nil
}

func (s *memStore) CreateParticipation(_ context.Context, p domain.Participation) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	s.participations = append(s.participations, p)

	return p, nil
}

func (s *memStore) CreateSectorSelections(_ context.Context, participationID uint, selections []domain.SectorSelection) error {
	if s.selectionsErr != nil {
		return s.selectionsErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sel := range selections {
		sel.ParticipationID = participationID
		s.selections = append(s.selections, sel)
	}

	return nil
}

func (s *memStore) UpdateStatus(_ context.Context, ids []uint, status domain.ParticipationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		for i := range s.participations {
			if s.participations[i].ID == id {
				s.participations[i].Status = status
			}
		}
	}

	return nil
}

func (s *memStore) FindByID(_ context.Context, id uint) (domain.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.participations {
		if p.ID == id {
			return p, nil
		}
	}

	return domain.Participation{}, repository.ErrParticipationNotFound
}

func (s *memStore) ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error) {
	return s.ListParticipations(ctx, repository.Filter{UserID: userID})
}

// seed stores a participation of the tour holding the given sectors.
func (s *memStore) seed(t *testing.T, tour domain.Tour, status domain.ParticipationStatus, codes ...string) domain.Participation {
	t.Helper()

	p, err := s.CreateParticipation(context.Background(), domain.Participation{
		UserID:        99,
		City:          tour.City,
		TourStartDate: tour.StartDate,
		TourEndDate:   tour.EndDate,
		TourIndex:     tour.Index,
		Status:        status,
	})
	require.NoError(t, err)

	selections := make([]domain.SectorSelection, 0, len(codes))
	for _, code := range codes {
		selections = append(selections, domain.SectorSelection{SectorCode: code, SectorName: code, HousingUnits: 1000})
	}
	require.NoError(t, s.CreateSectorSelections(context.Background(), p.ID, selections))

	return p
}

func (s *memStore) status(id uint) domain.ParticipationStatus {
	p, _ := s.FindByID(context.Background(), id)

	return p.Status
}

type memDrafts struct {
	drafts map[string]domain.Draft
}

func (m *memDrafts) Save(_ context.Context, draft domain.Draft) error {
	if m.drafts == nil {
		m.drafts = map[string]domain.Draft{}
	}
	m.drafts[draft.ID] = draft

	return nil
}

func (m *memDrafts) Get(_ context.Context, id string) (domain.Draft, error) {
	d, ok := m.drafts[id]
	if !ok {
		return domain.Draft{}, repository.ErrDraftNotFound
	}

	return d, nil
}

func (m *memDrafts) Delete(_ context.Context, id string) error {
	delete(m.drafts, id)

	return nil
}

type stubFetcher struct {
	features []geo.Feature
	err      error
	calls    int
}

func (f *stubFetcher) FetchSectors(_ context.Context, _ string) ([]geo.Feature, error) {
	f.calls++

	return f.features, f.err
}

type testEnv struct {
	store          *memStore
	drafts         *memDrafts
	engine         *tourstatus.Engine
	schedule       *tourstatus.Schedule
	tours          *TourService
	sectors        *SectorService
	participations *ParticipationService
	draftService   *DraftService
	admin          *AdminService
	now            time.Time
}

func newTestEnv(t *testing.T, now time.Time, fetcher geo.Fetcher) *testEnv {
	t.Helper()

	ds, err := dataset.Load("")
	require.NoError(t, err)

	env := &testEnv{
		store:  &memStore{},
		drafts: &memDrafts{},
		engine: tourstatus.NewEngine(time.UTC),
		now:    now,
	}
	clock := func() time.Time { return env.now }
	env.schedule = tourstatus.NewSchedule(tourstatus.ScheduleConfig{
		Anchor:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		IntervalDays: 14,
		DurationDays: 7,
		WindowMonths: 24,
	}, env.engine)
	env.tours = NewTourService(ds, env.schedule, env.engine, env.store, clock)
	env.sectors = NewSectorService(env.tours, fetcher)
	env.participations = NewParticipationService(env.store, env.sectors, env.engine, costPerMille, clock)
	env.draftService = NewDraftService(env.drafts, env.sectors, env.participations)
	env.admin = NewAdminService(env.store, env.engine, clock)

	return env
}

// lyonTour returns a Lyon tour starting 30 days after now.
func lyonTour(t *testing.T, env *testEnv) domain.Tour {
	t.Helper()

	for _, tour := range env.schedule.Tours("Lyon", env.now) {
		if tour.StartDate.After(env.now.AddDate(0, 0, 29)) {
			return tour
		}
	}
	t.Fatal("no Lyon tour in window")

	return domain.Tour{}
}
