package service

import (
	"context"
	"fmt"
	"time"

	"github.com/flyerdrop/tournees-api/internal/dataset"
	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

var (
	ErrCityNotFound = dataset.ErrCityNotFound
	ErrTourNotFound = tourstatus.ErrTourNotFound
)

// ParticipationReader is the read side of the participation store.
type ParticipationReader interface {
	ListParticipations(ctx context.Context, filter repository.Filter) ([]domain.Participation, error)
	CountDistinctParticipationsPerSector(ctx context.Context, participationIDs []uint) (map[string]int, error)
}

// occupancy is what a tour holds right now, cancelled participations excluded.
type occupancy struct {
	participationIDs []uint
	sectorCounts     map[string]int
}

func (o occupancy) participants() int {
	return len(o.participationIDs)
}

func loadOccupancy(ctx context.Context, store ParticipationReader, city string, start time.Time) (occupancy, error) {
	day := tourstatus.Day(start)
	participations, err := store.ListParticipations(ctx, repository.Filter{
		City:          city,
		StartDate:     &day,
		ExcludeStatus: domain.ParticipationCancelled,
	})
	if err != nil {
		return occupancy{}, fmt.Errorf("store.ListParticipations -> %w", err)
	}

	ids := make([]uint, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ID)
	}

	return countOccupancy(ctx, store, ids)
}

func countOccupancy(ctx context.Context, store ParticipationReader, ids []uint) (occupancy, error) {
	o := occupancy{participationIDs: ids, sectorCounts: map[string]int{}}
	if len(ids) == 0 {
		return o, nil
	}

	counts, err := store.CountDistinctParticipationsPerSector(ctx, ids)
	if err != nil {
		return occupancy{}, fmt.Errorf("store.CountDistinctParticipationsPerSector -> %w", err)
	}
	if counts != nil {
		o.sectorCounts = counts
	}

	return o, nil
}

type TourService struct {
	dataset  *dataset.Dataset
	schedule *tourstatus.Schedule
	engine   *tourstatus.Engine
	store    ParticipationReader
	now      func() time.Time
}

func NewTourService(
	ds *dataset.Dataset,
	schedule *tourstatus.Schedule,
	engine *tourstatus.Engine,
	store ParticipationReader,
	now func() time.Time,
) *TourService {
	if now == nil {
		now = time.Now
	}

	return &TourService{
		dataset:  ds,
		schedule: schedule,
		engine:   engine,
		store:    store,
		now:      now,
	}
}

func (s *TourService) ListCities() []domain.City {
	cities := s.dataset.Cities()
	out := make([]domain.City, 0, len(cities))
	for _, c := range cities {
		out = append(out, domain.City{
			Name:              c.Name,
			CommuneCode:       c.CommuneCode,
			TotalHousingUnits: c.TotalHousingUnits,
			SectorCount:       len(c.Sectors),
		})
	}

	return out
}

// ListTours returns the tours of the rolling window with their current status.
func (s *TourService) ListTours(ctx context.Context, cityName string) ([]domain.TourView, error) {
	city, err := s.dataset.City(cityName)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tours := s.schedule.Tours(city.Name, now)

	participations, err := s.store.ListParticipations(ctx, repository.Filter{
		City:          city.Name,
		ExcludeStatus: domain.ParticipationCancelled,
	})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListParticipations -> %w", err)
	}
	byTour := make(map[domain.TourKey][]uint)
	for _, p := range participations {
		byTour[p.TourKey()] = append(byTour[p.TourKey()], p.ID)
	}

	views := make([]domain.TourView, 0, len(tours))
	for _, t := range tours {
		o, err := countOccupancy(ctx, s.store, byTour[t.Key()])
		if err != nil {
			return nil, err
		}
		views = append(views, s.view(t, o, now))
	}

	return views, nil
}

func (s *TourService) GetTour(ctx context.Context, cityName string, start time.Time) (domain.TourView, error) {
	tour, err := s.findTour(cityName, start)
	if err != nil {
		return domain.TourView{}, err
	}

	o, err := loadOccupancy(ctx, s.store, tour.City, tour.StartDate)
	if err != nil {
		return domain.TourView{}, err
	}

	return s.view(tour, o, s.now()), nil
}

func (s *TourService) findTour(cityName string, start time.Time) (domain.Tour, error) {
	city, err := s.dataset.City(cityName)
	if err != nil {
		return domain.Tour{}, err
	}

	tour, err := s.schedule.Find(city.Name, start, s.now())
	if err != nil {
		return domain.Tour{}, fmt.Errorf("%w: %s %s", err, city.Name, start.Format(domain.DateLayout))
	}

	return tour, nil
}

func (s *TourService) view(t domain.Tour, o occupancy, now time.Time) domain.TourView {
	return domain.TourView{
		Tour:         t,
		Participants: o.participants(),
		Status:       s.engine.TourStatus(t.StartDate, o.sectorCounts, o.participants(), now),
	}
}
