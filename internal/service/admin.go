package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

type AdminStore interface {
	ListParticipations(ctx context.Context, filter repository.Filter) ([]domain.Participation, error)
	ListSelections(ctx context.Context, participationIDs []uint) ([]domain.SectorSelection, error)
}

type AdminService struct {
	store  AdminStore
	engine *tourstatus.Engine
	now    func() time.Time
}

func NewAdminService(store AdminStore, engine *tourstatus.Engine, now func() time.Time) *AdminService {
	if now == nil {
		now = time.Now
	}

	return &AdminService{
		store:  store,
		engine: engine,
		now:    now,
	}
}

// snapshot loads every participation with its selections.
func (s *AdminService) snapshot(ctx context.Context) ([]domain.Participation, error) {
	participations, err := s.store.ListParticipations(ctx, repository.Filter{})
	if err != nil {
		return nil, fmt.Errorf("s.store.ListParticipations -> %w", err)
	}
	if len(participations) == 0 {
		return participations, nil
	}

	ids := make([]uint, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ID)
	}
	selections, err := s.store.ListSelections(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListSelections -> %w", err)
	}

	byParticipation := make(map[uint][]domain.SectorSelection, len(participations))
	for _, sel := range selections {
		byParticipation[sel.ParticipationID] = append(byParticipation[sel.ParticipationID], sel)
	}
	for i := range participations {
		participations[i].Selections = byParticipation[participations[i].ID]
	}

	return participations, nil
}

// Overview groups participations by city and tour. Counts and statuses
// ignore cancelled participations.
func (s *AdminService) Overview(ctx context.Context) ([]domain.CityOverview, error) {
	participations, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	type tourGroup struct {
		tour           domain.Tour
		participations []domain.Participation
	}
	groups := make(map[domain.TourKey]*tourGroup)
	for _, p := range participations {
		g, ok := groups[p.TourKey()]
		if !ok {
			g = &tourGroup{tour: domain.Tour{
				City:      p.City,
				Index:     p.TourIndex,
				StartDate: tourstatus.Day(p.TourStartDate),
				EndDate:   tourstatus.Day(p.TourEndDate),
				Deadline:  s.engine.Deadline(p.TourStartDate),
				Capacity:  tourstatus.Capacity,
			}}
			groups[p.TourKey()] = g
		}
		g.participations = append(g.participations, p)
	}

	now := s.now()
	byCity := make(map[string][]domain.TourOverview)
	for _, g := range groups {
		byCity[g.tour.City] = append(byCity[g.tour.City], s.tourOverview(g.tour, g.participations, now))
	}

	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	out := make([]domain.CityOverview, 0, len(cities))
	for _, city := range cities {
		tours := byCity[city]
		sort.Slice(tours, func(i, j int) bool {
			return tours[i].StartDate.Before(tours[j].StartDate)
		})
		out = append(out, domain.CityOverview{City: city, Tours: tours})
	}

	return out, nil
}

func (s *AdminService) tourOverview(tour domain.Tour, participations []domain.Participation, now time.Time) domain.TourOverview {
	var (
		active     int
		units      int
		cost       int64
		selections []domain.SectorSelection
	)
	names := make(map[string]string)
	for _, p := range participations {
		if p.Status == domain.ParticipationCancelled {
			continue
		}
		active++
		units += p.TotalHousingUnits
		cost += p.CostCents
		for _, sel := range p.Selections {
			selections = append(selections, sel)
			names[sel.SectorCode] = sel.SectorName
		}
	}

	counts := tourstatus.CountDistinct(selections)
	sectors := make([]domain.SectorOverview, 0, len(counts))
	for code, n := range counts {
		status, _ := s.engine.SectorStatus(tour.StartDate, n, now)
		sectors = append(sectors, domain.SectorOverview{
			Code:         code,
			Name:         names[code],
			Participants: n,
			Status:       status,
		})
	}
	sort.Slice(sectors, func(i, j int) bool {
		return sectors[i].Code < sectors[j].Code
	})

	return domain.TourOverview{
		TourView: domain.TourView{
			Tour:         tour,
			Participants: active,
			Status:       s.engine.TourStatus(tour.StartDate, counts, active, now),
		},
		HousingUnits: units,
		CostCents:    cost,
		Sectors:      sectors,
	}
}
