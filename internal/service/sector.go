package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/internal/dataset"
	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/geo"
	"github.com/flyerdrop/tournees-api/internal/matcher"
	"github.com/flyerdrop/tournees-api/internal/pkg/textnorm"
)

var ErrSectorNotFound = errors.New("sector not found")

// SectorService lists the sectors of a tour. Sector boundaries come from the
// geometry API; housing units are matched against the static dataset. When
// the API is unavailable the dataset sectors are served without geometry.
type SectorService struct {
	tours *TourService
	geo   geo.Fetcher
}

// NewSectorService accepts a nil fetcher, in which case only dataset sectors
// are listed.
func NewSectorService(tours *TourService, fetcher geo.Fetcher) *SectorService {
	return &SectorService{
		tours: tours,
		geo:   fetcher,
	}
}

func (s *SectorService) ListSectors(ctx context.Context, cityName string, start time.Time) ([]domain.SectorView, error) {
	tour, err := s.tours.findTour(cityName, start)
	if err != nil {
		return nil, err
	}
	city, err := s.tours.dataset.City(tour.City)
	if err != nil {
		return nil, err
	}

	o, err := loadOccupancy(ctx, s.tours.store, tour.City, tour.StartDate)
	if err != nil {
		return nil, err
	}

	now := s.tours.now()
	sectors := s.resolveSectors(ctx, city)
	views := make([]domain.SectorView, 0, len(sectors))
	for _, sv := range sectors {
		sv.Participants = o.sectorCounts[sv.Code]
		sv.Status, sv.Selectable = s.tours.engine.SectorStatus(tour.StartDate, sv.Participants, now)
		views = append(views, sv)
	}

	return views, nil
}

// Sector returns one sector of a tour by code.
func (s *SectorService) Sector(ctx context.Context, cityName string, start time.Time, code string) (domain.SectorView, error) {
	sectors, err := s.ListSectors(ctx, cityName, start)
	if err != nil {
		return domain.SectorView{}, err
	}

	for _, sv := range sectors {
		if sv.Code == code {
			return sv, nil
		}
	}

	return domain.SectorView{}, fmt.Errorf("%w: %s", ErrSectorNotFound, code)
}

func (s *SectorService) resolveSectors(ctx context.Context, city dataset.City) []domain.SectorView {
	if s.geo == nil {
		return datasetSectors(city)
	}

	features, err := s.geo.FetchSectors(ctx, city.CommuneCode)
	if err != nil || len(features) == 0 {
		zap.L().Warn("geometry lookup failed, serving dataset sectors",
			zap.String("city", city.Name),
			zap.String("commune_code", city.CommuneCode),
			zap.Error(err),
		)

		return datasetSectors(city)
	}

	features = uniqueFeatures(features)
	idx := matcher.BuildIndex(city.Sectors)
	views := make([]domain.SectorView, 0, len(features))
	for _, f := range features {
		units := matcher.ResolveOrSplit(idx, matcher.Query{
			Name:                f.Name,
			Code:                f.Code,
			APIHousingUnits:     f.HousingUnits,
			CommuneHousingUnits: city.TotalHousingUnits,
			CommuneSectors:      len(features),
		})
		views = append(views, domain.SectorView{
			Sector: domain.Sector{
				Code:         featureCode(f),
				Name:         f.Name,
				HousingUnits: units,
			},
			Geometry: f.Geometry,
		})
	}
	sortSectors(views)

	return views
}

func featureCode(f geo.Feature) string {
	if code := strings.TrimSpace(f.Code); code != "" {
		return code
	}

	return textnorm.Fold(f.Name)
}

// uniqueFeatures keeps the first feature of every sector code.
func uniqueFeatures(features []geo.Feature) []geo.Feature {
	seen := make(map[string]struct{}, len(features))
	out := make([]geo.Feature, 0, len(features))
	for _, f := range features {
		code := featureCode(f)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, f)
	}

	return out
}

func datasetSectors(city dataset.City) []domain.SectorView {
	views := make([]domain.SectorView, 0, len(city.Sectors))
	for _, sec := range city.Sectors {
		code := strings.TrimSpace(sec.Code)
		if code == "" {
			code = textnorm.Fold(sec.Name)
		}
		views = append(views, domain.SectorView{
			Sector: domain.Sector{
				Code:         code,
				Name:         sec.Name,
				HousingUnits: sec.HousingUnits,
			},
		})
	}
	sortSectors(views)

	return views
}

func sortSectors(views []domain.SectorView) {
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].Code < views[j].Code
	})
}
