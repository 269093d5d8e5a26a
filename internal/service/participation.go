package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

var (
	ErrParticipationNotFound  = repository.ErrParticipationNotFound
	ErrParticipationForbidden = errors.New("participation belongs to another user")
	ErrNoSectorSelected       = errors.New("no sector selected")
)

type ParticipationStore interface {
	ParticipationReader
	CreateParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error)
	CreateSectorSelections(ctx context.Context, participationID uint, selections []domain.SectorSelection) error
	UpdateStatus(ctx context.Context, ids []uint, status domain.ParticipationStatus) error
	FindByID(ctx context.Context, id uint) (domain.Participation, error)
	ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error)
}

// Submission is a booking about to be persisted.
type Submission struct {
	City        string
	StartDate   time.Time
	SectorCodes []string
	Flyer       domain.Flyer
}

// CostCents prices a distribution at costPerThousand cents per thousand
// housing units, rounded half up to the cent.
func CostCents(housingUnits int, costPerThousand int64) int64 {
	if housingUnits <= 0 || costPerThousand <= 0 {
		return 0
	}

	return (int64(housingUnits)*costPerThousand + 500) / 1000
}

type ParticipationService struct {
	store           ParticipationStore
	sectors         *SectorService
	engine          *tourstatus.Engine
	costPerThousand int64
	now             func() time.Time
}

func NewParticipationService(
	store ParticipationStore,
	sectors *SectorService,
	engine *tourstatus.Engine,
	costPerThousand int64,
	now func() time.Time,
) *ParticipationService {
	if now == nil {
		now = time.Now
	}

	return &ParticipationService{
		store:           store,
		sectors:         sectors,
		engine:          engine,
		costPerThousand: costPerThousand,
		now:             now,
	}
}

// Submit validates a booking against the current occupancy of its tour and
// persists it. Housing units are taken from the sector listing, never from
// the caller. Validation and insert are not atomic: two concurrent
// submissions can both pass the capacity check.
func (s *ParticipationService) Submit(ctx context.Context, userID uint, sub Submission) (domain.Participation, error) {
	if len(sub.SectorCodes) == 0 {
		return domain.Participation{}, ErrNoSectorSelected
	}

	tour, err := s.sectors.tours.findTour(sub.City, sub.StartDate)
	if err != nil {
		return domain.Participation{}, err
	}

	listed, err := s.sectors.ListSectors(ctx, tour.City, tour.StartDate)
	if err != nil {
		return domain.Participation{}, err
	}
	byCode := make(map[string]domain.SectorView, len(listed))
	for _, sv := range listed {
		byCode[sv.Code] = sv
	}

	selections := make([]domain.SectorSelection, 0, len(sub.SectorCodes))
	sectorCounts := make(map[string]int, len(sub.SectorCodes))
	for _, code := range sub.SectorCodes {
		if _, ok := sectorCounts[code]; ok {
			continue
		}
		sv, ok := byCode[code]
		if !ok {
			return domain.Participation{}, fmt.Errorf("%w: %s", ErrSectorNotFound, code)
		}
		sectorCounts[code] = sv.Participants
		selections = append(selections, domain.SectorSelection{
			SectorCode:   sv.Code,
			SectorName:   sv.Name,
			HousingUnits: sv.HousingUnits,
		})
	}

	total := domain.TotalHousingUnits(selections)
	if err = s.engine.CheckSubmission(tour.StartDate, total, sectorCounts, s.now()); err != nil {
		return domain.Participation{}, err
	}

	created, err := s.store.CreateParticipation(ctx, domain.Participation{
		UserID:            userID,
		City:              tour.City,
		TourStartDate:     tour.StartDate,
		TourEndDate:       tour.EndDate,
		TourIndex:         tour.Index,
		TotalHousingUnits: total,
		CostCents:         CostCents(total, s.costPerThousand),
		HasFlyer:          domain.HasFlyer(sub.Flyer),
		Flyer:             domain.NewFlyerPayload(sub.Flyer),
		Status:            domain.ParticipationPending,
	})
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.store.CreateParticipation -> %w", err)
	}

	if err = s.store.CreateSectorSelections(ctx, created.ID, selections); err != nil {
		// Selections failed: the participation would count towards the tour
		// without holding any sector.
		if cancelErr := s.store.UpdateStatus(ctx, []uint{created.ID}, domain.ParticipationCancelled); cancelErr != nil {
			zap.L().Error("failed to cancel participation without selections",
				zap.Uint("participation_id", created.ID),
				zap.Error(cancelErr),
			)
		}

		return domain.Participation{}, fmt.Errorf("s.store.CreateSectorSelections -> %w", err)
	}

	for i := range selections {
		selections[i].ParticipationID = created.ID
	}
	created.Selections = selections

	zap.L().Info("participation submitted",
		zap.Uint("participation_id", created.ID),
		zap.Uint("user_id", userID),
		zap.String("city", created.City),
		zap.String("tour_start_date", created.TourStartDate.Format(domain.DateLayout)),
		zap.Int("housing_units", total),
	)

	return created, nil
}

func (s *ParticipationService) ListMine(ctx context.Context, userID uint) ([]domain.Participation, error) {
	participations, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.store.ListByUser -> %w", err)
	}

	return participations, nil
}

// Get returns a participation to its owner or to an admin.
func (s *ParticipationService) Get(ctx context.Context, user domain.User, id uint) (domain.Participation, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("s.store.FindByID -> %w", err)
	}

	if p.UserID != user.ID && !user.IsAdmin() {
		return domain.Participation{}, ErrParticipationForbidden
	}

	return p, nil
}
