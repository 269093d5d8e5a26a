package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

var ErrDraftNotFound = repository.ErrDraftNotFound

type DraftStore interface {
	Save(ctx context.Context, draft domain.Draft) error
	Get(ctx context.Context, id string) (domain.Draft, error)
	Delete(ctx context.Context, id string) error
}

// DraftService keeps the pending booking of an anonymous visitor. Selection
// rules are applied as sectors are added; the full submission rules run again
// on Submit.
type DraftService struct {
	store          DraftStore
	sectors        *SectorService
	participations *ParticipationService
	newID          func() string
}

func NewDraftService(store DraftStore, sectors *SectorService, participations *ParticipationService) *DraftService {
	return &DraftService{
		store:          store,
		sectors:        sectors,
		participations: participations,
		newID:          uuid.NewString,
	}
}

func (s *DraftService) engine() *tourstatus.Engine {
	return s.sectors.tours.engine
}

func (s *DraftService) now() time.Time {
	return s.sectors.tours.now()
}

// Create opens a draft for a tour still accepting registrations.
func (s *DraftService) Create(ctx context.Context, city string, start time.Time) (domain.DraftView, error) {
	tour, err := s.sectors.tours.findTour(city, start)
	if err != nil {
		return domain.DraftView{}, err
	}

	now := s.now()
	if s.engine().IsDeadlinePassed(tour.StartDate, now) {
		return domain.DraftView{}, tourstatus.ErrDeadlinePassed
	}

	draft := domain.Draft{
		ID:            s.newID(),
		City:          tour.City,
		TourStartDate: tour.StartDate,
		Selections:    []domain.SectorSelection{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err = s.store.Save(ctx, draft); err != nil {
		return domain.DraftView{}, fmt.Errorf("s.store.Save -> %w", err)
	}

	return s.view(draft), nil
}

func (s *DraftService) Get(ctx context.Context, id string) (domain.DraftView, error) {
	draft, err := s.get(ctx, id)
	if err != nil {
		return domain.DraftView{}, err
	}

	return s.view(draft), nil
}

func (s *DraftService) get(ctx context.Context, id string) (domain.Draft, error) {
	draft, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("s.store.Get -> %w", err)
	}

	return draft, nil
}

// AddSector selects a sector. Adding a sector already in the draft is a no-op.
func (s *DraftService) AddSector(ctx context.Context, id, code string) (domain.DraftView, error) {
	draft, err := s.get(ctx, id)
	if err != nil {
		return domain.DraftView{}, err
	}
	if draft.HasSector(code) {
		return s.view(draft), nil
	}

	sector, err := s.sectors.Sector(ctx, draft.City, draft.TourStartDate, code)
	if err != nil {
		return domain.DraftView{}, err
	}
	if err = s.engine().CheckSelection(draft.TourStartDate, sector.Participants, s.now()); err != nil {
		return domain.DraftView{}, fmt.Errorf("%w: %s", err, code)
	}

	draft.Selections = append(draft.Selections, domain.SectorSelection{
		SectorCode:   sector.Code,
		SectorName:   sector.Name,
		HousingUnits: sector.HousingUnits,
	})

	return s.save(ctx, draft)
}

func (s *DraftService) RemoveSector(ctx context.Context, id, code string) (domain.DraftView, error) {
	draft, err := s.get(ctx, id)
	if err != nil {
		return domain.DraftView{}, err
	}

	kept := draft.Selections[:0]
	for _, sel := range draft.Selections {
		if sel.SectorCode != code {
			kept = append(kept, sel)
		}
	}
	draft.Selections = kept

	return s.save(ctx, draft)
}

// SetFlyer replaces the flyer information. A nil flyer clears it.
func (s *DraftService) SetFlyer(ctx context.Context, id string, flyer domain.Flyer) (domain.DraftView, error) {
	draft, err := s.get(ctx, id)
	if err != nil {
		return domain.DraftView{}, err
	}
	draft.Flyer = domain.NewFlyerPayload(flyer)

	return s.save(ctx, draft)
}

// Submit turns the draft into a participation of the user and drops it.
func (s *DraftService) Submit(ctx context.Context, id string, userID uint) (domain.Participation, error) {
	draft, err := s.get(ctx, id)
	if err != nil {
		return domain.Participation{}, err
	}

	codes := make([]string, 0, len(draft.Selections))
	for _, sel := range draft.Selections {
		codes = append(codes, sel.SectorCode)
	}

	p, err := s.participations.Submit(ctx, userID, Submission{
		City:        draft.City,
		StartDate:   draft.TourStartDate,
		SectorCodes: codes,
		Flyer:       draft.Flyer.Flyer(),
	})
	if err != nil {
		return domain.Participation{}, err
	}

	if err = s.store.Delete(ctx, id); err != nil {
		zap.L().Warn("failed to delete submitted draft", zap.String("draft_id", id), zap.Error(err))
	}

	return p, nil
}

func (s *DraftService) save(ctx context.Context, draft domain.Draft) (domain.DraftView, error) {
	draft.UpdatedAt = s.now()
	if err := s.store.Save(ctx, draft); err != nil {
		return domain.DraftView{}, fmt.Errorf("s.store.Save -> %w", err)
	}

	return s.view(draft), nil
}

func (s *DraftService) view(draft domain.Draft) domain.DraftView {
	total := draft.TotalHousingUnits()

	return domain.DraftView{
		Draft:             draft,
		TotalHousingUnits: total,
		MinimumReached:    total >= tourstatus.MinHousingUnits,
		CostCents:         CostCents(total, s.participations.costPerThousand),
	}
}
