package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository/dao"
)

var (
	ErrParticipationNotFound = dao.ErrParticipationNotFound
	ErrDuplicateSelection    = dao.ErrDuplicateSelection
)

type ParticipationDAO interface {
	Insert(ctx context.Context, p dao.Participation) (dao.Participation, error)
	InsertSelections(ctx context.Context, participationID uint, selections []dao.SectorSelection) error
	List(ctx context.Context, filter dao.ParticipationFilter) ([]dao.Participation, error)
	FindByID(ctx context.Context, id uint) (dao.Participation, error)
	ListSelections(ctx context.Context, participationIDs []uint) ([]dao.SectorSelection, error)
	CountDistinctPerSector(ctx context.Context, participationIDs []uint) ([]dao.SectorCount, error)
	UpdateStatus(ctx context.Context, ids []uint, status string) error
}

// Filter narrows ListParticipations. Zero fields are ignored.
type Filter struct {
	City          string
	StartDate     *time.Time
	ExcludeStatus domain.ParticipationStatus
	UserID        uint
}

// ParticipationRepository is the persistence boundary for participations and
// their sector selections. Each call is a single statement; callers get no
// transaction across calls.
type ParticipationRepository struct {
	dao ParticipationDAO
}

func NewParticipationRepository(dao ParticipationDAO) *ParticipationRepository {
	return &ParticipationRepository{
		dao: dao,
	}
}

func (r *ParticipationRepository) ListParticipations(ctx context.Context, filter Filter) ([]domain.Participation, error) {
	found, err := r.dao.List(ctx, dao.ParticipationFilter{
		City:          filter.City,
		StartDate:     filter.StartDate,
		ExcludeStatus: string(filter.ExcludeStatus),
		UserID:        filter.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("r.dao.List -> %w", err)
	}

	participations := make([]domain.Participation, 0, len(found))
	for _, p := range found {
		participations = append(participations, participationDaoToDomain(p))
	}

	return participations, nil
}

func (r *ParticipationRepository) CreateParticipation(ctx context.Context, p domain.Participation) (domain.Participation, error) {
	created, err := r.dao.Insert(ctx, participationDomainToDAO(p))
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return participationDaoToDomain(created), nil
}

func (r *ParticipationRepository) CreateSectorSelections(ctx context.Context, participationID uint, selections []domain.SectorSelection) error {
	rows := make([]dao.SectorSelection, 0, len(selections))
	for _, s := range selections {
		rows = append(rows, dao.SectorSelection{
			SectorCode:   s.SectorCode,
			SectorName:   s.SectorName,
			HousingUnits: s.HousingUnits,
		})
	}

	if err := r.dao.InsertSelections(ctx, participationID, rows); err != nil {
		return fmt.Errorf("r.dao.InsertSelections -> %w", err)
	}

	return nil
}

func (r *ParticipationRepository) CountDistinctParticipationsPerSector(ctx context.Context, participationIDs []uint) (map[string]int, error) {
	rows, err := r.dao.CountDistinctPerSector(ctx, participationIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.CountDistinctPerSector -> %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.SectorCode] = row.Participants
	}

	return counts, nil
}

func (r *ParticipationRepository) ListSelections(ctx context.Context, participationIDs []uint) ([]domain.SectorSelection, error) {
	rows, err := r.dao.ListSelections(ctx, participationIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.ListSelections -> %w", err)
	}

	selections := make([]domain.SectorSelection, 0, len(rows))
	for _, s := range rows {
		selections = append(selections, selectionDaoToDomain(s))
	}

	return selections, nil
}

func (r *ParticipationRepository) UpdateStatus(ctx context.Context, ids []uint, status domain.ParticipationStatus) error {
	if err := r.dao.UpdateStatus(ctx, ids, string(status)); err != nil {
		return fmt.Errorf("r.dao.UpdateStatus -> %w", err)
	}

	return nil
}

func (r *ParticipationRepository) FindByID(ctx context.Context, id uint) (domain.Participation, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.Participation{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return participationDaoToDomain(found), nil
}

// ListByUser returns the participations of a user with their selections.
func (r *ParticipationRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Participation, error) {
	participations, err := r.ListParticipations(ctx, Filter{UserID: userID})
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(participations))
	for _, p := range participations {
		ids = append(ids, p.ID)
	}
	selections, err := r.ListSelections(ctx, ids)
	if err != nil {
		return nil, err
	}

	byParticipation := make(map[uint][]domain.SectorSelection, len(participations))
	for _, s := range selections {
		byParticipation[s.ParticipationID] = append(byParticipation[s.ParticipationID], s)
	}
	for i := range participations {
		participations[i].Selections = byParticipation[participations[i].ID]
	}

	return participations, nil
}

func participationDomainToDAO(p domain.Participation) dao.Participation {
	row := dao.Participation{
		ID:                p.ID,
		UserID:            p.UserID,
		City:              p.City,
		TourStartDate:     p.TourStartDate,
		TourEndDate:       p.TourEndDate,
		TourIndex:         p.TourIndex,
		TotalHousingUnits: p.TotalHousingUnits,
		CostCents:         p.CostCents,
		Status:            string(p.Status),
		HasFlyer:          p.HasFlyer,
	}

	switch f := p.Flyer.Flyer().(type) {
	case domain.FlyerProvided:
		row.FlyerKind = string(domain.FlyerKindProvided)
		row.FlyerTitle = f.Title
		row.FlyerCompany = f.Company
		row.ContactName, row.ContactEmail, row.ContactPhone = f.Contact.Name, f.Contact.Email, f.Contact.Phone
		row.PickupAddress = &f.PickupAddress
	case domain.FlyerToCreate:
		row.FlyerKind = string(domain.FlyerKindToCreate)
		row.FlyerTitle = f.Title
		row.FlyerCompany = f.Company
		row.ContactName, row.ContactEmail, row.ContactPhone = f.Contact.Name, f.Contact.Email, f.Contact.Phone
		format := string(f.PrintFormat)
		row.PrintFormat = &format
	}

	return row
}

func participationDaoToDomain(p dao.Participation) domain.Participation {
	participation := domain.Participation{
		ID:                p.ID,
		UserID:            p.UserID,
		City:              p.City,
		TourStartDate:     p.TourStartDate,
		TourEndDate:       p.TourEndDate,
		TourIndex:         p.TourIndex,
		TotalHousingUnits: p.TotalHousingUnits,
		CostCents:         p.CostCents,
		HasFlyer:          p.HasFlyer,
		Status:            domain.ParticipationStatus(p.Status),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}

	contact := domain.Contact{Name: p.ContactName, Email: p.ContactEmail, Phone: p.ContactPhone}
	switch domain.FlyerKind(p.FlyerKind) {
	case domain.FlyerKindProvided:
		participation.Flyer = domain.NewFlyerPayload(domain.FlyerProvided{
			Title:         p.FlyerTitle,
			Company:       p.FlyerCompany,
			Contact:       contact,
			PickupAddress: deref(p.PickupAddress),
		})
	case domain.FlyerKindToCreate:
		participation.Flyer = domain.NewFlyerPayload(domain.FlyerToCreate{
			Title:       p.FlyerTitle,
			Company:     p.FlyerCompany,
			Contact:     contact,
			PrintFormat: domain.PrintFormat(deref(p.PrintFormat)),
		})
	}

	for _, s := range p.SectorSelections {
		participation.Selections = append(participation.Selections, selectionDaoToDomain(s))
	}

	return participation
}

func selectionDaoToDomain(s dao.SectorSelection) domain.SectorSelection {
	return domain.SectorSelection{
		ParticipationID: s.ParticipationID,
		SectorCode:      s.SectorCode,
		SectorName:      s.SectorName,
		HousingUnits:    s.HousingUnits,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
