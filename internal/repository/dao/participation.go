package dao

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrParticipationNotFound = errors.New("participation not found")
	ErrDuplicateSelection    = errors.New("sector already selected for this participation")
)

// optionalColumns may be missing on databases that were not migrated yet.
// Inserts that fail on one of them are retried without it.
var optionalColumns = map[string]struct{}{
	"pickup_address": {},
	"print_format":   {},
	"flyer_kind":     {},
	"contact_phone":  {},
	"cost_cents":     {},
}

var undefinedColumnPattern = regexp.MustCompile(`column "([^"]+)"`)

type Participation struct {
	ID uint `gorm:"primaryKey"`

	UserID            uint      `gorm:"not null;index"`
	City              string    `gorm:"not null;index:idx_participations_tour,priority:1"`
	TourStartDate     time.Time `gorm:"type:date;not null;index:idx_participations_tour,priority:2"`
	TourEndDate       time.Time `gorm:"type:date;not null"`
	TourIndex         int       `gorm:"not null"`
	TotalHousingUnits int       `gorm:"not null"`
	CostCents         int64
	Status            string `gorm:"not null;index"`

	HasFlyer      bool `gorm:"not null"`
	FlyerKind     string
	FlyerTitle    string
	FlyerCompany  string
	ContactName   string
	ContactEmail  string
	ContactPhone  string
	PickupAddress *string
	PrintFormat   *string

	SectorSelections []SectorSelection `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type SectorSelection struct {
	ID uint `gorm:"primaryKey"`

	ParticipationID uint   `gorm:"not null;uniqueIndex:idx_selections_participation_sector,priority:1"`
	SectorCode      string `gorm:"not null;index;uniqueIndex:idx_selections_participation_sector,priority:2"`
	SectorName      string `gorm:"not null"`
	HousingUnits    int    `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
}

type ParticipationFilter struct {
	City          string
	StartDate     *time.Time
	ExcludeStatus string
	UserID        uint
}

type SectorCount struct {
	SectorCode   string
	Participants int
}

type ParticipationDAO struct {
	db *gorm.DB
}

func NewParticipationDAO(db *gorm.DB) *ParticipationDAO {
	return &ParticipationDAO{
		db: db,
	}
}

// Insert creates the participation row only; selections are inserted with
// InsertSelections. Unknown optional columns are dropped and the insert is
// retried.
func (d *ParticipationDAO) Insert(ctx context.Context, p Participation) (Participation, error) {
	p.SectorSelections = nil

	var omitted []string
	for {
		row := p
		tx := d.db.WithContext(ctx).Omit(append([]string{clause.Associations}, omitted...)...)
		result := tx.Create(&row)
		if result.Error == nil {
			return row, nil
		}

		column, ok := undefinedOptionalColumn(result.Error)
		if !ok || contains(omitted, column) {
			return Participation{}, result.Error
		}

		zap.L().Warn("participation column missing, retrying without it", zap.String("column", column))
		omitted = append(omitted, column)
	}
}

func undefinedOptionalColumn(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UndefinedColumn {
		return "", false
	}

	column := pgErr.ColumnName
	if column == "" {
		m := undefinedColumnPattern.FindStringSubmatch(pgErr.Message)
		if m == nil {
			return "", false
		}
		column = m[1]
	}
	if _, ok := optionalColumns[column]; !ok {
		return "", false
	}

	return column, true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}

func (d *ParticipationDAO) InsertSelections(ctx context.Context, participationID uint, selections []SectorSelection) error {
	if len(selections) == 0 {
		return nil
	}
	for i := range selections {
		selections[i].ParticipationID = participationID
	}

	result := d.db.WithContext(ctx).Create(&selections)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) && err.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateSelection
		}

		return result.Error
	}

	return nil
}

func (d *ParticipationDAO) List(ctx context.Context, filter ParticipationFilter) ([]Participation, error) {
	q := d.db.WithContext(ctx).Model(&Participation{})
	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.StartDate != nil {
		q = q.Where("tour_start_date = ?", *filter.StartDate)
	}
	if filter.ExcludeStatus != "" {
		q = q.Where("status <> ?", filter.ExcludeStatus)
	}
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}

	var participations []Participation
	if err := q.Order("tour_start_date, id").Find(&participations).Error; err != nil {
		return nil, err
	}

	return participations, nil
}

func (d *ParticipationDAO) FindByID(ctx context.Context, id uint) (Participation, error) {
	var p Participation

	result := d.db.WithContext(ctx).Preload("SectorSelections", func(db *gorm.DB) *gorm.DB {
		return db.Order("sector_code")
	}).First(&p, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Participation{}, ErrParticipationNotFound
		}

		return Participation{}, result.Error
	}

	return p, nil
}

func (d *ParticipationDAO) ListSelections(ctx context.Context, participationIDs []uint) ([]SectorSelection, error) {
	if len(participationIDs) == 0 {
		return nil, nil
	}

	var selections []SectorSelection
	err := d.db.WithContext(ctx).
		Where("participation_id IN ?", participationIDs).
		Order("participation_id, sector_code").
		Find(&selections).Error
	if err != nil {
		return nil, err
	}

	return selections, nil
}

// CountDistinctPerSector counts, for each sector code, the distinct
// participations among participationIDs that selected it.
func (d *ParticipationDAO) CountDistinctPerSector(ctx context.Context, participationIDs []uint) ([]SectorCount, error) {
	if len(participationIDs) == 0 {
		return nil, nil
	}

	var counts []SectorCount
	err := d.db.WithContext(ctx).
		Model(&SectorSelection{}).
		Select("sector_code, COUNT(DISTINCT participation_id) AS participants").
		Where("participation_id IN ?", participationIDs).
		Group("sector_code").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	return counts, nil
}

func (d *ParticipationDAO) UpdateStatus(ctx context.Context, ids []uint, status string) error {
	if len(ids) == 0 {
		return nil
	}

	return d.db.WithContext(ctx).
		Model(&Participation{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}
