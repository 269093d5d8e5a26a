package domain

import "time"

type ParticipationStatus string

const (
	ParticipationPending   ParticipationStatus = "pending"
	ParticipationConfirmed ParticipationStatus = "confirmed"
	ParticipationCancelled ParticipationStatus = "cancelled"
	ParticipationBouclee   ParticipationStatus = "bouclee"
)

// Participation is one user's booking for one tour.
type Participation struct {
	ID                uint                `json:"id"`
	UserID            uint                `json:"user_id"`
	City              string              `json:"city"`
	TourStartDate     time.Time           `json:"tour_start_date"`
	TourEndDate       time.Time           `json:"tour_end_date"`
	TourIndex         int                 `json:"tour_index"`
	TotalHousingUnits int                 `json:"total_housing_units"`
	CostCents         int64               `json:"cost_cents"`
	HasFlyer          bool                `json:"has_flyer"`
	Flyer             *FlyerPayload       `json:"flyer,omitempty"`
	Status            ParticipationStatus `json:"status"`
	Selections        []SectorSelection   `json:"selections,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func (p Participation) TourKey() TourKey {
	return TourKey{City: p.City, StartDate: p.TourStartDate.Format(DateLayout)}
}

// SectorSelection attributes housing units of one sector to a participation.
type SectorSelection struct {
	ParticipationID uint   `json:"participation_id,omitempty"`
	SectorCode      string `json:"sector_code"`
	SectorName      string `json:"sector_name"`
	HousingUnits    int    `json:"housing_units"`
}

// TotalHousingUnits sums units of the selections, counting each sector code once.
func TotalHousingUnits(selections []SectorSelection) int {
	seen := make(map[string]struct{}, len(selections))
	total := 0
	for _, s := range selections {
		if _, ok := seen[s.SectorCode]; ok {
			continue
		}
		seen[s.SectorCode] = struct{}{}
		total += s.HousingUnits
	}

	return total
}
