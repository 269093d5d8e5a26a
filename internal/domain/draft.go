package domain

import "time"

// Draft is an in-progress booking, kept between page navigations until it is
// submitted. Its ID doubles as the session key.
type Draft struct {
	ID            string            `json:"id"`
	City          string            `json:"city"`
	TourStartDate time.Time         `json:"tour_start_date"`
	Selections    []SectorSelection `json:"selections"`
	Flyer         *FlyerPayload     `json:"flyer,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (d Draft) TotalHousingUnits() int {
	return TotalHousingUnits(d.Selections)
}

func (d Draft) HasSector(code string) bool {
	for _, s := range d.Selections {
		if s.SectorCode == code {
			return true
		}
	}

	return false
}

type DraftView struct {
	Draft
	TotalHousingUnits int   `json:"total_housing_units"`
	MinimumReached    bool  `json:"minimum_reached"`
	CostCents         int64 `json:"cost_cents"`
}
