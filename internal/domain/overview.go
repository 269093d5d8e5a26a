package domain

// TourOverview aggregates the participations of one tour for back-office use.
type TourOverview struct {
	TourView
	HousingUnits int              `json:"housing_units"`
	CostCents    int64            `json:"cost_cents"`
	Sectors      []SectorOverview `json:"sectors"`
}

type SectorOverview struct {
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Participants int          `json:"participants"`
	Status       SectorStatus `json:"status"`
}

type CityOverview struct {
	City  string         `json:"city"`
	Tours []TourOverview `json:"tours"`
}
