package domain

// City is a commune served by the distribution network.
type City struct {
	Name              string `json:"name"`
	CommuneCode       string `json:"commune_code"`
	TotalHousingUnits int    `json:"total_housing_units"`
	SectorCount       int    `json:"sector_count"`
}
