package domain

import "encoding/json"

type SectorStatus string

const (
	SectorOpen      SectorStatus = "open"
	SectorValidated SectorStatus = "validated"
	SectorFull      SectorStatus = "full"
	SectorCancelled SectorStatus = "cancelled"
)

// Sector is an IRIS area of a city.
type Sector struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	HousingUnits int    `json:"housing_units"`
}

// SectorView is a sector seen through a given tour.
type SectorView struct {
	Sector
	Participants int             `json:"participants"`
	Status       SectorStatus    `json:"status"`
	Selectable   bool            `json:"selectable"`
	Geometry     json.RawMessage `json:"geometry,omitempty" swaggertype:"object"`
}
