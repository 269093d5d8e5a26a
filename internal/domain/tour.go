package domain

import "time"

// TourStatus is the lifecycle state of a tournée as derived at read time.
type TourStatus string

const (
	TourAvailable TourStatus = "available"
	TourConfirmed TourStatus = "confirmed"
	TourCancelled TourStatus = "cancelled"
	TourBouclee   TourStatus = "bouclee"
	TourExpired   TourStatus = "expired"
)

// Tour is a distribution campaign for a city. It is never persisted: tours are
// generated from a schedule and their status is computed from participations.
type Tour struct {
	City      string    `json:"city"`
	Index     int       `json:"index"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Deadline  time.Time `json:"deadline"`
	Capacity  int       `json:"capacity"`
}

// TourKey identifies a tour by city and start day.
type TourKey struct {
	City      string
	StartDate string
}

func (t Tour) Key() TourKey {
	return TourKey{City: t.City, StartDate: t.StartDate.Format(DateLayout)}
}

// DateLayout is the calendar-day format used in URLs and tour keys.
const DateLayout = "2006-01-02"

type TourView struct {
	Tour
	Participants int        `json:"participants"`
	Status       TourStatus `json:"status"`
}
