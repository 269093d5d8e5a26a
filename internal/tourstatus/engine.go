package tourstatus

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

const (
	// Capacity is the number of participations a tour or a sector can hold.
	Capacity = 5
	// ValidationThreshold is the participant count a sector needs at the deadline.
	ValidationThreshold = 3
	// DeadlineOffsetDays separates the registration deadline from the start date.
	DeadlineOffsetDays = 15
	// MinHousingUnits is the smallest booking accepted at submission.
	MinHousingUnits = 5000
)

var (
	ErrDeadlinePassed = errors.New("registration deadline has passed")
	ErrSectorFull     = errors.New("sector has reached its participant cap")
	ErrBelowMinimum   = fmt.Errorf("at least %d housing units must be selected", MinHousingUnits)
)

// Engine derives tour and sector statuses from dates and participant counts.
// Start dates are calendar days; "now" is converted to the engine location
// before being truncated to a day.
type Engine struct {
	loc *time.Location
}

func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}

	return &Engine{loc: loc}
}

func (e *Engine) Location() *time.Location {
	return e.loc
}

// Day truncates a calendar date to midnight UTC, keeping its year, month and day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (e *Engine) Today(now time.Time) time.Time {
	return Day(now.In(e.loc))
}

func (e *Engine) Deadline(start time.Time) time.Time {
	return Day(start).AddDate(0, 0, -DeadlineOffsetDays)
}

func (e *Engine) IsPast(start, now time.Time) bool {
	return e.Today(now).After(Day(start))
}

func (e *Engine) IsDeadlinePassed(start, now time.Time) bool {
	return e.Today(now).After(e.Deadline(start))
}

// TourStatus computes the read-time status of a tour. sectorCounts holds the
// distinct participants per sector code; participants is the number of
// participations of the tour.
func (e *Engine) TourStatus(start time.Time, sectorCounts map[string]int, participants int, now time.Time) domain.TourStatus {
	if e.IsPast(start, now) {
		return domain.TourExpired
	}
	if e.IsDeadlinePassed(start, now) {
		return DeadlineOutcome(sectorCounts)
	}
	if participants >= Capacity {
		return domain.TourBouclee
	}

	return domain.TourAvailable
}

// DeadlineOutcome is the transition applied once registrations close.
func DeadlineOutcome(sectorCounts map[string]int) domain.TourStatus {
	best := 0
	for _, c := range sectorCounts {
		if c > best {
			best = c
		}
	}

	switch {
	case best >= Capacity:
		return domain.TourBouclee
	case best >= ValidationThreshold:
		return domain.TourConfirmed
	default:
		return domain.TourCancelled
	}
}

// SectorStatus returns the status of one sector of a tour and whether a new
// selection of it is currently allowed.
func (e *Engine) SectorStatus(start time.Time, participants int, now time.Time) (domain.SectorStatus, bool) {
	if participants >= Capacity {
		return domain.SectorFull, false
	}

	past := e.IsPast(start, now)
	deadlinePassed := e.IsDeadlinePassed(start, now)

	switch {
	case participants >= ValidationThreshold && (past || deadlinePassed):
		return domain.SectorValidated, false
	case past:
		return domain.SectorCancelled, false
	default:
		return domain.SectorOpen, !deadlinePassed
	}
}

// CheckSelection rejects adding a sector to a booking. It is advisory: two
// concurrent bookings can both pass it.
func (e *Engine) CheckSelection(start time.Time, participants int, now time.Time) error {
	if e.IsDeadlinePassed(start, now) {
		return ErrDeadlinePassed
	}
	if participants >= Capacity {
		return ErrSectorFull
	}

	return nil
}

// CheckSubmission validates a booking right before it is persisted.
// sectorCounts holds the current participants of every selected sector.
func (e *Engine) CheckSubmission(start time.Time, totalHousingUnits int, sectorCounts map[string]int, now time.Time) error {
	if e.IsDeadlinePassed(start, now) {
		return ErrDeadlinePassed
	}
	if totalHousingUnits < MinHousingUnits {
		return ErrBelowMinimum
	}

	codes := make([]string, 0, len(sectorCounts))
	for code := range sectorCounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if sectorCounts[code] >= Capacity {
			return fmt.Errorf("%w: %s", ErrSectorFull, code)
		}
	}

	return nil
}

// ParticipationStatusFor maps a closed tour status onto its participations.
func ParticipationStatusFor(status domain.TourStatus) (domain.ParticipationStatus, bool) {
	switch status {
	case domain.TourConfirmed:
		return domain.ParticipationConfirmed, true
	case domain.TourCancelled:
		return domain.ParticipationCancelled, true
	case domain.TourBouclee:
		return domain.ParticipationBouclee, true
	default:
		return "", false
	}
}

// CountDistinct counts distinct participations per sector code.
func CountDistinct(selections []domain.SectorSelection) map[string]int {
	seen := make(map[string]map[uint]struct{})
	for _, s := range selections {
		ids, ok := seen[s.SectorCode]
		if !ok {
			ids = make(map[uint]struct{})
			seen[s.SectorCode] = ids
		}
		ids[s.ParticipationID] = struct{}{}
	}

	counts := make(map[string]int, len(seen))
	for code, ids := range seen {
		counts[code] = len(ids)
	}

	return counts
}
