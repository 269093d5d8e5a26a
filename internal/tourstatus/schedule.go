package tourstatus

import (
	"errors"
	"hash/fnv"
	"strings"
	"time"

	"github.com/flyerdrop/tournees-api/internal/domain"
)

var ErrTourNotFound = errors.New("no tour starts on this date")

type ScheduleConfig struct {
	Anchor       time.Time
	IntervalDays int
	DurationDays int
	WindowMonths int
}

// Schedule generates the tours of a city. Tours repeat every IntervalDays from
// Anchor, shifted by a per-city offset so that cities do not all start on the
// same day.
type Schedule struct {
	conf   ScheduleConfig
	engine *Engine
}

func NewSchedule(conf ScheduleConfig, engine *Engine) *Schedule {
	if conf.IntervalDays <= 0 {
		conf.IntervalDays = 14
	}
	if conf.DurationDays <= 0 {
		conf.DurationDays = 7
	}
	if conf.WindowMonths <= 0 {
		conf.WindowMonths = 24
	}
	conf.Anchor = Day(conf.Anchor)

	return &Schedule{conf: conf, engine: engine}
}

func (s *Schedule) cityOffset(city string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(city))))

	return int(h.Sum32() % uint32(s.conf.IntervalDays))
}

func (s *Schedule) firstStart(city string) time.Time {
	return s.conf.Anchor.AddDate(0, 0, s.cityOffset(city))
}

// TourAt returns the tour with the given index. Negative indexes are allowed
// and denote tours before the anchor.
func (s *Schedule) TourAt(city string, index int) domain.Tour {
	start := s.firstStart(city).AddDate(0, 0, index*s.conf.IntervalDays)

	return domain.Tour{
		City:      city,
		Index:     index,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, s.conf.DurationDays-1),
		Deadline:  s.engine.Deadline(start),
		Capacity:  Capacity,
	}
}

// Tours lists the tours starting within the rolling window that opens on the
// first day of the current month.
func (s *Schedule) Tours(city string, now time.Time) []domain.Tour {
	windowStart, windowEnd := s.window(now)

	index := floorDiv(daysBetween(s.firstStart(city), windowStart), s.conf.IntervalDays)
	var tours []domain.Tour
	for {
		t := s.TourAt(city, index)
		if !t.StartDate.Before(windowEnd) {
			break
		}
		if !t.StartDate.Before(windowStart) {
			tours = append(tours, t)
		}
		index++
	}

	return tours
}

// window returns the bounds [start, end) of the rolling window at now.
func (s *Schedule) window(now time.Time) (time.Time, time.Time) {
	today := s.engine.Today(now)
	start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	return start, start.AddDate(0, s.conf.WindowMonths, 0)
}

// Find returns the tour of a city starting on the given day. Only tours
// listed by Tours at now can be found.
func (s *Schedule) Find(city string, start, now time.Time) (domain.Tour, error) {
	day := Day(start)
	windowStart, windowEnd := s.window(now)
	if day.Before(windowStart) || !day.Before(windowEnd) {
		return domain.Tour{}, ErrTourNotFound
	}

	days := daysBetween(s.firstStart(city), day)
	if days%s.conf.IntervalDays != 0 {
		return domain.Tour{}, ErrTourNotFound
	}

	return s.TourAt(city, days/s.conf.IntervalDays), nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}
