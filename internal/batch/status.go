// Package batch reclassifies participations once the registration deadline
// of their tour has passed.
package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/flyerdrop/tournees-api/internal/domain"
	"github.com/flyerdrop/tournees-api/internal/repository"
	"github.com/flyerdrop/tournees-api/internal/tourstatus"
)

type Store interface {
	ListParticipations(ctx context.Context, filter repository.Filter) ([]domain.Participation, error)
	CountDistinctParticipationsPerSector(ctx context.Context, participationIDs []uint) (map[string]int, error)
	UpdateStatus(ctx context.Context, ids []uint, status domain.ParticipationStatus) error
}

type TourFailure struct {
	City      string `json:"city"`
	StartDate string `json:"start_date"`
	Error     string `json:"error"`
}

// Summary reports one run of the job. Tours whose deadline is still ahead
// are counted as open and left untouched.
type Summary struct {
	StartedAt             time.Time     `json:"started_at"`
	FinishedAt            time.Time     `json:"finished_at"`
	ToursScanned          int           `json:"tours_scanned"`
	ToursOpen             int           `json:"tours_open"`
	ToursUpdated          int           `json:"tours_updated"`
	ToursUnchanged        int           `json:"tours_unchanged"`
	ToursFailed           int           `json:"tours_failed"`
	ParticipationsUpdated int           `json:"participations_updated"`
	Failures              []TourFailure `json:"failures,omitempty"`
}

func (s Summary) HasFailures() bool {
	return s.ToursFailed > 0
}

type StatusJob struct {
	store  Store
	engine *tourstatus.Engine
	now    func() time.Time
}

func NewStatusJob(store Store, engine *tourstatus.Engine, now func() time.Time) *StatusJob {
	if now == nil {
		now = time.Now
	}

	return &StatusJob{
		store:  store,
		engine: engine,
		now:    now,
	}
}

// Run applies the deadline outcome to every tour whose registrations are
// closed. A failing tour is recorded and does not stop the others. The
// returned error is set only when participations cannot be listed.
func (j *StatusJob) Run(ctx context.Context) (Summary, error) {
	now := j.now()
	summary := Summary{StartedAt: now}

	participations, err := j.store.ListParticipations(ctx, repository.Filter{
		ExcludeStatus: domain.ParticipationCancelled,
	})
	if err != nil {
		return summary, fmt.Errorf("j.store.ListParticipations -> %w", err)
	}

	groups := make(map[domain.TourKey][]domain.Participation)
	for _, p := range participations {
		groups[p.TourKey()] = append(groups[p.TourKey()], p)
	}
	keys := make([]domain.TourKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a].StartDate != keys[b].StartDate {
			return keys[a].StartDate < keys[b].StartDate
		}
		return keys[a].City < keys[b].City
	})

	for _, key := range keys {
		if err = ctx.Err(); err != nil {
			return j.finish(summary), err
		}
		summary.ToursScanned++

		group := groups[key]
		if !j.engine.IsDeadlinePassed(group[0].TourStartDate, now) {
			summary.ToursOpen++
			continue
		}

		updated, err := j.closeTour(ctx, group)
		if err != nil {
			summary.ToursFailed++
			summary.Failures = append(summary.Failures, TourFailure{
				City:      key.City,
				StartDate: key.StartDate,
				Error:     err.Error(),
			})
			zap.L().Error("failed to update tour participations",
				zap.String("city", key.City),
				zap.String("start_date", key.StartDate),
				zap.Error(err),
			)
			continue
		}
		if updated == 0 {
			summary.ToursUnchanged++
			continue
		}
		summary.ToursUpdated++
		summary.ParticipationsUpdated += updated
	}

	return j.finish(summary), nil
}

func (j *StatusJob) finish(s Summary) Summary {
	s.FinishedAt = j.now()
	zap.L().Info("status batch finished",
		zap.Int("tours_scanned", s.ToursScanned),
		zap.Int("tours_updated", s.ToursUpdated),
		zap.Int("tours_failed", s.ToursFailed),
		zap.Int("participations_updated", s.ParticipationsUpdated),
	)

	return s
}

// closeTour persists the outcome of one tour and returns how many
// participations changed status.
func (j *StatusJob) closeTour(ctx context.Context, group []domain.Participation) (int, error) {
	ids := make([]uint, 0, len(group))
	for _, p := range group {
		ids = append(ids, p.ID)
	}

	counts, err := j.store.CountDistinctParticipationsPerSector(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("j.store.CountDistinctParticipationsPerSector -> %w", err)
	}

	outcome := tourstatus.DeadlineOutcome(counts)
	status, ok := tourstatus.ParticipationStatusFor(outcome)
	if !ok {
		return 0, fmt.Errorf("no participation status for tour status %q", outcome)
	}

	var changed []uint
	for _, p := range group {
		if p.Status != status {
			changed = append(changed, p.ID)
		}
	}
	if len(changed) == 0 {
		return 0, nil
	}

	if err = j.store.UpdateStatus(ctx, changed, status); err != nil {
		return 0, fmt.Errorf("j.store.UpdateStatus -> %w", err)
	}

	return len(changed), nil
}
