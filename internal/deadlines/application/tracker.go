package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	deadlines "franchise-interfacing/internal/deadlines/domain"
	"franchise-interfacing/internal/observability/metrics"
)

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// UpdateResult is the outcome of a deadline update.
type UpdateResult struct {
	Entity          deadlines.Entity `json:"entity"`
	HistoryAppended bool             `json:"history_appended"`
}

// Tracker records deadline changes with an append-only history.
type Tracker struct {
	repo   deadlines.EntityRepository
	clock  Clock
	logger *log.Logger
}

// TrackerOption customizes the tracker.
type TrackerOption func(*Tracker)

// WithClock assigns a clock.
func WithClock(clock Clock) TrackerOption {
	return func(t *Tracker) {
		t.clock = clock
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// NewTracker constructs a tracker.
func NewTracker(repo deadlines.EntityRepository, opts ...TrackerOption) (*Tracker, error) {
	if repo == nil {
		return nil, errors.New("deadlines: nil repository")
	}
	tracker := &Tracker{repo: repo, clock: systemClock{}, logger: log.Default()}
	for _, opt := range opts {
		opt(tracker)
	}
	return tracker, nil
}

// UpdateDeadline sets the entity deadline. A different day appends one history record;
// the same day is a no-op.
func (t *Tracker) UpdateDeadline(ctx context.Context, entityID string, newDate *time.Time) (UpdateResult, error) {
	if t == nil {
		return UpdateResult{}, errors.New("deadlines: nil tracker")
	}
	if entityID == "" {
		metrics.IncDeadlineUpdate(metrics.DeadlineRejected)
		return UpdateResult{}, deadlines.ErrEmptyEntityID
	}

	appended := false
	entity, err := t.repo.UpdateEntity(ctx, entityID, func(e *deadlines.Entity) bool {
		appended = e.ChangeDeadline(newDate, t.clock.Now())
		return appended
	})
	if err != nil {
		metrics.IncDeadlineUpdate(metrics.DeadlineRejected)
		return UpdateResult{}, fmt.Errorf("update deadline %s: %w", entityID, err)
	}

	outcome := metrics.DeadlineUnchanged
	if appended {
		outcome = metrics.DeadlineChanged
		t.logger.Printf("deadline changed: entity=%s history=%d", entityID, len(entity.History))
	}
	metrics.IncDeadlineUpdate(outcome)
	return UpdateResult{Entity: *entity, HistoryAppended: appended}, nil
}

// GetHistory returns the change history of an entity, oldest first.
func (t *Tracker) GetHistory(ctx context.Context, entityID string) ([]deadlines.DeadlineChangeRecord, error) {
	if t == nil {
		return nil, errors.New("deadlines: nil tracker")
	}
	if entityID == "" {
		return nil, deadlines.ErrEmptyEntityID
	}
	entity, err := t.repo.GetEntity(ctx, entityID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, deadlines.ErrNotFound
	}
	history := entity.History
	if history == nil {
		history = []deadlines.DeadlineChangeRecord{}
	}
	return history, nil
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
