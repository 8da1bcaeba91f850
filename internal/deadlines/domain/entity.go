package deadlines

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format of deadline dates.
const DateLayout = "2006-01-02"

// ParseDeadline parses a YYYY-MM-DD deadline. Empty input clears the deadline and yields nil.
func ParseDeadline(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDeadline, value)
	}
	return &parsed, nil
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// SameDay compares two optional deadlines at day precision. Two nils are equal.
func SameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DeadlineChangeRecord is one append-only history entry.
type DeadlineChangeRecord struct {
	From      *time.Time
	To        *time.Time
	ChangedAt time.Time
}

type changeRecordJSON struct {
	From      *string `json:"from"`
	To        *string `json:"to"`
	ChangedAt string  `json:"changedAt"`
}

// MarshalJSON writes {"from":"YYYY-MM-DD"|null,"to":"YYYY-MM-DD"|null,"changedAt":RFC3339}.
func (r DeadlineChangeRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(changeRecordJSON{
		From:      formatDay(r.From),
		To:        formatDay(r.To),
		ChangedAt: r.ChangedAt.UTC().Format(time.RFC3339),
	})
}

// UnmarshalJSON validates the stored record shape.
func (r *DeadlineChangeRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var raw changeRecordJSON
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHistory, err)
	}
	from, err := parseDay(raw.From)
	if err != nil {
		return fmt.Errorf("%w: from: %v", ErrInvalidHistory, err)
	}
	to, err := parseDay(raw.To)
	if err != nil {
		return fmt.Errorf("%w: to: %v", ErrInvalidHistory, err)
	}
	changedAt, err := time.Parse(time.RFC3339, raw.ChangedAt)
	if err != nil {
		return fmt.Errorf("%w: changedAt: %v", ErrInvalidHistory, err)
	}
	*r = DeadlineChangeRecord{From: from, To: to, ChangedAt: changedAt.UTC()}
	return nil
}

// DecodeHistory loads a stored history list, rejecting malformed records.
func DecodeHistory(data []byte) ([]DeadlineChangeRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var history []DeadlineChangeRecord
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// EncodeHistory serializes a history list; an empty list encodes as [].
func EncodeHistory(history []DeadlineChangeRecord) ([]byte, error) {
	if history == nil {
		history = []DeadlineChangeRecord{}
	}
	return json.Marshal(history)
}

func formatDay(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func parseDay(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	parsed, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// Entity is anything that carries a deadline, such as a country go-live or a release.
type Entity struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	DeadlineDate *time.Time             `json:"-"`
	History      []DeadlineChangeRecord `json:"history"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

type entityJSON struct {
	ID           string                 `json:"id"`
	Name         string                 `json:"name"`
	DeadlineDate *string                `json:"deadline_date"`
	History      []DeadlineChangeRecord `json:"history"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// MarshalJSON renders the deadline as YYYY-MM-DD or null.
func (e Entity) MarshalJSON() ([]byte, error) {
	history := e.History
	if history == nil {
		history = []DeadlineChangeRecord{}
	}
	return json.Marshal(entityJSON{
		ID:           e.ID,
		Name:         e.Name,
		DeadlineDate: formatDay(e.DeadlineDate),
		History:      history,
		UpdatedAt:    e.UpdatedAt,
	})
}

// ChangeDeadline sets the deadline and appends one history record when the day differs.
// It reports whether a record was appended; equal days leave the entity untouched.
func (e *Entity) ChangeDeadline(to *time.Time, at time.Time) bool {
	to = TruncateDay(to)
	if SameDay(e.DeadlineDate, to) {
		return false
	}
	e.History = append(e.History, DeadlineChangeRecord{
		From:      TruncateDay(e.DeadlineDate),
		To:        to,
		ChangedAt: at.UTC(),
	})
	e.DeadlineDate = to
	e.UpdatedAt = at.UTC()
	return true
}

// EntityRepository stores deadline entities.
type EntityRepository interface {
	// GetEntity returns nil when the entity does not exist.
	GetEntity(ctx context.Context, id string) (*Entity, error)
	// UpdateEntity runs fn on the current entity under a per-entity write lock and persists the result
	// when fn returns true. It returns ErrNotFound for unknown ids.
	UpdateEntity(ctx context.Context, id string, fn func(*Entity) bool) (*Entity, error)
}
