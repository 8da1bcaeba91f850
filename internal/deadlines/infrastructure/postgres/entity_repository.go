package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	deadlines "franchise-interfacing/internal/deadlines/domain"
)

const defaultEntitiesTable = "deadline_entities"

// EntityRepository stores deadline entities with their JSONB history.
type EntityRepository struct {
	db    *sql.DB
	table string
}

// NewEntityRepository constructs a repository.
func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db, table: defaultEntitiesTable}
}

// GetEntity fetches an entity, or nil when missing.
func (r *EntityRepository) GetEntity(ctx context.Context, id string) (*deadlines.Entity, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("deadline repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
SELECT id, name, deadline_date, deadline_history, updated_at
FROM %s
WHERE id = $1`, r.table), id)
	return scanEntity(row)
}

// UpdateEntity locks the row, applies fn and writes deadline and history in one transaction.
func (r *EntityRepository) UpdateEntity(ctx context.Context, id string, fn func(*deadlines.Entity) bool) (*deadlines.Entity, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("deadline repo: nil db")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	row := tx.QueryRowContext(ctx, fmt.Sprintf(`
SELECT id, name, deadline_date, deadline_history, updated_at
FROM %s
WHERE id = $1
FOR UPDATE`, r.table), id)
	entity, err := scanEntity(row)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if entity == nil {
		_ = tx.Rollback()
		return nil, deadlines.ErrNotFound
	}

	if !fn(entity) {
		_ = tx.Rollback()
		return entity, nil
	}
	history, err := deadlines.EncodeHistory(entity.History)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
UPDATE %s
SET deadline_date = $2, deadline_history = $3::jsonb, updated_at = $4
WHERE id = $1`, r.table),
		entity.ID, nullDay(entity.DeadlineDate), string(history), entity.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entity, nil
}

// Save inserts or replaces an entity.
func (r *EntityRepository) Save(ctx context.Context, entity deadlines.Entity) error {
	if r == nil || r.db == nil {
		return errors.New("deadline repo: nil db")
	}
	if entity.ID == "" {
		return deadlines.ErrEmptyEntityID
	}
	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = time.Now().UTC()
	}
	history, err := deadlines.EncodeHistory(entity.History)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (id, name, deadline_date, deadline_history, updated_at)
VALUES ($1, $2, $3, $4::jsonb, $5)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	deadline_date = EXCLUDED.deadline_date,
	deadline_history = EXCLUDED.deadline_history,
	updated_at = EXCLUDED.updated_at`, r.table),
		entity.ID, entity.Name, nullDay(entity.DeadlineDate), string(history), entity.UpdatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*deadlines.Entity, error) {
	var (
		entity   deadlines.Entity
		deadline sql.NullTime
		history  []byte
	)
	if err := row.Scan(&entity.ID, &entity.Name, &deadline, &history, &entity.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if deadline.Valid {
		entity.DeadlineDate = deadlines.TruncateDay(&deadline.Time)
	}
	records, err := deadlines.DecodeHistory(history)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", entity.ID, err)
	}
	entity.History = records
	entity.UpdatedAt = entity.UpdatedAt.UTC()
	return &entity, nil
}

func nullDay(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
