package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	deadlines "franchise-interfacing/internal/deadlines/domain"
)

// Repository keeps deadline entities in memory with one write lock per entity.
type Repository struct {
	mu       sync.RWMutex
	entities map[string]*deadlines.Entity
	locks    map[string]*sync.Mutex
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		entities: make(map[string]*deadlines.Entity),
		locks:    make(map[string]*sync.Mutex),
	}
}

// PutEntity registers or replaces an entity.
func (r *Repository) PutEntity(entity deadlines.Entity) error {
	if entity.ID == "" {
		return deadlines.ErrEmptyEntityID
	}
	if entity.UpdatedAt.IsZero() {
		entity.UpdatedAt = time.Now().UTC()
	}
	stored := cloneEntity(entity)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[entity.ID] = &stored
	if _, ok := r.locks[entity.ID]; !ok {
		r.locks[entity.ID] = &sync.Mutex{}
	}
	return nil
}

// GetEntity returns a copy of the entity, or nil.
func (r *Repository) GetEntity(ctx context.Context, id string) (*deadlines.Entity, error) {
	if r == nil {
		return nil, errors.New("deadline memory repo: nil repository")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.entities[id]
	if !ok {
		return nil, nil
	}
	out := cloneEntity(*entity)
	return &out, nil
}

// UpdateEntity applies fn to a working copy while holding the entity lock.
func (r *Repository) UpdateEntity(ctx context.Context, id string, fn func(*deadlines.Entity) bool) (*deadlines.Entity, error) {
	if r == nil {
		return nil, errors.New("deadline memory repo: nil repository")
	}
	r.mu.RLock()
	lock, ok := r.locks[id]
	r.mu.RUnlock()
	if !ok {
		return nil, deadlines.ErrNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	current := cloneEntity(*r.entities[id])
	r.mu.RUnlock()

	if fn(&current) {
		stored := cloneEntity(current)
		r.mu.Lock()
		r.entities[id] = &stored
		r.mu.Unlock()
	}
	return &current, nil
}

func cloneEntity(entity deadlines.Entity) deadlines.Entity {
	out := entity
	if entity.DeadlineDate != nil {
		d := *entity.DeadlineDate
		out.DeadlineDate = &d
	}
	if entity.History != nil {
		out.History = make([]deadlines.DeadlineChangeRecord, len(entity.History))
		copy(out.History, entity.History)
	}
	return out
}
