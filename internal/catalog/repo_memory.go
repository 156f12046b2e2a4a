package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a simple in-memory Store useful for tests and early development.
type MemoryStore struct {
	mu sync.RWMutex

	partners map[int64]Partner
	programs map[int64]Program
	events   map[int64]ProgramEvent
	nextID   int64

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		partners: make(map[int64]Partner),
		programs: make(map[int64]Program),
		events:   make(map[int64]ProgramEvent),
		nextID:   1,
		clock:    time.Now,
	}
}

func (m *MemoryStore) GetPartner(ctx context.Context, id int64) (Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.partners[id]
	if !ok {
		return Partner{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListPartners(ctx context.Context, limit int) ([]Partner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Partner, 0, len(m.partners))
	for _, p := range m.partners {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CreatePartner(ctx context.Context, p Partner) (Partner, error) {
	if err := p.Validate(); err != nil {
		return Partner{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock().UTC()
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt, p.UpdatedAt = now, now
	m.partners[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetProgram(ctx context.Context, id int64) (Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.programs[id]
	if !ok {
		return Program{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryStore) ListPrograms(ctx context.Context, limit int) ([]Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Program, 0, len(m.programs))
	for _, p := range m.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CreateProgram(ctx context.Context, p Program) (Program, error) {
	if err := p.Validate(); err != nil {
		return Program{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock().UTC()
	p.ID = m.nextID
	m.nextID++
	p.CreatedAt, p.UpdatedAt = now, now
	m.programs[p.ID] = p
	return p, nil
}

func (m *MemoryStore) GetEvent(ctx context.Context, id int64) (ProgramEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return ProgramEvent{}, ErrNotFound
	}
	return e, nil
}

func (m *MemoryStore) ListEventsByProgram(ctx context.Context, programID int64) ([]ProgramEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ProgramEvent
	for _, e := range m.events {
		if e.ProgramID == programID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *MemoryStore) UpcomingEvents(ctx context.Context, now time.Time, window time.Duration) ([]ProgramEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	end := now.Add(window)
	var out []ProgramEvent
	for _, e := range m.events {
		if !e.StartsAt.Before(now) && e.StartsAt.Before(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (m *MemoryStore) CreateEvent(ctx context.Context, e ProgramEvent) (ProgramEvent, error) {
	if err := e.Validate(); err != nil {
		return ProgramEvent{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock().UTC()
	e.ID = m.nextID
	m.nextID++
	e.CreatedAt, e.UpdatedAt = now, now
	m.events[e.ID] = e
	return e, nil
}
