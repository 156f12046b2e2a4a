package calllog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and early development.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]CallLog // keyed by call_sid

	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]CallLog), clock: time.Now}
}

func (m *MemoryStore) Create(ctx context.Context, log CallLog) (CallLog, error) {
	if log.CallSid == "" || log.ToNumber == "" {
		return CallLog{}, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock().UTC()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = StatusInitiated
	}
	if log.StartedAt.IsZero() {
		log.StartedAt = now
	}
	log.CreatedAt, log.UpdatedAt = now, now
	m.rows[log.CallSid] = log
	return log, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (CallLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.rows {
		if l.ID == id {
			return l, nil
		}
	}
	return CallLog{}, ErrNotFound
}

func (m *MemoryStore) GetByCallSid(ctx context.Context, callSid string) (CallLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.rows[callSid]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return l, nil
}

func (m *MemoryStore) Finalize(ctx context.Context, callSid string, req FinalizeRequest) (CallLog, bool, error) {
	if callSid == "" || !req.Status.IsTerminal() {
		return CallLog{}, false, ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.rows[callSid]
	if !ok {
		return CallLog{}, false, ErrNotFound
	}
	if l.Status.IsTerminal() {
		return l, false, nil
	}

	now := m.clock().UTC()
	endedAt := req.EndedAt
	if endedAt.IsZero() {
		endedAt = now
	}
	l.Status = req.Status
	l.EndedAt = &endedAt
	l.DurationSeconds = req.DurationSeconds
	l.Outcome = req.Outcome
	l.TranscriptPath = req.TranscriptPath
	l.RecordingURL = req.RecordingURL
	l.UpdatedAt = now
	m.rows[callSid] = l
	return l, true, nil
}

func (m *MemoryStore) List(ctx context.Context, from, to time.Time, limit int) ([]CallLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []CallLog
	for _, l := range m.rows {
		if !l.StartedAt.Before(from) && l.StartedAt.Before(to) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
