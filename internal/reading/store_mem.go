package reading

import (
	"context"
	"sync"
	"time"
)

// memoryStore backs tests and offline single-process runs.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{records: map[string]Record{}, now: now}
}

func (m *memoryStore) Create(ctx context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.records {
		if existing.StudentID == r.StudentID && existing.BookID == r.BookID {
			return ErrAlreadyReading
		}
	}
	r.Version = 1
	m.records[r.ID] = cloneRecord(r)
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *memoryStore) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.records {
		if r.StudentID == studentID {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (m *memoryStore) ListByStatus(ctx context.Context, status Status) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.records {
		if r.Status == status {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (m *memoryStore) Update(ctx context.Context, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[r.ID]
	if !ok {
		return Record{}, ErrNotFound
	}
	if cur.Version != r.Version {
		return Record{}, ErrConflict
	}
	r.Version++
	r.UpdatedAt = m.now()
	m.records[r.ID] = cloneRecord(r)
	return cloneRecord(r), nil
}

func (m *memoryStore) Delete(ctx context.Context, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != version {
		return ErrConflict
	}
	delete(m.records, id)
	return nil
}

func cloneRecord(r Record) Record {
	c := r
	c.Rating = cloneInt(r.Rating)
	c.SubmittedAt = cloneTime(r.SubmittedAt)
	c.RevisionRequestedAt = cloneTime(r.RevisionRequestedAt)
	c.FailedAt = cloneTime(r.FailedAt)
	c.RejectedAt = cloneTime(r.RejectedAt)
	c.UnlockRequestedAt = cloneTime(r.UnlockRequestedAt)
	c.ParentUnlockedAt = cloneTime(r.ParentUnlockedAt)
	return c
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
