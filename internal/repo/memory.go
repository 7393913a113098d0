package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tazhibayda/foodshare-service/internal/domain"
)

// Memory is the default Listings implementation: a map guarded by one mutex.
// Coarse-grained locking is fine at this scale; the lock is never held while
// anything outside the package runs (no broadcasts, no callbacks).
type Memory struct {
	mu       sync.Mutex
	listings map[int64]*domain.Listing
	nextID   int64
}

func NewMemory() *Memory {
	return &Memory{listings: make(map[int64]*domain.Listing)}
}

// clone returns a copy a caller can keep; AcceptedAt is the only pointer field.
func clone(l *domain.Listing) *domain.Listing {
	c := *l
	if l.AcceptedAt != nil {
		at := *l.AcceptedAt
		c.AcceptedAt = &at
	}
	return &c
}

func (m *Memory) Create(_ context.Context, l *domain.Listing, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	l.ID = m.nextID
	l.Status = domain.StatusAvailable
	l.CreatedAt = now
	l.ExpiresAt = now.Add(domain.TTL)
	l.AcceptedBy = ""
	l.AcceptorName = ""
	l.AcceptedAt = nil

	m.listings[l.ID] = clone(l)
	return nil
}

func (m *Memory) Get(_ context.Context, id int64) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(l), nil
}

func (m *Memory) ListActive(_ context.Context, now time.Time, s domain.Sort) ([]domain.Listing, error) {
	m.mu.Lock()
	out := make([]domain.Listing, 0)
	for _, id := range m.sortedIDs() {
		l := m.listings[id]
		if l.Status == domain.StatusAvailable && !l.Expired(now) {
			out = append(out, *clone(l))
		}
	}
	m.mu.Unlock()

	domain.SortListings(out, s)
	return out, nil
}

func (m *Memory) Accept(_ context.Context, id int64, acceptedBy, acceptorName string, now time.Time) (*domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	if l.Status != domain.StatusAvailable || l.Expired(now) {
		return nil, ErrNotAvailable
	}
	at := now
	l.Status = domain.StatusAccepted
	l.AcceptedBy = acceptedBy
	l.AcceptorName = acceptorName
	l.AcceptedAt = &at
	return clone(l), nil
}

func (m *Memory) MarkExpired(_ context.Context, id int64) (*domain.Listing, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if l.Status != domain.StatusAvailable {
		// уже accepted или expired — ничего не трогаем
		return clone(l), false, nil
	}
	l.Status = domain.StatusExpired
	return clone(l), true, nil
}

func (m *Memory) DueForExpiry(_ context.Context, now time.Time) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Listing
	for _, id := range m.sortedIDs() {
		l := m.listings[id]
		if l.Status == domain.StatusAvailable && l.Expired(now) {
			out = append(out, *clone(l))
		}
	}
	return out, nil
}

func (m *Memory) ListByCreator(_ context.Context, userID string) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Listing
	for _, id := range m.sortedIDs() {
		l := m.listings[id]
		if l.CreatedBy == userID {
			out = append(out, *clone(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListByAcceptor(_ context.Context, userID string) ([]domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Listing
	for _, id := range m.sortedIDs() {
		l := m.listings[id]
		if l.AcceptedBy == userID {
			out = append(out, *clone(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := out[i].AcceptedAt, out[j].AcceptedAt
		switch {
		case ai == nil:
			return false
		case aj == nil:
			return true
		default:
			return ai.After(*aj)
		}
	})
	return out, nil
}

// sortedIDs gives insertion order (ids are monotonic). Map iteration order is
// random in Go, and ListActive promises a stable tie-break.
func (m *Memory) sortedIDs() []int64 {
	ids := make([]int64, 0, len(m.listings))
	for id := range m.listings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
