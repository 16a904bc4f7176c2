package tournament

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use. Without a GetByIDFunc it serves the
// Tournaments map.
type MockStore struct {
	mu sync.Mutex

	Tournaments map[string]*Tournament

	GetByIDFunc               func(ctx context.Context, id string) (*Tournament, error)
	ListFunc                  func(ctx context.Context, activeOnly bool) ([]Tournament, error)
	SearchFunc                func(ctx context.Context, query string) ([]Tournament, error)
	UpsertFunc                func(ctx context.Context, t *Tournament) error
	UpsertManyFunc            func(ctx context.Context, ts []Tournament) error
	IncrementParticipantsFunc func(ctx context.Context, id string, delta int) error

	GetByIDCalls               []string
	SearchCalls                []string
	UpsertCalls                []*Tournament
	UpsertManyCalls            [][]Tournament
	IncrementParticipantsCalls []struct {
		ID    string
		Delta int
	}
}

// NewMock creates a new mock instance holding the given tournaments.
func NewMock(ts ...*Tournament) *MockStore {
	m := &MockStore{Tournaments: make(map[string]*Tournament)}
	for _, t := range ts {
		m.Tournaments[t.ID] = t
	}
	return m
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*Tournament, error) {
	m.mu.Lock()
	m.GetByIDCalls = append(m.GetByIDCalls, id)
	fn := m.GetByIDFunc
	t, ok := m.Tournaments[id]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *MockStore) List(ctx context.Context, activeOnly bool) ([]Tournament, error) {
	m.mu.Lock()
	fn := m.ListFunc
	var out []Tournament
	for _, t := range m.Tournaments {
		if !activeOnly || t.IsActive {
			out = append(out, *t)
		}
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, activeOnly)
	}
	return out, nil
}

func (m *MockStore) Search(ctx context.Context, query string) ([]Tournament, error) {
	m.mu.Lock()
	m.SearchCalls = append(m.SearchCalls, query)
	fn := m.SearchFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query)
	}
	return nil, nil
}

func (m *MockStore) Upsert(ctx context.Context, t *Tournament) error {
	m.mu.Lock()
	m.UpsertCalls = append(m.UpsertCalls, t)
	fn := m.UpsertFunc
	if fn == nil {
		m.Tournaments[t.ID] = t
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, t)
	}
	return nil
}

func (m *MockStore) UpsertMany(ctx context.Context, ts []Tournament) error {
	m.mu.Lock()
	m.UpsertManyCalls = append(m.UpsertManyCalls, ts)
	fn := m.UpsertManyFunc
	if fn == nil {
		for i := range ts {
			t := ts[i]
			m.Tournaments[t.ID] = &t
		}
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, ts)
	}
	return nil
}

func (m *MockStore) IncrementParticipants(ctx context.Context, id string, delta int) error {
	m.mu.Lock()
	m.IncrementParticipantsCalls = append(m.IncrementParticipantsCalls, struct {
		ID    string
		Delta int
	}{id, delta})
	fn := m.IncrementParticipantsFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id, delta)
	}
	return nil
}
