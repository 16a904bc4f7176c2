package user

import (
	"context"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use. Without hooks it keeps profiles in Users.
type MockStore struct {
	mu sync.Mutex

	Users    map[string]*User
	Partners map[string][]Partner

	GetByIDFunc        func(ctx context.Context, id string) (*User, error)
	UpsertFunc         func(ctx context.Context, u *User) error
	SavePartnerFunc    func(ctx context.Context, userID string, p *Partner) error
	PartnerHistoryFunc func(ctx context.Context, userID string) ([]Partner, error)

	UpsertCalls      []*User
	SavePartnerCalls []struct {
		UserID  string
		Partner Partner
	}
}

// NewMock creates a new mock instance holding the given users.
func NewMock(users ...*User) *MockStore {
	m := &MockStore{Users: make(map[string]*User), Partners: make(map[string][]Partner)}
	for _, u := range users {
		m.Users[u.ID] = u
	}
	return m
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	fn := m.GetByIDFunc
	u, ok := m.Users[id]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockStore) Upsert(ctx context.Context, u *User) error {
	m.mu.Lock()
	m.UpsertCalls = append(m.UpsertCalls, u)
	fn := m.UpsertFunc
	if fn == nil {
		cp := *u
		m.Users[u.ID] = &cp
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, u)
	}
	return nil
}

func (m *MockStore) SavePartner(ctx context.Context, userID string, p *Partner) error {
	m.mu.Lock()
	m.SavePartnerCalls = append(m.SavePartnerCalls, struct {
		UserID  string
		Partner Partner
	}{userID, *p})
	fn := m.SavePartnerFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, userID, p)
	}
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = PartnerID(p.Name, p.Phone)
	}
	history := []Partner{*p}
	for _, existing := range m.Partners[userID] {
		if existing.ID != p.ID {
			history = append(history, existing)
		}
	}
	m.Partners[userID] = history
	return nil
}

func (m *MockStore) PartnerHistory(ctx context.Context, userID string) ([]Partner, error) {
	m.mu.Lock()
	fn := m.PartnerHistoryFunc
	history := append([]Partner{}, m.Partners[userID]...)
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, userID)
	}
	return history, nil
}

// Static is a CurrentUser that always returns the same user, or nil.
type Static struct {
	User *User
}

func (s Static) Get(ctx context.Context) *User {
	return s.User
}
