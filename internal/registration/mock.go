package registration

import (
	"context"
	"fmt"
	"sync"
)

// MockStore is a mock implementation of the Store interface for testing.
// It is safe for concurrent use. Methods without a hook fall back to an
// in-memory map so workflows can run end to end.
type MockStore struct {
	mu     sync.Mutex
	nextID int

	Registrations map[string]*Registration

	CreateFunc           func(ctx context.Context, r *Registration) (string, error)
	UpdateFunc           func(ctx context.Context, r *Registration) error
	GetFunc              func(ctx context.Context, id string) (*Registration, error)
	GetDraftFunc         func(ctx context.Context, userID, tournamentID string) (*Registration, error)
	SaveDraftFunc        func(ctx context.Context, r *Registration) (string, error)
	ProcessPaymentFunc   func(ctx context.Context, id string, payment PaymentData) error
	GeneratePDFFunc      func(ctx context.Context, id string) (string, error)
	CancelFunc           func(ctx context.Context, id string) (Status, error)
	ListByUserFunc       func(ctx context.Context, userID string) ([]Registration, error)
	ListByTournamentFunc func(ctx context.Context, tournamentID string) ([]Registration, error)

	CreateCalls         []Registration
	SaveDraftCalls      []Registration
	ProcessPaymentCalls []struct {
		ID      string
		Payment PaymentData
	}
	GeneratePDFCalls []string
	CancelCalls      []string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{Registrations: make(map[string]*Registration)}
}

func (m *MockStore) newID() string {
	m.nextID++
	return fmt.Sprintf("reg-%d", m.nextID)
}

func (m *MockStore) Create(ctx context.Context, r *Registration) (string, error) {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, *r)
	fn := m.CreateFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, r)
	}
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = m.newID()
	}
	if existing, ok := m.Registrations[r.ID]; ok {
		if existing.UserID != r.UserID || (existing.Status != StatusDraft && existing.Status != StatusSubmitted) {
			return "", ErrInvalidTransition
		}
	}
	cp := *r
	m.Registrations[cp.ID] = &cp
	return cp.ID, nil
}

func (m *MockStore) Update(ctx context.Context, r *Registration) error {
	m.mu.Lock()
	fn := m.UpdateFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, r)
	}
	defer m.mu.Unlock()

	if _, ok := m.Registrations[r.ID]; !ok {
		return ErrNotFound
	}
	cp := *r
	m.Registrations[r.ID] = &cp
	return nil
}

func (m *MockStore) Get(ctx context.Context, id string) (*Registration, error) {
	m.mu.Lock()
	fn := m.GetFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, id)
	}
	defer m.mu.Unlock()

	r, ok := m.Registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockStore) GetDraft(ctx context.Context, userID, tournamentID string) (*Registration, error) {
	m.mu.Lock()
	fn := m.GetDraftFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, userID, tournamentID)
	}
	defer m.mu.Unlock()

	for _, r := range m.Registrations {
		if r.UserID == userID && r.TournamentID == tournamentID && r.Status == StatusDraft {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) SaveDraft(ctx context.Context, r *Registration) (string, error) {
	m.mu.Lock()
	m.SaveDraftCalls = append(m.SaveDraftCalls, *r)
	fn := m.SaveDraftFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, r)
	}
	defer m.mu.Unlock()

	if r.ID == "" {
		for id, existing := range m.Registrations {
			if existing.UserID == r.UserID && existing.TournamentID == r.TournamentID && existing.Status == StatusDraft {
				r.ID = id
				break
			}
		}
	}
	if r.ID == "" {
		r.ID = m.newID()
	}
	cp := *r
	cp.Status = StatusDraft
	m.Registrations[cp.ID] = &cp
	return cp.ID, nil
}

func (m *MockStore) ProcessPayment(ctx context.Context, id string, payment PaymentData) error {
	m.mu.Lock()
	m.ProcessPaymentCalls = append(m.ProcessPaymentCalls, struct {
		ID      string
		Payment PaymentData
	}{id, payment})
	fn := m.ProcessPaymentFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, id, payment)
	}
	defer m.mu.Unlock()

	r, ok := m.Registrations[id]
	if !ok {
		return ErrNotFound
	}
	r.PaymentID = payment.PaymentID
	r.PaymentStatus = PaymentSuccess
	r.Status = StatusConfirmed
	return nil
}

func (m *MockStore) GeneratePDF(ctx context.Context, id string) (string, error) {
	m.mu.Lock()
	m.GeneratePDFCalls = append(m.GeneratePDFCalls, id)
	fn := m.GeneratePDFFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return "", ErrReceiptsDisabled
}

func (m *MockStore) Cancel(ctx context.Context, id string) (Status, error) {
	m.mu.Lock()
	m.CancelCalls = append(m.CancelCalls, id)
	fn := m.CancelFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, id)
	}
	defer m.mu.Unlock()

	r, ok := m.Registrations[id]
	if !ok {
		return "", ErrNotFound
	}
	if r.Status == StatusCancelled {
		return "", ErrInvalidTransition
	}
	prev := r.Status
	r.Status = StatusCancelled
	if r.PaymentStatus == PaymentSuccess {
		r.PaymentStatus = PaymentRefunded
	}
	return prev, nil
}

func (m *MockStore) ListByUser(ctx context.Context, userID string) ([]Registration, error) {
	m.mu.Lock()
	fn := m.ListByUserFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, userID)
	}
	defer m.mu.Unlock()

	out := []Registration{}
	for _, r := range m.Registrations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockStore) ListByTournament(ctx context.Context, tournamentID string) ([]Registration, error) {
	m.mu.Lock()
	fn := m.ListByTournamentFunc
	if fn != nil {
		m.mu.Unlock()
		return fn(ctx, tournamentID)
	}
	defer m.mu.Unlock()

	out := []Registration{}
	for _, r := range m.Registrations {
		if r.TournamentID == tournamentID && r.Status != StatusDraft {
			out = append(out, *r)
		}
	}
	return out, nil
}
