package notifier

import (
	"sync"

	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendRegistrationConfirmedFunc func(event pubsub.RegistrationEvent, dryRun bool) error

	// Call records
	SendRegistrationConfirmedCalls []pubsub.RegistrationEvent
	SendRegistrationCancelledCalls []pubsub.RegistrationEvent
	SendTournamentStatsCalls       []struct {
		TournamentName string
		Stats          registration.Stats
	}
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRegistrationConfirmedCalls = nil
	m.SendRegistrationCancelledCalls = nil
	m.SendTournamentStatsCalls = nil
}

func (m *Mock) SendRegistrationConfirmed(event pubsub.RegistrationEvent, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRegistrationConfirmedCalls = append(m.SendRegistrationConfirmedCalls, event)
	if m.SendRegistrationConfirmedFunc != nil {
		return m.SendRegistrationConfirmedFunc(event, dryRun)
	}
	return nil
}

func (m *Mock) SendRegistrationCancelled(event pubsub.RegistrationEvent, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendRegistrationCancelledCalls = append(m.SendRegistrationCancelledCalls, event)
	return nil
}

func (m *Mock) SendTournamentStats(tournamentName string, stats registration.Stats, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendTournamentStatsCalls = append(m.SendTournamentStatsCalls, struct {
		TournamentName string
		Stats          registration.Stats
	}{tournamentName, stats})
	return nil
}
