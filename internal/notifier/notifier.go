package notifier

import (
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For confirmed (paid) registrations
	SendRegistrationConfirmed(event pubsub.RegistrationEvent, dryRun bool) error
	// For cancellations issued by administrators
	SendRegistrationCancelled(event pubsub.RegistrationEvent, dryRun bool) error
	// For the organiser dashboard
	SendTournamentStats(tournamentName string, stats registration.Stats, dryRun bool) error
}
