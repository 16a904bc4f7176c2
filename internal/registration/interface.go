package registration

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no registration has the requested id.
	ErrNotFound = errors.New("registration not found")
	// ErrEventNotOffered is returned when the tournament has no price for the
	// selected category and event type.
	ErrEventNotOffered = errors.New("event not offered by this tournament")
	// ErrInvalidSelection is returned for unknown categories or event types.
	ErrInvalidSelection = errors.New("invalid event selection")
	// ErrNotAuthenticated is returned when persistence is attempted without a
	// signed-in user.
	ErrNotAuthenticated = errors.New("user not logged in")
	// ErrIncomplete is returned when submitting with invalid details or no
	// selected events.
	ErrIncomplete = errors.New("registration is incomplete")
	// ErrNoRegistration is returned when paying before a registration exists.
	ErrNoRegistration = errors.New("no submitted registration")
	// ErrInvalidTransition is returned when the stored status does not allow
	// the requested change.
	ErrInvalidTransition = errors.New("invalid registration status transition")
	// ErrReceiptsDisabled is returned by GeneratePDF when no renderer is
	// configured.
	ErrReceiptsDisabled = errors.New("receipt generation is not configured")
)

// Store defines the interface for persisting registrations.
type Store interface {
	// Create persists a submitted registration and returns its id. A
	// registration carrying the id of an existing draft replaces that draft.
	Create(ctx context.Context, r *Registration) (string, error)
	Update(ctx context.Context, r *Registration) error
	Get(ctx context.Context, id string) (*Registration, error)
	// GetDraft returns the latest draft for the pair, or nil when none exists.
	GetDraft(ctx context.Context, userID, tournamentID string) (*Registration, error)
	// SaveDraft upserts the draft for (user, tournament) and returns its id.
	SaveDraft(ctx context.Context, r *Registration) (string, error)
	// ProcessPayment records a captured payment and confirms the registration.
	ProcessPayment(ctx context.Context, id string, payment PaymentData) error
	// GeneratePDF renders and stores the receipt, returning its URL.
	GeneratePDF(ctx context.Context, id string) (string, error)
	// Cancel marks the registration CANCELLED and refunds a captured payment.
	// It returns the status the registration had when it was cancelled.
	Cancel(ctx context.Context, id string) (Status, error)
	ListByUser(ctx context.Context, userID string) ([]Registration, error)
	// ListByTournament returns every non-draft registration for the tournament.
	ListByTournament(ctx context.Context, tournamentID string) ([]Registration, error)
}

// ReceiptRenderer turns a registration into a hosted receipt document.
type ReceiptRenderer interface {
	Render(ctx context.Context, r *Registration) (url string, err error)
}
