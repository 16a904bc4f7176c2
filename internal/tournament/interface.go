package tournament

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no tournament has the requested id.
var ErrNotFound = errors.New("tournament not found")

// Lookup resolves a single tournament by id.
type Lookup interface {
	GetByID(ctx context.Context, id string) (*Tournament, error)
}

// Store defines the interface for interacting with tournament data.
type Store interface {
	Lookup
	// List returns tournaments ordered by registration deadline.
	List(ctx context.Context, activeOnly bool) ([]Tournament, error)
	// Search matches the query against name, description and venue.
	Search(ctx context.Context, query string) ([]Tournament, error)
	Upsert(ctx context.Context, t *Tournament) error
	UpsertMany(ctx context.Context, ts []Tournament) error
	// IncrementParticipants adjusts the participant count by delta.
	IncrementParticipants(ctx context.Context, id string, delta int) error
}
