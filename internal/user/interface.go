package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no profile exists for the requested id.
var ErrNotFound = errors.New("user not found")

// Store persists user profiles.
type Store interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// Upsert creates the profile or overwrites every field except created_at.
	Upsert(ctx context.Context, u *User) error
	// SavePartner records a partner of the user, replacing the earlier entry
	// for the same partner.
	SavePartner(ctx context.Context, userID string, p *Partner) error
	// PartnerHistory lists the user's partners, most recently saved first.
	PartnerHistory(ctx context.Context, userID string) ([]Partner, error)
}

// CurrentUser resolves the acting user, or nil when nobody is signed in.
type CurrentUser interface {
	Get(ctx context.Context) *User
}
