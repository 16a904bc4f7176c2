package tournament

import (
	"database/sql"
	"sync"
	"time"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

// store handles database operations for tournaments.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Tournament is a badminton tournament open for registration.
type Tournament struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	Description          string                 `json:"description"`
	StartDate            *time.Time             `json:"start_date,omitempty"`
	EndDate              *time.Time             `json:"end_date,omitempty"`
	Venue                string                 `json:"venue"`
	RegistrationDeadline *time.Time             `json:"registration_deadline,omitempty"`
	AvailableEvents      []eligibility.Category `json:"available_events"`
	// EventPrices is keyed by PriceKey, e.g. "U15_SINGLES".
	EventPrices         map[string]float64 `json:"event_prices"`
	Rules               string             `json:"rules"`
	Contact             ContactInfo        `json:"contact_info"`
	IsActive            bool               `json:"is_active"`
	MaxParticipants     int                `json:"max_participants"`
	CurrentParticipants int                `json:"current_participants"`
	BannerImageURL      string             `json:"banner_image_url,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ContactInfo describes the organiser of a tournament.
type ContactInfo struct {
	OrganizerName string `json:"organizer_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Website       string `json:"website,omitempty"`
	Address       string `json:"address"`
}

// Offer is a (category, event type) combination a tournament sells.
type Offer struct {
	Category eligibility.Category  `json:"category"`
	Type     eligibility.EventType `json:"type"`
	Price    float64               `json:"price"`
}
