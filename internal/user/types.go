package user

import (
	"database/sql"
	"sync"
	"time"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

// store handles database operations for user profiles.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// User is the profile of a signed-in player.
type User struct {
	ID              string             `json:"id"`
	FullName        string             `json:"full_name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	DateOfBirth     *time.Time         `json:"date_of_birth,omitempty"`
	Gender          eligibility.Gender `json:"gender"`
	ClubName        string             `json:"club_name,omitempty"`
	ProfilePhotoURL string             `json:"profile_photo_url,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Partner is a doubles partner the user has entered before, offered again
// on later registrations.
type Partner struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Phone        string             `json:"phone,omitempty"`
	Email        string             `json:"email,omitempty"`
	Gender       eligibility.Gender `json:"gender,omitempty"`
	IsRegistered bool               `json:"is_registered"`
	SavedAt      time.Time          `json:"saved_at"`
}
