package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

const dateLayout = "2006-01-02"

// New creates a new user Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

func (s *store) GetByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u                   User
		dob, club, photo    sql.NullString
		gender              string
		createdAt, updateAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name, email, phone, date_of_birth, gender, club_name, profile_photo_url, created_at, updated_at
		FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.FullName, &u.Email, &u.Phone, &dob, &gender, &club, &photo, &createdAt, &updateAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", id, err)
	}

	if dob.Valid && dob.String != "" {
		if ts, err := time.Parse(dateLayout, dob.String); err == nil {
			u.DateOfBirth = &ts
		}
	}
	u.Gender = eligibility.Gender(gender)
	u.ClubName = club.String
	u.ProfilePhotoURL = photo.String
	u.CreatedAt = time.UnixMilli(createdAt).UTC()
	u.UpdatedAt = time.UnixMilli(updateAt).UTC()
	return &u, nil
}

func (s *store) Upsert(ctx context.Context, u *User) error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var dob sql.NullString
	if u.DateOfBirth != nil {
		dob = sql.NullString{String: u.DateOfBirth.Format(dateLayout), Valid: true}
	}
	gender := u.Gender
	if gender == "" {
		gender = eligibility.Male
	}
	now := time.Now().UnixMilli()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, phone, date_of_birth, gender, club_name, profile_photo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			phone = excluded.phone,
			date_of_birth = excluded.date_of_birth,
			gender = excluded.gender,
			club_name = excluded.club_name,
			profile_photo_url = excluded.profile_photo_url,
			updated_at = excluded.updated_at;`,
		u.ID, u.FullName, u.Email, u.Phone, dob, string(gender),
		sql.NullString{String: u.ClubName, Valid: u.ClubName != ""},
		sql.NullString{String: u.ProfilePhotoURL, Valid: u.ProfilePhotoURL != ""},
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
	}
	return nil
}
