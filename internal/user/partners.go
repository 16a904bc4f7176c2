package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

// PartnerID derives a stable id for a partner entered without one, so the
// same name and phone always map to the same history entry.
func PartnerID(name, phone string) string {
	key := strings.ToLower(strings.TrimSpace(name)) + "|" + strings.TrimSpace(phone)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func (s *store) SavePartner(ctx context.Context, userID string, p *Partner) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("partner name is required")
	}
	if p.ID == "" {
		p.ID = PartnerID(p.Name, p.Phone)
	}
	if p.SavedAt.IsZero() {
		p.SavedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO partners (user_id, id, name, phone, email, gender, is_registered, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			name = excluded.name,
			phone = excluded.phone,
			email = excluded.email,
			gender = excluded.gender,
			is_registered = excluded.is_registered,
			saved_at = excluded.saved_at;`,
		userID, p.ID, strings.TrimSpace(p.Name), p.Phone, p.Email, string(p.Gender), p.IsRegistered, p.SavedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save partner %s for user %s: %w", p.ID, userID, err)
	}
	return nil
}

func (s *store) PartnerHistory(ctx context.Context, userID string) ([]Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, phone, email, gender, is_registered, saved_at
		FROM partners WHERE user_id = ?
		ORDER BY saved_at DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners of user %s: %w", userID, err)
	}
	defer rows.Close()

	partners := []Partner{}
	for rows.Next() {
		var (
			p       Partner
			gender  string
			savedAt int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &gender, &p.IsRegistered, &savedAt); err != nil {
			log.Error("Failed to scan partner row", "userID", userID, "error", err)
			continue
		}
		if g, err := eligibility.ParseGender(gender); err == nil {
			p.Gender = g
		}
		p.SavedAt = time.UnixMilli(savedAt).UTC()
		partners = append(partners, p)
	}
	return partners, rows.Err()
}
