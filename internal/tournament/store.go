package tournament

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

// New creates a new tournament Store backed by db.
func New(db *sql.DB) Store {
	return &store{
		db: db,
	}
}

const selectColumns = `
	SELECT id, name, description, start_date, end_date, venue, registration_deadline,
		available_events_json, event_prices_json, rules, contact_json, is_active,
		max_participants, current_participants, banner_image_url, created_at, updated_at
	FROM tournaments`

const upsertStatement = `
	INSERT INTO tournaments (id, name, description, start_date, end_date, venue, registration_deadline,
		available_events_json, event_prices_json, rules, contact_json, is_active,
		max_participants, current_participants, banner_image_url, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		description = excluded.description,
		start_date = excluded.start_date,
		end_date = excluded.end_date,
		venue = excluded.venue,
		registration_deadline = excluded.registration_deadline,
		available_events_json = excluded.available_events_json,
		event_prices_json = excluded.event_prices_json,
		rules = excluded.rules,
		contact_json = excluded.contact_json,
		is_active = excluded.is_active,
		max_participants = excluded.max_participants,
		current_participants = excluded.current_participants,
		banner_image_url = excluded.banner_image_url,
		updated_at = excluded.updated_at;`

// GetByID returns the tournament with the given id, or ErrNotFound.
func (s *store) GetByID(ctx context.Context, id string) (*Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	t, err := scanTournament(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}
	return t, nil
}

func (s *store) List(ctx context.Context, activeOnly bool) ([]Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY registration_deadline IS NULL, registration_deadline, name"
	return s.query(ctx, query)
}

func (s *store) Search(ctx context.Context, q string) ([]Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + q + "%"
	return s.query(ctx, selectColumns+`
		WHERE is_active = 1 AND (name LIKE ? OR description LIKE ? OR venue LIKE ?)
		ORDER BY registration_deadline IS NULL, registration_deadline, name`,
		pattern, pattern, pattern)
}

func (s *store) query(ctx context.Context, query string, args ...any) ([]Tournament, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := []Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			log.Error("Failed to scan tournament row", "error", err)
			continue
		}
		tournaments = append(tournaments, *t)
	}
	return tournaments, rows.Err()
}

// Upsert inserts the tournament or replaces every field of an existing one
// except created_at.
func (s *store) Upsert(ctx context.Context, t *Tournament) error {
	return s.UpsertMany(ctx, []Tournament{*t})
}

// UpsertMany writes all tournaments in a single transaction.
func (s *store) UpsertMany(ctx context.Context, ts []Tournament) error {
	if len(ts) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, upsertStatement)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i := range ts {
		t := &ts[i]
		if t.ID == "" {
			tx.Rollback()
			return errors.New("tournament id is required")
		}
		args, err := upsertArgs(t, now)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to encode tournament %s: %w", t.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to upsert tournament %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

func (s *store) IncrementParticipants(ctx context.Context, id string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tournaments
		SET current_participants = MAX(current_participants + ?, 0), updated_at = ?
		WHERE id = ?`, delta, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func upsertArgs(t *Tournament, now time.Time) ([]any, error) {
	events := t.AvailableEvents
	if events == nil {
		events = []eligibility.Category{}
	}
	eventsJSON, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	prices := t.EventPrices
	if prices == nil {
		prices = map[string]float64{}
	}
	pricesJSON, err := json.Marshal(prices)
	if err != nil {
		return nil, err
	}
	contactJSON, err := json.Marshal(t.Contact)
	if err != nil {
		return nil, err
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	updatedAt := t.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = now
	}
	return []any{
		t.ID, t.Name, t.Description, millis(t.StartDate), millis(t.EndDate), t.Venue,
		millis(t.RegistrationDeadline), string(eventsJSON), string(pricesJSON), t.Rules,
		string(contactJSON), t.IsActive, t.MaxParticipants, t.CurrentParticipants,
		nullString(t.BannerImageURL), createdAt.UnixMilli(), updatedAt.UnixMilli(),
	}, nil
}

func scanTournament(scanner interface{ Scan(...any) error }) (*Tournament, error) {
	var (
		t                                   Tournament
		startDate, endDate, deadline        sql.NullInt64
		eventsJSON, pricesJSON, contactJSON string
		bannerURL                           sql.NullString
		createdAt, updatedAt                int64
	)
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Description, &startDate, &endDate, &t.Venue, &deadline,
		&eventsJSON, &pricesJSON, &t.Rules, &contactJSON, &t.IsActive,
		&t.MaxParticipants, &t.CurrentParticipants, &bannerURL, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.StartDate = fromMillis(startDate)
	t.EndDate = fromMillis(endDate)
	t.RegistrationDeadline = fromMillis(deadline)
	t.BannerImageURL = bannerURL.String
	t.CreatedAt = time.UnixMilli(createdAt).UTC()
	t.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	t.AvailableEvents = []eligibility.Category{}
	if err := json.Unmarshal([]byte(eventsJSON), &t.AvailableEvents); err != nil {
		log.Error("Failed to unmarshal available_events_json", "error", err, "tournamentID", t.ID)
	}
	t.EventPrices = map[string]float64{}
	if err := json.Unmarshal([]byte(pricesJSON), &t.EventPrices); err != nil {
		log.Error("Failed to unmarshal event_prices_json", "error", err, "tournamentID", t.ID)
	}
	if err := json.Unmarshal([]byte(contactJSON), &t.Contact); err != nil {
		log.Error("Failed to unmarshal contact_json", "error", err, "tournamentID", t.ID)
	}
	return &t, nil
}

func millis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
