package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Option configures the SQL store.
type Option func(*store)

// WithReceiptRenderer enables GeneratePDF.
func WithReceiptRenderer(r ReceiptRenderer) Option {
	return func(s *store) {
		s.receipts = r
	}
}

// New creates a new registration Store backed by db.
func New(db *sql.DB, opts ...Option) Store {
	s := &store{
		db: db,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const selectColumns = `
	SELECT id, user_id, tournament_id, selected_events_json, total_amount, payment_status,
		payment_id, registration_date, pdf_url, status, notes, created_at, updated_at
	FROM registrations`

// Create inserts the registration. An existing draft or unpaid submission
// of the same user with the same id is replaced in place.
func (s *store) Create(ctx context.Context, r *Registration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now

	eventsJSON, err := marshalEvents(r.SelectedEvents)
	if err != nil {
		return "", err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (id, user_id, tournament_id, selected_events_json, total_amount, payment_status,
			payment_id, registration_date, pdf_url, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			selected_events_json = excluded.selected_events_json,
			total_amount = excluded.total_amount,
			payment_status = excluded.payment_status,
			registration_date = excluded.registration_date,
			status = excluded.status,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		WHERE registrations.status IN ('DRAFT', 'SUBMITTED') AND registrations.user_id = excluded.user_id;`,
		r.ID, r.UserID, r.TournamentID, eventsJSON, r.TotalAmount, string(r.PaymentStatus),
		nullString(r.PaymentID), millis(r.RegistrationDate), nullString(r.PDFURL), string(r.Status),
		nullString(r.Notes), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create registration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", fmt.Errorf("registration %s can no longer be submitted: %w", r.ID, ErrInvalidTransition)
	}
	return r.ID, nil
}

// Update overwrites the mutable fields of an existing registration.
func (s *store) Update(ctx context.Context, r *Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eventsJSON, err := marshalEvents(r.SelectedEvents)
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations SET
			selected_events_json = ?, total_amount = ?, payment_status = ?, payment_id = ?,
			registration_date = ?, pdf_url = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		eventsJSON, r.TotalAmount, string(r.PaymentStatus), nullString(r.PaymentID),
		millis(r.RegistrationDate), nullString(r.PDFURL), string(r.Status), nullString(r.Notes),
		r.UpdatedAt.UnixMilli(), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update registration %s: %w", r.ID, err)
	}
	return expectRow(res)
}

func (s *store) Get(ctx context.Context, id string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, id)
}

func (s *store) get(ctx context.Context, id string) (*Registration, error) {
	r, err := scanRegistration(s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load registration %s: %w", id, err)
	}
	return r, nil
}

func (s *store) GetDraft(ctx context.Context, userID, tournamentID string) (*Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDraft(ctx, userID, tournamentID)
}

func (s *store) getDraft(ctx context.Context, userID, tournamentID string) (*Registration, error) {
	r, err := scanRegistration(s.db.QueryRowContext(ctx, selectColumns+`
		WHERE user_id = ? AND tournament_id = ? AND status = ?
		ORDER BY updated_at DESC LIMIT 1`, userID, tournamentID, string(StatusDraft)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return r, nil
}

// SaveDraft keeps at most one draft per user and tournament: without an id
// the existing draft for the pair is overwritten.
func (s *store) SaveDraft(ctx context.Context, r *Registration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		existing, err := s.getDraft(ctx, r.UserID, r.TournamentID)
		if err != nil {
			return "", err
		}
		if existing != nil {
			r.ID = existing.ID
		} else {
			r.ID = uuid.NewString()
		}
	}
	r.Status = StatusDraft
	if r.PaymentStatus == "" {
		r.PaymentStatus = PaymentPending
	}
	now := time.Now()
	r.UpdatedAt = now

	eventsJSON, err := marshalEvents(r.SelectedEvents)
	if err != nil {
		return "", err
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO registrations (id, user_id, tournament_id, selected_events_json, total_amount, payment_status,
			status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			selected_events_json = excluded.selected_events_json,
			total_amount = excluded.total_amount,
			notes = excluded.notes,
			updated_at = excluded.updated_at
		WHERE registrations.status = 'DRAFT';`,
		r.ID, r.UserID, r.TournamentID, eventsJSON, r.TotalAmount, string(r.PaymentStatus),
		string(r.Status), nullString(r.Notes), now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save draft: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", fmt.Errorf("registration %s is no longer a draft: %w", r.ID, ErrInvalidTransition)
	}
	return r.ID, nil
}

// ProcessPayment marks the payment SUCCESS and the registration CONFIRMED.
// Drafts and cancelled registrations cannot be paid.
func (s *store) ProcessPayment(ctx context.Context, id string, payment PaymentData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE registrations
		SET payment_id = ?, payment_status = ?, status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?, ?)`,
		payment.PaymentID, string(PaymentSuccess), string(StatusConfirmed), time.Now().UnixMilli(),
		id, string(StatusSubmitted), string(StatusConfirmed), string(StatusWaitlisted),
	)
	if err != nil {
		return fmt.Errorf("failed to record payment for %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return s.transitionError(ctx, id)
	}
	return nil
}

// Cancel marks the registration CANCELLED. A captured payment becomes
// REFUNDED; any other payment status is left alone.
// Cancel marks the registration CANCELLED, refunding a successful payment,
// and returns the status it had before.
func (s *store) Cancel(ctx context.Context, id string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin cancel transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Warn("Failed to roll back cancel", "registrationID", id, "error", err)
		}
	}()

	var prev string
	err = tx.QueryRowContext(ctx, "SELECT status FROM registrations WHERE id = ?", id).Scan(&prev)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load registration %s: %w", id, err)
	}
	if Status(prev) == StatusCancelled {
		return "", fmt.Errorf("registration %s is %s: %w", id, prev, ErrInvalidTransition)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = ?,
			payment_status = CASE WHEN payment_status = ? THEN ? ELSE payment_status END,
			updated_at = ?
		WHERE id = ?`,
		string(StatusCancelled), string(PaymentSuccess), string(PaymentRefunded), time.Now().UnixMilli(), id,
	)
	if err != nil {
		return "", fmt.Errorf("failed to cancel registration %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit cancel of %s: %w", id, err)
	}
	return Status(prev), nil
}

func (s *store) transitionError(ctx context.Context, id string) error {
	r, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("registration %s is %s: %w", id, r.Status, ErrInvalidTransition)
}

// GeneratePDF renders the receipt and records its URL.
func (s *store) GeneratePDF(ctx context.Context, id string) (string, error) {
	if s.receipts == nil {
		return "", ErrReceiptsDisabled
	}
	r, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := s.receipts.Render(ctx, r)
	if err != nil {
		return "", fmt.Errorf("failed to render receipt for %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `UPDATE registrations SET pdf_url = ?, updated_at = ? WHERE id = ?`,
		url, time.Now().UnixMilli(), id); err != nil {
		return "", fmt.Errorf("failed to store receipt url for %s: %w", id, err)
	}
	log.Debug("Receipt stored", "registrationID", id, "url", url)
	return url, nil
}

func (s *store) ListByUser(ctx context.Context, userID string) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, selectColumns+" WHERE user_id = ? ORDER BY created_at DESC", userID)
}

func (s *store) ListByTournament(ctx context.Context, tournamentID string) ([]Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, selectColumns+" WHERE tournament_id = ? AND status != ? ORDER BY created_at",
		tournamentID, string(StatusDraft))
}

func (s *store) query(ctx context.Context, query string, args ...any) ([]Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registrations := []Registration{}
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			log.Error("Failed to scan registration row", "error", err)
			continue
		}
		registrations = append(registrations, *r)
	}
	return registrations, rows.Err()
}

func scanRegistration(scanner interface{ Scan(...any) error }) (*Registration, error) {
	var (
		r                       Registration
		eventsJSON              string
		paymentStatus, status   string
		paymentID, pdfURL, note sql.NullString
		registrationDate        sql.NullInt64
		createdAt, updatedAt    int64
	)
	err := scanner.Scan(
		&r.ID, &r.UserID, &r.TournamentID, &eventsJSON, &r.TotalAmount, &paymentStatus,
		&paymentID, &registrationDate, &pdfURL, &status, &note, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.PaymentStatus = PaymentStatus(paymentStatus)
	r.Status = Status(status)
	r.PaymentID = paymentID.String
	r.PDFURL = pdfURL.String
	r.Notes = note.String
	if registrationDate.Valid {
		ts := time.UnixMilli(registrationDate.Int64).UTC()
		r.RegistrationDate = &ts
	}
	r.CreatedAt = time.UnixMilli(createdAt).UTC()
	r.UpdatedAt = time.UnixMilli(updatedAt).UTC()

	r.SelectedEvents = []EventSelection{}
	if err := json.Unmarshal([]byte(eventsJSON), &r.SelectedEvents); err != nil {
		log.Error("Failed to unmarshal selected_events_json", "error", err, "registrationID", r.ID)
	}
	return &r, nil
}

func marshalEvents(events []EventSelection) (string, error) {
	if events == nil {
		events = []EventSelection{}
	}
	b, err := json.Marshal(events)
	if err != nil {
		return "", fmt.Errorf("failed to encode selected events: %w", err)
	}
	return string(b), nil
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func millis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
