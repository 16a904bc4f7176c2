package registration

import (
	"database/sql"
	"sync"
	"time"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/tournament"
)

// store handles database operations for registrations.
type store struct {
	db       *sql.DB
	mu       sync.RWMutex
	receipts ReceiptRenderer
}

// PaymentStatus tracks the money side of a registration. It only moves
// forward: PENDING to SUCCESS or FAILED, and SUCCESS to REFUNDED on
// cancellation.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentSuccess    PaymentStatus = "SUCCESS"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

// Status is the lifecycle state of a registration. WAITLISTED is only set by
// administrators.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusSubmitted  Status = "SUBMITTED"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCancelled  Status = "CANCELLED"
	StatusWaitlisted Status = "WAITLISTED"
)

// PartnerInfo identifies the partner for a doubles entry.
type PartnerInfo struct {
	ID           string             `json:"id,omitempty"`
	Name         string             `json:"name"`
	Phone        string             `json:"phone,omitempty"`
	Email        string             `json:"email,omitempty"`
	Gender       eligibility.Gender `json:"gender,omitempty"`
	IsRegistered bool               `json:"is_registered"`
}

// EventKey identifies an entry within a registration. Price and partner are
// not part of it.
type EventKey struct {
	Category eligibility.Category
	Type     eligibility.EventType
}

// EventSelection is one paid entry into a (category, event type).
type EventSelection struct {
	Category eligibility.Category  `json:"category"`
	Type     eligibility.EventType `json:"type"`
	Price    float64               `json:"price"`
	Partner  *PartnerInfo          `json:"partner,omitempty"`
}

// Key returns the identity of the selection.
func (s EventSelection) Key() EventKey {
	return EventKey{Category: s.Category, Type: s.Type}
}

// Registration is one user's entry into one tournament.
type Registration struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	TournamentID     string           `json:"tournament_id"`
	SelectedEvents   []EventSelection `json:"selected_events"`
	TotalAmount      float64          `json:"total_amount"`
	PaymentStatus    PaymentStatus    `json:"payment_status"`
	PaymentID        string           `json:"payment_id,omitempty"`
	RegistrationDate *time.Time       `json:"registration_date,omitempty"`
	PDFURL           string           `json:"pdf_url,omitempty"`
	Status           Status           `json:"status"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// PaymentData is what the payment gateway reports back after checkout.
type PaymentData struct {
	PaymentID string    `json:"payment_id"`
	OrderID   string    `json:"order_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
}

// DefaultCurrency is used when PaymentData does not name one.
const DefaultCurrency = "INR"

// PersonalDetails is the first step of the registration form.
type PersonalDetails struct {
	FullName    string             `json:"full_name"`
	Email       string             `json:"email"`
	Phone       string             `json:"phone"`
	DateOfBirth *time.Time         `json:"date_of_birth,omitempty"`
	Gender      eligibility.Gender `json:"gender"`
	ClubName    string             `json:"club_name,omitempty"`
}

// Step is a screen of the registration flow.
type Step string

const (
	StepPersonalDetails Step = "PERSONAL_DETAILS"
	StepEventSelection  Step = "EVENT_SELECTION"
	StepPayment         Step = "PAYMENT"
	StepConfirmation    Step = "CONFIRMATION"
)

var steps = []Step{StepPersonalDetails, StepEventSelection, StepPayment, StepConfirmation}

// State is a snapshot of a Workflow for presentation.
type State struct {
	TournamentID           string                 `json:"tournament_id"`
	Tournament             *tournament.Tournament `json:"tournament,omitempty"`
	Step                   Step                   `json:"step"`
	PersonalDetails        PersonalDetails        `json:"personal_details"`
	PersonalDetailsValid   bool                   `json:"personal_details_valid"`
	EligibleCategories     []eligibility.Category `json:"eligible_categories"`
	AvailableOffers        []tournament.Offer     `json:"available_offers"`
	SelectedEvents         []EventSelection       `json:"selected_events"`
	TotalAmount            float64                `json:"total_amount"`
	DraftID                string                 `json:"draft_id,omitempty"`
	RegistrationID         string                 `json:"registration_id,omitempty"`
	IsRegistrationComplete bool                   `json:"is_registration_complete"`
	PDFURL                 string                 `json:"pdf_url,omitempty"`
	Error                  string                 `json:"error,omitempty"`
}

// Stats summarises the registrations of one tournament.
type Stats struct {
	TotalRegistrations int                          `json:"total_registrations"`
	TotalEntries       int                          `json:"total_entries"`
	Revenue            float64                      `json:"revenue"`
	PendingPayments    int                          `json:"pending_payments"`
	EntriesByCategory  map[eligibility.Category]int `json:"entries_by_category"`
}
