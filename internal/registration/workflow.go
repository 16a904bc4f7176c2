package registration

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/metrics"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/mauv0809/shuttlereg/internal/user"
)

// User-facing messages recorded in State.Error.
const (
	MsgTournamentLoadFailed = "Failed to load tournament"
	MsgRegistrationFailed   = "Registration failed"
	MsgIncomplete           = "Please complete your details and select at least one event"
	MsgPaymentFailed        = "Payment processing failed"
	MsgDraftFailed          = "Failed to save draft"
	MsgNotAuthenticated     = "Authentication error - user not logged in"
)

const receiptTimeout = 30 * time.Second

// Workflow drives one user's registration for one tournament through
// PERSONAL_DETAILS, EVENT_SELECTION, PAYMENT and CONFIRMATION.
//
// A Workflow belongs to a single session and its methods must not be called
// concurrently. Only the receipt URL is written from a background goroutine.
type Workflow struct {
	tournaments tournament.Lookup
	store       Store
	currentUser user.CurrentUser
	engine      *eligibility.Engine
	metrics     metrics.Metrics

	tournamentID   string
	tournament     *tournament.Tournament
	step           Step
	details        detailsState
	eligible       []eligibility.Category
	selections     []EventSelection
	total          float64
	draftID        string
	registrationID string
	complete       bool
	errMsg         string

	receiptMu sync.Mutex
	pdfURL    string
	receipts  sync.WaitGroup
}

// detailsState pairs the personal details with their last validation result.
type detailsState struct {
	PersonalDetails
	valid bool
}

// NewWorkflow creates a Workflow at the PERSONAL_DETAILS step.
func NewWorkflow(tournaments tournament.Lookup, store Store, currentUser user.CurrentUser, engine *eligibility.Engine, m metrics.Metrics) *Workflow {
	return &Workflow{
		tournaments: tournaments,
		store:       store,
		currentUser: currentUser,
		engine:      engine,
		metrics:     m,
		step:        StepPersonalDetails,
		eligible:    []eligibility.Category{},
		selections:  []EventSelection{},
	}
}

// Initialize loads the tournament and, for a signed-in user, prefills the
// profile and restores any draft. A failed tournament lookup is recorded as
// the error message and returned; a failed draft lookup counts as no draft.
func (w *Workflow) Initialize(ctx context.Context, tournamentID string) error {
	t, err := w.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		log.Error("Failed to load tournament", "tournamentID", tournamentID, "error", err)
		w.errMsg = MsgTournamentLoadFailed
		return err
	}
	w.tournamentID = tournamentID
	w.tournament = t

	u := w.currentUser.Get(ctx)
	if u == nil {
		return nil
	}
	w.details.PersonalDetails = PersonalDetails{
		FullName:    u.FullName,
		Email:       u.Email,
		Phone:       u.Phone,
		DateOfBirth: u.DateOfBirth,
		Gender:      u.Gender,
		ClubName:    u.ClubName,
	}

	draft, err := w.store.GetDraft(ctx, u.ID, tournamentID)
	if err != nil {
		log.Warn("Ignoring failed draft lookup", "userID", u.ID, "tournamentID", tournamentID, "error", err)
	} else if draft != nil {
		log.Info("Restoring draft registration", "registrationID", draft.ID, "events", len(draft.SelectedEvents))
		w.draftID = draft.ID
		w.selections = append([]EventSelection{}, draft.SelectedEvents...)
		w.recalculateTotal()
	}

	w.recomputeEligibility()
	w.validateDetails()
	return nil
}

// UpdatePersonalDetails replaces the form and revalidates it. Eligibility is
// recomputed when the birth date or gender changed.
func (w *Workflow) UpdatePersonalDetails(details PersonalDetails) {
	prev := w.details.PersonalDetails
	w.details.PersonalDetails = details
	if !sameDate(prev.DateOfBirth, details.DateOfBirth) || prev.Gender != details.Gender {
		w.recomputeEligibility()
	}
	w.validateDetails()
}

// UpdateDateOfBirth sets the birth date, recomputes eligibility and
// revalidates the form.
func (w *Workflow) UpdateDateOfBirth(date time.Time) {
	w.details.DateOfBirth = &date
	w.recomputeEligibility()
	w.validateDetails()
}

// SelectEvent adds the selection, or replaces the one with the same category
// and event type in place. The tournament must offer the combination;
// nothing is offered before Initialize has loaded one.
func (w *Workflow) SelectEvent(selection EventSelection) error {
	if !selection.Category.Valid() || !selection.Type.Valid() {
		return ErrInvalidSelection
	}
	if w.tournament == nil {
		return ErrEventNotOffered
	}
	if _, ok := w.tournament.Price(selection.Category, selection.Type); !ok {
		return ErrEventNotOffered
	}
	if i := w.indexOf(selection.Key()); i >= 0 {
		w.selections[i] = selection
	} else {
		w.selections = append(w.selections, selection)
	}
	w.recalculateTotal()
	return nil
}

// RemoveEvent drops the selection with the same category and event type,
// whatever its price or partner.
func (w *Workflow) RemoveEvent(selection EventSelection) {
	if i := w.indexOf(selection.Key()); i >= 0 {
		w.selections = append(w.selections[:i], w.selections[i+1:]...)
	}
	w.recalculateTotal()
}

// ValidateEventSelection reports whether at least one event is selected.
func (w *Workflow) ValidateEventSelection() bool {
	return len(w.selections) > 0
}

// NextStep moves forward when the current step allows it. Leaving
// EVENT_SELECTION submits the registration; its error is returned and the
// step is kept. PAYMENT and CONFIRMATION are left by explicit operations only.
func (w *Workflow) NextStep(ctx context.Context) error {
	switch w.step {
	case StepPersonalDetails:
		if w.details.valid {
			w.step = StepEventSelection
		}
	case StepEventSelection:
		if !w.ValidateEventSelection() {
			return nil
		}
		if err := w.SubmitRegistration(ctx); err != nil {
			return err
		}
		w.step = StepPayment
	}
	return nil
}

// PreviousStep moves one step back. It does nothing at PERSONAL_DETAILS.
func (w *Workflow) PreviousStep() {
	for i := 1; i < len(steps); i++ {
		if steps[i] == w.step {
			w.step = steps[i-1]
			return
		}
	}
}

// SubmitRegistration persists the registration as SUBMITTED. Both form
// validations are checked again here. On failure nothing but the error
// message changes. Submitting again after going back replaces the earlier
// submission instead of adding a second one.
func (w *Workflow) SubmitRegistration(ctx context.Context) error {
	w.validateDetails()
	if !w.details.valid || !w.ValidateEventSelection() {
		w.errMsg = MsgIncomplete
		return ErrIncomplete
	}
	u := w.currentUser.Get(ctx)
	if u == nil {
		w.errMsg = MsgNotAuthenticated
		return ErrNotAuthenticated
	}

	id := w.draftID
	if w.registrationID != "" {
		id = w.registrationID
	}
	now := time.Now()
	reg := &Registration{
		ID:               id,
		UserID:           u.ID,
		TournamentID:     w.tournamentID,
		SelectedEvents:   append([]EventSelection{}, w.selections...),
		TotalAmount:      w.total,
		PaymentStatus:    PaymentPending,
		Status:           StatusSubmitted,
		RegistrationDate: &now,
	}
	id, err := w.store.Create(ctx, reg)
	if err != nil {
		log.Error("Failed to submit registration", "userID", u.ID, "tournamentID", w.tournamentID, "error", err)
		w.metrics.IncRegistrationsFailed()
		w.errMsg = MsgRegistrationFailed
		return err
	}

	log.Info("Registration submitted", "registrationID", id, "userID", u.ID, "total", w.total)
	w.metrics.IncRegistrationsSubmitted()
	w.registrationID = id
	w.draftID = ""
	return nil
}

// ProcessPayment confirms the submitted registration and moves to
// CONFIRMATION. The receipt is generated in the background and its failure
// never reaches the caller.
func (w *Workflow) ProcessPayment(ctx context.Context, payment PaymentData) error {
	if w.registrationID == "" {
		w.errMsg = MsgPaymentFailed
		return ErrNoRegistration
	}
	if payment.Currency == "" {
		payment.Currency = DefaultCurrency
	}
	if payment.Timestamp.IsZero() {
		payment.Timestamp = time.Now()
	}

	start := time.Now()
	err := w.store.ProcessPayment(ctx, w.registrationID, payment)
	w.metrics.ObservePaymentDuration(time.Since(start).Seconds())
	if err != nil {
		log.Error("Failed to process payment", "registrationID", w.registrationID, "paymentID", payment.PaymentID, "error", err)
		w.metrics.IncPaymentsFailed()
		w.errMsg = MsgPaymentFailed
		return err
	}

	log.Info("Payment processed", "registrationID", w.registrationID, "paymentID", payment.PaymentID)
	w.metrics.IncPaymentsProcessed()
	w.step = StepConfirmation
	w.complete = true
	w.generateReceipt(ctx, w.registrationID)
	return nil
}

func (w *Workflow) generateReceipt(ctx context.Context, registrationID string) {
	w.receipts.Add(1)
	go func() {
		defer w.receipts.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), receiptTimeout)
		defer cancel()

		url, err := w.store.GeneratePDF(ctx, registrationID)
		if err != nil {
			if !errors.Is(err, ErrReceiptsDisabled) {
				log.Warn("Receipt generation failed", "registrationID", registrationID, "error", err)
			}
			w.metrics.IncReceiptsFailed()
			return
		}
		w.metrics.IncReceiptsGenerated()
		w.receiptMu.Lock()
		w.pdfURL = url
		w.receiptMu.Unlock()
	}()
}

// Wait blocks until background receipt generation has finished.
func (w *Workflow) Wait() {
	w.receipts.Wait()
}

// SaveDraftRegistration stores the current selections as the DRAFT for this
// user and tournament, overwriting any earlier draft.
func (w *Workflow) SaveDraftRegistration(ctx context.Context) error {
	u := w.currentUser.Get(ctx)
	if u == nil {
		w.errMsg = MsgNotAuthenticated
		return ErrNotAuthenticated
	}
	draft := &Registration{
		ID:             w.draftID,
		UserID:         u.ID,
		TournamentID:   w.tournamentID,
		SelectedEvents: append([]EventSelection{}, w.selections...),
		TotalAmount:    w.total,
		PaymentStatus:  PaymentPending,
		Status:         StatusDraft,
	}
	id, err := w.store.SaveDraft(ctx, draft)
	if err != nil {
		log.Error("Failed to save draft", "userID", u.ID, "tournamentID", w.tournamentID, "error", err)
		w.errMsg = MsgDraftFailed
		return err
	}
	log.Debug("Draft saved", "registrationID", id)
	w.metrics.IncDraftsSaved()
	w.draftID = id
	return nil
}

// ClearError resets the user-facing error message.
func (w *Workflow) ClearError() {
	w.errMsg = ""
}

// State returns a copy of the workflow state.
func (w *Workflow) State() State {
	w.receiptMu.Lock()
	pdfURL := w.pdfURL
	w.receiptMu.Unlock()

	s := State{
		TournamentID:           w.tournamentID,
		Tournament:             w.tournament,
		Step:                   w.step,
		PersonalDetails:        w.details.PersonalDetails,
		PersonalDetailsValid:   w.details.valid,
		EligibleCategories:     append([]eligibility.Category{}, w.eligible...),
		SelectedEvents:         append([]EventSelection{}, w.selections...),
		TotalAmount:            w.total,
		DraftID:                w.draftID,
		RegistrationID:         w.registrationID,
		IsRegistrationComplete: w.complete,
		PDFURL:                 pdfURL,
		Error:                  w.errMsg,
	}
	if w.tournament != nil {
		s.AvailableOffers = w.tournament.Offers(w.eligible)
	}
	return s
}

func (w *Workflow) recomputeEligibility() {
	if w.details.DateOfBirth == nil {
		w.eligible = []eligibility.Category{}
		return
	}
	w.eligible = w.engine.EligibleCategories(*w.details.DateOfBirth, w.details.Gender)
}

func (w *Workflow) validateDetails() {
	w.details.valid = w.details.PersonalDetails.Valid()
}

func (w *Workflow) recalculateTotal() {
	var total float64
	for _, s := range w.selections {
		total += s.Price
	}
	w.total = total
}

func (w *Workflow) indexOf(key EventKey) int {
	for i, s := range w.selections {
		if s.Key() == key {
			return i
		}
	}
	return -1
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
