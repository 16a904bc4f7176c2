package http

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/payment"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/mauv0809/shuttlereg/internal/user"
)

// session returns the caller's workflow for the tournament in the path. It
// writes the error response itself when there is none.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*workflowSession, bool) {
	actor, ok := actorFromRequest(r)
	if !ok {
		http.Error(w, "missing "+userIDHeader+" or "+sessionIDHeader+" header", http.StatusUnauthorized)
		return nil, false
	}
	sess, ok := s.sessions.get(sessionKey(actor, r.PathValue("tournamentID")))
	if !ok {
		http.Error(w, "registration not initialized", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

// withWorkflow runs fn under the session lock and responds with the
// resulting state. The previous error message is cleared first.
func (s *Server) withWorkflow(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, wf *registration.Workflow) error) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.workflow.ClearError()
	err := fn(r.Context(), sess.workflow)
	respondJSON(w, statusFor(err), sess.workflow.State())
}

// InitRegistrationHandler starts a new registration session. A session is
// only kept when the tournament could be loaded.
func (s *Server) InitRegistrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			http.Error(w, "missing "+userIDHeader+" or "+sessionIDHeader+" header", http.StatusUnauthorized)
			return
		}
		tournamentID := r.PathValue("tournamentID")

		log.Info("Starting registration", "actor", actor, "tournamentID", tournamentID)
		sess, err := s.sessions.start(r.Context(), sessionKey(actor, tournamentID), tournamentID)
		respondJSON(w, statusFor(err), sess.workflow.State())
	}
}

func (s *Server) RegistrationStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		respondJSON(w, http.StatusOK, sess.workflow.State())
	}
}

// UpdateDetailsHandler replaces the personal details. Valid details of a
// signed-in user are also saved to their profile.
func (s *Server) UpdateDetailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req detailsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var gender eligibility.Gender
		if req.Gender != "" {
			if gender, err = eligibility.ParseGender(req.Gender); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}
		details := registration.PersonalDetails{
			FullName:    strings.TrimSpace(req.FullName),
			Email:       strings.TrimSpace(req.Email),
			Phone:       strings.TrimSpace(req.Phone),
			DateOfBirth: dob,
			Gender:      gender,
			ClubName:    strings.TrimSpace(req.ClubName),
		}

		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			wf.UpdatePersonalDetails(details)
			if wf.State().PersonalDetailsValid {
				s.saveProfile(ctx, details)
			}
			return nil
		})
	}
}

func (s *Server) saveProfile(ctx context.Context, details registration.PersonalDetails) {
	id := user.IDFromContext(ctx)
	if id == "" {
		return
	}
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			log.Warn("Failed to load profile before saving", "userID", id, "error", err)
			return
		}
		u = &user.User{ID: id}
	}
	u.FullName = details.FullName
	u.Email = details.Email
	u.Phone = details.Phone
	u.DateOfBirth = details.DateOfBirth
	u.ClubName = details.ClubName
	if details.Gender.Valid() {
		u.Gender = details.Gender
	}
	if err := s.Users.Upsert(ctx, u); err != nil {
		log.Warn("Failed to save profile", "userID", id, "error", err)
	}
}

func (s *Server) UpdateDateOfBirthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dateOfBirthRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		dob, err := parseDate(req.DateOfBirth)
		if err != nil || dob == nil {
			http.Error(w, "date_of_birth must use the YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			wf.UpdateDateOfBirth(*dob)
			return nil
		})
	}
}

// SelectEventHandler adds an event the player is eligible for. The price
// always comes from the tournament, never from the client.
func (s *Server) SelectEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sel registration.EventSelection
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		sel.Category = eligibility.Category(strings.ToUpper(string(sel.Category)))
		sel.Type = eligibility.EventType(strings.ToUpper(string(sel.Type)))

		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			st := wf.State()
			if sel.Category.Valid() && sel.Type.Valid() && !slices.Contains(st.EligibleCategories, sel.Category) {
				return errNotEligible
			}
			if st.Tournament != nil {
				if price, ok := st.Tournament.Price(sel.Category, sel.Type); ok {
					sel.Price = price
				}
			}
			return wf.SelectEvent(sel)
		})
	}
}

func (s *Server) RemoveEventHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		category, err := eligibility.ParseCategory(r.URL.Query().Get("category"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		eventType, err := eligibility.ParseEventType(r.URL.Query().Get("type"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			wf.RemoveEvent(registration.EventSelection{Category: category, Type: eventType})
			return nil
		})
	}
}

// NextStepHandler advances the workflow. When that submits the
// registration, its partners are added to the user's partner history.
func (s *Server) NextStepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			before := wf.State().Step
			if err := wf.NextStep(ctx); err != nil {
				return err
			}
			if st := wf.State(); before == registration.StepEventSelection && st.Step == registration.StepPayment {
				s.savePartners(ctx, st.SelectedEvents)
			}
			return nil
		})
	}
}

// savePartners records the partners of the submitted events. Failures are
// logged; the registration itself is already stored.
func (s *Server) savePartners(ctx context.Context, events []registration.EventSelection) {
	id := user.IDFromContext(ctx)
	if id == "" {
		return
	}
	for _, e := range events {
		if e.Partner == nil || strings.TrimSpace(e.Partner.Name) == "" {
			continue
		}
		p := &user.Partner{
			ID:           e.Partner.ID,
			Name:         e.Partner.Name,
			Phone:        e.Partner.Phone,
			Email:        e.Partner.Email,
			Gender:       e.Partner.Gender,
			IsRegistered: e.Partner.IsRegistered,
		}
		if err := s.Users.SavePartner(ctx, id, p); err != nil {
			log.Warn("Failed to save partner", "userID", id, "partner", e.Partner.Name, "error", err)
		}
	}
}

func (s *Server) PartnerHistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := user.IDFromContext(r.Context())
		if id == "" {
			respondError(w, registration.ErrNotAuthenticated)
			return
		}
		partners, err := s.Users.PartnerHistory(r.Context(), id)
		if err != nil {
			log.Error("Failed to list partners", "userID", id, "error", err)
			http.Error(w, "Failed to list partners", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, partners)
	}
}

func (s *Server) PreviousStepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			wf.PreviousStep()
			return nil
		})
	}
}

func (s *Server) SaveDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.withWorkflow(w, r, func(ctx context.Context, wf *registration.Workflow) error {
			return wf.SaveDraftRegistration(ctx)
		})
	}
}

// CreateOrderHandler opens a checkout with the payment provider for the
// submitted registration. The order replaces any earlier one of the session.
func (s *Server) CreateOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()

		st := sess.workflow.State()
		switch {
		case st.RegistrationID == "":
			respondError(w, registration.ErrNoRegistration)
			return
		case st.IsRegistrationComplete:
			respondError(w, registration.ErrInvalidTransition)
			return
		}

		order, err := s.Payments.CreateOrder(r.Context(), st.RegistrationID, st.TotalAmount, registration.DefaultCurrency)
		if err != nil {
			log.Error("Failed to create payment order", "provider", s.Payments.Name(), "registrationID", st.RegistrationID, "error", err)
			http.Error(w, "Failed to create payment order", http.StatusBadGateway)
			return
		}
		sess.order = order
		log.Info("Payment order created", "orderID", order.ID, "registrationID", st.RegistrationID, "amount", order.Amount)
		respondJSON(w, http.StatusOK, orderResponse{Order: order, State: st})
	}
}

// PaymentHandler receives the checkout result, verifies it with the provider
// and confirms the registration. The callback must be for the order opened
// for the current registration and total.
func (s *Server) PaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data registration.PaymentData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		sess, ok := s.session(w, r)
		if !ok {
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()

		wf := sess.workflow
		wf.ClearError()
		before := wf.State()
		if err := s.verifyPayment(r.Context(), sess.order, before, data); err != nil {
			log.Warn("Rejected payment callback", "registrationID", before.RegistrationID, "orderID", data.OrderID, "paymentID", data.PaymentID, "error", err)
			s.Metrics.IncPaymentsFailed()
			respondJSON(w, statusFor(err), before)
			return
		}

		data.Amount = sess.order.Amount
		data.Currency = sess.order.Currency
		if err := wf.ProcessPayment(r.Context(), data); err != nil {
			respondJSON(w, statusFor(err), wf.State())
			return
		}
		s.trackReceipt(wf)
		if !before.IsRegistrationComplete {
			s.onConfirmed(r.Context(), before.RegistrationID)
		}
		respondJSON(w, http.StatusOK, wf.State())
	}
}

// verifyPayment checks the callback against the session's order before the
// provider signature.
func (s *Server) verifyPayment(ctx context.Context, order *payment.Order, st registration.State, data registration.PaymentData) error {
	switch {
	case order == nil:
		return errNoOrder
	case data.OrderID != order.ID:
		return errOrderMismatch
	case order.RegistrationID != st.RegistrationID, math.Abs(order.Amount-st.TotalAmount) > 0.005:
		return errStaleOrder
	}
	return s.Payments.VerifyPayment(ctx, data.OrderID, data.PaymentID, data.Signature)
}

// onConfirmed updates the participant count and announces the registration.
// Failures are logged; the payment itself has already been recorded.
func (s *Server) onConfirmed(ctx context.Context, registrationID string) {
	reg, err := s.Registrations.Get(ctx, registrationID)
	if err != nil {
		log.Error("Failed to reload confirmed registration", "registrationID", registrationID, "error", err)
		return
	}
	if err := s.Tournaments.IncrementParticipants(ctx, reg.TournamentID, 1); err != nil {
		log.Error("Failed to increment participants", "tournamentID", reg.TournamentID, "error", err)
	}
	s.Lookup.Invalidate(reg.TournamentID)

	event := s.registrationEvent(ctx, reg)
	if err := s.pubsub.SendMessage(pubsub.EventRegistrationConfirmed, event); err != nil {
		log.Error("Failed to publish registration confirmed", "registrationID", reg.ID, "error", err)
	}
}

func (s *Server) ListMyRegistrationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := user.IDFromContext(r.Context())
		if id == "" {
			respondError(w, registration.ErrNotAuthenticated)
			return
		}
		regs, err := s.Registrations.ListByUser(r.Context(), id)
		if err != nil {
			log.Error("Failed to list registrations", "userID", id, "error", err)
			http.Error(w, "Failed to list registrations", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, regs)
	}
}

// registrationEvent builds the pub/sub payload. Missing tournament or profile
// data only leaves the display names empty.
func (s *Server) registrationEvent(ctx context.Context, reg *registration.Registration) pubsub.RegistrationEvent {
	event := pubsub.RegistrationEvent{
		RegistrationID: reg.ID,
		TournamentID:   reg.TournamentID,
		UserID:         reg.UserID,
		TotalAmount:    reg.TotalAmount,
		PaymentID:      reg.PaymentID,
		Events:         make([]string, 0, len(reg.SelectedEvents)),
	}
	for _, sel := range reg.SelectedEvents {
		event.Events = append(event.Events, tournament.PriceKey(sel.Category, sel.Type))
	}
	if t, err := s.Lookup.GetByID(ctx, reg.TournamentID); err == nil {
		event.TournamentName = t.Name
	}
	if u, err := s.Users.GetByID(ctx, reg.UserID); err == nil {
		event.PlayerName = u.FullName
	}
	return event
}
