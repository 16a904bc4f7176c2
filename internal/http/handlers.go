package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/payment"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/mauv0809/shuttlereg/internal/user"
)

const dateLayout = "2006-01-02"

var (
	errNotEligible   = errors.New("player is not eligible for this category")
	errNoOrder       = errors.New("no payment order was opened for this registration")
	errOrderMismatch = errors.New("payment is not for the current order")
	errStaleOrder    = errors.New("payment order no longer matches the registration")
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ListTournamentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			tournaments []tournament.Tournament
			err         error
		)
		if q := r.URL.Query().Get("q"); q != "" {
			tournaments, err = s.Tournaments.Search(r.Context(), q)
		} else {
			tournaments, err = s.Tournaments.List(r.Context(), r.URL.Query().Get("all") != "true")
		}
		if err != nil {
			log.Error("Failed to list tournaments", "error", err)
			http.Error(w, "Failed to list tournaments", http.StatusInternalServerError)
			return
		}
		respondJSON(w, http.StatusOK, tournaments)
	}
}

func (s *Server) GetTournamentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.Lookup.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, tournamentResponse{Tournament: t, RegistrationOpen: t.IsRegistrationOpen(time.Now())})
	}
}

// EligibilityHandler answers which categories a birth date and gender can
// enter, optionally narrowed to what one tournament offers.
func (s *Server) EligibilityHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		dob, err := time.Parse(dateLayout, q.Get("date_of_birth"))
		if err != nil {
			http.Error(w, "date_of_birth must use the YYYY-MM-DD format", http.StatusBadRequest)
			return
		}
		gender, err := eligibility.ParseGender(q.Get("gender"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		categories := s.Engine.EligibleCategories(dob, gender)
		resp := eligibilityResponse{Age: s.Engine.Age(dob), Categories: make([]categoryInfo, 0, len(categories))}
		for _, c := range categories {
			resp.Categories = append(resp.Categories, categoryInfo{Category: c, DisplayName: c.DisplayName(), AgeLimit: c.AgeLimit()})
		}
		if id := q.Get("tournament_id"); id != "" {
			t, err := s.Lookup.GetByID(r.Context(), id)
			if err != nil {
				respondError(w, err)
				return
			}
			resp.Offers = t.Offers(categories)
		}
		respondJSON(w, http.StatusOK, resp)
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, tournament.ErrNotFound), errors.Is(err, registration.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, registration.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, registration.ErrInvalidSelection), errors.Is(err, payment.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, registration.ErrIncomplete), errors.Is(err, registration.ErrEventNotOffered),
		errors.Is(err, errNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, registration.ErrNoRegistration), errors.Is(err, registration.ErrInvalidTransition),
		errors.Is(err, errNoOrder), errors.Is(err, errOrderMismatch), errors.Is(err, errStaleOrder):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return &d, nil
}

// actorFromRequest identifies who owns a registration session: the signed-in
// user, or an anonymous browser session.
func actorFromRequest(r *http.Request) (string, bool) {
	if id := user.IDFromContext(r.Context()); id != "" {
		return "user:" + id, true
	}
	if sid := r.Header.Get(sessionIDHeader); sid != "" {
		return "anon:" + sid, true
	}
	return "", false
}
