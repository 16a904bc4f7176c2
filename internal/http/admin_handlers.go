package http

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
)

// TournamentStatsHandler summarises the registrations of a tournament. With
// notify=true the summary is also posted to Slack.
func (s *Server) TournamentStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := s.Lookup.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			respondError(w, err)
			return
		}
		regs, err := s.Registrations.ListByTournament(r.Context(), t.ID)
		if err != nil {
			log.Error("Failed to list registrations", "tournamentID", t.ID, "error", err)
			http.Error(w, "Failed to list registrations", http.StatusInternalServerError)
			return
		}
		stats := registration.ComputeStats(regs)

		if r.URL.Query().Get("notify") == "true" {
			if err := s.Notifier.SendTournamentStats(t.Name, stats, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to send tournament stats", "tournamentID", t.ID, "error", err)
				http.Error(w, "Failed to send tournament stats", http.StatusInternalServerError)
				return
			}
		}
		respondJSON(w, http.StatusOK, stats)
	}
}

// CancelRegistrationHandler cancels a registration. A confirmed entry gives
// its place back to the tournament.
func (s *Server) CancelRegistrationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.PathValue("id")
		prev, err := s.Registrations.Cancel(ctx, id)
		if err != nil {
			log.Warn("Failed to cancel registration", "registrationID", id, "error", err)
			respondError(w, err)
			return
		}
		log.Info("Registration cancelled", "registrationID", id, "previousStatus", prev)

		reg, err := s.Registrations.Get(ctx, id)
		if err != nil {
			respondError(w, err)
			return
		}
		if prev == registration.StatusConfirmed {
			if err := s.Tournaments.IncrementParticipants(ctx, reg.TournamentID, -1); err != nil {
				log.Error("Failed to decrement participants", "tournamentID", reg.TournamentID, "error", err)
			}
			s.Lookup.Invalidate(reg.TournamentID)
		}
		if err := s.pubsub.SendMessage(pubsub.EventRegistrationCancelled, s.registrationEvent(ctx, reg)); err != nil {
			log.Error("Failed to publish registration cancelled", "registrationID", id, "error", err)
		}
		respondJSON(w, http.StatusOK, reg)
	}
}
