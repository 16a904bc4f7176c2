package http

import (
	"context"
	"net/http"

	"github.com/mauv0809/shuttlereg/internal/config"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/metrics"
	"github.com/mauv0809/shuttlereg/internal/notifier"
	"github.com/mauv0809/shuttlereg/internal/payment"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/mauv0809/shuttlereg/internal/user"
)

func NewServer(cfg config.Config, tournaments tournament.Store, lookup *tournament.CachedLookup, registrations registration.Store, users user.Store, engine *eligibility.Engine, payments payment.Provider, notifier notifier.Notifier, metricsSvc metrics.Metrics, metricsHandler http.Handler, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Tournaments:    tournaments,
		Lookup:         lookup,
		Registrations:  registrations,
		Users:          users,
		Engine:         engine,
		Payments:       payments,
		Notifier:       notifier,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}
	currentUser := user.NewSession(users)
	server.sessions = newSessionRegistry(defaultSessionSize, defaultSessionTTL, func() *registration.Workflow {
		return registration.NewWorkflow(lookup, registrations, currentUser, engine, metricsSvc)
	})

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, userMiddleware)
	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))

	s.Router.Handle("GET /tournaments", Chain(s.ListTournamentsHandler(), paramsMiddleware))
	s.Router.Handle("GET /tournaments/{id}", Chain(s.GetTournamentHandler(), paramsMiddleware))
	s.Router.Handle("GET /eligibility", Chain(s.EligibilityHandler(), paramsMiddleware))

	s.Router.Handle("GET /registrations", Chain(s.ListMyRegistrationsHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("GET /partners", Chain(s.PartnerHistoryHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/init", Chain(s.InitRegistrationHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("GET /registrations/{tournamentID}/state", Chain(s.RegistrationStateHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("PUT /registrations/{tournamentID}/details", Chain(s.UpdateDetailsHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("PUT /registrations/{tournamentID}/dob", Chain(s.UpdateDateOfBirthHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/events", Chain(s.SelectEventHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("DELETE /registrations/{tournamentID}/events", Chain(s.RemoveEventHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/next", Chain(s.NextStepHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/previous", Chain(s.PreviousStepHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/draft", Chain(s.SaveDraftHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/order", Chain(s.CreateOrderHandler(), paramsMiddleware, userMiddleware))
	s.Router.Handle("POST /registrations/{tournamentID}/payment", Chain(s.PaymentHandler(), paramsMiddleware, userMiddleware))

	s.Router.Handle("GET /admin/tournaments/{id}/stats", Chain(s.TournamentStatsHandler(), paramsMiddleware))
	s.Router.Handle("POST /admin/registrations/{id}/cancel", Chain(s.CancelRegistrationHandler(), paramsMiddleware))

	s.Router.Handle("POST /pubsub/registration-confirmed", Chain(s.RegistrationConfirmedHandler(), paramsMiddleware))
	s.Router.Handle("POST /pubsub/registration-cancelled", Chain(s.RegistrationCancelledHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

// trackReceipt lets Drain wait for the receipt the workflow is generating.
func (s *Server) trackReceipt(wf *registration.Workflow) {
	s.receipts.Add(1)
	go func() {
		defer s.receipts.Done()
		wf.Wait()
	}()
}

// Drain blocks until receipts still being generated are stored, or the
// context ends. It is meant to run after the HTTP server stopped accepting
// requests.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.receipts.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
