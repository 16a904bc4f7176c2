package http

import (
	"net/http"
	"sync"

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

type Server struct {
	Tournaments    tournament.Store
	Lookup         *tournament.CachedLookup
	Registrations  registration.Store
	Users          user.Store
	Engine         *eligibility.Engine
	Payments       payment.Provider
	Notifier       notifier.Notifier
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
	sessions       *sessionRegistry
	receipts       sync.WaitGroup
}

// detailsRequest is the body of the personal details step. Dates use the
// "2006-01-02" layout.
type detailsRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
	ClubName    string `json:"club_name"`
}

type dateOfBirthRequest struct {
	DateOfBirth string `json:"date_of_birth"`
}

type categoryInfo struct {
	Category    eligibility.Category `json:"category"`
	DisplayName string               `json:"display_name"`
	AgeLimit    string               `json:"age_limit"`
}

type eligibilityResponse struct {
	Age        int                `json:"age"`
	Categories []categoryInfo     `json:"categories"`
	Offers     []tournament.Offer `json:"offers,omitempty"`
}

type tournamentResponse struct {
	*tournament.Tournament
	RegistrationOpen bool `json:"registration_open"`
}

type orderResponse struct {
	Order *payment.Order     `json:"order"`
	State registration.State `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}
