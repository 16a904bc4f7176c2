package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		RegistrationsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_registrations_submitted_total",
			Help: "The total number of registrations submitted.",
		}),
		RegistrationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_registrations_failed_total",
			Help: "The total number of registration submissions rejected by the store.",
		}),
		DraftsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_drafts_saved_total",
			Help: "The total number of draft registrations saved.",
		}),
		PaymentsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_payments_processed_total",
			Help: "The total number of payments captured successfully.",
		}),
		PaymentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_payments_failed_total",
			Help: "The total number of payments that failed to process.",
		}),
		PaymentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shuttlereg_payment_processing_duration_seconds",
			Help:    "The duration of payment capture calls.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ReceiptsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_receipts_generated_total",
			Help: "The total number of receipt PDFs generated and uploaded.",
		}),
		ReceiptsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_receipts_failed_total",
			Help: "The total number of receipt PDFs that failed to generate.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttlereg_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttlereg_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.RegistrationsSubmitted,
		s.RegistrationsFailed,
		s.DraftsSaved,
		s.PaymentsProcessed,
		s.PaymentsFailed,
		s.PaymentDuration,
		s.ReceiptsGenerated,
		s.ReceiptsFailed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRegistrationsSubmitted() {
	s.RegistrationsSubmitted.Inc()
}

func (s *Service) IncRegistrationsFailed() {
	s.RegistrationsFailed.Inc()
}

func (s *Service) IncDraftsSaved() {
	s.DraftsSaved.Inc()
}

func (s *Service) IncPaymentsProcessed() {
	s.PaymentsProcessed.Inc()
}

func (s *Service) IncPaymentsFailed() {
	s.PaymentsFailed.Inc()
}

func (s *Service) ObservePaymentDuration(duration float64) {
	s.PaymentDuration.Observe(duration)
}

func (s *Service) IncReceiptsGenerated() {
	s.ReceiptsGenerated.Inc()
}

func (s *Service) IncReceiptsFailed() {
	s.ReceiptsFailed.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
