package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	RegistrationsSubmitted prometheus.Counter
	RegistrationsFailed    prometheus.Counter
	DraftsSaved            prometheus.Counter
	PaymentsProcessed      prometheus.Counter
	PaymentsFailed         prometheus.Counter
	PaymentDuration        prometheus.Histogram
	ReceiptsGenerated      prometheus.Counter
	ReceiptsFailed         prometheus.Counter
	SlackNotifSent         prometheus.Counter
	SlackNotifFailed       prometheus.Counter
	StartupTimeSeconds     prometheus.Gauge
}
