package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRegistrationsSubmitted()
	IncRegistrationsFailed()
	IncDraftsSaved()
	IncPaymentsProcessed()
	IncPaymentsFailed()
	ObservePaymentDuration(duration float64)
	IncReceiptsGenerated()
	IncReceiptsFailed()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
}
