package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                     sync.Mutex
	registrationsSubmitted int
	registrationsFailed    int
	draftsSaved            int
	paymentsProcessed      int
	paymentsFailed         int
	paymentDurations       []float64
	receiptsGenerated      int
	receiptsFailed         int
	slackNotifSent         int
	slackNotifFailed       int
	startupTime            float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		paymentDurations: make([]float64, 0),
	}
}

func (m *Mock) IncRegistrationsSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsSubmitted++
}

func (m *Mock) IncRegistrationsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsFailed++
}

func (m *Mock) IncDraftsSaved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draftsSaved++
}

func (m *Mock) IncPaymentsProcessed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentsProcessed++
}

func (m *Mock) IncPaymentsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentsFailed++
}

func (m *Mock) ObservePaymentDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentDurations = append(m.paymentDurations, duration)
}

func (m *Mock) IncReceiptsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiptsGenerated++
}

func (m *Mock) IncReceiptsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiptsFailed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// RegistrationsSubmitted returns the number of times IncRegistrationsSubmitted was called.
func (m *Mock) RegistrationsSubmitted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrationsSubmitted
}

// RegistrationsFailed returns the number of times IncRegistrationsFailed was called.
func (m *Mock) RegistrationsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registrationsFailed
}

// DraftsSaved returns the number of times IncDraftsSaved was called.
func (m *Mock) DraftsSaved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draftsSaved
}

// PaymentsProcessed returns the number of times IncPaymentsProcessed was called.
func (m *Mock) PaymentsProcessed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paymentsProcessed
}

// PaymentsFailed returns the number of times IncPaymentsFailed was called.
func (m *Mock) PaymentsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paymentsFailed
}

// PaymentDurations returns every observed payment duration.
func (m *Mock) PaymentDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.paymentDurations...)
}

// ReceiptsGenerated returns the number of times IncReceiptsGenerated was called.
func (m *Mock) ReceiptsGenerated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receiptsGenerated
}

// ReceiptsFailed returns the number of times IncReceiptsFailed was called.
func (m *Mock) ReceiptsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.receiptsFailed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// StartupTime returns the last value passed to SetStartupTime.
func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
