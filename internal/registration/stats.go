package registration

import "github.com/mauv0809/shuttlereg/internal/eligibility"

// ComputeStats aggregates registrations for the admin dashboard. Revenue only
// counts captured payments. Drafts are skipped.
func ComputeStats(registrations []Registration) Stats {
	stats := Stats{EntriesByCategory: make(map[eligibility.Category]int)}
	for _, r := range registrations {
		if r.Status == StatusDraft {
			continue
		}
		stats.TotalRegistrations++
		stats.TotalEntries += len(r.SelectedEvents)
		for _, e := range r.SelectedEvents {
			stats.EntriesByCategory[e.Category]++
		}
		switch r.PaymentStatus {
		case PaymentSuccess:
			stats.Revenue += r.TotalAmount
		case PaymentPending:
			stats.PendingPayments++
		}
	}
	return stats
}
