package tournament

import (
	"time"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

// PriceKey builds the price table key for a category and event type. The
// format "{CATEGORY}_{EVENT_TYPE}" is shared with stored documents and must
// not change.
func PriceKey(category eligibility.Category, eventType eligibility.EventType) string {
	return string(category) + "_" + string(eventType)
}

// Price returns the entry fee for a combination. ok is false when the
// tournament does not offer it.
func (t *Tournament) Price(category eligibility.Category, eventType eligibility.EventType) (price float64, ok bool) {
	price, ok = t.EventPrices[PriceKey(category, eventType)]
	return price, ok
}

// Offers lists the priced combinations among the given categories, in
// category then event type order.
func (t *Tournament) Offers(categories []eligibility.Category) []Offer {
	var offers []Offer
	for _, c := range categories {
		for _, et := range eligibility.EventTypes() {
			if price, ok := t.Price(c, et); ok {
				offers = append(offers, Offer{Category: c, Type: et, Price: price})
			}
		}
	}
	return offers
}

// IsRegistrationOpen reports whether the tournament is active, before its
// deadline, and below capacity. A zero MaxParticipants means no cap.
func (t *Tournament) IsRegistrationOpen(now time.Time) bool {
	if !t.IsActive {
		return false
	}
	if t.RegistrationDeadline != nil && now.After(*t.RegistrationDeadline) {
		return false
	}
	if t.MaxParticipants > 0 && t.CurrentParticipants >= t.MaxParticipants {
		return false
	}
	return true
}
