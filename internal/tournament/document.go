package tournament

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
)

// FromDocument converts a loosely typed document, as exported from a
// document store or read from a seed file, into a Tournament. It is the only
// place that tolerates missing or mistyped fields; anything it cannot read
// falls back to the zero value.
func FromDocument(id string, doc map[string]any) Tournament {
	if id == "" {
		id = asString(doc["id"])
	}
	t := Tournament{
		ID:                   id,
		Name:                 asString(doc["name"]),
		Description:          asString(doc["description"]),
		StartDate:            asDate(doc["startDate"]),
		EndDate:              asDate(doc["endDate"]),
		Venue:                asString(doc["venue"]),
		RegistrationDeadline: asDate(doc["registrationDeadline"]),
		AvailableEvents:      asCategories(doc["availableEvents"]),
		EventPrices:          asPrices(doc["eventPrices"]),
		Rules:                asString(doc["rules"]),
		IsActive:             asBool(doc["isActive"], true),
		MaxParticipants:      asInt(doc["maxParticipants"]),
		CurrentParticipants:  asInt(doc["currentParticipants"]),
		BannerImageURL:       asString(doc["bannerImageUrl"]),
	}
	if contact, ok := doc["contactInfo"].(map[string]any); ok {
		t.Contact = ContactInfo{
			OrganizerName: asString(contact["organizerName"]),
			Email:         asString(contact["email"]),
			Phone:         asString(contact["phone"]),
			Website:       asString(contact["website"]),
			Address:       asString(contact["address"]),
		}
	}
	if ts := asDate(doc["createdAt"]); ts != nil {
		t.CreatedAt = *ts
	}
	if ts := asDate(doc["updatedAt"]); ts != nil {
		t.UpdatedAt = *ts
	}
	return t
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any, fallback bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return fallback
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func asInt(v any) int {
	f, _ := asFloat(v)
	return int(f)
}

// asDate accepts RFC 3339 timestamps, plain YYYY-MM-DD dates and epoch
// milliseconds.
func asDate(v any) *time.Time {
	switch d := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, d); err == nil {
				return &ts
			}
		}
	case time.Time:
		return &d
	default:
		if ms, ok := asFloat(v); ok {
			ts := time.UnixMilli(int64(ms)).UTC()
			return &ts
		}
	}
	return nil
}

func asCategories(v any) []eligibility.Category {
	raw, ok := v.([]any)
	if !ok {
		return []eligibility.Category{}
	}
	categories := make([]eligibility.Category, 0, len(raw))
	for _, item := range raw {
		c, err := eligibility.ParseCategory(asString(item))
		if err != nil {
			log.Debug("Dropping unknown category from document", "value", item)
			continue
		}
		categories = append(categories, c)
	}
	return categories
}

func asPrices(v any) map[string]float64 {
	prices := make(map[string]float64)
	raw, ok := v.(map[string]any)
	if !ok {
		return prices
	}
	for key, value := range raw {
		price, ok := asFloat(value)
		if !ok {
			price = 0
		}
		prices[key] = price
	}
	return prices
}
