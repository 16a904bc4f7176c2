package eligibility

import (
	"fmt"
	"strings"
)

// Category is an age or gender competition bracket.
type Category string

const (
	U9         Category = "U9"
	U11        Category = "U11"
	U13        Category = "U13"
	U15        Category = "U15"
	U17        Category = "U17"
	U19        Category = "U19"
	MensOpen   Category = "MENS_OPEN"
	WomensOpen Category = "WOMENS_OPEN"
)

// OpenMinAge is the minimum age for the open categories.
const OpenMinAge = 18

type categoryInfo struct {
	displayName string
	ageLimit    string
	maxAge      int // -1 for open categories
}

var categories = map[Category]categoryInfo{
	U9:         {"Under 9", "8 years or younger", 8},
	U11:        {"Under 11", "10 years or younger", 10},
	U13:        {"Under 13", "12 years or younger", 12},
	U15:        {"Under 15", "14 years or younger", 14},
	U17:        {"Under 17", "16 years or younger", 16},
	U19:        {"Under 19", "18 years or younger", 18},
	MensOpen:   {"Men's Open", "18+ years", -1},
	WomensOpen: {"Women's Open", "18+ years", -1},
}

// youthCategories is in ascending age-bracket order.
var youthCategories = []Category{U9, U11, U13, U15, U17, U19}

// AllCategories returns every category in display order.
func AllCategories() []Category {
	all := make([]Category, 0, len(categories))
	all = append(all, youthCategories...)
	return append(all, MensOpen, WomensOpen)
}

func (c Category) DisplayName() string {
	return categories[c].displayName
}

func (c Category) AgeLimit() string {
	return categories[c].ageLimit
}

// IsOpen reports whether c is one of the gendered open categories.
func (c Category) IsOpen() bool {
	return c == MensOpen || c == WomensOpen
}

// MaxAge returns the inclusive upper age bound of a youth category.
func (c Category) MaxAge() (int, bool) {
	info, ok := categories[c]
	if !ok || info.maxAge < 0 {
		return 0, false
	}
	return info.maxAge, true
}

func (c Category) Valid() bool {
	_, ok := categories[c]
	return ok
}

// ParseCategory accepts the identifier in any letter case.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// EventType is the match format of an event.
type EventType string

const (
	Singles      EventType = "SINGLES"
	Doubles      EventType = "DOUBLES"
	MixedDoubles EventType = "MIXED_DOUBLES"
)

// EventTypes returns every event type in display order.
func EventTypes() []EventType {
	return []EventType{Singles, Doubles, MixedDoubles}
}

func (t EventType) Valid() bool {
	switch t {
	case Singles, Doubles, MixedDoubles:
		return true
	}
	return false
}

// DisplayName returns the human-readable event type, e.g. "Mixed Doubles".
func (t EventType) DisplayName() string {
	switch t {
	case Singles:
		return "Singles"
	case Doubles:
		return "Doubles"
	case MixedDoubles:
		return "Mixed Doubles"
	}
	return string(t)
}

func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// Gender decides which open category a player can reach.
type Gender string

const (
	Male   Gender = "MALE"
	Female Gender = "FEMALE"
)

func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// OpenCategory returns the open category for g, or "" for an unknown gender.
func (g Gender) OpenCategory() Category {
	switch g {
	case Male:
		return MensOpen
	case Female:
		return WomensOpen
	}
	return ""
}

func ParseGender(s string) (Gender, error) {
	g := Gender(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown gender %q", s)
	}
	return g, nil
}
