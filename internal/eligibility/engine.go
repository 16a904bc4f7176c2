package eligibility

import "time"

// Engine maps a birth date and gender to the categories a player may enter.
// Ages are computed against the engine's clock, i.e. "today", not the
// tournament date.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now as the engine's notion of today.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Age returns elapsed full years since birthDate. The birthday counts as
// passed once today's day-of-year reaches the birth day-of-year.
func (e *Engine) Age(birthDate time.Time) int {
	today := e.now()
	age := today.Year() - birthDate.Year()
	if today.YearDay() < birthDate.YearDay() {
		age--
	}
	return age
}

// EligibleCategories returns every youth bracket whose upper bound the
// player's age satisfies, followed by the open category for their gender
// when they are 18 or older. Youth brackets are cumulative: an 8 year old
// may enter U9 through U19.
func (e *Engine) EligibleCategories(birthDate time.Time, gender Gender) []Category {
	age := e.Age(birthDate)

	eligible := make([]Category, 0, len(youthCategories)+1)
	for _, c := range youthCategories {
		if maxAge, _ := c.MaxAge(); age <= maxAge {
			eligible = append(eligible, c)
		}
	}
	if open := gender.OpenCategory(); open != "" && age >= OpenMinAge {
		eligible = append(eligible, open)
	}
	return eligible
}

// IsEligible applies the age rule for a single category. It does not check
// gender; callers pick the open category matching the player.
func (e *Engine) IsEligible(birthDate time.Time, category Category) bool {
	age := e.Age(birthDate)
	if category.IsOpen() {
		return age >= OpenMinAge
	}
	maxAge, ok := category.MaxAge()
	if !ok {
		return false
	}
	return age <= maxAge
}
