package tournament_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceKey(t *testing.T) {
	assert.Equal(t, "U15_SINGLES", tournament.PriceKey(eligibility.U15, eligibility.Singles))
	assert.Equal(t, "WOMENS_OPEN_MIXED_DOUBLES", tournament.PriceKey(eligibility.WomensOpen, eligibility.MixedDoubles))
}

func TestOffers(t *testing.T) {
	tour := summerOpen()
	offers := tour.Offers([]eligibility.Category{eligibility.U13, eligibility.U15, eligibility.MensOpen})

	require.Len(t, offers, 2)
	assert.Equal(t, tournament.Offer{Category: eligibility.U15, Type: eligibility.Singles, Price: 500}, offers[0])
	assert.Equal(t, tournament.Offer{Category: eligibility.MensOpen, Type: eligibility.Doubles, Price: 800}, offers[1])

	_, ok := tour.Price(eligibility.U13, eligibility.Singles)
	assert.False(t, ok)
}

func TestIsRegistrationOpen(t *testing.T) {
	before := time.Date(2026, time.November, 1, 0, 0, 0, 0, time.UTC)
	after := time.Date(2026, time.November, 21, 0, 0, 0, 0, time.UTC)

	tour := summerOpen()
	assert.True(t, tour.IsRegistrationOpen(before))
	assert.False(t, tour.IsRegistrationOpen(after))

	full := summerOpen()
	full.CurrentParticipants = full.MaxParticipants
	assert.False(t, full.IsRegistrationOpen(before))

	uncapped := summerOpen()
	uncapped.MaxParticipants = 0
	uncapped.CurrentParticipants = 1000
	assert.True(t, uncapped.IsRegistrationOpen(before))

	inactive := summerOpen()
	inactive.IsActive = false
	assert.False(t, inactive.IsRegistrationOpen(before))
}

func TestFromDocument(t *testing.T) {
	doc := map[string]any{
		"name":                 "Winter Cup",
		"venue":                "Riverside Hall",
		"startDate":            "2026-12-01",
		"registrationDeadline": "2026-11-20T18:00:00Z",
		"endDate":              float64(1796256000000),
		"availableEvents":      []any{"U11", "u15", "NOT_A_CATEGORY", "MENS_OPEN"},
		"eventPrices":          map[string]any{"U11_SINGLES": float64(300), "U15_DOUBLES": "450", "BROKEN": true},
		"maxParticipants":      float64(64),
		"contactInfo":          map[string]any{"organizerName": "Alex", "email": "alex@example.com"},
	}

	tour := tournament.FromDocument("tournament_2024_winter", doc)
	assert.Equal(t, "tournament_2024_winter", tour.ID)
	assert.Equal(t, "Winter Cup", tour.Name)
	assert.True(t, tour.IsActive, "isActive defaults to true")
	assert.Equal(t, []eligibility.Category{eligibility.U11, eligibility.U15, eligibility.MensOpen}, tour.AvailableEvents)
	assert.Equal(t, 300.0, tour.EventPrices["U11_SINGLES"])
	assert.Equal(t, 450.0, tour.EventPrices["U15_DOUBLES"])
	assert.Equal(t, 0.0, tour.EventPrices["BROKEN"])
	assert.Equal(t, 64, tour.MaxParticipants)
	assert.Equal(t, "Alex", tour.Contact.OrganizerName)
	require.NotNil(t, tour.StartDate)
	assert.Equal(t, 2026, tour.StartDate.Year())
	require.NotNil(t, tour.RegistrationDeadline)
	assert.Equal(t, 18, tour.RegistrationDeadline.Hour())
	require.NotNil(t, tour.EndDate)
}

func TestFromDocument_Empty(t *testing.T) {
	tour := tournament.FromDocument("", map[string]any{"id": "x", "isActive": false})
	assert.Equal(t, "x", tour.ID)
	assert.False(t, tour.IsActive)
	assert.NotNil(t, tour.AvailableEvents)
	assert.NotNil(t, tour.EventPrices)
	assert.Nil(t, tour.StartDate)
}

func TestCachedLookup(t *testing.T) {
	mock := tournament.NewMock(summerOpen())
	cached := tournament.NewCachedLookup(mock, 8, time.Minute)
	ctx := context.Background()

	first, err := cached.GetByID(ctx, "tournament_2024_summer")
	require.NoError(t, err)
	first.EventPrices["U15_SINGLES"] = 1

	second, err := cached.GetByID(ctx, "tournament_2024_summer")
	require.NoError(t, err)
	assert.Equal(t, 500.0, second.EventPrices["U15_SINGLES"], "cached entry is isolated from callers")
	assert.Len(t, mock.GetByIDCalls, 1)

	cached.Invalidate("tournament_2024_summer")
	_, err = cached.GetByID(ctx, "tournament_2024_summer")
	require.NoError(t, err)
	assert.Len(t, mock.GetByIDCalls, 2)
}

func TestCachedLookup_DoesNotCacheErrors(t *testing.T) {
	mock := tournament.NewMock()
	calls := 0
	mock.GetByIDFunc = func(ctx context.Context, id string) (*tournament.Tournament, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("unavailable")
		}
		return summerOpen(), nil
	}
	cached := tournament.NewCachedLookup(mock, 8, time.Minute)

	_, err := cached.GetByID(context.Background(), "tournament_2024_summer")
	assert.Error(t, err)
	got, err := cached.GetByID(context.Background(), "tournament_2024_summer")
	require.NoError(t, err)
	assert.Equal(t, "Summer Championship", got.Name)
}
