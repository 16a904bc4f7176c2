package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mauv0809/shuttlereg/internal/config"
	"github.com/mauv0809/shuttlereg/internal/database"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/metrics"
	"github.com/mauv0809/shuttlereg/internal/notifier"
	"github.com/mauv0809/shuttlereg/internal/payment"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/mauv0809/shuttlereg/internal/tournament"
	"github.com/mauv0809/shuttlereg/internal/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const testTournamentID = "tournament_2024_summer"

type testEnv struct {
	server   *Server
	payments *payment.Stub
	notifier *notifier.Mock
	pubsub   *pubsub.MockPubSubClient
}

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, opts ...registration.Option) (*testEnv, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)

	tournaments := tournament.New(db)
	deadline := time.Date(2026, time.November, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, tournaments.Upsert(context.Background(), &tournament.Tournament{
		ID:                   testTournamentID,
		Name:                 "Summer Championship",
		Venue:                "City Sports Complex",
		RegistrationDeadline: &deadline,
		AvailableEvents:      []eligibility.Category{eligibility.U15, eligibility.MensOpen},
		EventPrices: map[string]float64{
			"U15_SINGLES":       500,
			"MENS_OPEN_DOUBLES": 800,
		},
		IsActive:        true,
		MaxParticipants: 200,
	}))

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	engine := eligibility.New(eligibility.WithClock(func() time.Time {
		return time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	}))
	env := &testEnv{
		payments: payment.NewStub("test-secret", "http://localhost"),
		notifier: notifier.NewMock(),
		pubsub:   pubsub.NewMock(),
	}
	env.server = NewServer(
		config.Config{},
		tournaments,
		tournament.NewCachedLookup(tournaments, 16, time.Minute),
		registration.New(db, opts...),
		user.New(db),
		engine,
		env.payments,
		env.notifier,
		metricsSvc,
		metrics.NewMetricsHandler(reg),
		env.pubsub,
	)
	return env, teardown
}

func doRequest(t *testing.T, server *Server, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) registration.State {
	t.Helper()
	var st registration.State
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &st), rr.Body.String())
	return st
}

func TestHealthCheckHandler(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, env.server, "GET", "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestTournamentHandlers(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, env.server, "GET", "/tournaments", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []tournament.Tournament
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, testTournamentID, list[0].ID)

	rr = doRequest(t, env.server, "GET", "/tournaments?q=sports", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1, "venue matches")

	rr = doRequest(t, env.server, "GET", "/tournaments/"+testTournamentID, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"registration_open"`)

	rr = doRequest(t, env.server, "GET", "/tournaments/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEligibilityHandler(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, env.server, "GET", "/eligibility?date_of_birth=2012-03-01&gender=male&tournament_id="+testTournamentID, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp eligibilityResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 14, resp.Age)
	require.Len(t, resp.Categories, 3)
	assert.Equal(t, eligibility.U15, resp.Categories[0].Category)
	assert.Equal(t, "Under 15", resp.Categories[0].DisplayName)
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, 500.0, resp.Offers[0].Price)

	rr = doRequest(t, env.server, "GET", "/eligibility?date_of_birth=1990-05-05&gender=FEMALE", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Categories, 1)
	assert.Equal(t, eligibility.WomensOpen, resp.Categories[0].Category)

	rr = doRequest(t, env.server, "GET", "/eligibility?date_of_birth=05/05/1990&gender=FEMALE", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, env.server, "GET", "/eligibility?date_of_birth=1990-05-05&gender=other", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegistrationFlow(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()
	s := env.server
	headers := map[string]string{userIDHeader: "user-1"}
	base := "/registrations/" + testTournamentID

	rr := doRequest(t, s, "POST", base+"/init", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decodeState(t, rr)
	assert.Equal(t, registration.StepPersonalDetails, st.Step)
	assert.False(t, st.PersonalDetailsValid)

	rr = doRequest(t, s, "PUT", base+"/details", detailsRequest{
		FullName:    "Arjun Rao",
		Email:       "arjun@example.com",
		Phone:       "9876543210",
		DateOfBirth: "2012-03-01",
		Gender:      "MALE",
	}, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	st = decodeState(t, rr)
	assert.True(t, st.PersonalDetailsValid)
	assert.Equal(t, []eligibility.Category{eligibility.U15, eligibility.U17, eligibility.U19}, st.EligibleCategories)
	require.Len(t, st.AvailableOffers, 1)

	profile, err := s.Users.GetByID(context.Background(), "user-1")
	require.NoError(t, err, "valid details are saved to the profile")
	assert.Equal(t, "Arjun Rao", profile.FullName)

	rr = doRequest(t, s, "POST", base+"/next", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, registration.StepEventSelection, decodeState(t, rr).Step)

	rr = doRequest(t, s, "POST", base+"/events", map[string]any{"category": "u15", "type": "singles", "price": 1}, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	st = decodeState(t, rr)
	require.Len(t, st.SelectedEvents, 1)
	assert.Equal(t, 500.0, st.TotalAmount, "price comes from the tournament")

	rr = doRequest(t, s, "POST", base+"/events", map[string]any{"category": "U9", "type": "DOUBLES"}, headers)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Len(t, decodeState(t, rr).SelectedEvents, 1)

	rr = doRequest(t, s, "POST", base+"/order", nil, headers)
	assert.Equal(t, http.StatusConflict, rr.Code, "order requires a submitted registration")

	rr = doRequest(t, s, "POST", base+"/next", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	st = decodeState(t, rr)
	assert.Equal(t, registration.StepPayment, st.Step)
	require.NotEmpty(t, st.RegistrationID)

	rr = doRequest(t, s, "POST", base+"/order", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	var order orderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	assert.Equal(t, 500.0, order.Order.Amount)
	assert.Equal(t, st.RegistrationID, order.Order.RegistrationID)

	rr = doRequest(t, s, "POST", base+"/payment", registration.PaymentData{
		OrderID: order.Order.ID, PaymentID: "pay_1", Signature: "forged",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, env.pubsub.SendMessageCalls)

	rr = doRequest(t, s, "POST", base+"/payment", registration.PaymentData{
		OrderID:   order.Order.ID,
		PaymentID: "pay_1",
		Amount:    500,
		Signature: env.payments.Sign(order.Order.ID, "pay_1"),
	}, headers)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	st = decodeState(t, rr)
	assert.Equal(t, registration.StepConfirmation, st.Step)
	assert.True(t, st.IsRegistrationComplete)

	require.Len(t, env.pubsub.SendMessageCalls, 1)
	assert.Equal(t, pubsub.EventRegistrationConfirmed, env.pubsub.SendMessageCalls[0].Topic)
	event, ok := env.pubsub.SendMessageCalls[0].Data.(pubsub.RegistrationEvent)
	require.True(t, ok)
	assert.Equal(t, "Arjun Rao", event.PlayerName)
	assert.Equal(t, "Summer Championship", event.TournamentName)
	assert.Equal(t, []string{"U15_SINGLES"}, event.Events)

	trn, err := s.Lookup.GetByID(context.Background(), testTournamentID)
	require.NoError(t, err)
	assert.Equal(t, 1, trn.CurrentParticipants)

	rr = doRequest(t, s, "GET", "/registrations", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	var mine []registration.Registration
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, registration.StatusConfirmed, mine[0].Status)

	rr = doRequest(t, s, "GET", "/admin/tournaments/"+testTournamentID+"/stats?notify=true&dry_run=true", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats registration.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalRegistrations)
	assert.Equal(t, 500.0, stats.Revenue)
	require.Len(t, env.notifier.SendTournamentStatsCalls, 1)
	assert.Equal(t, "Summer Championship", env.notifier.SendTournamentStatsCalls[0].TournamentName)

	rr = doRequest(t, s, "POST", "/admin/registrations/"+st.RegistrationID+"/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var cancelled registration.Registration
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cancelled))
	assert.Equal(t, registration.StatusCancelled, cancelled.Status)
	assert.Equal(t, registration.PaymentRefunded, cancelled.PaymentStatus)

	trn, err = s.Lookup.GetByID(context.Background(), testTournamentID)
	require.NoError(t, err)
	assert.Equal(t, 0, trn.CurrentParticipants)
	require.Len(t, env.pubsub.SendMessageCalls, 2)
	assert.Equal(t, pubsub.EventRegistrationCancelled, env.pubsub.SendMessageCalls[1].Topic)

	rr = doRequest(t, s, "POST", "/admin/registrations/"+st.RegistrationID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestRegistrationSessions(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()
	s := env.server
	base := "/registrations/" + testTournamentID

	t.Run("identity is required", func(t *testing.T) {
		rr := doRequest(t, s, "POST", base+"/init", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("session must be initialized", func(t *testing.T) {
		rr := doRequest(t, s, "GET", base+"/state", nil, map[string]string{userIDHeader: "user-2"})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		headers := map[string]string{userIDHeader: "user-2"}
		rr := doRequest(t, s, "POST", "/registrations/missing/init", nil, headers)
		assert.Equal(t, http.StatusNotFound, rr.Code)
		st := decodeState(t, rr)
		assert.Equal(t, registration.MsgTournamentLoadFailed, st.Error)
		assert.Empty(t, st.TournamentID)

		rr = doRequest(t, s, "POST", "/registrations/missing/events", map[string]any{"category": "U9", "type": "SINGLES"}, headers)
		assert.Equal(t, http.StatusNotFound, rr.Code, "a failed init keeps no session")
		rr = doRequest(t, s, "POST", "/registrations/missing/next", nil, headers)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		mine, err := s.Registrations.ListByUser(context.Background(), "user-2")
		require.NoError(t, err)
		assert.Empty(t, mine)
	})

	t.Run("anonymous users cannot submit", func(t *testing.T) {
		headers := map[string]string{sessionIDHeader: "browser-1"}
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/init", nil, headers).Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "PUT", base+"/details", detailsRequest{
			FullName: "Guest", Email: "guest@example.com", Phone: "123", DateOfBirth: "1990-01-01", Gender: "MALE",
		}, headers).Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/next", nil, headers).Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/events", map[string]any{"category": "MENS_OPEN", "type": "DOUBLES"}, headers).Code)

		rr := doRequest(t, s, "POST", base+"/next", nil, headers)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		st := decodeState(t, rr)
		assert.Equal(t, registration.StepEventSelection, st.Step)
		assert.Equal(t, registration.MsgNotAuthenticated, st.Error)

		rr = doRequest(t, s, "POST", base+"/draft", nil, headers)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)

		rr = doRequest(t, s, "DELETE", base+"/events?category=mens_open&type=doubles", nil, headers)
		require.Equal(t, http.StatusOK, rr.Code)
		st = decodeState(t, rr)
		assert.Empty(t, st.SelectedEvents)
		assert.Empty(t, st.Error, "error is cleared by the next request")

		rr = doRequest(t, s, "POST", base+"/previous", nil, headers)
		assert.Equal(t, registration.StepPersonalDetails, decodeState(t, rr).Step)
	})

	t.Run("draft is restored on init", func(t *testing.T) {
		headers := map[string]string{userIDHeader: "user-3"}
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/init", nil, headers).Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "PUT", base+"/dob", dateOfBirthRequest{DateOfBirth: "2012-03-01"}, headers).Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/events", map[string]any{"category": "U15", "type": "SINGLES"}, headers).Code)
		rr := doRequest(t, s, "POST", base+"/draft", nil, headers)
		require.Equal(t, http.StatusOK, rr.Code)
		draftID := decodeState(t, rr).DraftID
		require.NotEmpty(t, draftID)

		rr = doRequest(t, s, "POST", base+"/init", nil, headers)
		require.Equal(t, http.StatusOK, rr.Code)
		st := decodeState(t, rr)
		assert.Equal(t, draftID, st.DraftID)
		assert.Equal(t, 500.0, st.TotalAmount)
	})

	t.Run("bad input", func(t *testing.T) {
		headers := map[string]string{userIDHeader: "user-4"}
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/init", nil, headers).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, s, "PUT", base+"/dob", dateOfBirthRequest{DateOfBirth: "yesterday"}, headers).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, s, "PUT", base+"/details", detailsRequest{Gender: "X"}, headers).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, s, "DELETE", base+"/events?category=U99&type=SINGLES", nil, headers).Code)
		assert.Equal(t, http.StatusBadRequest, doRequest(t, s, "POST", base+"/events", map[string]any{"category": "U15", "type": "TRIPLES"}, headers).Code)
	})
}

// submitU15Singles takes a fresh session for the user up to the PAYMENT step.
func submitU15Singles(t *testing.T, s *Server, headers map[string]string) registration.State {
	t.Helper()
	base := "/registrations/" + testTournamentID
	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/init", nil, headers).Code)
	require.Equal(t, http.StatusOK, doRequest(t, s, "PUT", base+"/details", detailsRequest{
		FullName: "Arjun Rao", Email: "arjun@example.com", Phone: "9876543210", DateOfBirth: "2012-03-01", Gender: "MALE",
	}, headers).Code)
	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/next", nil, headers).Code)
	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/events", map[string]any{"category": "U15", "type": "SINGLES"}, headers).Code)
	rr := doRequest(t, s, "POST", base+"/next", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	st := decodeState(t, rr)
	require.Equal(t, registration.StepPayment, st.Step)
	return st
}

func createOrder(t *testing.T, s *Server, headers map[string]string) *payment.Order {
	t.Helper()
	rr := doRequest(t, s, "POST", "/registrations/"+testTournamentID+"/order", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp orderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Order
}

func TestPaymentMustMatchOrder(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()
	s := env.server
	base := "/registrations/" + testTournamentID

	pay := func(headers map[string]string, orderID string) *httptest.ResponseRecorder {
		return doRequest(t, s, "POST", base+"/payment", registration.PaymentData{
			OrderID:   orderID,
			PaymentID: "pay_" + orderID,
			Signature: env.payments.Sign(orderID, "pay_"+orderID),
		}, headers)
	}
	assertUnpaid := func(t *testing.T, rr *httptest.ResponseRecorder, registrationID string) {
		t.Helper()
		assert.Equal(t, http.StatusConflict, rr.Code, rr.Body.String())
		st := decodeState(t, rr)
		assert.False(t, st.IsRegistrationComplete)
		assert.Equal(t, registration.StepPayment, st.Step)
		reg, err := s.Registrations.Get(context.Background(), registrationID)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusSubmitted, reg.Status)
	}

	t.Run("no order opened", func(t *testing.T) {
		headers := map[string]string{userIDHeader: "user-10"}
		st := submitU15Singles(t, s, headers)

		assertUnpaid(t, pay(headers, "order_someoneelse"), st.RegistrationID)
	})

	t.Run("signed payment for another order", func(t *testing.T) {
		other := map[string]string{userIDHeader: "user-11"}
		submitU15Singles(t, s, other)
		otherOrder := createOrder(t, s, other)

		headers := map[string]string{userIDHeader: "user-12"}
		st := submitU15Singles(t, s, headers)
		createOrder(t, s, headers)

		assertUnpaid(t, pay(headers, otherOrder.ID), st.RegistrationID)
	})

	t.Run("order opened before the selection changed", func(t *testing.T) {
		headers := map[string]string{userIDHeader: "user-13"}
		st := submitU15Singles(t, s, headers)
		order := createOrder(t, s, headers)

		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/previous", nil, headers).Code)
		rr := doRequest(t, s, "DELETE", base+"/events?category=U15&type=SINGLES", nil, headers)
		require.Equal(t, http.StatusOK, rr.Code)
		rr = doRequest(t, s, "POST", base+"/previous", nil, headers)
		require.Equal(t, http.StatusOK, rr.Code)
		rr = doRequest(t, s, "PUT", base+"/details", detailsRequest{
			FullName: "Arjun Rao", Email: "arjun@example.com", Phone: "9876543210", DateOfBirth: "1990-01-01", Gender: "MALE",
		}, headers)
		require.Equal(t, http.StatusOK, rr.Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/next", nil, headers).Code)
		require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/events", map[string]any{"category": "MENS_OPEN", "type": "DOUBLES"}, headers).Code)
		rr = doRequest(t, s, "POST", base+"/next", nil, headers)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		resubmitted := decodeState(t, rr)
		require.Equal(t, st.RegistrationID, resubmitted.RegistrationID, "the submission is replaced, not duplicated")
		require.Equal(t, 800.0, resubmitted.TotalAmount)

		assertUnpaid(t, pay(headers, order.ID), st.RegistrationID)

		order = createOrder(t, s, headers)
		assert.Equal(t, 800.0, order.Amount)
		rr = pay(headers, order.ID)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.True(t, decodeState(t, rr).IsRegistrationComplete)

		reg, err := s.Registrations.Get(context.Background(), st.RegistrationID)
		require.NoError(t, err)
		assert.Equal(t, registration.StatusConfirmed, reg.Status)
		mine, err := s.Registrations.ListByUser(context.Background(), "user-13")
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})

	require.Len(t, env.pubsub.SendMessageCalls, 1, "only the matching payment confirms")
}

func TestSelectEventRequiresEligibility(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()
	s := env.server
	base := "/registrations/" + testTournamentID
	headers := map[string]string{userIDHeader: "user-20"}

	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/init", nil, headers).Code)
	rr := doRequest(t, s, "PUT", base+"/details", detailsRequest{
		FullName: "Meera Iyer", Email: "meera@example.com", Phone: "9876500000", DateOfBirth: "1990-01-01", Gender: "FEMALE",
	}, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, []eligibility.Category{eligibility.WomensOpen}, decodeState(t, rr).EligibleCategories)
	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/next", nil, headers).Code)

	for _, sel := range []map[string]any{
		{"category": "U15", "type": "SINGLES"},
		{"category": "MENS_OPEN", "type": "DOUBLES"},
	} {
		rr = doRequest(t, s, "POST", base+"/events", sel, headers)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code, "%v", sel)
		assert.Empty(t, decodeState(t, rr).SelectedEvents)
	}

	rr = doRequest(t, s, "POST", base+"/next", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decodeState(t, rr)
	assert.Equal(t, registration.StepEventSelection, st.Step)
	assert.Empty(t, st.RegistrationID)
}

func TestPartnerHistoryHandler(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()
	s := env.server
	base := "/registrations/" + testTournamentID
	headers := map[string]string{userIDHeader: "user-40"}

	rr := doRequest(t, s, "GET", "/partners", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/init", nil, headers).Code)
	require.Equal(t, http.StatusOK, doRequest(t, s, "PUT", base+"/details", detailsRequest{
		FullName: "Rahul Nair", Email: "rahul@example.com", Phone: "9876511111", DateOfBirth: "1990-01-01", Gender: "MALE",
	}, headers).Code)
	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/next", nil, headers).Code)
	rr = doRequest(t, s, "POST", base+"/events", map[string]any{
		"category": "MENS_OPEN",
		"type":     "DOUBLES",
		"partner":  map[string]any{"name": "Vikram Das", "phone": "9876522222", "gender": "MALE"},
	}, headers)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, s, "GET", "/partners", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String(), "partners are saved on submit only")

	require.Equal(t, http.StatusOK, doRequest(t, s, "POST", base+"/next", nil, headers).Code)

	rr = doRequest(t, s, "GET", "/partners", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	var partners []user.Partner
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &partners))
	require.Len(t, partners, 1)
	assert.Equal(t, "Vikram Das", partners[0].Name)
	assert.Equal(t, eligibility.Male, partners[0].Gender)
	assert.Equal(t, user.PartnerID("Vikram Das", "9876522222"), partners[0].ID)
}

func TestCancelUsesStatusAtCancellation(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()
	s := env.server
	ctx := context.Background()

	store := registration.NewMock()
	store.Registrations["reg-1"] = &registration.Registration{
		ID:           "reg-1",
		UserID:       "user-1",
		TournamentID: testTournamentID,
		Status:       registration.StatusSubmitted,
	}
	// The payment lands between the handler's request and the cancellation.
	store.CancelFunc = func(ctx context.Context, id string) (registration.Status, error) {
		store.Registrations[id].Status = registration.StatusCancelled
		return registration.StatusConfirmed, nil
	}
	s.Registrations = store
	require.NoError(t, s.Tournaments.IncrementParticipants(ctx, testTournamentID, 1))

	rr := doRequest(t, s, "POST", "/admin/registrations/reg-1/cancel", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	trn, err := s.Tournaments.GetByID(ctx, testTournamentID)
	require.NoError(t, err)
	assert.Equal(t, 0, trn.CurrentParticipants)
	require.Len(t, env.pubsub.SendMessageCalls, 1)

	store.CancelFunc = nil
	rr = doRequest(t, s, "POST", "/admin/registrations/missing/cancel", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// blockingRenderer holds every receipt until release is closed.
type blockingRenderer struct {
	release chan struct{}
}

func (b blockingRenderer) Render(ctx context.Context, r *registration.Registration) (string, error) {
	select {
	case <-b.release:
		return "https://receipts.example.com/" + r.ID + ".pdf", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestDrainWaitsForReceipts(t *testing.T) {
	renderer := blockingRenderer{release: make(chan struct{})}
	env, teardown := setupTestServer(t, registration.WithReceiptRenderer(renderer))
	defer teardown()
	s := env.server
	headers := map[string]string{userIDHeader: "user-30"}

	require.NoError(t, s.Drain(context.Background()), "nothing pending")

	submitU15Singles(t, s, headers)
	order := createOrder(t, s, headers)
	rr := doRequest(t, s, "POST", "/registrations/"+testTournamentID+"/payment", registration.PaymentData{
		OrderID: order.ID, PaymentID: "pay_1", Signature: env.payments.Sign(order.ID, "pay_1"),
	}, headers)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Drain(ctx), context.DeadlineExceeded, "the receipt is still being rendered")

	close(renderer.release)
	require.NoError(t, s.Drain(context.Background()))

	rr = doRequest(t, s, "GET", "/registrations/"+testTournamentID+"/state", nil, headers)
	require.Equal(t, http.StatusOK, rr.Code)
	st := decodeState(t, rr)
	assert.Equal(t, "https://receipts.example.com/"+st.RegistrationID+".pdf", st.PDFURL)
}

func pushBody(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := msgpack.Marshal(v)
	require.NoError(t, err)
	return map[string]any{
		"subscription": "projects/test/subscriptions/registration-confirmed",
		"message":      map[string]string{"data": base64.StdEncoding.EncodeToString(data)},
	}
}

func TestPubSubHandlers(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()

	event := pubsub.RegistrationEvent{RegistrationID: "reg-1", TournamentName: "Summer Championship", PlayerName: "Arjun Rao"}

	rr := doRequest(t, env.server, "POST", "/pubsub/registration-confirmed?dry_run=true", pushBody(t, event), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, env.notifier.SendRegistrationConfirmedCalls, 1)
	assert.Equal(t, event, env.notifier.SendRegistrationConfirmedCalls[0])

	rr = doRequest(t, env.server, "POST", "/pubsub/registration-cancelled", pushBody(t, event), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, env.notifier.SendRegistrationCancelledCalls, 1)

	rr = doRequest(t, env.server, "POST", "/pubsub/registration-confirmed", map[string]any{"message": map[string]string{"data": "%%%"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env, teardown := setupTestServer(t)
	defer teardown()

	env.server.Metrics.IncDraftsSaved()
	rr := doRequest(t, env.server, "GET", "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "shuttlereg_drafts_saved_total 1")
}
