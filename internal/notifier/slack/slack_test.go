package slack

import (
	"context"
	"errors"
	"testing"

	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/metrics"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
	slackapi "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSlackAPI is a mock implementation of the parts of the slack.Client that we use.
type mockSlackAPI struct {
	postMessageContextFunc func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postMessageContextFunc != nil {
		return m.postMessageContextFunc(ctx, channelID, options...)
	}
	return "C12345", "123456789.12345", nil
}

func confirmedEvent() pubsub.RegistrationEvent {
	return pubsub.RegistrationEvent{
		RegistrationID: "reg-1",
		TournamentID:   "tournament_2024_summer",
		TournamentName: "Summer Championship",
		UserID:         "user-1",
		PlayerName:     "Arjun Rao",
		Events:         []string{"U15_SINGLES", "MENS_OPEN_MIXED_DOUBLES"},
		TotalAmount:    1500,
	}
}

func TestSendMessage_DryRun(t *testing.T) {
	metrics := metrics.NewMock()
	// Pass nil for the api, as it shouldn't be called in dry-run mode.
	notifier := NewNotifierWithAPI(nil, "C123", metrics)

	message := slackapi.NewBlockMessage()
	_, _, err := notifier.sendMessage(message, true)
	require.NoError(t, err)
	assert.Equal(t, 0, metrics.SlackNotifSent())
}

func TestSendMessage_Success(t *testing.T) {
	postMessageCalled := false
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			postMessageCalled = true
			assert.Equal(t, "C123", channelID)
			return "C123", "ts123", nil
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendRegistrationConfirmed(confirmedEvent(), false)

	require.NoError(t, err)
	assert.True(t, postMessageCalled, "PostMessageContext should have been called")
	assert.Equal(t, 1, metrics.SlackNotifSent())
	assert.Equal(t, 0, metrics.SlackNotifFailed())
}

func TestSendMessage_Failure(t *testing.T) {
	expectedErr := errors.New("slack API is down")
	api := &mockSlackAPI{
		postMessageContextFunc: func(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
			return "", "", expectedErr
		},
	}

	metrics := metrics.NewMock()
	notifier := NewNotifierWithAPI(api, "C123", metrics)

	err := notifier.SendRegistrationCancelled(confirmedEvent(), false)

	require.Error(t, err)
	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 0, metrics.SlackNotifSent())
	assert.Equal(t, 1, metrics.SlackNotifFailed())
}

func TestFormatRegistrationConfirmed(t *testing.T) {
	msg := formatRegistrationConfirmed(confirmedEvent())
	blocks := msg.Blocks.BlockSet
	require.Len(t, blocks, 4)

	header, ok := blocks[0].(*slackapi.HeaderBlock)
	require.True(t, ok)
	assert.Contains(t, header.Text.Text, "registration confirmed")

	details, ok := blocks[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*Arjun Rao* registered for *Summer Championship*", details.Text.Text)

	events, ok := blocks[2].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "Events:\n• Under 15 Singles\n• Men's Open Mixed Doubles", events.Text.Text)
}

func TestFormatTournamentStats(t *testing.T) {
	stats := registration.Stats{
		TotalRegistrations: 3,
		TotalEntries:       5,
		Revenue:            2500,
		PendingPayments:    1,
		EntriesByCategory: map[eligibility.Category]int{
			eligibility.MensOpen: 2,
			eligibility.U11:      3,
		},
	}
	msg := formatTournamentStats("Summer Championship", stats)
	blocks := msg.Blocks.BlockSet
	require.Len(t, blocks, 4)

	summary, ok := blocks[1].(*slackapi.SectionBlock)
	require.True(t, ok)
	require.Len(t, summary.Fields, 4)
	assert.Equal(t, "*Revenue*\nINR 2500.00", summary.Fields[2].Text)

	breakdown, ok := blocks[3].(*slackapi.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "• Under 11: 3\n• Men's Open: 2", breakdown.Text.Text, "youth brackets first")
}

func TestEventLabel(t *testing.T) {
	assert.Equal(t, "Under 9 Doubles", eventLabel("U9_DOUBLES"))
	assert.Equal(t, "Women's Open Singles", eventLabel("WOMENS_OPEN_SINGLES"))
	assert.Equal(t, "SOMETHING_ELSE", eventLabel("SOMETHING_ELSE"))
}
