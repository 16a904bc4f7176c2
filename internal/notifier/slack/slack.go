package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/shuttlereg/internal/eligibility"
	"github.com/mauv0809/shuttlereg/internal/metrics"
	"github.com/mauv0809/shuttlereg/internal/notifier"
	"github.com/mauv0809/shuttlereg/internal/pubsub"
	"github.com/mauv0809/shuttlereg/internal/registration"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun || s.api == nil {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendRegistrationConfirmed(event pubsub.RegistrationEvent, dryRun bool) error {
	_, _, err := s.sendMessage(formatRegistrationConfirmed(event), dryRun)
	return err
}

func (s *Notifier) SendRegistrationCancelled(event pubsub.RegistrationEvent, dryRun bool) error {
	_, _, err := s.sendMessage(formatRegistrationCancelled(event), dryRun)
	return err
}

func (s *Notifier) SendTournamentStats(tournamentName string, stats registration.Stats, dryRun bool) error {
	_, _, err := s.sendMessage(formatTournamentStats(tournamentName, stats), dryRun)
	return err
}

// formatRegistrationConfirmed announces a paid registration using Block Kit.
func formatRegistrationConfirmed(event pubsub.RegistrationEvent) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏸 New registration confirmed!", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	detailsText := fmt.Sprintf("*%s* registered for *%s*", playerName(event), tournamentName(event))
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, detailsText, false, false), nil, nil))

	if len(event.Events) > 0 {
		lines := make([]string, 0, len(event.Events))
		for _, key := range event.Events {
			lines = append(lines, "• "+eventLabel(key))
		}
		eventsText := "Events:\n" + strings.Join(lines, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", eventsText, true, false), nil, nil))
	}

	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("Paid %s %.2f", registration.DefaultCurrency, event.TotalAmount), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "Registration `"+event.RegistrationID+"`", false, false),
	}
	blocks = append(blocks, slack.NewContextBlock("", contextElements...))

	return slack.NewBlockMessage(blocks...)
}

func formatRegistrationCancelled(event pubsub.RegistrationEvent) slack.Message {
	headerText := slack.NewTextBlockObject("plain_text", "Registration cancelled", true, false)
	detailsText := fmt.Sprintf("*%s* is no longer registered for *%s*.", playerName(event), tournamentName(event))
	return slack.NewBlockMessage(
		slack.NewHeaderBlock(headerText),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, detailsText, false, false), nil, nil),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, "Registration `"+event.RegistrationID+"`", false, false)),
	)
}

// formatTournamentStats renders the organiser summary with one field per
// figure and a per-category breakdown.
func formatTournamentStats(name string, stats registration.Stats) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "📊 "+name, true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Registrations*\n%d", stats.TotalRegistrations), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Entries*\n%d", stats.TotalEntries), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Revenue*\n%s %.2f", registration.DefaultCurrency, stats.Revenue), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Pending payments*\n%d", stats.PendingPayments), false, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	if len(stats.EntriesByCategory) > 0 {
		categories := make([]eligibility.Category, 0, len(stats.EntriesByCategory))
		for c := range stats.EntriesByCategory {
			categories = append(categories, c)
		}
		order := make(map[eligibility.Category]int)
		for i, c := range eligibility.AllCategories() {
			order[c] = i
		}
		sort.Slice(categories, func(i, j int) bool { return order[categories[i]] < order[categories[j]] })

		lines := make([]string, 0, len(categories))
		for _, c := range categories {
			lines = append(lines, fmt.Sprintf("• %s: %d", c.DisplayName(), stats.EntriesByCategory[c]))
		}
		blocks = append(blocks, slack.NewDividerBlock())
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", strings.Join(lines, "\n"), true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

func playerName(event pubsub.RegistrationEvent) string {
	if event.PlayerName != "" {
		return event.PlayerName
	}
	return event.UserID
}

func tournamentName(event pubsub.RegistrationEvent) string {
	if event.TournamentName != "" {
		return event.TournamentName
	}
	return event.TournamentID
}

// eventLabel turns a price key such as "U15_MIXED_DOUBLES" into
// "Under 15 Mixed Doubles". Unknown keys are returned unchanged.
func eventLabel(key string) string {
	for _, c := range eligibility.AllCategories() {
		prefix := string(c) + "_"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if et, err := eligibility.ParseEventType(strings.TrimPrefix(key, prefix)); err == nil {
			return c.DisplayName() + " " + et.DisplayName()
		}
	}
	return key
}
