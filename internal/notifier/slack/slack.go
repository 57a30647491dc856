package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/skillswap/internal/matchmaking"
	"github.com/slack-go/slack"
)

const postTimeout = 10 * time.Second

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ matchmaking.Notifier = &Notifier{}

// Notifier posts negotiation updates to a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	dryRun    bool
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, dryRun bool) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, dryRun)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, dryRun bool) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		dryRun:    dryRun,
	}
}

func (s *Notifier) RequestCreated(ctx context.Context, event matchmaking.RequestEvent) error {
	return s.sendMessage(ctx, formatRequestCreated(event))
}

func (s *Notifier) RequestAccepted(ctx context.Context, event matchmaking.RequestEvent) error {
	return s.sendMessage(ctx, formatRequestAccepted(event))
}

func (s *Notifier) RequestRejected(ctx context.Context, event matchmaking.RequestEvent) error {
	return s.sendMessage(ctx, formatRequestRejected(event))
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) error {
	if s.dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, postTimeout)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return fmt.Errorf("failed to post message: %w", err)
	}

	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return nil
}

func formatRequestCreated(event matchmaking.RequestEvent) slack.Message {
	title := "🤝 New skill swap proposal"
	if event.Round > 1 {
		title = fmt.Sprintf("🔁 Counter-offer (round %d)", event.Round)
	}
	body := fmt.Sprintf("*%s* proposed a *%s* swap to *%s*.", event.RequesterName, event.SkillName, event.TargetName)
	return newEventMessage(title, body, event)
}

func formatRequestAccepted(event matchmaking.RequestEvent) slack.Message {
	body := fmt.Sprintf("*%s* accepted *%s*'s proposal for *%s*. Time to schedule the first session!",
		event.TargetName, event.RequesterName, event.SkillName)
	return newEventMessage("✅ Swap agreed!", body, event)
}

func formatRequestRejected(event matchmaking.RequestEvent) slack.Message {
	body := fmt.Sprintf("*%s* declined *%s*'s proposal for *%s*.", event.TargetName, event.RequesterName, event.SkillName)
	if event.Reason != "" {
		body += fmt.Sprintf("\n>%s", event.Reason)
	}
	return newEventMessage("❌ Proposal declined", body, event)
}

func newEventMessage(title, body string, event matchmaking.RequestEvent) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", title, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", body, false, false), nil, nil),
	}

	footer := fmt.Sprintf("Round %d · Request `%s`", event.Round, event.RequestID)
	if event.MatchID != "" {
		footer += fmt.Sprintf(" · Match `%s`", event.MatchID)
	}
	blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("mrkdwn", footer, false, false)))

	return slack.NewBlockMessage(blocks...)
}
