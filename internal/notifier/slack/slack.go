package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/pong-ladder/internal/ledger"
	"github.com/mauv0809/pong-ladder/internal/metrics"
	"github.com/mauv0809/pong-ladder/internal/notifier"
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

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}
	if s.channelID == "" {
		log.Debug("No Slack channel configured, dropping message")
		return "", "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
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

func (s *Notifier) SendMatchResult(ctx context.Context, match ledger.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchResult(match), dryRun)
	return err
}

func (s *Notifier) SendMatchReversed(ctx context.Context, match ledger.Match, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatMatchReversed(match), dryRun)
	return err
}

func (s *Notifier) SendAuditDrift(ctx context.Context, report ledger.AuditReport, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatAuditDrift(report), dryRun)
	return err
}

func (s *Notifier) SendLadder(ctx context.Context, standings []ledger.Standing, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatLadder(standings), dryRun)
	return err
}

func (s *Notifier) SendPlayerStats(ctx context.Context, stats notifier.PlayerStats, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatPlayerStats(stats), dryRun)
	return err
}

func (s *Notifier) SendPlayerNotFound(ctx context.Context, query string, suggestions []string, dryRun bool) error {
	_, _, err := s.sendMessage(ctx, s.formatPlayerNotFound(query, suggestions), dryRun)
	return err
}

// FormatLadderResponse formats the ladder for a slash command response.
func (s *Notifier) FormatLadderResponse(standings []ledger.Standing) (any, error) {
	return s.formatLadder(standings), nil
}

// FormatPlayerStatsResponse formats a player profile for a slash command response.
func (s *Notifier) FormatPlayerStatsResponse(stats notifier.PlayerStats) (any, error) {
	return s.formatPlayerStats(stats), nil
}

// FormatPlayerNotFoundResponse formats a player not found message for a slash command response.
func (s *Notifier) FormatPlayerNotFoundResponse(query string, suggestions []string) (any, error) {
	return s.formatPlayerNotFound(query, suggestions), nil
}

func plainSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", text, true, false), nil, nil)
}

func mrkdwnSection(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil)
}

// formatMatchResult creates the Slack message for an applied match using Block Kit.
func (s *Notifier) formatMatchResult(m ledger.Match) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏓 Match recorded! 🏓", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	winner, loser := m.PlayerAName, m.PlayerBName
	winnerScore, loserScore := m.ScoreA, m.ScoreB
	change := m.RatingChangeA
	if !m.AWon() {
		winner, loser = loser, winner
		winnerScore, loserScore = loserScore, winnerScore
		change = m.RatingChangeB
	}
	blocks = append(blocks, mrkdwnSection(fmt.Sprintf("*%s* beat *%s* %d-%d", winner, loser, winnerScore, loserScore)))

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*%s*\n%+d", winner, roundInt(change)), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*%s*\n%+d", loser, -roundInt(change)), false, false),
	}
	blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))

	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject("plain_text", fmt.Sprintf("Match %s", m.ID), true, false)))

	return slack.NewBlockMessage(blocks...)
}

// formatMatchReversed creates the Slack message for a deleted match.
func (s *Notifier) formatMatchReversed(m ledger.Match) slack.Message {
	text := fmt.Sprintf("↩️ Match between *%s* and *%s* (%d-%d) was removed. Ratings, records and streaks have been restored.",
		m.PlayerAName, m.PlayerBName, m.ScoreA, m.ScoreB)
	return slack.NewBlockMessage(
		mrkdwnSection(text),
		slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", fmt.Sprintf("Match %s", m.ID), true, false)),
	)
}

// formatAuditDrift lists players whose stored aggregates disagree with the matches.
func (s *Notifier) formatAuditDrift(report ledger.AuditReport) slack.Message {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", "⚠️ Ladder audit found drift", true, false)),
	}
	for _, d := range report.Drifts {
		text := fmt.Sprintf("*%s*\n> rating %.2f, expected %.2f\n> record %d-%d, expected %d-%d",
			d.Name, d.StoredRating, d.ExpectedRating,
			d.StoredWins, d.StoredLosses, d.ExpectedWins, d.ExpectedLosses)
		blocks = append(blocks, mrkdwnSection(text))
	}
	return slack.NewBlockMessage(blocks...)
}

// formatLadder creates a Slack message to display the ladder.
func (s *Notifier) formatLadder(standings []ledger.Standing) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Ping Pong Ladder 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(standings) == 0 {
		blocks = append(blocks, plainSection("No players on the ladder yet."))
		return slack.NewBlockMessage(blocks...)
	}

	for _, st := range standings {
		var medal string
		switch st.Rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}

		playerText := fmt.Sprintf("%d. %s *%s* %d\n> %d-%d | Win %%: %.1f%% | Pts/game: %+.1f%s",
			st.Rank,
			medal,
			st.Name,
			st.Rating,
			st.Wins,
			st.Losses,
			st.WinPercent,
			st.PointsPerGame,
			streakSuffix(st.Streak),
		)
		blocks = append(blocks, mrkdwnSection(playerText))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerStats creates a Slack message to display a single player's profile.
func (s *Notifier) formatPlayerStats(stats notifier.PlayerStats) slack.Message {
	st := stats.Standing
	blocks := make([]slack.Block, 0)

	headerText := fmt.Sprintf("🏓 %s 🏓", st.Name)
	blocks = append(blocks, slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", headerText, true, false)))

	playerText := fmt.Sprintf("> *Rank*: %d\n> *Rating*: %d\n> *Record*: %d-%d (%.1f%%)\n> *Pts/game*: %+.1f%s",
		st.Rank,
		st.Rating,
		st.Wins,
		st.Losses,
		st.WinPercent,
		st.PointsPerGame,
		streakSuffix(st.Streak),
	)
	blocks = append(blocks, mrkdwnSection(playerText))

	if n := len(stats.History); n > 0 {
		recent := stats.History[max(0, n-5):]
		var lines []string
		for i := len(recent) - 1; i >= 0; i-- {
			h := recent[i]
			result := "L"
			if h.Won {
				result = "W"
			}
			lines = append(lines, fmt.Sprintf("%s %d-%d vs %s (%+d → %d)", result, h.Score, h.OpponentScore, h.OpponentName, roundInt(h.Change), h.Rating))
		}
		blocks = append(blocks, mrkdwnSection("*Recent matches*\n"+strings.Join(lines, "\n")))
	}

	if len(stats.HeadToHead) > 0 {
		var lines []string
		for _, r := range stats.HeadToHead {
			lines = append(lines, fmt.Sprintf("%s: %d-%d", r.OpponentName, r.Wins, r.Losses))
		}
		blocks = append(blocks, mrkdwnSection("*Head to head*\n"+strings.Join(lines, "\n")))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPlayerNotFound creates a Slack message for when a player cannot be resolved.
func (s *Notifier) formatPlayerNotFound(query string, suggestions []string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a player matching *%s*.", query)
	if len(suggestions) > 0 {
		text += fmt.Sprintf(" Did you mean %s?", strings.Join(suggestions, ", "))
	} else {
		text += " Try a different name."
	}
	return slack.NewBlockMessage(mrkdwnSection(text))
}

func streakSuffix(streak string) string {
	if streak == "" || streak == "-" {
		return ""
	}
	if strings.HasPrefix(streak, "W") {
		return " | 🔥 " + streak
	}
	return " | " + streak
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
