package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Ensure SlackNotifier implements RunNotifier.
var _ RunNotifier = (*SlackNotifier)(nil)

// SlackNotifier sends run outcome summaries to a Slack channel via
// Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts run outcomes to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NotifyRun posts one Block Kit message summarizing the run. A 429 from
// Slack is retried once after the advertised Retry-After.
func (s *SlackNotifier) NotifyRun(o RunOutcome) error {
	body, err := json.Marshal(buildPayload(o))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		s.logger.Info("slack run notification sent", "run_id", o.RunID, "retried", true)
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	s.logger.Info("slack run notification sent", "run_id", o.RunID)
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildPayload(o RunOutcome) slackPayload {
	header := "✅ Batch run " + o.State
	if o.State == "FAILED" {
		header = "🚨 Batch run " + o.State
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: header},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Run:*\n" + o.RunID},
				{Type: "mrkdwn", Text: "*Duration:*\n" + o.Duration().Round(time.Second).String()},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Collected:*\n%d", o.Collected)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Deduped:*\n%d", o.Deduped)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Cached:*\n%d", o.Cached)},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Search calls:*\n%d", o.SearchCalls)},
			},
		},
	}

	if o.Err != "" {
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: "*Error:*\n```" + o.Err + "```"},
		})
	}

	return slackPayload{Blocks: blocks}
}

// SendTestOutcome sends a dummy run outcome to verify the integration works.
func SendTestOutcome(n RunNotifier) error {
	now := time.Now()
	return n.NotifyRun(RunOutcome{
		RunID:    "test-0000",
		State:    "DONE",
		Started:  now.Add(-time.Minute),
		Finished: now,
	})
}
