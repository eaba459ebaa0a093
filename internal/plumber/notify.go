package plumber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/alanmeadows/ciplumber/internal/config"
)

var notifyHTTPClient = &http.Client{Timeout: 15 * time.Second}

// NotificationEvent names the bot activity a notification reports.
type NotificationEvent string

const (
	EventPRMerged    NotificationEvent = "pr_merged"
	EventPRBlocked   NotificationEvent = "pr_blocked"
	EventMergeFailed NotificationEvent = "merge_failed"
	EventRunComplete NotificationEvent = "run_complete"
)

var eventHeaders = map[NotificationEvent]string{
	EventPRMerged:    "✅ PR Merged",
	EventPRBlocked:   "⏸️ PR Blocked",
	EventMergeFailed: "❌ Merge Failed",
	EventRunComplete: "🔧 CI Plumber Run Complete",
}

// NotificationPayload carries details about a notification event.
type NotificationPayload struct {
	Event  NotificationEvent
	Title  string // PR title, or the repository for run summaries
	URL    string
	Status string
	Error  string
	Extra  map[string]string
}

// enabled reports whether cfg allows event. An empty list allows everything.
func enabled(cfg *config.NotificationsConfig, event NotificationEvent) bool {
	return len(cfg.Events) == 0 || slices.Contains(cfg.Events, string(event))
}

// Notify posts payload to the configured Teams webhook. It is a no-op when
// no webhook is configured or the event is filtered out.
func Notify(ctx context.Context, cfg *config.NotificationsConfig, payload NotificationPayload) error {
	if cfg.TeamsWebhookURL == "" {
		return nil
	}
	if !enabled(cfg, payload.Event) {
		slog.Debug("notification event filtered out", "event", payload.Event)
		return nil
	}

	body, err := json.Marshal(newTeamsMessage(payload))
	if err != nil {
		return fmt.Errorf("marshaling notification payload: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.TeamsWebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("sending notification", "event", payload.Event, "title", payload.Title)

	resp, err := notifyHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// teamsMessage is the Power Automate envelope around an Adaptive Card.
type teamsMessage struct {
	Type        string       `json:"type"`
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	ContentType string       `json:"contentType"`
	Content     adaptiveCard `json:"content"`
}

type adaptiveCard struct {
	Schema  string        `json:"$schema"`
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Body    []cardElement `json:"body"`
	Actions []cardAction  `json:"actions,omitempty"`
}

// cardElement is a TextBlock or a FactSet.
type cardElement struct {
	Type   string `json:"type"`
	Text   string `json:"text,omitempty"`
	Size   string `json:"size,omitempty"`
	Weight string `json:"weight,omitempty"`
	Color  string `json:"color,omitempty"`
	Wrap   bool   `json:"wrap,omitempty"`
	Facts  []fact `json:"facts,omitempty"`
}

type fact struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type cardAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func newTeamsMessage(p NotificationPayload) teamsMessage {
	header, ok := eventHeaders[p.Event]
	if !ok {
		header = string(p.Event)
	}
	card := adaptiveCard{
		Schema:  "http://adaptivecards.io/schemas/adaptive-card.json",
		Type:    "AdaptiveCard",
		Version: "1.4",
		Body:    []cardElement{{Type: "TextBlock", Size: "Medium", Weight: "Bolder", Text: header}},
	}

	if facts := payloadFacts(p); len(facts) > 0 {
		card.Body = append(card.Body, cardElement{Type: "FactSet", Facts: facts})
	}
	if p.Error != "" {
		card.Body = append(card.Body, cardElement{
			Type:   "TextBlock",
			Text:   "⚠️ " + p.Error,
			Color:  "Attention",
			Weight: "Bolder",
			Wrap:   true,
		})
	}
	if p.URL != "" {
		card.Actions = []cardAction{{Type: "Action.OpenUrl", Title: "Open", URL: p.URL}}
	}

	return teamsMessage{
		Type:        "message",
		Attachments: []attachment{{ContentType: "application/vnd.microsoft.card.adaptive", Content: card}},
	}
}

// payloadFacts lists Title and Status first, then Extra sorted by key.
func payloadFacts(p NotificationPayload) []fact {
	var facts []fact
	if p.Title != "" {
		facts = append(facts, fact{"Title", p.Title})
	}
	if p.Status != "" {
		facts = append(facts, fact{"Status", p.Status})
	}
	keys := make([]string, 0, len(p.Extra))
	for k := range p.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		facts = append(facts, fact{k, p.Extra[k]})
	}
	return facts
}
