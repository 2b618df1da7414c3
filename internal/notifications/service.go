package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"roastreel/internal/config"
)

const userAgent = "Roastreel-Go/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyScriptReady(ctx context.Context, candidate, industry string, scenes int) error
	NotifyVideosReady(ctx context.Context, candidate string, clips int) error
	NotifyExportComplete(ctx context.Context, candidate, mediaID string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		titler:   cases.Title(language.English),
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	titler   cases.Caser
}

func (n *ntfyService) NotifyScriptReady(ctx context.Context, candidate, industry string, scenes int) error {
	candidate = strings.TrimSpace(candidate)
	industry = strings.TrimSpace(industry)
	message := fmt.Sprintf("Roast script ready for %s (%d scenes)", candidate, scenes)
	if industry != "" {
		message = fmt.Sprintf("%s\nIndustry: %s", message, n.titler.String(industry))
	}
	data := payload{
		title:   "Roastreel - Script Ready",
		message: message,
		tags:    []string{"roastreel", "script", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyVideosReady(ctx context.Context, candidate string, clips int) error {
	candidate = strings.TrimSpace(candidate)
	data := payload{
		title:   "Roastreel - Videos Ready",
		message: fmt.Sprintf("%d clips generated for %s, waiting on selection", clips, candidate),
		tags:    []string{"roastreel", "videos", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyExportComplete(ctx context.Context, candidate, mediaID string) error {
	candidate = strings.TrimSpace(candidate)
	message := fmt.Sprintf("Final video ready for %s", candidate)
	if mediaID = strings.TrimSpace(mediaID); mediaID != "" {
		message = fmt.Sprintf("%s\nMedia: %s", message, mediaID)
	}
	data := payload{
		title:    "Roastreel - Complete",
		message:  message,
		tags:     []string{"roastreel", "export", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Roastreel - Error",
		message:  builder.String(),
		tags:     []string{"roastreel", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Roastreel - Test",
		message:  "Notification system test",
		tags:     []string{"roastreel", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// NewNop returns a service that drops every notification.
func NewNop() Service { return noopService{} }

type noopService struct{}

func (noopService) NotifyScriptReady(context.Context, string, string, int) error { return nil }
func (noopService) NotifyVideosReady(context.Context, string, int) error         { return nil }
func (noopService) NotifyExportComplete(context.Context, string, string) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error             { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
