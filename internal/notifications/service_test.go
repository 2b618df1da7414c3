package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"roastreel/internal/config"
	"roastreel/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyScriptReady(context.Background(), "Ada", "software", 2); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	var captured struct {
		title    string
		tags     string
		priority string
		body     string
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		captured.title = r.Header.Get("Title")
		captured.tags = r.Header.Get("Tags")
		captured.priority = r.Header.Get("Priority")
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		captured.body = string(body)
		_ = r.Body.Close()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.RequestTimeout = 5
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyScriptReady(context.Background(), "Ada Lovelace", "software engineering", 2); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.title != "Roastreel - Script Ready" {
		t.Fatalf("unexpected title %q", captured.title)
	}
	if captured.body != "Roast script ready for Ada Lovelace (2 scenes)\nIndustry: Software Engineering" {
		t.Fatalf("unexpected message %q", captured.body)
	}
	if captured.tags != "roastreel,script,ready" {
		t.Fatalf("unexpected tags %q", captured.tags)
	}

	if err := svc.NotifyExportComplete(context.Background(), "Ada Lovelace", "media-1"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.priority != "high" {
		t.Fatalf("expected high priority for export completion, got %q", captured.priority)
	}

	if err := svc.NotifyError(context.Background(), errors.New("quota exceeded"), "video generation"); err != nil {
		t.Fatalf("notification returned error: %v", err)
	}
	if captured.body != "Error with video generation: quota exceeded" {
		t.Fatalf("unexpected error message %q", captured.body)
	}
}

func TestNtfyServiceSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
