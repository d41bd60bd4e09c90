package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"curator/internal/config"
	"curator/internal/notifications"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfy(t *testing.T, status int) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var (
		mu       sync.Mutex
		received []capturedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), received...)
	}
}

func configWithTopic(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configWithTopic(""))
	if err := svc.NotifyUploadCompleted(context.Background(), "key", 2, 77); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected nil config to yield noop notifier, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "upload completed",
			send: func(s notifications.Service) error {
				return s.NotifyUploadCompleted(context.Background(), "abc", 2, 77)
			},
			expectTitle:   "curator - Upload Complete",
			expectMessage: "Uploaded 2 parts as video 77 (upload abc)",
			expectTags:    "curator,upload,completed",
		},
		{
			name: "single part",
			send: func(s notifications.Service) error {
				return s.NotifyUploadCompleted(context.Background(), "abc", 1, 78)
			},
			expectTitle:   "curator - Upload Complete",
			expectMessage: "Uploaded 1 part as video 78 (upload abc)",
			expectTags:    "curator,upload,completed",
		},
		{
			name: "submitted with note",
			send: func(s notifications.Service) error {
				return s.NotifyVideoSubmitted(context.Background(), 77, " clean run ")
			},
			expectTitle:   "curator - Video Submitted",
			expectMessage: "Submitted video 77\nNote: clean run",
			expectTags:    "curator,submit,completed",
		},
		{
			name: "error",
			send: func(s notifications.Service) error {
				return s.NotifyError(context.Background(), errors.New("connection reset"), "upload abc")
			},
			expectTitle:    "curator - Error",
			expectMessage:  "Error with upload abc: connection reset",
			expectTags:     "curator,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			send:           func(s notifications.Service) error { return s.TestNotification(context.Background()) },
			expectTitle:    "curator - Test",
			expectMessage:  "Notification system test",
			expectTags:     "curator,test",
			expectPriority: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, received := newNtfy(t, http.StatusOK)
			if err := tt.send(notifications.NewService(configWithTopic(srv.URL))); err != nil {
				t.Fatalf("send: %v", err)
			}
			got := received()
			if len(got) != 1 {
				t.Fatalf("expected 1 request, got %d", len(got))
			}
			req := got[0]
			if req.title != tt.expectTitle {
				t.Fatalf("unexpected title: got %q want %q", req.title, tt.expectTitle)
			}
			if req.body != tt.expectMessage {
				t.Fatalf("unexpected message: got %q want %q", req.body, tt.expectMessage)
			}
			if req.tags != tt.expectTags {
				t.Fatalf("unexpected tags: got %q want %q", req.tags, tt.expectTags)
			}
			if req.priority != tt.expectPriority {
				t.Fatalf("unexpected priority: got %q want %q", req.priority, tt.expectPriority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	srv, _ := newNtfy(t, http.StatusForbidden)
	err := notifications.NewService(configWithTopic(srv.URL)).TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}
