package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"collectsync/internal/config"
)

const userAgent = "collectsync/0.1.0"

// SyncSummary is the part of a finished run that notifications report.
type SyncSummary struct {
	RunID     string
	DryRun    bool
	Created   int
	Added     int
	Noop      int
	Unmatched int
	Duration  time.Duration
}

// Service defines the notification surface exposed to the sync orchestrator.
type Service interface {
	NotifySyncCompleted(ctx context.Context, summary SyncSummary) error
	NotifySyncFailed(ctx context.Context, category, logPath string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
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
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, summary SyncSummary) error {
	changes := summary.Created + summary.Added
	title := "collectsync - Sync Complete"
	if summary.DryRun {
		title = "collectsync - Dry Run Complete"
	}

	var builder strings.Builder
	if changes == 0 {
		builder.WriteString("Plex collections already match Radarr")
	} else {
		fmt.Fprintf(&builder, "%s %s, %s %s",
			humanize.Comma(int64(summary.Created)), plural(summary.Created, "collection created", "collections created"),
			humanize.Comma(int64(summary.Added)), plural(summary.Added, "movie added", "movies added"))
	}
	if summary.Unmatched > 0 {
		fmt.Fprintf(&builder, "\n%s %s not found in Plex",
			humanize.Comma(int64(summary.Unmatched)), plural(summary.Unmatched, "movie", "movies"))
	}
	if summary.Duration > 0 {
		fmt.Fprintf(&builder, "\nTook %s", summary.Duration.Round(time.Second))
	}

	data := payload{
		title:   title,
		message: builder.String(),
		tags:    []string{"collectsync", "sync", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySyncFailed(ctx context.Context, category, logPath string, err error) error {
	var builder strings.Builder
	builder.WriteString("Sync failed")
	if category = strings.TrimSpace(category); category != "" {
		builder.WriteString(" (")
		builder.WriteString(category)
		builder.WriteString(")")
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	if logPath = strings.TrimSpace(logPath); logPath != "" {
		builder.WriteString("\nLog: ")
		builder.WriteString(logPath)
	}

	data := payload{
		title:    "collectsync - Sync Failed",
		message:  builder.String(),
		tags:     []string{"collectsync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "collectsync - Test",
		message:  "Notification system test",
		tags:     []string{"collectsync", "test"},
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

func plural(n int, singular, many string) string {
	if n == 1 {
		return singular
	}
	return many
}

type noopService struct{}

func (noopService) NotifySyncCompleted(context.Context, SyncSummary) error        { return nil }
func (noopService) NotifySyncFailed(context.Context, string, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
