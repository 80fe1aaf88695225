package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fillerinfo/internal/config"
)

const userAgent = "fillerinfo/2.0.0"

// Service defines the notification surface used by the server.
type Service interface {
	NotifyServerStarted(ctx context.Context, manifestURL string, entries int) error
	NotifyDatabaseReloaded(ctx context.Context, origin string, entries, previous int) error
	NotifyDatabaseReloadFailed(ctx context.Context, err error) error
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

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether svc actually delivers notifications.
func Enabled(svc Service) bool {
	_, noop := svc.(noopService)
	return svc != nil && !noop
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

func (n *ntfyService) NotifyServerStarted(ctx context.Context, manifestURL string, entries int) error {
	data := payload{
		title:    "Anime Filler Info - Started",
		message:  fmt.Sprintf("▶️ Serving %d series\n%s", entries, strings.TrimSpace(manifestURL)),
		tags:     []string{"fillerinfo", "server", "started"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDatabaseReloaded(ctx context.Context, origin string, entries, previous int) error {
	message := fmt.Sprintf("🔄 Filler database reloaded: %d series", entries)
	if delta := entries - previous; delta != 0 {
		message = fmt.Sprintf("%s (%+d)", message, delta)
	}
	if origin = strings.TrimSpace(origin); origin != "" {
		message = fmt.Sprintf("%s\nFile: %s", message, origin)
	}
	data := payload{
		title:   "Anime Filler Info - Database Updated",
		message: message,
		tags:    []string{"fillerinfo", "database", "reloaded"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDatabaseReloadFailed(ctx context.Context, err error) error {
	var builder strings.Builder
	builder.WriteString("❌ Filler database reload failed: ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	builder.WriteString("\nThe previous database stays in use")

	data := payload{
		title:    "Anime Filler Info - Reload Failed",
		message:  builder.String(),
		tags:     []string{"fillerinfo", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Anime Filler Info - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"fillerinfo", "test"},
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

type noopService struct{}

func (noopService) NotifyServerStarted(context.Context, string, int) error         { return nil }
func (noopService) NotifyDatabaseReloaded(context.Context, string, int, int) error { return nil }
func (noopService) NotifyDatabaseReloadFailed(context.Context, error) error        { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
