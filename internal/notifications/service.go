package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"mp4creator/internal/config"
)

const userAgent = "mp4creator/0.1.0"

// Completion summarises a finished conversion.
type Completion struct {
	Output   string
	Mode     string
	Duration time.Duration
	Elapsed  time.Duration
	Link     string
}

// Service is the notification surface used by the pipeline.
type Service interface {
	NotifyConversionCompleted(ctx context.Context, c Completion) error
	NotifyConversionFailed(ctx context.Context, output string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		completed: cfg.Completed,
		failed:    cfg.Failed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	completed bool
	failed    bool
}

func (n *ntfyService) NotifyConversionCompleted(ctx context.Context, c Completion) error {
	if !n.completed {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "✅ %s ready: %s", modeLabel(c.Mode), filepath.Base(c.Output))
	if c.Duration > 0 {
		fmt.Fprintf(&b, "\nLength: %s", c.Duration.Round(time.Second))
	}
	if c.Elapsed > 0 {
		fmt.Fprintf(&b, "\nTook: %s", c.Elapsed.Round(time.Second))
	}
	if link := strings.TrimSpace(c.Link); link != "" {
		fmt.Fprintf(&b, "\nDrive: %s", link)
	}
	return n.send(ctx, payload{
		title:   "mp4creator - Complete",
		message: b.String(),
		tags:    []string{"mp4creator", strings.ToLower(modeLabel(c.Mode)), "completed"},
	})
}

func (n *ntfyService) NotifyConversionFailed(ctx context.Context, output string, err error) error {
	if !n.failed {
		return nil
	}
	var b strings.Builder
	b.WriteString("❌ Conversion failed")
	if output = strings.TrimSpace(output); output != "" {
		fmt.Fprintf(&b, ": %s", filepath.Base(output))
	}
	if err != nil {
		fmt.Fprintf(&b, "\n%v", err)
	}
	return n.send(ctx, payload{
		title:    "mp4creator - Error",
		message:  b.String(),
		tags:     []string{"mp4creator", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "mp4creator - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"mp4creator", "test"},
		priority: "low",
	})
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

func modeLabel(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "audio":
		return "Audio"
	case "subtitles":
		return "Subtitles"
	default:
		return "Video"
	}
}

type noopService struct{}

func (noopService) NotifyConversionCompleted(context.Context, Completion) error { return nil }
func (noopService) NotifyConversionFailed(context.Context, string, error) error { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
