package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// LogSink writes events to a slog logger.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Emit(ctx context.Context, event Event) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "audit",
		"type", string(event.Type),
		"username", event.Username,
		"path", event.Path,
		"remote_addr", event.RemoteAddr,
		"reason", event.Reason,
	)
}

// Publisher is the subset of mq.MQ used to ship events off-host.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// PublisherSink encodes events as JSON and publishes them to a channel.
type PublisherSink struct {
	Publisher Publisher
	Channel   string
	Timeout   time.Duration
}

const defaultPublishTimeout = 5 * time.Second

func (s PublisherSink) Emit(ctx context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("audit event encode failed", "type", string(event.Type), "error", err)
		return
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attrs := map[string]string{"type": string(event.Type)}
	if _, err := s.Publisher.Publish(ctx, s.Channel, data, attrs); err != nil {
		slog.Warn("audit event publish failed", "type", string(event.Type), "channel", s.Channel, "error", err)
	}
}
