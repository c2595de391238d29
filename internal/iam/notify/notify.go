// Package notify is the outbound notification sink. Dispatch is
// fire-and-forget from the caller's point of view: delivery failures are
// logged by the services, never retried here, and never fail the request.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Message is the payload handed to the sink for verification and reset links.
type Message struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// LogSink writes messages to the log. The development default, and the
// fallback when no queue is configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("notification dispatched",
		"recipient", msg.Recipient,
		"subject", msg.Subject,
	)
	return nil
}

// RedisSink publishes messages as JSON onto a redis channel for an external
// mailer to consume. Queueing and retries are the consumer's responsibility.
type RedisSink struct {
	Client  *redis.Client
	Channel string
}

func (s *RedisSink) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}
	if err := s.Client.Publish(ctx, s.Channel, payload).Err(); err != nil {
		return fmt.Errorf("notify: publish to %s: %w", s.Channel, err)
	}
	return nil
}
