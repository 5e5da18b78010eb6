// Package logsink is the notification sink used when no kafka broker is
// configured. Every notification is written to the structured log instead,
// which keeps single-process deployments observable.
package logsink

import (
	"context"
	"log/slog"
)

type Producer struct{}

func New() *Producer {
	return &Producer{}
}

func (p *Producer) Publish(ctx context.Context, topic string, key, value []byte) error {
	slog.InfoContext(ctx, "notification", "topic", topic, "key", string(key), "payload", string(value))
	return nil
}

func (p *Producer) Close() error {
	return nil
}
