// Package notification delivers best-effort messages about completed
// domain events. Delivery failures never roll anything back.
package notification

import (
	"context"
	"log/slog"
	"sort"
)

// KindPaymentSettled is sent once a payment is recorded and its cart cleared.
const KindPaymentSettled = "payment_settled"

// Message is addressed to one recipient. Reference names the record the
// message is about so that receivers can deduplicate redeliveries.
type Message struct {
	Kind        string
	Destination string
	Reference   string
	Body        string
	Attributes  map[string]string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes messages to the structured log instead of a
// delivery channel.
type LoggerNotifier struct {
	logger *slog.Logger
}

func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("kind", message.Kind),
		slog.String("destination", message.Destination),
		slog.String("reference", message.Reference),
		slog.String("body", message.Body),
	}
	if len(message.Attributes) > 0 {
		keys := make([]string, 0, len(message.Attributes))
		for k := range message.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		group := make([]any, 0, len(keys))
		for _, k := range keys {
			group = append(group, slog.String(k, message.Attributes[k]))
		}
		attrs = append(attrs, slog.Group("attributes", group...))
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	return nil
}
