package notification

import (
	"context"
	"log/slog"
)

const (
	// KindWalletLinked is sent when a whitelisted username supplies its wallet address.
	KindWalletLinked = "wallet_linked"
)

// Message describes a notification payload.
type Message struct {
	Kind     string
	Username string
	Wallet   string
	Body     string
}

// Notifier delivers operator notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification",
		slog.String("kind", message.Kind),
		slog.String("username", message.Username),
		slog.String("wallet", message.Wallet),
		slog.String("body", message.Body),
	)
	return nil
}
