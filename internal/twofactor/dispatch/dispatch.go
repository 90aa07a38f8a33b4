// Package dispatch provides delivery adapters for verification codes. The
// log adapter is the development default; production deployments supply an
// adapter backed by a real SMS or email provider.
package dispatch

import (
	"context"
	"log/slog"
)

// LogDispatcher writes delivery intents to the log instead of sending
// anything. Codes appear at debug level only, so a production logger at info
// never records them.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendSMS(ctx context.Context, userID, code string) error {
	d.logger.InfoContext(ctx, "dispatching verification code", "channel", "sms")
	d.logger.DebugContext(ctx, "verification code issued", "channel", "sms", "code", code)
	return nil
}

func (d *LogDispatcher) SendEmail(ctx context.Context, userID, code string) error {
	d.logger.InfoContext(ctx, "dispatching verification code", "channel", "email")
	d.logger.DebugContext(ctx, "verification code issued", "channel", "email", "code", code)
	return nil
}
