package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of delivering them.
// Used when no mail transport is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("Email not delivered, no transport configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_size", len(msg.HTML)),
	)
	return nil
}
