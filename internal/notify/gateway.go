package notify

import (
	"context"

	"go.uber.org/zap"
)

// Gateway delivers a text message to a phone number already in
// international format. Implementations must honour ctx cancellation.
type Gateway interface {
	Send(ctx context.Context, to, body string) error
}

// LogGateway writes messages to the log instead of delivering them. It is
// used when no SMS provider is configured.
type LogGateway struct {
	logger *zap.Logger
}

func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.logger.Info("sms (not delivered, no provider configured)",
		zap.String("to", to),
		zap.String("body", body),
	)
	return nil
}
