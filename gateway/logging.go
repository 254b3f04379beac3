package gateway

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggingGateway decorates a Gateway with structured request logging.
type LoggingGateway struct {
	next   Gateway
	logger *zap.Logger
}

// NewLoggingGateway wraps gw so every exchange is logged with duration,
// model and token usage.
func NewLoggingGateway(gw Gateway, logger *zap.Logger) *LoggingGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingGateway{
		next:   gw,
		logger: logger.With(zap.String("component", "llm_gateway")),
	}
}

// SendMessage implements Gateway.
func (g *LoggingGateway) SendMessage(ctx context.Context, req *Request) (*Reply, error) {
	start := time.Now()
	reply, err := g.next.SendMessage(ctx, req)
	if err != nil {
		g.logger.Warn("gateway exchange failed",
			zap.String("tier", string(req.Tier)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	fields := []zap.Field{
		zap.String("tier", string(req.Tier)),
		zap.String("model", reply.Model),
		zap.Duration("duration", time.Since(start)),
	}
	if reply.Usage != nil {
		fields = append(fields, zap.Int("total_tokens", reply.Usage.TotalTokens))
	}
	g.logger.Debug("gateway exchange completed", fields...)
	return reply, nil
}
