package push

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Registrar obtains and releases device push-notification handles. Both
// operations are best-effort from the session's point of view: callers must
// never fail a session transition because of a Registrar error.
type Registrar interface {
	Register(ctx context.Context) (string, error)
	Unregister(ctx context.Context, token string) error
}

// LoggerRegistrar is a stub implementation that writes registrations to the
// logger and hands out synthetic tokens.
type LoggerRegistrar struct {
	logger *slog.Logger
}

// NewLoggerRegistrar constructs a logging registrar stub.
func NewLoggerRegistrar(logger *slog.Logger) *LoggerRegistrar {
	return &LoggerRegistrar{logger: logger}
}

// Register returns a synthetic push token.
func (r *LoggerRegistrar) Register(_ context.Context) (string, error) {
	token := "push-" + uuid.NewString()
	if r != nil && r.logger != nil {
		r.logger.Info("push registration", "token", token)
	}
	return token, nil
}

// Unregister logs the release of a push token.
func (r *LoggerRegistrar) Unregister(_ context.Context, token string) error {
	if r != nil && r.logger != nil {
		r.logger.Info("push unregistration", "token", token)
	}
	return nil
}
