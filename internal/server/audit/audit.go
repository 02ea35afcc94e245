// Package audit records security-relevant auth events.
package audit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
)

const (
	EventLoginSuccess  = "login_success"
	EventPasswordReset = "password_reset"
)

type Event struct {
	Timestamp time.Time
	EventType string
	UserID    string
	IP        string
}

type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// LogSink writes each event as one "[AUTH_AUDIT]" log line.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "audit")}
}

func (s *LogSink) Emit(ctx context.Context, e Event) {
	args := []any{"event", e.EventType, "user_id", e.UserID, "at", e.Timestamp.UTC().Format(time.RFC3339)}
	if e.IP != "" {
		args = append(args, "ip", e.IP)
	}
	s.logger.Info(ctx, "[AUTH_AUDIT]", args...)
}
