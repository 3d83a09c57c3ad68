package authgate

import (
	"context"
	"io"

	"github.com/hqstack/authgate/internal/audit"
	"github.com/rs/zerolog"
)

// AuditEvent records one gate decision. Denied responses are uniform on the
// wire; the audit trail is where the distinguishing detail lives.
type AuditEvent = audit.Event

// AuditSink receives emitted audit events. Sinks run on the dispatcher
// goroutine and must not block indefinitely.
type AuditSink = audit.Sink

// NoOpAuditSink drops audit events.
type NoOpAuditSink = audit.NoOpSink

// NewChannelAuditSink buffers audit events on a channel for consumption by
// the host application.
func NewChannelAuditSink(buffer int) *audit.ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterAuditSink writes one JSON audit event per line.
func NewJSONWriterAuditSink(w io.Writer) *audit.JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// ZerologAuditSink writes audit events through a zerolog logger, denials at
// warn and allowed requests at info.
type ZerologAuditSink struct {
	logger zerolog.Logger
}

// NewZerologAuditSink creates a zerolog-backed audit sink.
func NewZerologAuditSink(logger zerolog.Logger) *ZerologAuditSink {
	return &ZerologAuditSink{logger: logger}
}

// Emit implements [AuditSink].
func (s *ZerologAuditSink) Emit(_ context.Context, event AuditEvent) {
	var e *zerolog.Event
	if event.Allowed {
		e = s.logger.Info()
	} else {
		e = s.logger.Warn()
	}
	e.Time("at", event.Timestamp).
		Str("event", event.EventType).
		Str("account", event.Account).
		Str("token_id", event.TokenID).
		Str("terminal", event.Terminal).
		Bool("allowed", event.Allowed)
	if event.RunAs != "" {
		e = e.Str("run_as", event.RunAs)
	}
	if event.IP != "" {
		e = e.Str("ip", event.IP)
	}
	if event.ErrorKind != "" {
		e = e.Str("error_kind", event.ErrorKind)
	}
	e.Msg("gate decision")
}
