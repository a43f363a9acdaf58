package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"outreach.app/courier/core/config"
)

// Setup installs the process-wide slog default for the given environment.
func Setup(cfg config.Config) {
	slog.SetDefault(slog.New(newHandler(cfg, os.Stdout)))
}

// newHandler picks the sink: the OTel log pipeline in production when an exporter is
// configured, JSON on stdout otherwise in production, and text in development. Only the
// stdout handlers need TraceHandler; the otelslog bridge records span context itself.
func newHandler(cfg config.Config, out io.Writer) slog.Handler {
	level := slog.LevelInfo
	if cfg.IsDevelopment() {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		return otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
	case cfg.IsProduction():
		return NewTraceHandler(slog.NewJSONHandler(out, opts))
	default:
		return NewTraceHandler(slog.NewTextHandler(out, opts))
	}
}

// TraceHandler stamps each record with the active span and the contact fields carried
// on the context.
type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	r.AddAttrs(GetLogFields(ctx).attrs()...)
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

// attrs lists the set fields in a fixed order so log lines stay diffable.
func (f LogFields) attrs() []slog.Attr {
	out := make([]slog.Attr, 0, 6)
	if f.ContactID != nil {
		out = append(out, slog.Int64("contact_id", *f.ContactID))
	}
	if f.ProfileURL != nil {
		out = append(out, slog.String("profile_url", *f.ProfileURL))
	}
	if f.EventKind != nil {
		out = append(out, slog.String("event_kind", *f.EventKind))
	}
	if f.Campaign != nil {
		out = append(out, slog.String("campaign", *f.Campaign))
	}
	if f.MessageID != nil {
		out = append(out, slog.String("message_id", *f.MessageID))
	}
	if f.Component != "" {
		out = append(out, slog.String("component", f.Component))
	}
	return out
}
