package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// The ingress handler sets EventKind and ProfileURL; the orchestrator adds ContactID once
// the contact is resolved, so every downstream log line carries the identity it concerns.
type LogFields struct {
	ContactID  *int64  // Stored contact ID
	ProfileURL *string // Canonical (stripped) profile URL
	EventKind  *string // "contact_messaged" or "contact_replied"
	Campaign   *string // Active label set name
	MessageID  *string // Redis stream message ID (worker only)
	Component  string  // e.g. "courier.service.inbound"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.ContactID != nil {
		result.ContactID = next.ContactID
	}
	if next.ProfileURL != nil {
		result.ProfileURL = next.ProfileURL
	}
	if next.EventKind != nil {
		result.EventKind = next.EventKind
	}
	if next.Campaign != nil {
		result.Campaign = next.Campaign
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen bytes, appending "..." if truncated.
// Used for logging prospect messages, which can be long.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
