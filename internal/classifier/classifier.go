// Package classifier is the gateway to the language model that labels conversations and
// extracts follow-up facts from them.
package classifier

import (
	"context"
	"errors"
	"time"

	"outreach.app/courier/internal/model"
)

// ErrUnparsable means the model answered, but not with a value the caller can use.
var ErrUnparsable = errors.New("unparsable classifier output")

// Invitation is the result of email-invitation detection. Email is set only when the
// address appears verbatim in the inspected message.
type Invitation struct {
	Invited bool
	Email   *string
}

// Classifier is consumed by the orchestrator. Implementations must be safe for concurrent use.
type Classifier interface {
	// ClassifyState returns exactly one member of set for the rendered transcript.
	ClassifyState(ctx context.Context, transcript string, set model.LabelSet) (model.StateLabel, error)
	// ResolveDate returns the requested follow-up date, or nil when no timing is stated.
	ResolveDate(ctx context.Context, transcript string, today time.Time) (*time.Time, error)
	// DetectEmailInvitation inspects only the latest prospect message.
	DetectEmailInvitation(ctx context.Context, message string) (Invitation, error)
	// DraftPersonalizedLine writes one opening sentence referencing the conversation.
	DraftPersonalizedLine(ctx context.Context, transcript string) (string, error)
}

// DateResolver is the date-resolution half of Classifier, swappable by configuration.
type DateResolver interface {
	ResolveDate(ctx context.Context, transcript string, today time.Time) (*time.Time, error)
}
