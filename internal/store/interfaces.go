package store

import (
	"context"
	"errors"
	"time"

	"outreach.app/courier/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write lost an optimistic version check or hit a
// uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ContactFilter matches contacts whose profile URL equals any of ProfileURLs.
type ContactFilter struct {
	ProfileURLs []string
}

// ProfileFields are the contact attributes carried by inbound events. Empty values
// leave the stored value unchanged.
type ProfileFields struct {
	FullName  string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
	Title     string
	Address   string
}

// ContactUpdate is a partial update applied in a single statement. Nil fields are left
// unchanged. ExpectedVersion must match the stored version.
type ContactUpdate struct {
	ExpectedVersion int32

	Profile    *ProfileFields
	InCampaign *bool
	Transcript model.Transcript
	State      *model.StateLabel
	// FollowUpDate sets the date; ClearFollowUp removes it. Changing the date re-arms
	// the reminder.
	FollowUpDate  *time.Time
	ClearFollowUp bool
	Responded     *bool
	Response      *string
	ResponseAt    *time.Time
}

// FollowUpFilter selects contacts with a follow-up date on or before OnOrBefore.
type FollowUpFilter struct {
	OnOrBefore time.Time
	// PendingOnly skips contacts already reminded for their current date.
	PendingOnly bool
	Limit       int32
}

// ContactStore defines the contract for prospect data access
type ContactStore interface {
	GetByID(ctx context.Context, id int64) (*model.Contact, error)
	// Find returns matches oldest first.
	Find(ctx context.Context, filter ContactFilter) ([]model.Contact, error)
	Create(ctx context.Context, contact *model.Contact) error
	Update(ctx context.Context, id int64, update ContactUpdate) (*model.Contact, error)
	ListFollowUps(ctx context.Context, filter FollowUpFilter) ([]model.Contact, error)
	// MarkReminded records that the reminder for the contact's current follow-up date was sent.
	MarkReminded(ctx context.Context, id int64, at time.Time) error
}
