package service

import (
	"context"
	"time"

	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/identity"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/store"
)

// ContactService backs the admin API.
type ContactService interface {
	// Lookup resolves a profile URL in either trailing-slash form. It returns nil when no
	// contact matches.
	Lookup(ctx context.Context, profileURL string) (*model.Contact, error)
	// FollowUps lists contacts whose follow-up date is on or before the given day.
	FollowUps(ctx context.Context, onOrBefore time.Time, pendingOnly bool) ([]model.Contact, error)
}

type contactService struct {
	contacts store.ContactStore
	resolver Resolver
}

func NewContactService(contacts store.ContactStore) ContactService {
	return &contactService{
		contacts: contacts,
		resolver: NewResolver(contacts),
	}
}

func (s *contactService) Lookup(ctx context.Context, profileURL string) (*model.Contact, error) {
	key, err := identity.Normalize(profileURL)
	if err != nil {
		return nil, &ValidationError{Field: "profile_url", Message: "Missing LinkedIn profile URL"}
	}
	return s.resolver.Resolve(ctx, key)
}

func (s *contactService) FollowUps(ctx context.Context, onOrBefore time.Time, pendingOnly bool) ([]model.Contact, error) {
	contacts, err := s.contacts.ListFollowUps(ctx, store.FollowUpFilter{
		OnOrBefore:  followup.Day(onOrBefore),
		PendingOnly: pendingOnly,
	})
	if err != nil {
		return nil, upstream("store", "list_follow_ups", err)
	}
	return contacts, nil
}
