package service

import (
	"context"

	"outreach.app/courier/internal/identity"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/store"
)

// Resolver finds the stored contact for an identity in either trailing-separator form.
type Resolver interface {
	Resolve(ctx context.Context, key identity.Key) (*model.Contact, error)
}

type resolver struct {
	contacts store.ContactStore
}

func NewResolver(contacts store.ContactStore) Resolver {
	return &resolver{contacts: contacts}
}

// Resolve issues one OR query over both forms. It returns nil when nothing matches and
// the oldest match when the store holds more than one.
func (r *resolver) Resolve(ctx context.Context, key identity.Key) (*model.Contact, error) {
	matches, err := r.contacts.Find(ctx, store.ContactFilter{ProfileURLs: key.Forms()})
	if err != nil {
		return nil, upstream("store", "find", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	c := matches[0]
	return &c, nil
}
