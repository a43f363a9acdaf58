package store

import (
	"outreach.app/courier/core/db"
)

type Stores struct {
	db db.DBTX
}

func NewStores(q db.DBTX) *Stores {
	return &Stores{db: q}
}

func (s *Stores) Contacts() ContactStore {
	return newContactStore(s.db)
}
