package service

import (
	"log/slog"
	"time"

	"outreach.app/courier/internal/classifier"
	"outreach.app/courier/internal/drafts"
	"outreach.app/courier/internal/lock"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/queue"
	"outreach.app/courier/internal/store"
)

// Services wires the service layer over one set of stores and adapters. Adapters a binary
// does not use may be nil.
type Services struct {
	stores      *store.Stores
	classifier  classifier.Classifier
	notifier    notify.Notifier
	drafts      drafts.Composer
	locker      lock.Locker
	producer    queue.Producer
	callTimeout time.Duration
	logger      *slog.Logger
}

type ServicesConfig struct {
	Classifier  classifier.Classifier
	Notifier    notify.Notifier
	Drafts      drafts.Composer
	Locker      lock.Locker
	Producer    queue.Producer
	CallTimeout time.Duration
	Logger      *slog.Logger
}

func NewServices(stores *store.Stores, cfg ServicesConfig) *Services {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Services{
		stores:      stores,
		classifier:  cfg.Classifier,
		notifier:    cfg.Notifier,
		drafts:      cfg.Drafts,
		locker:      cfg.Locker,
		producer:    cfg.Producer,
		callTimeout: cfg.CallTimeout,
		logger:      cfg.Logger,
	}
}

func (s *Services) Inbound() InboundService {
	return NewInboundService(InboundDeps{
		Contacts:    s.stores.Contacts(),
		Classifier:  s.classifier,
		Notifier:    s.notifier,
		Drafts:      s.drafts,
		Locker:      s.locker,
		CallTimeout: s.callTimeout,
		Logger:      s.logger,
	})
}

func (s *Services) Contacts() ContactService {
	return NewContactService(s.stores.Contacts())
}

func (s *Services) Reminders() ReminderService {
	return NewReminderService(ReminderDeps{
		Contacts: s.stores.Contacts(),
		Notifier: s.notifier,
		Producer: s.producer,
		Logger:   s.logger,
	})
}
