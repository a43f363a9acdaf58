package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"outreach.app/courier/common/id"
	"outreach.app/courier/common/logger"
	"outreach.app/courier/internal/classifier"
	"outreach.app/courier/internal/drafts"
	"outreach.app/courier/internal/identity"
	"outreach.app/courier/internal/lock"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/store"
)

const (
	webhookTitle      = "LinkedIn Webhook"
	webhookErrorTitle = "LinkedIn Webhook Error"
	repliedTitle      = "Contact Replied"
	needsReviewTitle  = "Contact Replied (needs review)"
)

// ProcessResult describes what one event did.
type ProcessResult struct {
	Message      string
	Contact      *model.Contact
	Created      bool
	Classified   bool
	Label        *model.StateLabel
	FollowUpDate *time.Time
	Notified     bool
	Draft        *drafts.DraftResult
}

// InboundService turns one decoded webhook event into a persisted, classified contact.
type InboundService interface {
	Process(ctx context.Context, ev model.InboundEvent, set model.LabelSet) (*ProcessResult, error)
}

type InboundDeps struct {
	Contacts   store.ContactStore
	Classifier classifier.Classifier
	Notifier   notify.Notifier
	Drafts     drafts.Composer
	Locker     lock.Locker
	// CallTimeout bounds each store call. Zero means unbounded.
	CallTimeout time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

type inboundService struct {
	contacts    store.ContactStore
	resolver    Resolver
	classifier  classifier.Classifier
	notifier    notify.Notifier
	drafts      drafts.Composer
	locker      lock.Locker
	callTimeout time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

func NewInboundService(deps InboundDeps) InboundService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker(30 * time.Second)
	}
	return &inboundService{
		contacts:    deps.Contacts,
		resolver:    NewResolver(deps.Contacts),
		classifier:  deps.Classifier,
		notifier:    deps.Notifier,
		drafts:      deps.Drafts,
		locker:      deps.Locker,
		callTimeout: deps.CallTimeout,
		now:         deps.Now,
		logger:      deps.Logger,
	}
}

func (s *inboundService) Process(ctx context.Context, ev model.InboundEvent, set model.LabelSet) (*ProcessResult, error) {
	if err := validateEvent(ev); err != nil {
		return nil, err
	}
	key, err := identity.Normalize(ev.ProfileURL())
	if err != nil {
		return nil, &ValidationError{Field: "profile_url", Message: "Missing LinkedIn profile URL"}
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ProfileURL: logger.Ptr(key.Canonical()),
		EventKind:  logger.Ptr(string(ev.Kind)),
		Campaign:   logger.Ptr(set.Name),
		Component:  "courier.service.inbound",
	})

	sc := logger.StartSpan(ctx, "inbound.process")
	defer sc.End()
	ctx = sc.Context()

	result, err := s.process(ctx, key, ev, set)
	if err != nil {
		sc.RecordError(err)
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			s.logger.ErrorContext(ctx, "inbound event failed", "error", err, "service", upErr.Service, "op", upErr.Op)
			s.notifier.Notify(context.WithoutCancel(ctx), webhookErrorTitle, upErr.Error(), notify.ChannelErrors)
		}
		return nil, err
	}
	return result, nil
}

func validateEvent(ev model.InboundEvent) error {
	switch ev.Kind {
	case model.EventKindContactMessaged:
		if ev.Messaged == nil {
			return &ValidationError{Field: "event", Message: "Missing first-touch payload"}
		}
		if ev.Messaged.FullName == "" {
			return &ValidationError{Field: "full_name", Message: "Missing full name"}
		}
	case model.EventKindContactReplied:
		if ev.Replied == nil || len(ev.Replied.Messages) == 0 {
			return &ValidationError{Field: "messagesInfo", Message: "Missing required fields"}
		}
	default:
		return &ValidationError{Field: "event", Message: fmt.Sprintf("Unknown event kind %q", ev.Kind)}
	}
	return nil
}

func (s *inboundService) process(ctx context.Context, key identity.Key, ev model.InboundEvent, set model.LabelSet) (*ProcessResult, error) {
	release, err := s.locker.Acquire(ctx, key.Canonical())
	if err != nil {
		return nil, upstream("lock", "acquire", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "releasing identity lock failed", "error", err)
		}
	}()

	storeCtx, cancel := s.bounded(ctx)
	contact, err := s.resolver.Resolve(storeCtx, key)
	cancel()
	if err != nil {
		return nil, err
	}
	if contact != nil {
		ctx = logger.WithLogFields(ctx, logger.LogFields{ContactID: logger.Ptr(contact.ID)})
	}

	switch ev.Kind {
	case model.EventKindContactMessaged:
		if contact == nil {
			return s.createFromMessaged(ctx, key, ev.Messaged)
		}
		return s.updateFromMessaged(ctx, contact, ev.Messaged)
	default:
		if contact == nil {
			return s.createFromReply(ctx, key, ev.Replied)
		}
		return s.processReply(ctx, contact, ev.Replied, set)
	}
}

func (s *inboundService) createFromMessaged(ctx context.Context, key identity.Key, ev *model.ContactMessagedEvent) (*ProcessResult, error) {
	contact := &model.Contact{
		ID:         id.New(),
		ProfileURL: key.Canonical(),
		FullName:   ev.FullName,
		FirstName:  ev.FirstName,
		LastName:   ev.LastName,
		Email:      ev.Email,
		Phone:      ev.Phone,
		Company:    ev.Company,
		Title:      ev.Title,
		Address:    ev.Location,
		InCampaign: true,
		Source:     model.SourceLinkedIn,
	}
	if err := s.create(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contact created from first touch", "contact_id", contact.ID)
	s.notifier.Notify(ctx, webhookTitle, "Created new LinkedIn contact: "+ev.FullName, notify.ChannelInternalTest)

	return &ProcessResult{Message: "Record created successfully", Contact: contact, Created: true}, nil
}

func (s *inboundService) updateFromMessaged(ctx context.Context, contact *model.Contact, ev *model.ContactMessagedEvent) (*ProcessResult, error) {
	updated, err := s.update(ctx, contact.ID, store.ContactUpdate{
		ExpectedVersion: contact.Version,
		Profile: &store.ProfileFields{
			FullName:  ev.FullName,
			FirstName: ev.FirstName,
			LastName:  ev.LastName,
			Email:     ev.Email,
			Phone:     ev.Phone,
			Company:   ev.Company,
			Title:     ev.Title,
			Address:   ev.Location,
		},
		InCampaign: logger.Ptr(true),
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contact updated from first touch")
	s.notifier.Notify(ctx, webhookTitle, "Updated LinkedIn contact: "+ev.FullName, notify.ChannelInternalTest)

	return &ProcessResult{Message: "Record updated successfully", Contact: updated}, nil
}

// createFromReply stores a minimal record for a reply from an identity never messaged
// through this service. It is not classified.
func (s *inboundService) createFromReply(ctx context.Context, key identity.Key, ev *model.ContactRepliedEvent) (*ProcessResult, error) {
	latest := ev.LatestProspectMessage()
	contact := &model.Contact{
		ID:         id.New(),
		ProfileURL: key.Canonical(),
		FullName:   ev.FullName(),
		FirstName:  ev.FirstName,
		LastName:   ev.LastName,
		Email:      ev.Email,
		Company:    ev.Company,
		Title:      ev.Title(),
		Address:    ev.Location,
		InCampaign: true,
		Source:     model.SourceLinkedIn,
		Transcript: model.Transcript(nil).Append(ev.Messages),
		Responded:  true,
		Response:   latest,
		ResponseAt: logger.Ptr(s.receivedAt(ev)),
	}
	if err := s.create(ctx, contact); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "contact created from reply", "contact_id", contact.ID)
	s.notifier.Notify(ctx, webhookTitle, "Created new LinkedIn contact with reply: "+ev.FullName(), notify.ChannelInternalTest)

	return &ProcessResult{Message: "Record created successfully with reply", Contact: contact, Created: true}, nil
}

func (s *inboundService) processReply(ctx context.Context, contact *model.Contact, ev *model.ContactRepliedEvent, set model.LabelSet) (*ProcessResult, error) {
	sc := logger.StartSpan(ctx, "inbound.process_reply")
	defer sc.End()
	ctx = sc.Context()

	transcript := contact.Transcript.Append(unseenTurns(contact.Transcript, ev.Messages))
	rendered := transcript.Render()
	latest := ev.LatestProspectMessage()

	update := store.ContactUpdate{
		ExpectedVersion: contact.Version,
		Profile:         replyProfile(ev),
		Transcript:      transcript,
		Responded:       logger.Ptr(true),
		Response:        logger.Ptr(latest),
		ResponseAt:      logger.Ptr(s.receivedAt(ev)),
	}

	label, err := s.classifier.ClassifyState(ctx, rendered, set)
	if err != nil {
		return nil, s.persistUnclassified(ctx, contact, update, err)
	}
	update.State = &label

	if label == model.StateFuture {
		date, err := s.classifier.ResolveDate(ctx, rendered, s.now())
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "follow-up date resolution failed", "error", err)
		case date != nil:
			update.FollowUpDate = date
		}
	} else {
		update.ClearFollowUp = true
	}

	invitation, err := s.classifier.DetectEmailInvitation(ctx, latest)
	if err != nil {
		s.logger.WarnContext(ctx, "email invitation detection failed", "error", err)
		invitation = classifier.Invitation{}
	}

	updated, err := s.update(ctx, contact.ID, update)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reply classified",
		"label", label,
		"latest", logger.Truncate(latest, 200),
		"follow_up_date", update.FollowUpDate,
		"invited", invitation.Invited)

	result := &ProcessResult{
		Message:      "Record updated successfully with reply",
		Contact:      updated,
		Classified:   true,
		Label:        &label,
		FollowUpDate: updated.FollowUpDate,
	}
	s.dispatch(context.WithoutCancel(ctx), dispatchPlan{
		notify:     set.Notifies(&label),
		invitation: invitation,
		contact:    updated,
		event:      ev,
		label:      &label,
		latest:     latest,
		transcript: rendered,
	}, result)

	return result, nil
}

// persistUnclassified writes everything but the label after a classifier failure and
// asks a human to review the reply.
func (s *inboundService) persistUnclassified(ctx context.Context, contact *model.Contact, update store.ContactUpdate, classifyErr error) error {
	s.logger.ErrorContext(ctx, "classification failed", "error", classifyErr)

	updated, err := s.update(ctx, contact.ID, update)
	if err != nil {
		s.logger.ErrorContext(ctx, "persisting unclassified reply failed", "error", err)
		return err
	}

	text := outreachMessage(updated, nil, *update.Response)
	s.notifier.Notify(context.WithoutCancel(ctx), needsReviewTitle, text, notify.ChannelOutreach)

	return upstream("classifier", "classify_state", classifyErr)
}

func (s *inboundService) receivedAt(ev *model.ContactRepliedEvent) time.Time {
	if !ev.ReceivedAt.IsZero() {
		return ev.ReceivedAt
	}
	return s.now().UTC()
}

func (s *inboundService) create(ctx context.Context, contact *model.Contact) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.contacts.Create(ctx, contact); err != nil {
		return upstream("store", "create", err)
	}
	return nil
}

func (s *inboundService) update(ctx context.Context, contactID int64, update store.ContactUpdate) (*model.Contact, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	updated, err := s.contacts.Update(ctx, contactID, update)
	if err != nil {
		return nil, upstream("store", "update", err)
	}
	return updated, nil
}

func (s *inboundService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.callTimeout)
}

func replyProfile(ev *model.ContactRepliedEvent) *store.ProfileFields {
	return &store.ProfileFields{
		FullName:  ev.FullName(),
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
		Email:     ev.Email,
		Company:   ev.Company,
		Title:     ev.Title(),
		Address:   ev.Location,
	}
}

// unseenTurns drops the leading part of snippet that the stored transcript already ends
// with. Only timestamped turns count as already delivered; an untimed turn is always new
// even when its text repeats.
func unseenTurns(prior, snippet model.Transcript) model.Transcript {
	maxOverlap := min(len(prior), len(snippet))
	for k := maxOverlap; k > 0; k-- {
		if sameTurns(prior[len(prior)-k:], snippet[:k]) {
			return snippet[k:]
		}
	}
	return snippet
}

func sameTurns(a, b model.Transcript) bool {
	for i := range a {
		if a[i].At == nil || b[i].At == nil || !a[i].At.Equal(*b[i].At) {
			return false
		}
		if a[i].Speaker != b[i].Speaker || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}
