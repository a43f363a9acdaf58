package service_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"outreach.app/courier/internal/classifier"
	"outreach.app/courier/internal/drafts"
	"outreach.app/courier/internal/lock"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/notify"
	"outreach.app/courier/internal/service"
	"outreach.app/courier/internal/store"
)

func messaged(fullName, profileURL string) model.InboundEvent {
	return model.InboundEvent{
		Kind: model.EventKindContactMessaged,
		Messaged: &model.ContactMessagedEvent{
			FullName:   fullName,
			FirstName:  "Jane",
			LastName:   "Doe",
			Company:    "Acme Realty",
			Title:      "Owner",
			ProfileURL: profileURL,
		},
	}
}

func replied(profileURL string, turns ...model.Turn) model.InboundEvent {
	return model.InboundEvent{
		Kind: model.EventKindContactReplied,
		Replied: &model.ContactRepliedEvent{
			FirstName:  "Jane",
			LastName:   "Doe",
			ProfileURL: profileURL,
			Company:    "Acme Realty",
			Position:   "Owner",
			Messages:   turns,
			ReceivedAt: time.Date(2024, 11, 14, 15, 0, 0, 0, time.UTC),
		},
	}
}

func company(text string) model.Turn {
	return model.Turn{Speaker: model.SpeakerCompany, Text: text}
}

func prospect(text string) model.Turn {
	return model.Turn{Speaker: model.SpeakerProspect, Text: text}
}

func timed(turn model.Turn, ms int64) model.Turn {
	ts := time.UnixMilli(ms).UTC()
	turn.At = &ts
	return turn
}

var _ = Describe("InboundService", func() {
	var (
		ctx        context.Context
		contacts   *memContactStore
		classif    *mockClassifier
		notifier   *mockNotifier
		composer   *mockComposer
		locker     *mockLocker
		svc        service.InboundService
		today      time.Time
		meetingSet model.LabelSet
	)

	BeforeEach(func() {
		ctx = context.Background()
		contacts = &memContactStore{}
		classif = &mockClassifier{}
		notifier = &mockNotifier{}
		composer = &mockComposer{}
		locker = &mockLocker{}
		today = time.Date(2024, 11, 14, 9, 0, 0, 0, time.UTC)
		meetingSet = model.LabelSetMeeting

		svc = service.NewInboundService(service.InboundDeps{
			Contacts:   contacts,
			Classifier: classif,
			Notifier:   notifier,
			Drafts:     composer,
			Locker:     locker,
			Now:        func() time.Time { return today },
		})
	})

	seedJane := func(url string, transcript model.Transcript) model.Contact {
		return contacts.seed(model.Contact{
			ID:         101,
			ProfileURL: url,
			FullName:   "Jane Doe",
			FirstName:  "Jane",
			LastName:   "Doe",
			InCampaign: true,
			Source:     model.SourceLinkedIn,
			Transcript: transcript,
		})
	}

	Describe("first-touch events", func() {
		It("creates a contact with the stripped profile URL", func() {
			res, err := svc.Process(ctx, messaged("Jane Doe", "https://example.com/in/janedoe/"), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Created).To(BeTrue())
			Expect(res.Message).To(Equal("Record created successfully"))

			stored := contacts.all()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].FullName).To(Equal("Jane Doe"))
			Expect(stored[0].FirstName).To(Equal("Jane"))
			Expect(stored[0].LastName).To(Equal("Doe"))
			Expect(stored[0].InCampaign).To(BeTrue())
			Expect(stored[0].Source).To(Equal(model.SourceLinkedIn))
			Expect(stored[0].ProfileURL).To(Equal("https://example.com/in/janedoe"))
			Expect(stored[0].State).To(BeNil())

			Expect(classif.classifyCalls).To(BeEmpty())
			Expect(notifier.on(notify.ChannelInternalTest)).To(ConsistOf(
				notification{Title: "LinkedIn Webhook", Text: "Created new LinkedIn contact: Jane Doe", Channel: notify.ChannelInternalTest},
			))
		})

		It("updates the profile of an existing contact", func() {
			seedJane("https://example.com/in/janedoe", nil)

			ev := messaged("Jane Q. Doe", "https://example.com/in/janedoe/")
			ev.Messaged.Title = "Managing Partner"
			res, err := svc.Process(ctx, ev, meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Created).To(BeFalse())
			Expect(res.Message).To(Equal("Record updated successfully"))
			Expect(contacts.all()).To(HaveLen(1))
			Expect(res.Contact.FullName).To(Equal("Jane Q. Doe"))
			Expect(res.Contact.Title).To(Equal("Managing Partner"))
			Expect(notifier.on(notify.ChannelInternalTest)[0].Text).To(Equal("Updated LinkedIn contact: Jane Q. Doe"))
		})

		It("rejects a missing name without touching the store", func() {
			var findCalls int
			contacts.findFn = func(context.Context, store.ContactFilter) ([]model.Contact, error) {
				findCalls++
				return nil, nil
			}

			_, err := svc.Process(ctx, messaged("", "https://example.com/in/janedoe"), meetingSet)

			var vErr *service.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())
			Expect(vErr.Message).To(Equal("Missing full name"))
			Expect(findCalls).To(BeZero())
			Expect(contacts.writeCount()).To(BeZero())
			Expect(notifier.sent).To(BeEmpty())
		})

		It("rejects a missing profile URL", func() {
			_, err := svc.Process(ctx, messaged("Jane Doe", "   "), meetingSet)

			var vErr *service.ValidationError
			Expect(errors.As(err, &vErr)).To(BeTrue())
			Expect(vErr.Field).To(Equal("profile_url"))
			Expect(contacts.writeCount()).To(BeZero())
		})
	})

	Describe("identity resolution", func() {
		DescribeTable("finds the same contact for either trailing-slash form",
			func(stored, incoming string) {
				seedJane(stored, nil)

				res, err := svc.Process(ctx, replied(incoming, prospect("Sounds good")), meetingSet)

				Expect(err).NotTo(HaveOccurred())
				Expect(res.Created).To(BeFalse())
				Expect(res.Contact.ID).To(Equal(int64(101)))
				Expect(contacts.all()).To(HaveLen(1))
			},
			Entry("stored stripped, incoming slashed", "https://example.com/in/janedoe", "https://example.com/in/janedoe/"),
			Entry("stored stripped, incoming stripped", "https://example.com/in/janedoe", "https://example.com/in/janedoe"),
			Entry("stored slashed, incoming stripped", "https://example.com/in/janedoe/", "https://example.com/in/janedoe"),
			Entry("stored slashed, incoming slashed", "https://example.com/in/janedoe/", "https://example.com/in/janedoe/"),
		)

		It("never creates a second contact when a reply follows first touch", func() {
			_, err := svc.Process(ctx, messaged("Jane Doe", "https://example.com/in/janedoe/"), meetingSet)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Thanks, tell me more")), meetingSet)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Process(ctx, replied("https://example.com/in/janedoe/", prospect("Actually next week works")), meetingSet)
			Expect(err).NotTo(HaveOccurred())

			Expect(contacts.all()).To(HaveLen(1))
		})

		It("serializes on the canonical identity", func() {
			_, err := svc.Process(ctx, messaged("Jane Doe", "https://example.com/in/janedoe/"), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(locker.keys).To(ConsistOf("https://example.com/in/janedoe"))
		})

		It("fails upstream when the lock cannot be taken", func() {
			locker.acquireFn = func(context.Context, string) (lock.Release, error) { return nil, lock.ErrTimeout }

			_, err := svc.Process(ctx, messaged("Jane Doe", "https://example.com/in/janedoe"), meetingSet)

			var upErr *service.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.Service).To(Equal("lock"))
			Expect(contacts.writeCount()).To(BeZero())
		})

		It("reports a store outage on the errors channel", func() {
			contacts.findFn = func(context.Context, store.ContactFilter) ([]model.Contact, error) {
				return nil, errors.New("connection refused")
			}

			_, err := svc.Process(ctx, messaged("Jane Doe", "https://example.com/in/janedoe"), meetingSet)

			var upErr *service.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.Service).To(Equal("store"))
			errs := notifier.on(notify.ChannelErrors)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Title).To(Equal("LinkedIn Webhook Error"))
			Expect(errs[0].Text).To(ContainSubstring("connection refused"))
		})
	})

	Describe("reply events", func() {
		It("creates a minimal record for an unknown contact without classifying", func() {
			res, err := svc.Process(ctx, replied("https://example.com/in/newperson/", company("Hi there"), prospect("Who is this?")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Created).To(BeTrue())
			Expect(res.Message).To(Equal("Record created successfully with reply"))
			Expect(classif.classifyCalls).To(BeEmpty())

			stored := contacts.all()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].ProfileURL).To(Equal("https://example.com/in/newperson"))
			Expect(stored[0].Responded).To(BeTrue())
			Expect(stored[0].Response).To(Equal("Who is this?"))
			Expect(stored[0].Transcript).To(HaveLen(2))
			Expect(notifier.on(notify.ChannelInternalTest)[0].Text).To(Equal("Created new LinkedIn contact with reply: Jane Doe"))
		})

		It("appends to the stored transcript and classifies the whole conversation", func() {
			seedJane("https://example.com/in/janedoe", model.Transcript{company("Hi Jane, are you open to a chat?")})

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Sure, what about?")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Classified).To(BeTrue())
			Expect(classif.classifyCalls).To(ConsistOf("company: Hi Jane, are you open to a chat?\nprospect: Sure, what about?"))
			Expect(res.Contact.Transcript).To(Equal(model.Transcript{
				company("Hi Jane, are you open to a chat?"),
				prospect("Sure, what about?"),
			}))
			Expect(res.Contact.Responded).To(BeTrue())
			Expect(res.Contact.Response).To(Equal("Sure, what about?"))
		})

		It("only ever grows the transcript across repeated replies", func() {
			seedJane("https://example.com/in/janedoe", model.Transcript{company("Hello")})
			url := "https://example.com/in/janedoe/"

			var previous model.Transcript
			for _, msg := range []string{"Hi", "Tell me more", "Maybe later"} {
				res, err := svc.Process(ctx, replied(url, prospect(msg)), meetingSet)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Contact.Transcript.HasPrefix(previous)).To(BeTrue())
				Expect(len(res.Contact.Transcript)).To(BeNumerically(">", len(previous)))
				previous = res.Contact.Transcript
			}
			Expect(previous).To(HaveLen(4))
		})

		It("does not duplicate timestamped turns a resent snippet already delivered", func() {
			seedJane("https://example.com/in/janedoe", model.Transcript{timed(company("Hello"), 1000), timed(prospect("Hi"), 2000)})

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe",
				timed(prospect("Hi"), 2000), timed(company("Free Tuesday?"), 3000), timed(prospect("Yes"), 4000)), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Contact.Transcript).To(Equal(model.Transcript{
				timed(company("Hello"), 1000), timed(prospect("Hi"), 2000), timed(company("Free Tuesday?"), 3000), timed(prospect("Yes"), 4000),
			}))
		})

		It("appends a repeated message that carries no timestamp", func() {
			seedJane("https://example.com/in/janedoe", model.Transcript{company("Any update?"), prospect("Thanks")})

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Thanks")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Contact.Transcript).To(Equal(model.Transcript{
				company("Any update?"), prospect("Thanks"), prospect("Thanks"),
			}))
		})

		It("appends a repeated message sent at a new time", func() {
			seedJane("https://example.com/in/janedoe", model.Transcript{timed(prospect("Thanks"), 2000)})

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", timed(prospect("Thanks"), 5000)), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Contact.Transcript).To(HaveLen(2))
		})

		DescribeTable("resolves a follow-up date only for Future",
			func(label model.StateLabel, wantResolve int) {
				seedJane("https://example.com/in/janedoe", nil)
				classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return label, nil }

				_, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Hello")), meetingSet)

				Expect(err).NotTo(HaveOccurred())
				Expect(classif.resolveCalls).To(Equal(wantResolve))
			},
			Entry("Future", model.StateFuture, 1),
			Entry("Cold", model.StateCold, 0),
			Entry("Wrong info", model.StateWrongInfo, 0),
			Entry("DND", model.StateDND, 0),
			Entry("Warm", model.StateWarm, 0),
			Entry("Hot", model.StateHot, 0),
			Entry("Meeting scheduled", model.StateMeetingScheduled, 0),
		)

		DescribeTable("notifies the outreach channel by label",
			func(label model.StateLabel, wantNotify bool) {
				seedJane("https://example.com/in/janedoe", nil)
				classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return label, nil }

				res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Hello")), meetingSet)

				Expect(err).NotTo(HaveOccurred())
				Expect(res.Notified).To(Equal(wantNotify))
				Expect(res.Contact.State).To(HaveValue(Equal(label)))
				if wantNotify {
					Expect(notifier.on(notify.ChannelOutreach)).To(HaveLen(1))
				} else {
					Expect(notifier.on(notify.ChannelOutreach)).To(BeEmpty())
				}
			},
			Entry("Cold is silent", model.StateCold, false),
			Entry("Wrong info is silent", model.StateWrongInfo, false),
			Entry("DND is silent", model.StateDND, false),
			Entry("Warm notifies", model.StateWarm, true),
			Entry("Future notifies", model.StateFuture, true),
			Entry("Hot notifies", model.StateHot, true),
			Entry("Meeting scheduled notifies", model.StateMeetingScheduled, true),
		)

		It("persists exactly once per reply", func() {
			seedJane("https://example.com/in/janedoe", nil)

			_, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Hello")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(contacts.updates).To(HaveLen(1))
		})

		It("keeps the existing date when Future carries no timing", func() {
			existing := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
			c := seedJane("https://example.com/in/janedoe", nil)
			future := model.StateFuture
			contacts.mu.Lock()
			contacts.contacts[0].FollowUpDate = &existing
			contacts.contacts[0].State = &future
			contacts.mu.Unlock()
			classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return model.StateFuture, nil }

			res, err := svc.Process(ctx, replied(c.ProfileURL, prospect("Later please")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Contact.FollowUpDate).To(HaveValue(Equal(existing)))
		})

		It("clears the follow-up date when the label leaves Future", func() {
			existing := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
			seedJane("https://example.com/in/janedoe", nil)
			contacts.mu.Lock()
			contacts.contacts[0].FollowUpDate = &existing
			contacts.mu.Unlock()
			classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return model.StateHot, nil }

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Let's talk now")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Contact.FollowUpDate).To(BeNil())
			Expect(contacts.updates[0].ClearFollowUp).To(BeTrue())
		})

		It("still persists the label when date resolution fails", func() {
			seedJane("https://example.com/in/janedoe", nil)
			classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return model.StateFuture, nil }
			classif.resolveFn = func(context.Context, string, time.Time) (*time.Time, error) { return nil, classifier.ErrUnparsable }

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Sometime")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Contact.State).To(HaveValue(Equal(model.StateFuture)))
			Expect(res.Contact.FollowUpDate).To(BeNil())
		})

		Context("when classification fails", func() {
			BeforeEach(func() {
				seedJane("https://example.com/in/janedoe", model.Transcript{company("Hello")})
				classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) {
					return "", classifier.ErrUnparsable
				}
			})

			It("persists the reply unlabeled, asks for review and fails upstream", func() {
				_, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Hmm")), meetingSet)

				var upErr *service.UpstreamError
				Expect(errors.As(err, &upErr)).To(BeTrue())
				Expect(upErr.Service).To(Equal("classifier"))

				stored := contacts.all()[0]
				Expect(stored.State).To(BeNil())
				Expect(stored.Transcript).To(HaveLen(2))
				Expect(stored.Response).To(Equal("Hmm"))

				review := notifier.on(notify.ChannelOutreach)
				Expect(review).To(HaveLen(1))
				Expect(review[0].Title).To(Equal("Contact Replied (needs review)"))
				Expect(review[0].Text).To(ContainSubstring("uncertain, needs review"))
				Expect(notifier.on(notify.ChannelErrors)).To(HaveLen(1))

				Expect(classif.resolveCalls).To(BeZero())
				Expect(classif.invitationCalls).To(BeEmpty())
				Expect(composer.requests).To(BeEmpty())
			})
		})

		It("scenario: a Future reply gets its March anchor date and a notification", func() {
			seedJane("https://example.com/in/janedoe", model.Transcript{company("Would you be open to a quick call?")})
			march20 := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
			classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return model.StateFuture, nil }
			classif.resolveFn = func(_ context.Context, transcript string, now time.Time) (*time.Time, error) {
				Expect(transcript).To(ContainSubstring("Call me in March"))
				Expect(now).To(Equal(today))
				return &march20, nil
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe/", prospect("Call me in March")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Message).To(Equal("Record updated successfully with reply"))
			Expect(res.FollowUpDate).To(HaveValue(Equal(march20)))
			Expect(contacts.all()[0].FollowUpDate).To(HaveValue(Equal(march20)))

			outreach := notifier.on(notify.ChannelOutreach)
			Expect(outreach).To(HaveLen(1))
			Expect(outreach[0].Title).To(Equal("Contact Replied"))
			Expect(outreach[0].Text).To(ContainSubstring("*Status:* Future"))
			Expect(outreach[0].Text).To(ContainSubstring("*Follow up:* 03/20/2025"))
			Expect(outreach[0].Text).To(ContainSubstring(`*Response:* _"Call me in March"_`))
		})

		It("scenario: an email invitation produces a draft to that address", func() {
			seedJane("https://example.com/in/janedoe", nil)
			latest := "Please email me at pat@example.com with details"
			classif.invitationFn = func(_ context.Context, message string) (classifier.Invitation, error) {
				email := "pat@example.com"
				return classifier.Invitation{Invited: true, Email: &email}, nil
			}
			classif.lineFn = func(context.Context, string) (string, error) {
				return "Thanks for asking about the details.", nil
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect(latest)), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(classif.invitationCalls).To(ConsistOf(latest))
			Expect(composer.requests).To(ConsistOf(drafts.DraftRequest{
				RecipientEmail:   "pat@example.com",
				FirstName:        "Jane",
				PersonalizedLine: "Thanks for asking about the details.",
			}))
			Expect(res.Draft).NotTo(BeNil())
			Expect(res.Draft.Success).To(BeTrue())
		})

		It("drafts regardless of a silent label", func() {
			seedJane("https://example.com/in/janedoe", nil)
			classif.classifyFn = func(context.Context, string, model.LabelSet) (model.StateLabel, error) { return model.StateCold, nil }
			classif.invitationFn = func(context.Context, string) (classifier.Invitation, error) {
				email := "jane@acme.example"
				return classifier.Invitation{Invited: true, Email: &email}, nil
			}

			_, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Not now, but email jane@acme.example")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(composer.requests).To(HaveLen(1))
			Expect(notifier.on(notify.ChannelOutreach)).To(BeEmpty())
		})

		It("skips the draft when the invitation carries no address", func() {
			seedJane("https://example.com/in/janedoe", nil)
			classif.invitationFn = func(context.Context, string) (classifier.Invitation, error) {
				return classifier.Invitation{Invited: true}, nil
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Send me an email")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(composer.requests).To(BeEmpty())
			Expect(res.Draft).To(BeNil())
		})

		It("isolates a failed draft from the event outcome", func() {
			seedJane("https://example.com/in/janedoe", nil)
			classif.invitationFn = func(context.Context, string) (classifier.Invitation, error) {
				email := "pat@example.com"
				return classifier.Invitation{Invited: true, Email: &email}, nil
			}
			composer.composeFn = func(context.Context, drafts.DraftRequest) drafts.DraftResult {
				return drafts.DraftResult{ErrorMessage: "imap: login failed"}
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("email pat@example.com")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Draft.Success).To(BeFalse())
			Expect(res.Contact.State).To(HaveValue(Equal(model.StateWarm)))
			errs := notifier.on(notify.ChannelErrors)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Text).To(ContainSubstring("imap: login failed"))
			Expect(notifier.on(notify.ChannelOutreach)).To(HaveLen(1))
		})

		It("reports a panicking draft composer in the result", func() {
			seedJane("https://example.com/in/janedoe", nil)
			classif.invitationFn = func(context.Context, string) (classifier.Invitation, error) {
				email := "pat@example.com"
				return classifier.Invitation{Invited: true, Email: &email}, nil
			}
			composer.composeFn = func(context.Context, drafts.DraftRequest) drafts.DraftResult {
				panic("imap: nil connection")
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("email pat@example.com")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Draft).NotTo(BeNil())
			Expect(res.Draft.Success).To(BeFalse())
			Expect(res.Draft.ErrorMessage).To(ContainSubstring("imap: nil connection"))
			errs := notifier.on(notify.ChannelErrors)
			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Text).To(ContainSubstring("panicked"))
			Expect(notifier.on(notify.ChannelOutreach)).To(HaveLen(1))
		})

		It("isolates a failed invitation check", func() {
			seedJane("https://example.com/in/janedoe", nil)
			classif.invitationFn = func(context.Context, string) (classifier.Invitation, error) {
				return classifier.Invitation{}, errors.New("rate limited")
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Hello")), meetingSet)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Classified).To(BeTrue())
			Expect(composer.requests).To(BeEmpty())
		})

		It("classifies against the active label set", func() {
			seedJane("https://example.com/in/janedoe", nil)
			var gotSet model.LabelSet
			classif.classifyFn = func(_ context.Context, _ string, set model.LabelSet) (model.StateLabel, error) {
				gotSet = set
				return model.StateBookedInspection, nil
			}

			res, err := svc.Process(ctx, replied("https://example.com/in/janedoe", prospect("Booked for Friday")), model.LabelSetInspection)

			Expect(err).NotTo(HaveOccurred())
			Expect(gotSet.Name).To(Equal("inspection"))
			Expect(res.Notified).To(BeTrue())
		})
	})
})
