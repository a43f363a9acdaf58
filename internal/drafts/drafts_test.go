package drafts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"outreach.app/courier/core/config"
)

type fakeAppender struct {
	mailbox string
	raw     []byte
	id      string
	err     error
}

func (f *fakeAppender) AppendDraft(_ context.Context, mailbox string, msg []byte) (string, error) {
	f.mailbox = mailbox
	f.raw = msg
	return f.id, f.err
}

var _ = Describe("renderBody", func() {
	It("greets by first name and converts newlines for HTML", func() {
		plain, htmlBody, err := renderBody("Pat", "Thanks for pointing me to your Miami projects.", "Sophia\nAccount Manager")

		Expect(err).NotTo(HaveOccurred())
		Expect(plain).To(HavePrefix("Hi Pat,\n\nThanks for pointing me to your Miami projects.\n\n"))
		Expect(plain).To(HaveSuffix("Sophia\nAccount Manager\n"))
		Expect(htmlBody).To(HavePrefix("Hi Pat,<br/><br/>Thanks for pointing me"))
		Expect(htmlBody).NotTo(ContainSubstring("\n"))
	})

	It("falls back to a generic greeting", func() {
		plain, _, err := renderBody("  ", "Line.", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(plain).To(HavePrefix("Hi there,"))
	})

	It("escapes generated text in the HTML part", func() {
		_, htmlBody, err := renderBody("Pat", "<script>x</script>", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(htmlBody).To(ContainSubstring("&lt;script&gt;"))
	})
})

var _ = Describe("composer", func() {
	var (
		store *fakeAppender
		c     *composer
	)

	BeforeEach(func() {
		store = &fakeAppender{id: "Drafts/7/42"}
		c = &composer{
			cfg: config.DraftsConfig{
				Mailbox:     "Drafts",
				FromAddress: "sophia@ogroof.example",
				FromName:    "Sophia Ochoa",
				Subject:     "Following up on our LinkedIn conversation",
			},
			store:  store,
			now:    func() time.Time { return time.Date(2024, 11, 14, 9, 0, 0, 0, time.UTC) },
			logger: slog.Default(),
		}
	})

	It("files a MIME draft addressed to the recipient", func() {
		res := c.ComposeDraft(context.Background(), DraftRequest{
			RecipientEmail:   "pat@example.com",
			FirstName:        "Pat",
			PersonalizedLine: "Great to hear about the new bid list.",
		})

		Expect(res.Success).To(BeTrue())
		Expect(res.DraftID).To(Equal("Drafts/7/42"))
		Expect(store.mailbox).To(Equal("Drafts"))
		raw := string(store.raw)
		Expect(raw).To(ContainSubstring("pat@example.com"))
		Expect(raw).To(ContainSubstring("Subject: Following up on our LinkedIn conversation"))
		Expect(raw).To(ContainSubstring("text/html"))
		Expect(raw).To(ContainSubstring("Message-ID: <"))
	})

	It("falls back to the Message-ID when the server returns no UID", func() {
		store.id = ""

		res := c.ComposeDraft(context.Background(), DraftRequest{RecipientEmail: "pat@example.com", FirstName: "Pat", PersonalizedLine: "x"})

		Expect(res.Success).To(BeTrue())
		Expect(res.DraftID).To(MatchRegexp(`^<.+@ogroof\.example>$`))
	})

	It("reports mailbox failures in the result", func() {
		store.err = errors.New("mailbox full")

		res := c.ComposeDraft(context.Background(), DraftRequest{RecipientEmail: "pat@example.com", PersonalizedLine: "x"})

		Expect(res.Success).To(BeFalse())
		Expect(res.ErrorMessage).To(ContainSubstring("mailbox full"))
	})

	It("rejects a missing recipient without touching the mailbox", func() {
		res := c.ComposeDraft(context.Background(), DraftRequest{})

		Expect(res.Success).To(BeFalse())
		Expect(store.raw).To(BeNil())
	})

	It("fails cleanly when not configured", func() {
		res := NewComposer(config.DraftsConfig{}, time.Second, nil).ComposeDraft(context.Background(), DraftRequest{RecipientEmail: "pat@example.com"})
		Expect(res.Success).To(BeFalse())
		Expect(res.ErrorMessage).To(Equal("draft composer is not configured"))
	})
})
