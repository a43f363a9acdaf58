// Package drafts composes follow-up emails and files them in the sender's Drafts mailbox
// for a human to review and send.
package drafts

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"outreach.app/courier/core/config"
)

type DraftRequest struct {
	RecipientEmail   string
	FirstName        string
	PersonalizedLine string
}

// DraftResult reports the outcome. ErrorMessage is set when Success is false.
type DraftResult struct {
	Success      bool
	DraftID      string
	ErrorMessage string
}

// Composer never returns an error; failures are reported in DraftResult.
type Composer interface {
	ComposeDraft(ctx context.Context, req DraftRequest) DraftResult
}

// appender stores a raw RFC 5322 message in a mailbox as a draft and returns its id.
type appender interface {
	AppendDraft(ctx context.Context, mailbox string, msg []byte) (string, error)
}

type composer struct {
	cfg    config.DraftsConfig
	store  appender
	now    func() time.Time
	logger *slog.Logger
}

// NewComposer files drafts over IMAP. When drafts are not configured every request
// fails with a descriptive result.
func NewComposer(cfg config.DraftsConfig, timeout time.Duration, logger *slog.Logger) Composer {
	if logger == nil {
		logger = slog.Default()
	}
	c := &composer{cfg: cfg, now: time.Now, logger: logger}
	if cfg.Enabled() {
		c.store = &imapAppender{
			addr:     cfg.IMAPAddr,
			username: cfg.Username,
			password: cfg.Password,
			timeout:  timeout,
		}
	}
	return c
}

func (c *composer) ComposeDraft(ctx context.Context, req DraftRequest) DraftResult {
	if c.store == nil {
		return failed("draft composer is not configured")
	}
	if strings.TrimSpace(req.RecipientEmail) == "" {
		return failed("recipient email is required")
	}

	raw, messageID, err := c.buildMessage(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "building draft failed", "error", err)
		return failed(err.Error())
	}

	draftID, err := c.store.AppendDraft(ctx, c.cfg.Mailbox, raw)
	if err != nil {
		c.logger.ErrorContext(ctx, "saving draft failed", "error", err, "mailbox", c.cfg.Mailbox)
		return failed(err.Error())
	}
	if draftID == "" {
		draftID = messageID
	}

	c.logger.InfoContext(ctx, "draft created", "draft_id", draftID, "mailbox", c.cfg.Mailbox)
	return DraftResult{Success: true, DraftID: draftID}
}

func (c *composer) buildMessage(req DraftRequest) ([]byte, string, error) {
	plain, htmlBody, err := renderBody(req.FirstName, req.PersonalizedLine, c.cfg.Signature)
	if err != nil {
		return nil, "", err
	}

	m := mail.NewMsg()
	if c.cfg.FromName != "" {
		err = m.FromFormat(c.cfg.FromName, c.cfg.FromAddress)
	} else {
		err = m.From(c.cfg.FromAddress)
	}
	if err != nil {
		return nil, "", fmt.Errorf("setting sender: %w", err)
	}
	if err := m.To(req.RecipientEmail); err != nil {
		return nil, "", fmt.Errorf("setting recipient: %w", err)
	}

	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), senderDomain(c.cfg.FromAddress))
	m.SetMessageIDWithValue(messageID)
	m.SetDateWithValue(c.now())
	m.Subject(c.cfg.Subject)
	m.SetBodyString(mail.TypeTextPlain, plain)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody)

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, "", fmt.Errorf("encoding draft: %w", err)
	}
	return buf.Bytes(), "<" + messageID + ">", nil
}

func senderDomain(addr string) string {
	if _, domain, ok := strings.Cut(addr, "@"); ok && domain != "" {
		return domain
	}
	return "localhost"
}

func failed(msg string) DraftResult {
	return DraftResult{Success: false, ErrorMessage: msg}
}
