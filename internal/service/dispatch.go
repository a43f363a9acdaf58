package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc"

	"outreach.app/courier/internal/classifier"
	"outreach.app/courier/internal/drafts"
	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/notify"
)

type dispatchPlan struct {
	notify     bool
	invitation classifier.Invitation
	contact    *model.Contact
	event      *model.ContactRepliedEvent
	label      *model.StateLabel
	latest     string
	transcript string
}

// dispatch runs the post-persistence side effects concurrently. Each one handles its own
// failure; none can fail the event.
func (s *inboundService) dispatch(ctx context.Context, plan dispatchPlan, result *ProcessResult) {
	var wg conc.WaitGroup

	if plan.notify {
		result.Notified = true
		wg.Go(func() {
			s.notifier.Notify(ctx, repliedTitle, outreachMessage(plan.contact, plan.label, plan.latest), notify.ChannelOutreach)
		})
	}

	if plan.invitation.Invited && plan.invitation.Email != nil {
		var draft drafts.DraftResult
		wg.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					draft = drafts.DraftResult{ErrorMessage: fmt.Sprintf("draft composition panicked: %v", r)}
					s.logger.ErrorContext(ctx, "draft composition panicked", "panic", r)
					s.notifier.Notify(ctx, webhookErrorTitle, "Draft creation failed: "+draft.ErrorMessage, notify.ChannelErrors)
				}
			}()
			draft = s.composeDraft(ctx, plan)
		})
		defer func() { result.Draft = &draft }()
	}

	if recovered := wg.WaitAndRecover(); recovered != nil {
		s.logger.ErrorContext(ctx, "side effect panicked", "error", recovered.AsError())
	}
}

func (s *inboundService) composeDraft(ctx context.Context, plan dispatchPlan) drafts.DraftResult {
	line, err := s.classifier.DraftPersonalizedLine(ctx, plan.transcript)
	if err != nil {
		s.logger.ErrorContext(ctx, "drafting personalized line failed", "error", err)
		s.notifier.Notify(ctx, webhookErrorTitle, "Draft personalization failed: "+err.Error(), notify.ChannelErrors)
		return drafts.DraftResult{ErrorMessage: err.Error()}
	}

	res := s.drafts.ComposeDraft(ctx, drafts.DraftRequest{
		RecipientEmail:   *plan.invitation.Email,
		FirstName:        plan.event.FirstName,
		PersonalizedLine: line,
	})
	if !res.Success {
		s.logger.ErrorContext(ctx, "draft creation failed", "error", res.ErrorMessage)
		s.notifier.Notify(ctx, webhookErrorTitle, "Draft creation failed: "+res.ErrorMessage, notify.ChannelErrors)
		return res
	}

	s.logger.InfoContext(ctx, "follow-up draft created", "draft_id", res.DraftID)
	return res
}

// outreachMessage is the Slack text for a reply. A nil label marks it for human review.
func outreachMessage(c *model.Contact, label *model.StateLabel, latest string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n*From:* _<%s|%s>_", c.ProfileURL, c.DisplayName())
	if c.Title != "" {
		fmt.Fprintf(&sb, "\n*Title:* %s", c.Title)
	}
	if c.Company != "" {
		fmt.Fprintf(&sb, "\n*Company:* %s", c.Company)
	}
	if label != nil {
		fmt.Fprintf(&sb, "\n*Status:* %s", *label)
	} else {
		sb.WriteString("\n*Status:* uncertain, needs review")
	}
	if label != nil && *label == model.StateFuture && c.FollowUpDate != nil {
		fmt.Fprintf(&sb, "\n*Follow up:* %s", followup.FormatDate(*c.FollowUpDate))
	}
	fmt.Fprintf(&sb, "\n*Response:* _\"%s\"_", latest)
	return sb.String()
}
