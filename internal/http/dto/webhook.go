package dto

import (
	"strconv"

	"outreach.app/courier/internal/service"
)

type DraftResponse struct {
	Success bool   `json:"success"`
	DraftID string `json:"draft_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebhookResponse is the data of a successful webhook envelope.
type WebhookResponse struct {
	ContactID    string         `json:"contact_id"`
	Created      bool           `json:"created"`
	Classified   bool           `json:"classified"`
	Label        *string        `json:"label,omitempty"`
	FollowUpDate *string        `json:"follow_up_date,omitempty"`
	Notified     bool           `json:"notified"`
	Draft        *DraftResponse `json:"draft,omitempty"`
}

func WebhookFromResult(r *service.ProcessResult) WebhookResponse {
	resp := WebhookResponse{
		Created:      r.Created,
		Classified:   r.Classified,
		Label:        labelString(r.Label),
		FollowUpDate: dateString(r.FollowUpDate),
		Notified:     r.Notified,
	}
	if r.Contact != nil {
		resp.ContactID = strconv.FormatInt(r.Contact.ID, 10)
	}
	if r.Draft != nil {
		resp.Draft = &DraftResponse{
			Success: r.Draft.Success,
			DraftID: r.Draft.DraftID,
			Error:   r.Draft.ErrorMessage,
		}
	}
	return resp
}
