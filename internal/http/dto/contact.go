package dto

import (
	"strconv"
	"time"

	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/model"
)

type TurnResponse struct {
	Speaker string     `json:"speaker"`
	Text    string     `json:"text"`
	At      *time.Time `json:"at,omitempty"`
}

// ContactResponse renders IDs as strings; snowflake IDs overflow JavaScript numbers.
type ContactResponse struct {
	ID           string         `json:"id"`
	ProfileURL   string         `json:"profile_url"`
	FullName     string         `json:"full_name"`
	FirstName    string         `json:"first_name,omitempty"`
	LastName     string         `json:"last_name,omitempty"`
	Email        string         `json:"email,omitempty"`
	Phone        string         `json:"phone,omitempty"`
	Company      string         `json:"company,omitempty"`
	Title        string         `json:"title,omitempty"`
	Address      string         `json:"address,omitempty"`
	InCampaign   bool           `json:"in_campaign"`
	Source       string         `json:"source"`
	State        *string        `json:"state,omitempty"`
	FollowUpDate *string        `json:"follow_up_date,omitempty"`
	Responded    bool           `json:"responded"`
	Response     string         `json:"response,omitempty"`
	ResponseAt   *time.Time     `json:"response_at,omitempty"`
	RemindedAt   *time.Time     `json:"reminded_at,omitempty"`
	Transcript   []TurnResponse `json:"transcript,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func ContactFromModel(c *model.Contact) ContactResponse {
	resp := ContactResponse{
		ID:           strconv.FormatInt(c.ID, 10),
		ProfileURL:   c.ProfileURL,
		FullName:     c.FullName,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Email:        c.Email,
		Phone:        c.Phone,
		Company:      c.Company,
		Title:        c.Title,
		Address:      c.Address,
		InCampaign:   c.InCampaign,
		Source:       c.Source,
		State:        labelString(c.State),
		FollowUpDate: dateString(c.FollowUpDate),
		Responded:    c.Responded,
		Response:     c.Response,
		ResponseAt:   c.ResponseAt,
		RemindedAt:   c.RemindedAt,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for _, t := range c.Transcript {
		resp.Transcript = append(resp.Transcript, TurnResponse{Speaker: string(t.Speaker), Text: t.Text, At: t.At})
	}
	return resp
}

func ContactsFromModel(contacts []model.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, ContactFromModel(&contacts[i]))
	}
	return out
}

func labelString(l *model.StateLabel) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := followup.FormatDate(*t)
	return &s
}
