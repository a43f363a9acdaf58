package model

import "time"

// SourceLinkedIn tags every record created by this service.
const SourceLinkedIn = "LinkedIn"

// Contact is the durable CRM record for one prospect, keyed by profile URL.
type Contact struct {
	ID           int64       `json:"id"`
	ProfileURL   string      `json:"profile_url"`
	FullName     string      `json:"full_name"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	Email        string      `json:"email,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Company      string      `json:"company,omitempty"`
	Title        string      `json:"title,omitempty"`
	Address      string      `json:"address,omitempty"`
	InCampaign   bool        `json:"in_campaign"`
	Source       string      `json:"source"`
	Transcript   Transcript  `json:"transcript"`
	State        *StateLabel `json:"state,omitempty"`
	FollowUpDate *time.Time  `json:"follow_up_date,omitempty"`
	Responded    bool        `json:"responded"`
	Response     string      `json:"response,omitempty"`
	ResponseAt   *time.Time  `json:"response_at,omitempty"`
	RemindedAt   *time.Time  `json:"reminded_at,omitempty"`
	Version      int32       `json:"version"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// DisplayName prefers the full name and falls back to first + last.
func (c *Contact) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}
