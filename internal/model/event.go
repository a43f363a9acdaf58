package model

import "time"

// EventKind discriminates InboundEvent.
type EventKind string

const (
	EventKindContactMessaged EventKind = "contact_messaged"
	EventKindContactReplied  EventKind = "contact_replied"
)

// InboundEvent is a decoded webhook payload. Exactly one of Messaged or Replied is set,
// matching Kind.
type InboundEvent struct {
	Kind     EventKind
	Messaged *ContactMessagedEvent
	Replied  *ContactRepliedEvent
}

// ProfileURL returns the raw identity key carried by either variant.
func (e InboundEvent) ProfileURL() string {
	switch e.Kind {
	case EventKindContactMessaged:
		if e.Messaged != nil {
			return e.Messaged.ProfileURL
		}
	case EventKindContactReplied:
		if e.Replied != nil {
			return e.Replied.ProfileURL
		}
	}
	return ""
}

// ContactMessagedEvent is first-touch outreach metadata.
type ContactMessagedEvent struct {
	FullName   string
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Company    string
	Title      string
	Location   string
	ProfileURL string
}

// ContactRepliedEvent is a prospect reply with the exchanged messages and a profile snapshot.
type ContactRepliedEvent struct {
	FirstName  string
	LastName   string
	Headline   string
	ProfileURL string
	Email      string
	Company    string
	Position   string
	Location   string
	// Messages in the order they were exchanged, already tagged by speaker.
	Messages Transcript
	// LastReceived is the most recent prospect message when the payload carries it explicitly.
	LastReceived string
	ReceivedAt   time.Time
}

// FullName joins first and last name.
func (e *ContactRepliedEvent) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	if e.FirstName == "" {
		return e.LastName
	}
	return e.FirstName + " " + e.LastName
}

// Title prefers the current position over the profile headline.
func (e *ContactRepliedEvent) Title() string {
	if e.Position != "" {
		return e.Position
	}
	return e.Headline
}

// LatestProspectMessage is the single message email-invitation detection looks at.
func (e *ContactRepliedEvent) LatestProspectMessage() string {
	if e.LastReceived != "" {
		return e.LastReceived
	}
	text, _ := e.Messages.Latest(SpeakerProspect)
	return text
}
