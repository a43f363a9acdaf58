package model

import (
	"strings"
	"time"
)

type Speaker string

const (
	SpeakerCompany  Speaker = "company"
	SpeakerProspect Speaker = "prospect"
)

// Turn is one message in a conversation.
type Turn struct {
	Speaker Speaker    `json:"speaker"`
	Text    string     `json:"text"`
	At      *time.Time `json:"at,omitempty"`
}

// Transcript is the ordered, append-only conversation log for one contact.
type Transcript []Turn

// Append returns a new transcript holding t followed by snippet. Neither input is modified.
func (t Transcript) Append(snippet Transcript) Transcript {
	if len(t) == 0 {
		return append(Transcript(nil), snippet...)
	}
	out := make(Transcript, 0, len(t)+len(snippet))
	out = append(out, t...)
	return append(out, snippet...)
}

// Render formats the transcript as "speaker: text" lines for the classifier.
func (t Transcript) Render() string {
	var b strings.Builder
	for i, turn := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(turn.Speaker))
		b.WriteString(": ")
		b.WriteString(turn.Text)
	}
	return b.String()
}

// Latest returns the text of the last turn spoken by speaker.
func (t Transcript) Latest(speaker Speaker) (string, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Speaker == speaker {
			return t[i].Text, true
		}
	}
	return "", false
}

// HasPrefix reports whether prior is an unchanged prefix of t.
func (t Transcript) HasPrefix(prior Transcript) bool {
	if len(prior) > len(t) {
		return false
	}
	for i := range prior {
		if prior[i].Speaker != t[i].Speaker || prior[i].Text != t[i].Text {
			return false
		}
	}
	return true
}
