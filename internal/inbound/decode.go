// Package inbound decodes webhook bodies into model.InboundEvent. The event kind is decided
// here, once; nothing downstream inspects raw payload shape.
package inbound

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"outreach.app/courier/internal/model"
	"outreach.app/courier/internal/service"
)

// ErrMalformed wraps bodies that are not a JSON object at all.
var ErrMalformed = errors.New("malformed webhook body")

// Options tune decoding.
type Options struct {
	// SenderName is the outreach account's own name. Messages whose author matches it, or
	// the payload's my_full_name, are tagged as company turns.
	SenderName string
}

// Decode discriminates and validates a webhook body. Decoding failures wrap ErrMalformed;
// missing or ambiguous fields are *service.ValidationError.
func Decode(body []byte, opts Options) (model.InboundEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return model.InboundEvent{}, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return model.InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if keys == nil {
		return model.InboundEvent{}, fmt.Errorf("%w: null body", ErrMalformed)
	}

	if !present(keys, "messagesInfo") {
		return decodeMessaged(body)
	}
	if present(keys, "full_name") {
		return model.InboundEvent{}, &service.ValidationError{
			Field:   "messagesInfo",
			Message: "Ambiguous event: carries both reply messages and first-touch fields",
		}
	}
	return decodeReplied(body, opts)
}

func present(keys map[string]json.RawMessage, key string) bool {
	raw, ok := keys[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeMessaged(body []byte) (model.InboundEvent, error) {
	var p messagedPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return model.InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	ev := &model.ContactMessagedEvent{
		FullName:   strings.TrimSpace(p.FullName),
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Email:      strings.TrimSpace(p.Email),
		Phone:      strings.TrimSpace(p.Phone),
		Company:    strings.TrimSpace(p.CurrentCompany),
		Title:      firstNonEmpty(p.CurrentCompanyPosition, p.Headline),
		Location:   strings.TrimSpace(p.LocationName),
		ProfileURL: strings.TrimSpace(p.ProfileURL),
	}
	if ev.FullName == "" {
		return model.InboundEvent{}, &service.ValidationError{Field: "full_name", Message: "Missing full name"}
	}
	if ev.ProfileURL == "" {
		return model.InboundEvent{}, &service.ValidationError{Field: "profile_url", Message: "Missing LinkedIn profile URL"}
	}

	return model.InboundEvent{Kind: model.EventKindContactMessaged, Messaged: ev}, nil
}

func decodeReplied(body []byte, opts Options) (model.InboundEvent, error) {
	var p repliedPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return model.InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if p.MiniProfile == nil || len(p.MessagesInfo) == 0 {
		return model.InboundEvent{}, &service.ValidationError{Field: "miniProfile", Message: "Missing required fields"}
	}
	profileURL := strings.TrimSpace(p.ProfileURL)
	if profileURL == "" {
		return model.InboundEvent{}, &service.ValidationError{Field: "profileUrl", Message: "Missing LinkedIn profile URL"}
	}

	ev := &model.ContactRepliedEvent{
		FirstName:  strings.TrimSpace(p.MiniProfile.FirstName),
		LastName:   strings.TrimSpace(p.MiniProfile.LastName),
		Headline:   strings.TrimSpace(p.MiniProfile.Headline),
		ProfileURL: profileURL,
		Messages:   tagMessages(p.MessagesInfo, opts.SenderName, p.MyFullName),
	}
	if p.Email != nil {
		ev.Email = strings.TrimSpace(p.Email.Email)
	}
	if p.CurrentPosition != nil {
		ev.Company = strings.TrimSpace(p.CurrentPosition.Company)
		ev.Position = strings.TrimSpace(p.CurrentPosition.Position)
	}
	if p.Location != nil {
		ev.Location = strings.TrimSpace(p.Location.Name)
	}
	if p.LastSendAndReceivedMessages != nil {
		ev.LastReceived = messageText(p.LastSendAndReceivedMessages.Received)
	}
	for i := len(ev.Messages) - 1; i >= 0; i-- {
		if ev.Messages[i].Speaker == model.SpeakerProspect && ev.Messages[i].At != nil {
			ev.ReceivedAt = *ev.Messages[i].At
			break
		}
	}

	if len(ev.Messages) == 0 {
		return model.InboundEvent{}, &service.ValidationError{Field: "messagesInfo", Message: "Missing required fields"}
	}

	return model.InboundEvent{Kind: model.EventKindContactReplied, Replied: ev}, nil
}

// tagMessages drops empty messages, orders by creation time when every message carries one,
// and tags each turn with its speaker.
func tagMessages(infos []messageInfo, senderNames ...string) model.Transcript {
	filtered := make([]messageInfo, 0, len(infos))
	timed := true
	for _, info := range infos {
		if strings.TrimSpace(info.Message.Text) == "" {
			continue
		}
		if info.CreatedAt.IsZero() {
			timed = false
		}
		filtered = append(filtered, info)
	}
	if timed {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt.Time)
		})
	}

	turns := make(model.Transcript, 0, len(filtered))
	for _, info := range filtered {
		turn := model.Turn{
			Speaker: model.SpeakerProspect,
			Text:    strings.TrimSpace(info.Message.Text),
		}
		if isSender(info.MiniProfile, senderNames) {
			turn.Speaker = model.SpeakerCompany
		}
		if !info.CreatedAt.IsZero() {
			at := info.CreatedAt.Time
			turn.At = &at
		}
		turns = append(turns, turn)
	}
	return turns
}

func isSender(author *miniProfile, names []string) bool {
	if author == nil {
		return false
	}
	first := strings.TrimSpace(author.FirstName)
	full := strings.TrimSpace(first + " " + strings.TrimSpace(author.LastName))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, first) || strings.EqualFold(name, full) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
