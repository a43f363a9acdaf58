package inbound

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// messagedPayload is the first-touch webhook body.
type messagedPayload struct {
	FullName               string `json:"full_name"`
	FirstName              string `json:"first_name"`
	LastName               string `json:"last_name"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone_1"`
	CurrentCompany         string `json:"current_company"`
	CurrentCompanyPosition string `json:"current_company_position"`
	Headline               string `json:"headline"`
	LocationName           string `json:"location_name"`
	ProfileURL             string `json:"profile_url"`
}

type miniProfile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Headline  string `json:"headline"`
}

type messageInfo struct {
	MiniProfile *miniProfile `json:"miniProfile"`
	Message     struct {
		Text string `json:"text"`
	} `json:"message"`
	CreatedAt flexTime `json:"createdAt"`
}

// repliedPayload is the reply webhook body.
type repliedPayload struct {
	MiniProfile  *miniProfile  `json:"miniProfile"`
	ProfileURL   string        `json:"profileUrl"`
	MessagesInfo []messageInfo `json:"messagesInfo"`
	MyFullName   string        `json:"my_full_name"`
	Email        *struct {
		Email string `json:"email"`
	} `json:"email"`
	CurrentPosition *struct {
		Company  string `json:"company"`
		Position string `json:"position"`
	} `json:"currentPosition"`
	Location *struct {
		Name string `json:"name"`
	} `json:"location"`
	LastSendAndReceivedMessages *struct {
		Sent     json.RawMessage `json:"sent"`
		Received json.RawMessage `json:"received"`
	} `json:"lastSendAndReceivedMessages"`
}

// flexTime accepts epoch milliseconds or any common date string.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		parsed, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return err
		}
		t.Time = parsed.UTC()
		return nil
	}
	ms, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

// messageText reads a message that is either a bare string, {"text": ...}, or
// {"message": {"text": ...}}.
func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Text    string `json:"text"`
		Message *struct {
			Text string `json:"text"`
		} `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return ""
	}
	if obj.Message != nil && obj.Message.Text != "" {
		return strings.TrimSpace(obj.Message.Text)
	}
	return strings.TrimSpace(obj.Text)
}
