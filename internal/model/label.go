package model

import "fmt"

// StateLabel classifies a prospect's current interest. Values are fixed by the
// active LabelSet; never construct one from an arbitrary string without Parse.
type StateLabel string

const (
	StateCold             StateLabel = "Cold"
	StateWrongInfo        StateLabel = "Wrong info"
	StateDND              StateLabel = "DND"
	StateWarm             StateLabel = "Warm"
	StateFuture           StateLabel = "Future"
	StateHot              StateLabel = "Hot"
	StateMeetingScheduled StateLabel = "Meeting scheduled"
	StateBookedInspection StateLabel = "Booked inspection"
)

// LabelSet is the closed enumeration used for one campaign type.
type LabelSet struct {
	Name   string
	Labels []StateLabel
}

var (
	// LabelSetMeeting is used by vendor-introduction campaigns that end in a call.
	LabelSetMeeting = LabelSet{
		Name:   "meeting",
		Labels: []StateLabel{StateCold, StateWrongInfo, StateDND, StateWarm, StateFuture, StateHot, StateMeetingScheduled},
	}
	// LabelSetInspection is used by campaigns that end in a booked site inspection.
	LabelSetInspection = LabelSet{
		Name:   "inspection",
		Labels: []StateLabel{StateCold, StateWrongInfo, StateDND, StateWarm, StateFuture, StateHot, StateBookedInspection},
	}
)

// LabelSetByName resolves "meeting" or "inspection".
func LabelSetByName(name string) (LabelSet, error) {
	switch name {
	case LabelSetMeeting.Name:
		return LabelSetMeeting, nil
	case LabelSetInspection.Name:
		return LabelSetInspection, nil
	default:
		return LabelSet{}, fmt.Errorf("unknown label set %q", name)
	}
}

func (s LabelSet) Contains(label StateLabel) bool {
	for _, l := range s.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Parse returns the member of s spelled exactly as raw.
func (s LabelSet) Parse(raw string) (StateLabel, bool) {
	label := StateLabel(raw)
	if !s.Contains(label) {
		return "", false
	}
	return label, true
}

// Values returns the labels as JSON-schema enum values.
func (s LabelSet) Values() []any {
	values := make([]any, len(s.Labels))
	for i, l := range s.Labels {
		values[i] = string(l)
	}
	return values
}

// Notifies reports whether a reply classified as label should reach the outreach channel.
// A nil or out-of-set label is uncertain and always notifies so a human can review it.
func (s LabelSet) Notifies(label *StateLabel) bool {
	if label == nil || !s.Contains(*label) {
		return true
	}
	switch *label {
	case StateCold, StateWrongInfo, StateDND:
		return false
	default:
		return true
	}
}
