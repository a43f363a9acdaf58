package classifier

import (
	"context"
	"strings"
	"time"

	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/model"
)

// RulesDateResolver resolves follow-up dates without a model call, reading only the
// prospect's lines of a rendered transcript.
type RulesDateResolver struct{}

func (RulesDateResolver) ResolveDate(_ context.Context, transcript string, today time.Time) (*time.Time, error) {
	return followup.Resolve(prospectText(transcript), today), nil
}

func prospectText(transcript string) string {
	companyPrefix := string(model.SpeakerCompany) + ": "
	prospectPrefix := string(model.SpeakerProspect) + ": "

	var (
		sb       strings.Builder
		prospect bool
	)
	for _, line := range strings.Split(transcript, "\n") {
		switch {
		case strings.HasPrefix(line, prospectPrefix):
			prospect = true
			line = strings.TrimPrefix(line, prospectPrefix)
		case strings.HasPrefix(line, companyPrefix):
			prospect = false
		}
		if prospect {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
