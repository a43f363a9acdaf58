package classifier

import (
	"fmt"
	"strings"
	"time"

	"outreach.app/courier/internal/followup"
	"outreach.app/courier/internal/model"
)

var labelDefinitions = map[model.StateLabel]string{
	model.StateCold:             `declines or shows no interest ("No thanks", "We already have vendors")`,
	model.StateWrongInfo:        `is the wrong person or not the decision maker ("I don't handle vendors")`,
	model.StateDND:              `is irritated or asks not to be contacted again ("Stop messaging me")`,
	model.StateWarm:             `shows some interest without committing ("Send me more info", "What area do you cover?")`,
	model.StateFuture:           `asks to be contacted at a later time ("Reach out next quarter", "Call me in March")`,
	model.StateHot:              `shows strong interest ("Yes, we need a vendor", "Let's set up a call")`,
	model.StateMeetingScheduled: `has confirmed a meeting or call ("Call set for Tuesday")`,
	model.StateBookedInspection: `has confirmed a site inspection ("Come look at the roof Thursday")`,
}

func classifyPrompt(set model.LabelSet) string {
	var sb strings.Builder
	sb.WriteString(`You classify LinkedIn outreach conversations between a commercial roofing company and a prospect.

The company opens by asking how it can become a preferred vendor. Lines are prefixed with the speaker: "company" or "prospect".

## Labels

`)
	for i, label := range set.Labels {
		fmt.Fprintf(&sb, "%d. %s: the prospect %s\n", i+1, label, labelDefinitions[label])
	}
	sb.WriteString(`
## Rules

- Choose exactly one label from the list.
- Weigh the prospect's most recent message above earlier ones.
- Never classify the company's own messages.`)
	return sb.String()
}

func resolveDatePrompt(today time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `You extract when a prospect wants to be contacted again and convert it to a calendar date.

Today is %s.

## Rules

1. Use an explicit date exactly as stated.
2. Relative references resolve against today:
`, followup.FormatDate(today))
	for _, a := range followup.Anchors(today) {
		fmt.Fprintf(&sb, "   - %s = %s\n", a.Name, followup.FormatDate(a.Date))
	}
	sb.WriteString(`   Seasons and holidays above are already their next occurrence; use them as given.
3. "After" a named day means the day after it.
4. A month named without a day (for example "in March") means the 20th of that month at its next occurrence.
5. If several timing references appear, return the one furthest in the future.
6. If the prospect states no timing at all, return null. Never guess.

Return the date as MM/DD/YYYY.`)
	return sb.String()
}

const invitationPrompt = `You read one message from a prospect and decide whether they invite the company to continue the conversation by email.

## Rules

- invited is true only when the prospect clearly asks to be emailed or to receive details by email.
- Ambiguous wording is not an invitation.
- email is the address exactly as written in the message. If no address appears, email is null.
- Never invent or complete an address.`

const personalizedLinePrompt = `You write the opening sentence of a follow-up email from a commercial roofing company to a prospect who asked to continue by email.

## Rules

- One sentence, under 30 words.
- Reference one specific point the prospect raised in the conversation.
- No greeting, no sign-off, no placeholders.`
