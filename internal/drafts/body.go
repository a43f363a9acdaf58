package drafts

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"text/template"
)

var bodyTemplate = template.Must(template.New("draft").Parse(`Hi {{.FirstName}},

{{.PersonalizedLine}}

Per our LinkedIn conversation, I wanted to send over more information on what we do in case you need roofing help. Happy to share references and photos of recent projects, or set up a quick call.
{{if .Signature}}
{{.Signature}}
{{end}}`))

type bodyData struct {
	FirstName        string
	PersonalizedLine string
	Signature        string
}

// renderBody returns the plain-text body and its HTML rendering.
func renderBody(firstName, line, signature string) (plain, htmlBody string, err error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		firstName = "there"
	}

	var buf bytes.Buffer
	if err := bodyTemplate.Execute(&buf, bodyData{
		FirstName:        firstName,
		PersonalizedLine: strings.TrimSpace(line),
		Signature:        strings.TrimSpace(signature),
	}); err != nil {
		return "", "", fmt.Errorf("rendering draft body: %w", err)
	}

	plain = strings.TrimRight(buf.String(), "\n") + "\n"
	return plain, newlinesToHTML(html.EscapeString(plain)), nil
}

func newlinesToHTML(s string) string {
	return strings.ReplaceAll(s, "\n", "<br/>")
}
