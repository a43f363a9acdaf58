package classifier

import (
	"github.com/invopop/jsonschema"

	"outreach.app/courier/common/llm"
	"outreach.app/courier/internal/model"
)

type labelResponse struct {
	Label string `json:"label" jsonschema_description:"Exactly one label from the allowed set"`
}

type dateResponse struct {
	Date *string `json:"date" jsonschema_description:"Follow-up date as MM/DD/YYYY, or null when no timing is stated"`
}

type invitationResponse struct {
	Invited bool    `json:"invited" jsonschema_description:"True only when the prospect explicitly asks to continue over email"`
	Email   *string `json:"email" jsonschema_description:"Email address copied verbatim from the message, or null"`
}

type lineResponse struct {
	Line string `json:"line" jsonschema_description:"One personalized opening sentence"`
}

var (
	dateSchema       = nullable(llm.GenerateSchema[dateResponse](), "date")
	invitationSchema = nullable(llm.GenerateSchema[invitationResponse](), "email")
	lineSchema       = llm.GenerateSchema[lineResponse]()
)

// labelSchema restricts the label property to the members of set.
func labelSchema(set model.LabelSet) *jsonschema.Schema {
	schema := llm.GenerateSchema[labelResponse]()
	if prop, ok := schema.Properties.Get("label"); ok {
		prop.Enum = set.Values()
	}
	return schema
}

// nullable rewrites a string property as string-or-null, which strict structured output
// requires for optional values.
func nullable(schema *jsonschema.Schema, name string) *jsonschema.Schema {
	prop, ok := schema.Properties.Get(name)
	if !ok {
		return schema
	}
	description := prop.Description
	*prop = jsonschema.Schema{
		Description: description,
		AnyOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "null"},
		},
	}
	return schema
}
