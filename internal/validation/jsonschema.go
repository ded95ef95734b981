package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rendis/flowviz/pkg/schema"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

const (
	draftSchemaURL  = "https://flowviz.dev/schemas/draft.json"
	eventsSchemaURL = "https://flowviz.dev/schemas/events.json"
)

// draftSchemaJSON is the JSON Schema for a hook draft.
const draftSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowviz.dev/schemas/draft.json",
  "type": "object",
  "properties": {
    "trigger": {
      "type": "string",
      "enum": ["pre-tool", "post-tool"]
    },
    "name": { "type": "string" },
    "instructions": { "type": "string" }
  },
  "additionalProperties": false
}`

// eventsSchemaJSON is the JSON Schema for a viewport event log.
const eventsSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowviz.dev/schemas/events.json",
  "type": "array",
  "items": { "$ref": "#/$defs/event" },
  "$defs": {
    "event": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {
          "type": "string",
          "enum": ["wheel", "zoom", "pointer_down", "pointer_move", "pointer_up",
                   "pointer_cancel", "pointer_leave", "resize", "layout", "fit"]
        },
        "x": { "type": "number" },
        "y": { "type": "number" },
        "delta_y": { "type": "number" },
        "factor": { "type": "number", "exclusiveMinimum": 0 },
        "target": { "type": "string", "enum": ["background", "node"] },
        "width": { "type": "number", "minimum": 0 },
        "height": { "type": "number", "minimum": 0 }
      },
      "additionalProperties": false,
      "allOf": [
        {
          "if": { "properties": { "type": { "const": "zoom" } } },
          "then": { "required": ["factor"] }
        },
        {
          "if": { "properties": { "type": { "enum": ["resize", "layout"] } } },
          "then": { "required": ["width", "height"] }
        }
      ]
    }
  }
}`

// JSONSchemaValidator implements Validator. Schemas are compiled once; it
// is safe for concurrent use.
type JSONSchemaValidator struct {
	draftSchema  *jsonschema.Schema
	eventsSchema *jsonschema.Schema
}

var _ Validator = (*JSONSchemaValidator)(nil)

// NewJSONSchemaValidator compiles the embedded schemas.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	draft, err := compile(c, draftSchemaURL, draftSchemaJSON)
	if err != nil {
		return nil, err
	}
	events, err := compile(c, eventsSchemaURL, eventsSchemaJSON)
	if err != nil {
		return nil, err
	}

	return &JSONSchemaValidator{draftSchema: draft, eventsSchema: events}, nil
}

func compile(c *jsonschema.Compiler, url, text string) (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
	}
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource %s: %w", url, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", url, err)
	}
	return compiled, nil
}

// ValidateDraft validates a decoded draft document. Any Go value that
// round-trips through JSON is accepted, including schema.Draft.
func (v *JSONSchemaValidator) ValidateDraft(doc any) error {
	return v.validate(v.draftSchema, "draft", doc)
}

// ValidateEvents validates a decoded event log.
func (v *JSONSchemaValidator) ValidateEvents(doc any) error {
	return v.validate(v.eventsSchema, "event log", doc)
}

func (v *JSONSchemaValidator) validate(s *jsonschema.Schema, what string, doc any) error {
	if doc == nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "%s is nil", what)
	}
	value, err := toJSONValue(doc)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "failed to serialize %s", what).WithCause(err)
	}
	if err := s.Validate(value); err != nil {
		return toError(err)
	}
	return nil
}

// ParseDraft validates raw JSON and decodes it into a Draft.
func (v *JSONSchemaValidator) ParseDraft(data []byte) (schema.Draft, error) {
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return schema.Draft{}, schema.NewError(schema.ErrCodeValidation, "draft is not valid JSON").WithCause(err)
	}
	if err := v.draftSchema.Validate(value); err != nil {
		return schema.Draft{}, toError(err)
	}
	var d schema.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return schema.Draft{}, schema.NewError(schema.ErrCodeValidation, "invalid draft").WithCause(err)
	}
	return d, nil
}

// ParseEvents validates raw JSON as an event log. Decoding into events is
// left to the viewport package.
func (v *JSONSchemaValidator) ParseEvents(data []byte) error {
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "event log is not valid JSON").WithCause(err)
	}
	if err := v.eventsSchema.Validate(value); err != nil {
		return toError(err)
	}
	return nil
}

// toJSONValue round-trips a Go value through JSON so numbers become
// json.Number, as the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toError flattens a jsonschema.ValidationError into a single error with
// one violation string per failing leaf.
func toError(err error) *schema.Error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}
	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and returns the leaf
// messages prefixed by instance location.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
