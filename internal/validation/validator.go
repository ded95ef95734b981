package validation

// Validator checks documents arriving at the CLI and MCP surfaces before
// they reach the extraction, layout and viewport cores.
// Uses JSON Schema Draft 2020-12.
type Validator interface {
	ValidateDraft(doc any) error
	ValidateEvents(doc any) error
}
