package schema

// TriggerKind is the hook event that activates a flow.
type TriggerKind string

const (
	TriggerPreTool  TriggerKind = "pre-tool"
	TriggerPostTool TriggerKind = "post-tool"
)

// Valid reports whether k is a known trigger kind.
func (k TriggerKind) Valid() bool {
	return k == TriggerPreTool || k == TriggerPostTool
}

// Label returns the human-readable caption shown on the trigger node.
func (k TriggerKind) Label() string {
	switch k {
	case TriggerPostTool:
		return "After tool use"
	default:
		return "Before tool use"
	}
}

// Draft is the hook draft supplied by an editor. It is the only input
// to the extraction and layout pipeline.
type Draft struct {
	Trigger      TriggerKind `json:"trigger,omitempty"`
	Name         string      `json:"name"`
	Instructions string      `json:"instructions"`
}

// Trigger describes the root node of a flow layout.
type Trigger struct {
	Kind  TriggerKind `json:"kind"`
	Label string      `json:"label"`
	Name  string      `json:"name"`
}

// TriggerFromDraft derives the trigger descriptor for a draft.
// Unknown kinds fall back to pre-tool.
func TriggerFromDraft(d Draft) Trigger {
	kind := d.Trigger
	if !kind.Valid() {
		kind = TriggerPreTool
	}
	return Trigger{Kind: kind, Label: kind.Label(), Name: d.Name}
}
