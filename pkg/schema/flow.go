package schema

import "encoding/json"

// Entity caps per category.
const (
	MaxIntegrations = 5
	MaxAgents       = 3
	MaxTasks        = 6
)

// EntityBundle holds the entities extracted from instruction text, in
// first-seen order.
type EntityBundle struct {
	Integrations []string `json:"integrations"`
	Agents       []string `json:"agents"`
	Tasks        []string `json:"tasks"`
}

// Empty reports whether no entity was found in any category.
func (b EntityBundle) Empty() bool {
	return len(b.Integrations) == 0 && len(b.Agents) == 0 && len(b.Tasks) == 0
}

// MarshalJSON encodes nil categories as empty arrays so consumers never
// see null.
func (b EntityBundle) MarshalJSON() ([]byte, error) {
	type plain EntityBundle
	out := plain(b)
	if out.Integrations == nil {
		out.Integrations = []string{}
	}
	if out.Agents == nil {
		out.Agents = []string{}
	}
	if out.Tasks == nil {
		out.Tasks = []string{}
	}
	return json.Marshal(out)
}

// NodeType classifies a flow node.
type NodeType string

const (
	NodeTypeTrigger     NodeType = "trigger"
	NodeTypeIntegration NodeType = "integration"
	NodeTypeAgent       NodeType = "agent"
	NodeTypeTask        NodeType = "task"
)

// FlowNode is a positioned node. X and Y are the top-left corner in
// diagram space.
type FlowNode struct {
	ID          string   `json:"id"`
	Type        NodeType `json:"type"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
}

// FlowConnection is a directed edge drawn as a cubic bezier path from the
// bottom-center of From to the top-center of To.
type FlowConnection struct {
	From string `json:"from"`
	To   string `json:"to"`
	Path string `json:"path"`
}

// FlowLayout is a complete, immutable layout. A new one is produced for
// every recomputation.
type FlowLayout struct {
	Nodes       []FlowNode       `json:"nodes"`
	Connections []FlowConnection `json:"connections"`
	TotalWidth  float64          `json:"total_width"`
	TotalHeight float64          `json:"total_height"`
}

// Node returns the node with the given id.
func (l *FlowLayout) Node(id string) (FlowNode, bool) {
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// Size returns the layout bounding size.
func (l *FlowLayout) Size() (width, height float64) {
	return l.TotalWidth, l.TotalHeight
}
