// Package diagram computes the layered layout of a hook flow: one trigger
// row followed by integration, agent and task rows, connected top to
// bottom with bezier paths.
package diagram

// Metrics holds the fixed geometry of a layout. All values are in diagram
// units.
type Metrics struct {
	NodeWidth   float64
	NodeHeight  float64
	VGap        float64 // vertical gap between rows
	HGap        float64 // nodes in a row are spaced HGap/2 apart
	Margin      float64
	ColumnWidth float64 // reference column every row is centered under
	TasksPerRow int
}

// DefaultMetrics is the geometry used by Build.
var DefaultMetrics = Metrics{
	NodeWidth:   200,
	NodeHeight:  64,
	VGap:        56,
	HGap:        48,
	Margin:      40,
	ColumnWidth: 640,
	TasksPerRow: 2,
}

// rowKind identifies what a row holds.
type rowKind int

const (
	rowTrigger rowKind = iota
	rowIntegrations
	rowAgents
	rowTasks
)

// row is one horizontal band of nodes. taskRow is the zero-based index
// among task rows; it is -1 for other kinds.
type row struct {
	kind    rowKind
	taskRow int
	nodes   []int // indexes into the layout node slice
}

// rowWidth is the horizontal extent of n nodes placed side by side.
func (m Metrics) rowWidth(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*m.NodeWidth + float64(n-1)*(m.HGap/2)
}
