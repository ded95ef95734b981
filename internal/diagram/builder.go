package diagram

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rendis/flowviz/internal/extract"
	"github.com/rendis/flowviz/pkg/schema"
)

// TriggerNodeID is the id of the single root node of every layout.
const TriggerNodeID = "trigger"

// Build lays out a flow with DefaultMetrics.
func Build(trigger schema.Trigger, entities schema.EntityBundle) *schema.FlowLayout {
	return DefaultMetrics.Build(trigger, entities)
}

// BuildDraft extracts entities from the draft instructions with c and lays
// out the result. A nil classifier uses the default pattern rules.
func BuildDraft(d schema.Draft, c extract.Classifier) *schema.FlowLayout {
	if c == nil {
		c = extract.ClassifierFunc(extract.Extract)
	}
	return Build(schema.TriggerFromDraft(d), c.Classify(d.Instructions))
}

// Build computes a fresh layout. It is pure: the same arguments always
// produce an identical layout, path strings included.
func (m Metrics) Build(trigger schema.Trigger, entities schema.EntityBundle) *schema.FlowLayout {
	if m.TasksPerRow <= 0 {
		m.TasksPerRow = 1
	}

	nodes, rows := m.buildRows(trigger, entities)
	m.place(nodes, rows)
	m.alignLeft(nodes)
	connections := m.connect(nodes, rows)

	width, height := m.extent(nodes)
	return &schema.FlowLayout{
		Nodes:       nodes,
		Connections: connections,
		TotalWidth:  width,
		TotalHeight: height,
	}
}

// buildRows creates the nodes and groups them into rows: trigger, then
// each non-empty category in fixed order, tasks wrapped at TasksPerRow.
func (m Metrics) buildRows(trigger schema.Trigger, entities schema.EntityBundle) ([]schema.FlowNode, []row) {
	total := 1 + len(entities.Integrations) + len(entities.Agents) + len(entities.Tasks)
	nodes := make([]schema.FlowNode, 0, total)
	rows := make([]row, 0, 4)

	nodes = append(nodes, triggerNode(trigger))
	rows = append(rows, row{kind: rowTrigger, taskRow: -1, nodes: []int{0}})

	if len(entities.Integrations) > 0 {
		r := row{kind: rowIntegrations, taskRow: -1}
		for i, name := range entities.Integrations {
			r.nodes = append(r.nodes, len(nodes))
			nodes = append(nodes, schema.FlowNode{
				ID:          fmt.Sprintf("integration-%d", i),
				Type:        schema.NodeTypeIntegration,
				Label:       name,
				Description: "Integration",
			})
		}
		rows = append(rows, r)
	}

	if len(entities.Agents) > 0 {
		r := row{kind: rowAgents, taskRow: -1}
		for i, name := range entities.Agents {
			r.nodes = append(r.nodes, len(nodes))
			nodes = append(nodes, schema.FlowNode{
				ID:          fmt.Sprintf("agent-%d", i),
				Type:        schema.NodeTypeAgent,
				Label:       name,
				Description: "Agent",
			})
		}
		rows = append(rows, r)
	}

	for start := 0; start < len(entities.Tasks); start += m.TasksPerRow {
		end := min(start+m.TasksPerRow, len(entities.Tasks))
		r := row{kind: rowTasks, taskRow: start / m.TasksPerRow}
		for i := start; i < end; i++ {
			r.nodes = append(r.nodes, len(nodes))
			nodes = append(nodes, schema.FlowNode{
				ID:          fmt.Sprintf("task-%d", i),
				Type:        schema.NodeTypeTask,
				Label:       entities.Tasks[i],
				Description: fmt.Sprintf("Step %d", i+1),
			})
		}
		rows = append(rows, r)
	}

	return nodes, rows
}

func triggerNode(t schema.Trigger) schema.FlowNode {
	label := t.Label
	if label == "" {
		label = t.Kind.Label()
	}
	return schema.FlowNode{
		ID:          TriggerNodeID,
		Type:        schema.NodeTypeTrigger,
		Label:       label,
		Description: t.Name,
	}
}

// place assigns coordinates row by row, centering each row under the
// reference column.
func (m Metrics) place(nodes []schema.FlowNode, rows []row) {
	y := m.Margin
	step := m.NodeWidth + m.HGap/2
	for _, r := range rows {
		x := m.Margin + (m.ColumnWidth-m.rowWidth(len(r.nodes)))/2
		for i, idx := range r.nodes {
			nodes[idx].X = x + float64(i)*step
			nodes[idx].Y = y
		}
		y += m.NodeHeight + m.VGap
	}
}

// alignLeft shifts every node horizontally so the leftmost one sits at the
// margin. Rows wider than the reference column would otherwise start at a
// negative x.
func (m Metrics) alignLeft(nodes []schema.FlowNode) {
	if len(nodes) == 0 {
		return
	}
	minX := nodes[0].X
	for _, n := range nodes[1:] {
		minX = min(minX, n.X)
	}
	shift := m.Margin - minX
	for i := range nodes {
		nodes[i].X += shift
	}
}

// connect fans out every node of a row to every node of the next row, up
// to the first task row. Later task rows connect by position only.
func (m Metrics) connect(nodes []schema.FlowNode, rows []row) []schema.FlowConnection {
	connections := []schema.FlowConnection{}
	for k := 1; k < len(rows); k++ {
		prev, cur := rows[k-1], rows[k]
		if cur.kind == rowTasks && cur.taskRow > 0 {
			for i, to := range cur.nodes {
				if i >= len(prev.nodes) {
					continue
				}
				connections = append(connections, m.connection(nodes[prev.nodes[i]], nodes[to]))
			}
			continue
		}
		for _, from := range prev.nodes {
			for _, to := range cur.nodes {
				connections = append(connections, m.connection(nodes[from], nodes[to]))
			}
		}
	}
	return connections
}

func (m Metrics) connection(from, to schema.FlowNode) schema.FlowConnection {
	return schema.FlowConnection{
		From: from.ID,
		To:   to.ID,
		Path: m.path(from, to),
	}
}

// path is a vertical S-curve from the bottom-center of from to the
// top-center of to. Both control points sit at the vertical midpoint.
func (m Metrics) path(from, to schema.FlowNode) string {
	x1 := from.X + m.NodeWidth/2
	y1 := from.Y + m.NodeHeight
	x2 := to.X + m.NodeWidth/2
	y2 := to.Y
	my := (y1 + y2) / 2

	var b strings.Builder
	b.WriteString("M ")
	b.WriteString(num(x1) + " " + num(y1))
	b.WriteString(" C ")
	b.WriteString(num(x1) + " " + num(my) + ", ")
	b.WriteString(num(x2) + " " + num(my) + ", ")
	b.WriteString(num(x2) + " " + num(y2))
	return b.String()
}

// extent returns the maximum node extents plus the margin.
func (m Metrics) extent(nodes []schema.FlowNode) (float64, float64) {
	var maxX, maxY float64
	for _, n := range nodes {
		maxX = max(maxX, n.X+m.NodeWidth)
		maxY = max(maxY, n.Y+m.NodeHeight)
	}
	return maxX + m.Margin, maxY + m.Margin
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
