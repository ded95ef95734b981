package diagram

import (
	"fmt"
	"testing"

	"github.com/rendis/flowviz/internal/extract"
	"github.com/rendis/flowviz/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test input builders ---

func preTool() schema.Trigger {
	return schema.TriggerFromDraft(schema.Draft{Trigger: schema.TriggerPreTool, Name: "review-gate"})
}

func reviewBundle() schema.EntityBundle {
	return extract.Extract("- call github api\n- run jest tests\n- ask claude to review")
}

func fullBundle() schema.EntityBundle {
	return schema.EntityBundle{
		Integrations: []string{"github", "slack", "jira", "notion", "sentry"},
		Agents:       []string{"claude", "gemini", "reviewer"},
		Tasks:        []string{"task one", "task two", "task three", "task four", "task five", "task six"},
	}
}

func connectionSet(l *schema.FlowLayout) []string {
	out := make([]string, 0, len(l.Connections))
	for _, c := range l.Connections {
		out = append(out, c.From+"->"+c.To)
	}
	return out
}

func nodeByID(t *testing.T, l *schema.FlowLayout, id string) schema.FlowNode {
	t.Helper()
	n, ok := l.Node(id)
	require.True(t, ok, "node %s not found", id)
	return n
}

// --- Tests ---

func TestBuildTriggerOnly(t *testing.T) {
	l := Build(preTool(), schema.EntityBundle{})

	require.Len(t, l.Nodes, 1)
	assert.Empty(t, l.Connections)
	assert.NotNil(t, l.Connections)

	n := l.Nodes[0]
	assert.Equal(t, TriggerNodeID, n.ID)
	assert.Equal(t, schema.NodeTypeTrigger, n.Type)
	assert.Equal(t, "Before tool use", n.Label)
	assert.Equal(t, "review-gate", n.Description)
	assert.Equal(t, 40.0, n.X)
	assert.Equal(t, 40.0, n.Y)

	m := DefaultMetrics
	assert.Equal(t, 2*m.Margin+m.NodeWidth, l.TotalWidth)
	assert.Equal(t, 2*m.Margin+m.NodeHeight, l.TotalHeight)
}

func TestBuildDraftEmptyInstructions(t *testing.T) {
	l := BuildDraft(schema.Draft{Trigger: schema.TriggerPostTool, Name: "noop", Instructions: ""}, nil)

	require.Len(t, l.Nodes, 1)
	assert.Empty(t, l.Connections)
	assert.Equal(t, "After tool use", l.Nodes[0].Label)
}

func TestBuildReviewFlow(t *testing.T) {
	l := Build(preTool(), reviewBundle())

	require.Len(t, l.Nodes, 6)
	ids := make([]string, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"trigger", "integration-0", "agent-0", "task-0", "task-1", "task-2"}, ids)

	assert.Equal(t, []string{
		"trigger->integration-0",
		"integration-0->agent-0",
		"agent-0->task-0",
		"agent-0->task-1",
		"task-0->task-2",
	}, connectionSet(l))

	// Rows advance by NODE_H + V_GAP.
	assert.Equal(t, 40.0, nodeByID(t, l, "trigger").Y)
	assert.Equal(t, 160.0, nodeByID(t, l, "integration-0").Y)
	assert.Equal(t, 280.0, nodeByID(t, l, "agent-0").Y)
	assert.Equal(t, 400.0, nodeByID(t, l, "task-0").Y)
	assert.Equal(t, 400.0, nodeByID(t, l, "task-1").Y)
	assert.Equal(t, 520.0, nodeByID(t, l, "task-2").Y)

	// The widest row (two tasks) starts at the margin; single nodes are
	// centered above it.
	assert.Equal(t, 40.0, nodeByID(t, l, "task-0").X)
	assert.Equal(t, 264.0, nodeByID(t, l, "task-1").X)
	assert.Equal(t, 152.0, nodeByID(t, l, "trigger").X)
	assert.Equal(t, 152.0, nodeByID(t, l, "task-2").X)

	assert.Equal(t, 504.0, l.TotalWidth)
	assert.Equal(t, 624.0, l.TotalHeight)
}

func TestBuildConnectionPath(t *testing.T) {
	l := Build(preTool(), reviewBundle())

	require.NotEmpty(t, l.Connections)
	assert.Equal(t, "M 252 104 C 252 132, 252 132, 252 160", l.Connections[0].Path)

	// agent-0 -> task-1 bends right.
	assert.Equal(t, "M 252 344 C 252 372, 364 372, 364 400", l.Connections[3].Path)
}

func TestBuildFanOut(t *testing.T) {
	l := Build(preTool(), fullBundle())

	// 1 trigger + 5 + 3 + 6 nodes.
	require.Len(t, l.Nodes, 15)

	count := func(fromPrefix, toPrefix string) int {
		n := 0
		for _, c := range l.Connections {
			if len(c.From) >= len(fromPrefix) && c.From[:len(fromPrefix)] == fromPrefix &&
				len(c.To) >= len(toPrefix) && c.To[:len(toPrefix)] == toPrefix {
				n++
			}
		}
		return n
	}

	assert.Equal(t, 5, count("trigger", "integration-"))
	assert.Equal(t, 15, count("integration-", "agent-"))
	assert.Equal(t, 6, count("agent-", "task-"), "agents fan out to the first task row only")
	assert.Equal(t, 4, count("task-", "task-"), "wrapped task rows connect positionally")

	conns := connectionSet(l)
	assert.Contains(t, conns, "task-0->task-2")
	assert.Contains(t, conns, "task-1->task-3")
	assert.Contains(t, conns, "task-2->task-4")
	assert.Contains(t, conns, "task-3->task-5")
	assert.NotContains(t, conns, "task-0->task-3")
}

func TestBuildSkipsEmptyCategories(t *testing.T) {
	l := Build(preTool(), schema.EntityBundle{Agents: []string{"claude", "gemini"}})

	assert.Equal(t, []string{"trigger->agent-0", "trigger->agent-1"}, connectionSet(l))
	assert.Equal(t, 160.0, nodeByID(t, l, "agent-0").Y)
}

func TestBuildOddTaskRow(t *testing.T) {
	l := Build(preTool(), schema.EntityBundle{Tasks: []string{"aaaa", "bbbb", "cccc", "dddd", "eeee"}})

	assert.Equal(t, []string{
		"trigger->task-0",
		"trigger->task-1",
		"task-0->task-2",
		"task-1->task-3",
		"task-2->task-4",
	}, connectionSet(l))

	// A lone task in the last row is centered.
	assert.Equal(t, nodeByID(t, l, "trigger").X, nodeByID(t, l, "task-4").X)
}

func TestBuildRowsShareCenter(t *testing.T) {
	l := Build(preTool(), fullBundle())
	m := DefaultMetrics

	rows := map[float64][]schema.FlowNode{}
	for _, n := range l.Nodes {
		rows[n.Y] = append(rows[n.Y], n)
	}

	center := l.Nodes[0].X + m.NodeWidth/2
	for y, ns := range rows {
		left := ns[0].X
		right := ns[len(ns)-1].X + m.NodeWidth
		assert.InDelta(t, center, (left+right)/2, 1e-9, "row at y=%v", y)
	}

	// Widest row is five integrations.
	assert.Equal(t, m.rowWidth(5)+2*m.Margin, l.TotalWidth)
}

func TestBuildIdempotent(t *testing.T) {
	a := Build(preTool(), fullBundle())
	b := Build(preTool(), fullBundle())
	assert.Equal(t, a, b)

	c := BuildDraft(schema.Draft{Trigger: schema.TriggerPreTool, Name: "x", Instructions: "- call github api\n- ask claude"}, nil)
	d := BuildDraft(schema.Draft{Trigger: schema.TriggerPreTool, Name: "x", Instructions: "- call github api\n- ask claude"}, nil)
	assert.Equal(t, c, d)
}

func TestBuildReferentialIntegrity(t *testing.T) {
	bundles := []schema.EntityBundle{
		{},
		reviewBundle(),
		fullBundle(),
		{Integrations: []string{"github"}, Tasks: []string{"aaaa", "bbbb", "cccc"}},
		{Agents: []string{"claude"}},
	}

	for i, b := range bundles {
		t.Run(fmt.Sprintf("bundle-%d", i), func(t *testing.T) {
			l := Build(preTool(), b)

			ids := make(map[string]bool, len(l.Nodes))
			for _, n := range l.Nodes {
				assert.False(t, ids[n.ID], "duplicate id %s", n.ID)
				ids[n.ID] = true
			}
			for _, c := range l.Connections {
				assert.True(t, ids[c.From], "dangling from %s", c.From)
				assert.True(t, ids[c.To], "dangling to %s", c.To)
			}

			triggers := 0
			for _, n := range l.Nodes {
				if n.Type == schema.NodeTypeTrigger {
					triggers++
				}
				assert.LessOrEqual(t, n.X+DefaultMetrics.NodeWidth, l.TotalWidth)
				assert.LessOrEqual(t, n.Y+DefaultMetrics.NodeHeight, l.TotalHeight)
				assert.GreaterOrEqual(t, n.X, DefaultMetrics.Margin)
			}
			assert.Equal(t, 1, triggers)
		})
	}
}

func TestBuildCustomMetrics(t *testing.T) {
	m := DefaultMetrics
	m.TasksPerRow = 3

	l := m.Build(preTool(), schema.EntityBundle{Tasks: []string{"aaaa", "bbbb", "cccc", "dddd"}})
	assert.Equal(t, nodeByID(t, l, "task-0").Y, nodeByID(t, l, "task-2").Y)
	assert.Contains(t, connectionSet(l), "task-0->task-3")

	m.TasksPerRow = 0
	l = m.Build(preTool(), schema.EntityBundle{Tasks: []string{"aaaa", "bbbb"}})
	assert.Equal(t, []string{"trigger->task-0", "task-0->task-1"}, connectionSet(l))
}

func TestBuildDraftWithClassifier(t *testing.T) {
	c := extract.ClassifierFunc(func(string) schema.EntityBundle {
		return schema.EntityBundle{Integrations: []string{"linear"}}
	})

	l := BuildDraft(schema.Draft{Trigger: "bogus", Name: "n", Instructions: "ignored"}, c)
	require.Len(t, l.Nodes, 2)
	assert.Equal(t, "linear", l.Nodes[1].Label)
	assert.Equal(t, "Before tool use", l.Nodes[0].Label)
}
