// Package extract turns free-form hook instructions into categorized
// entity lists. Extraction never fails: text with no recognizable
// entities yields an empty bundle.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/rendis/flowviz/pkg/schema"
)

// Category names an entity list of a bundle.
type Category string

const (
	CategoryIntegrations Category = "integrations"
	CategoryAgents       Category = "agents"
	CategoryTasks        Category = "tasks"
)

// Categories lists every category in bundle order.
var Categories = []Category{CategoryIntegrations, CategoryAgents, CategoryTasks}

// ParseCategory resolves a category name. Singular forms are accepted.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integrations", "integration":
		return CategoryIntegrations, true
	case "agents", "agent":
		return CategoryAgents, true
	case "tasks", "task":
		return CategoryTasks, true
	default:
		return "", false
	}
}

// Cap returns the maximum number of entries kept for the category.
func (c Category) Cap() int {
	switch c {
	case CategoryIntegrations:
		return schema.MaxIntegrations
	case CategoryAgents:
		return schema.MaxAgents
	case CategoryTasks:
		return schema.MaxTasks
	default:
		return 0
	}
}

// Task length bounds, in characters, after trimming.
const (
	minTaskLen = 4
	maxTaskLen = 59
)

// Classifier extracts an entity bundle from instruction text.
// Implementations must not fail; they degrade to empty lists.
type Classifier interface {
	Classify(text string) schema.EntityBundle
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(text string) schema.EntityBundle

// Classify calls f(text).
func (f ClassifierFunc) Classify(text string) schema.EntityBundle {
	return f(text)
}

var defaultClassifier = NewPatternClassifier()

// Extract classifies text with the default pattern rules.
func Extract(text string) schema.EntityBundle {
	return defaultClassifier.Classify(text)
}

// collector accumulates entities per category, deduplicating and applying
// caps. Entries past a cap are dropped in discovery order.
type collector struct {
	lists map[Category][]string
	seen  map[Category]map[string]struct{}
}

func newCollector() *collector {
	c := &collector{
		lists: make(map[Category][]string, len(Categories)),
		seen:  make(map[Category]map[string]struct{}, len(Categories)),
	}
	for _, cat := range Categories {
		c.lists[cat] = []string{}
		c.seen[cat] = make(map[string]struct{})
	}
	return c
}

// seed preloads entries from an existing bundle.
func (c *collector) seed(b schema.EntityBundle) {
	for _, v := range b.Integrations {
		c.add(CategoryIntegrations, v)
	}
	for _, v := range b.Agents {
		c.add(CategoryAgents, v)
	}
	for _, v := range b.Tasks {
		c.add(CategoryTasks, v)
	}
}

// add normalizes v for the category and appends it unless it is empty,
// a duplicate, an out-of-bounds task, or over the cap. It reports whether
// the value was kept.
func (c *collector) add(cat Category, v string) bool {
	v = normalize(cat, v)
	if v == "" {
		return false
	}
	if cat == CategoryTasks && !taskLengthOK(v) {
		return false
	}
	if _, dup := c.seen[cat][v]; dup {
		return false
	}
	if len(c.lists[cat]) >= cat.Cap() {
		return false
	}
	c.seen[cat][v] = struct{}{}
	c.lists[cat] = append(c.lists[cat], v)
	return true
}

func (c *collector) bundle() schema.EntityBundle {
	return schema.EntityBundle{
		Integrations: c.lists[CategoryIntegrations],
		Agents:       c.lists[CategoryAgents],
		Tasks:        c.lists[CategoryTasks],
	}
}

// normalize trims v and lower-cases integrations and agents. Tasks keep
// their original casing.
func normalize(cat Category, v string) string {
	v = strings.TrimSpace(v)
	if cat == CategoryTasks {
		return v
	}
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

func taskLengthOK(v string) bool {
	n := utf8.RuneCountInString(v)
	return n >= minTaskLen && n <= maxTaskLen
}

func emptyBundle() schema.EntityBundle {
	return newCollector().bundle()
}
