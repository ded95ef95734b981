package extract

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rendis/flowviz/internal/expressions"
	"github.com/rendis/flowviz/pkg/schema"
)

// DefaultQueries are the jq queries used to read each category from
// structured instructions.
var DefaultQueries = map[Category]string{
	CategoryIntegrations: ".integrations[]?",
	CategoryAgents:       ".agents[]?",
	CategoryTasks:        ".tasks[]?",
}

// StructuredClassifier reads entities from instructions written as a JSON
// object. Text that is not a JSON object is handed to the fallback.
type StructuredClassifier struct {
	engine   *expressions.GoJQEngine
	queries  map[Category]string
	fallback Classifier
}

// StructuredOption configures a StructuredClassifier.
type StructuredOption func(*StructuredClassifier)

// WithQuery overrides the jq query for one category.
func WithQuery(cat Category, query string) StructuredOption {
	return func(c *StructuredClassifier) {
		c.queries[cat] = query
	}
}

// WithFallback sets the classifier used for non-JSON text.
func WithFallback(fallback Classifier) StructuredOption {
	return func(c *StructuredClassifier) {
		c.fallback = fallback
	}
}

// NewStructuredClassifier creates a classifier that falls back to the
// default pattern classifier unless WithFallback says otherwise.
func NewStructuredClassifier(opts ...StructuredOption) *StructuredClassifier {
	c := &StructuredClassifier{
		engine:   expressions.NewGoJQEngine(),
		queries:  make(map[Category]string, len(DefaultQueries)),
		fallback: defaultClassifier,
	}
	for cat, q := range DefaultQueries {
		c.queries[cat] = q
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check validates every configured query.
func (c *StructuredClassifier) Check() error {
	for _, cat := range Categories {
		if err := c.engine.Check(c.queries[cat]); err != nil {
			return err
		}
	}
	return nil
}

// Classify implements Classifier. Query errors and non-string results are
// skipped.
func (c *StructuredClassifier) Classify(text string) schema.EntityBundle {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return c.fallback.Classify(text)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		return c.fallback.Classify(text)
	}

	ctx := context.Background()
	col := newCollector()
	for _, cat := range Categories {
		results, err := c.engine.EvaluateAll(ctx, c.queries[cat], doc)
		if err != nil {
			continue
		}
		for _, r := range results {
			if s, ok := r.(string); ok {
				col.add(cat, s)
			}
		}
	}
	return col.bundle()
}

var _ Classifier = (*StructuredClassifier)(nil)
