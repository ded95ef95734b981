package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rendis/flowviz/internal/expressions"
	"github.com/rendis/flowviz/pkg/schema"
)

// RuleSpec is one entry of a YAML rule file. A rule is either a keyword
// rule (Keywords or Pattern) or a line predicate (When, evaluated by
// Engine: "expr" or "cel").
type RuleSpec struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	When     string   `yaml:"when,omitempty"`
	Engine   string   `yaml:"engine,omitempty"`
}

// RuleFile is the top-level YAML document.
type RuleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

type predicate struct {
	category   Category
	engine     expressions.Engine
	expression string
}

// RuleClassifier extends the pattern classifier with rules loaded from a
// file. Keyword rules run after the defaults; line predicates run last and
// append their hits in line order.
type RuleClassifier struct {
	base       *PatternClassifier
	predicates []predicate
}

// LoadRules reads and parses a YAML rule file.
func LoadRules(path string) (*RuleClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeConfig, "reading rule file %s", path).WithCause(err)
	}
	rc, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("rule file %s: %w", path, err)
	}
	return rc, nil
}

// ParseRules builds a RuleClassifier from YAML. Every predicate is
// compiled up front so a bad rule fails here rather than during Classify.
func ParseRules(data []byte) (*RuleClassifier, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, schema.NewError(schema.ErrCodeConfig, "parsing rules").WithCause(err)
	}

	engines := make(map[string]expressions.Engine)
	var keywordRules []Rule
	var preds []predicate

	for i, spec := range file.Rules {
		cat, ok := ParseCategory(spec.Category)
		if !ok {
			return nil, ruleError(i, "unknown category %q", spec.Category)
		}

		switch {
		case spec.When != "":
			eng, err := engineFor(engines, spec.Engine)
			if err != nil {
				return nil, ruleError(i, "%v", err)
			}
			if checker, ok := eng.(expressions.Checker); ok {
				if err := checker.Check(spec.When); err != nil {
					return nil, ruleError(i, "%v", err)
				}
			}
			preds = append(preds, predicate{category: cat, engine: eng, expression: spec.When})

		case len(spec.Keywords) > 0 || spec.Pattern != "":
			if cat == CategoryTasks {
				return nil, ruleError(i, "keyword rules cannot target tasks; use a when predicate")
			}
			if len(spec.Keywords) > 0 {
				keywordRules = append(keywordRules, KeywordRule(cat, spec.Keywords...))
			}
			if spec.Pattern != "" {
				re, err := regexp.Compile(spec.Pattern)
				if err != nil {
					return nil, ruleError(i, "invalid pattern: %v", err)
				}
				keywordRules = append(keywordRules, Rule{Category: cat, Pattern: re})
			}

		default:
			return nil, ruleError(i, "rule needs keywords, pattern or when")
		}
	}

	return &RuleClassifier{
		base:       NewPatternClassifier(keywordRules...),
		predicates: preds,
	}, nil
}

func engineFor(cache map[string]expressions.Engine, name string) (expressions.Engine, error) {
	if name == "jq" {
		return nil, fmt.Errorf("engine jq cannot evaluate line predicates")
	}
	if eng, ok := cache[name]; ok {
		return eng, nil
	}
	eng, err := expressions.ForName(name)
	if err != nil {
		return nil, err
	}
	cache[name] = eng
	return eng, nil
}

func ruleError(index int, format string, args ...any) error {
	return schema.NewErrorf(schema.ErrCodeConfig, "rule %d: %s", index, fmt.Sprintf(format, args...)).
		WithDetails(map[string]any{"rule": index})
}

// Classify implements Classifier. A predicate that errors or returns a
// non-boolean is treated as false for that line.
func (c *RuleClassifier) Classify(text string) schema.EntityBundle {
	if strings.TrimSpace(text) == "" {
		return emptyBundle()
	}

	col := newCollector()
	c.base.collect(col, text)

	if len(c.predicates) == 0 {
		return col.bundle()
	}

	ctx := context.Background()
	index := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		data := map[string]any{"line": line, "index": index, "text": text}
		for _, p := range c.predicates {
			out, err := p.engine.Evaluate(ctx, p.expression, data)
			if err != nil {
				continue
			}
			if matched, ok := out.(bool); ok && matched {
				col.add(p.category, line)
			}
		}
		index++
	}

	return col.bundle()
}

var _ Classifier = (*RuleClassifier)(nil)
