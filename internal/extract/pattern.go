package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rendis/flowviz/pkg/schema"
)

// Rule is a keyword pattern for one category. Every match of Pattern in
// the text is a candidate entity.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
}

// KeywordRule builds a case-insensitive whole-word rule matching any of
// the keywords. Longer keywords are tried first so "google sheets" wins
// over "google".
func KeywordRule(cat Category, keywords ...string) Rule {
	sorted := append([]string(nil), keywords...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	quoted := make([]string, 0, len(sorted))
	for _, k := range sorted {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		quoted = append(quoted, strings.ReplaceAll(regexp.QuoteMeta(k), " ", `\s+`))
	}
	return Rule{
		Category: cat,
		Pattern:  regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`),
	}
}

// DefaultRules are the built-in rules, in priority order.
var DefaultRules = []Rule{
	KeywordRule(CategoryIntegrations,
		"github", "gitlab", "bitbucket", "slack", "discord", "jira", "linear",
		"notion", "confluence", "asana", "trello", "stripe", "twilio", "sendgrid",
		"gmail", "google drive", "google sheets", "postgres", "postgresql", "mysql",
		"mongodb", "redis", "supabase", "firebase", "aws", "s3", "gcp", "azure",
		"vercel", "netlify", "docker", "kubernetes", "sentry", "datadog", "figma",
		"zapier", "airtable", "hubspot", "salesforce", "shopify",
	),
	KeywordRule(CategoryAgents,
		"claude", "chatgpt", "gpt", "gemini", "copilot", "llama", "mistral", "codex",
	),
	KeywordRule(CategoryAgents,
		"reviewer", "planner", "researcher", "architect", "assistant", "subagent",
		"code reviewer", "security auditor",
	),
}

// listLine matches "- item" and "N. item" lines.
var listLine = regexp.MustCompile(`(?m)^[ \t]*(?:-|\d+\.)[ \t]+(.+)$`)

// PatternClassifier classifies text with ordered keyword rules and a
// list-line scan for tasks.
type PatternClassifier struct {
	rules []Rule
}

// NewPatternClassifier creates a classifier using DefaultRules followed by
// any extra rules. Extra rules for the task category are ignored: tasks
// come from list lines only.
func NewPatternClassifier(extra ...Rule) *PatternClassifier {
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	rules = append(rules, DefaultRules...)
	for _, r := range extra {
		if r.Pattern == nil || r.Category == CategoryTasks {
			continue
		}
		rules = append(rules, r)
	}
	return &PatternClassifier{rules: rules}
}

// Rules returns the rules in evaluation order.
func (c *PatternClassifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify implements Classifier.
func (c *PatternClassifier) Classify(text string) schema.EntityBundle {
	if strings.TrimSpace(text) == "" {
		return emptyBundle()
	}
	col := newCollector()
	c.collect(col, text)
	return col.bundle()
}

func (c *PatternClassifier) collect(col *collector, text string) {
	for _, cat := range []Category{CategoryIntegrations, CategoryAgents} {
		for _, h := range c.hits(cat, text) {
			col.add(cat, h.value)
		}
	}
	for _, task := range ListItems(text) {
		col.add(CategoryTasks, task)
	}
}

type hit struct {
	pos   int
	rule  int
	value string
}

// hits returns every match of the category's rules in reading order.
// Rule order breaks ties at the same offset.
func (c *PatternClassifier) hits(cat Category, text string) []hit {
	var out []hit
	for ri, r := range c.rules {
		if r.Category != cat {
			continue
		}
		for _, loc := range r.Pattern.FindAllStringIndex(text, -1) {
			out = append(out, hit{pos: loc[0], rule: ri, value: text[loc[0]:loc[1]]})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].pos != out[j].pos {
			return out[i].pos < out[j].pos
		}
		return out[i].rule < out[j].rule
	})
	return out
}

// ListItems returns the trimmed bodies of list-style lines in order.
func ListItems(text string) []string {
	matches := listLine.FindAllStringSubmatch(text, -1)
	items := make([]string, 0, len(matches))
	for _, m := range matches {
		items = append(items, strings.TrimSpace(m[1]))
	}
	return items
}

var _ Classifier = (*PatternClassifier)(nil)
