package extract

import "github.com/rendis/flowviz/pkg/schema"

// Classifier modes accepted by New.
const (
	ModePattern    = "pattern"
	ModeRules      = "rules"
	ModeStructured = "structured"
)

// New returns a classifier for the given mode. rulesPath is required for
// ModeRules and optional for ModeStructured, where it configures the
// fallback for plain-text instructions. opts only apply to ModeStructured;
// its queries are compiled up front so a bad one fails here.
func New(mode, rulesPath string, opts ...StructuredOption) (Classifier, error) {
	switch mode {
	case "", ModePattern:
		if rulesPath == "" {
			return defaultClassifier, nil
		}
		return loadRules(rulesPath)
	case ModeRules:
		if rulesPath == "" {
			return nil, schema.NewError(schema.ErrCodeConfig, "rules mode requires a rule file")
		}
		return loadRules(rulesPath)
	case ModeStructured:
		if rulesPath != "" {
			rc, err := LoadRules(rulesPath)
			if err != nil {
				return nil, err
			}
			opts = append([]StructuredOption{WithFallback(rc)}, opts...)
		}
		sc := NewStructuredClassifier(opts...)
		if err := sc.Check(); err != nil {
			return nil, schema.NewError(schema.ErrCodeConfig, "invalid structured query").WithCause(err)
		}
		return sc, nil
	default:
		return nil, schema.NewErrorf(schema.ErrCodeConfig, "unknown classifier %q", mode).
			WithDetails(map[string]any{"supported": []string{ModePattern, ModeRules, ModeStructured}})
	}
}

func loadRules(path string) (Classifier, error) {
	rc, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return rc, nil
}
