package directory

import (
	"dappdir/internal/types"

	json "github.com/goccy/go-json"
	"github.com/jmespath/go-jmespath"
)

// Filter is a compiled JMESPath expression evaluated against the JSON form of a record.
// A record matches only when the expression yields boolean true; anything else, including an
// evaluation error on that record, is a non-match.
type Filter struct {
	expr *jmespath.JMESPath
}

// CompileFilter parses expression. A syntax error wraps types.ErrInvalidRequest.
func CompileFilter(expression string) (*Filter, error) {
	jp, err := jmespath.Compile(expression)
	if err != nil {
		return nil, types.Err(types.ErrInvalidRequest, err, "jmespath: %q", expression)
	}
	return &Filter{expr: jp}, nil
}

func (f *Filter) Match(r types.Record) bool {
	doc, err := recordDocument(r)
	if err != nil {
		return false
	}
	v, err := f.expr.Search(doc)
	if err != nil {
		return false
	}
	matched, ok := v.(bool)
	return ok && matched
}

// recordDocument converts r to the generic map form jmespath walks, keyed by the JSON field names.
func recordDocument(r types.Record) (map[string]any, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
