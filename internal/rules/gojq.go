package rules

import (
	"context"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

// GoJQEngine evaluates business rules written as jq expressions,
// useful when the rule reshapes or filters structured vendor data.
// Thread-safe: compiled *gojq.Code objects are cached and reused
// across goroutines.
type GoJQEngine struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// NewGoJQEngine creates a new GoJQ rule engine.
func NewGoJQEngine() *GoJQEngine {
	return &GoJQEngine{
		cache: make(map[string]*gojq.Code),
	}
}

// Name returns the engine identifier.
func (e *GoJQEngine) Name() Language {
	return LanguageJQ
}

// Check compiles the expression, reporting syntax errors without
// evaluating it.
func (e *GoJQEngine) Check(expression string) error {
	_, err := e.getOrCompile(expression)
	return err
}

// Evaluate compiles (or retrieves from cache) a jq expression and runs
// it against the sample input. jq can produce multiple outputs: a
// single output is returned directly, multiple are collected into
// []any.
func (e *GoJQEngine) Evaluate(ctx context.Context, expression string, input map[string]any) (any, error) {
	code, err := e.getOrCompile(expression)
	if err != nil {
		return nil, err
	}

	var data any = map[string]any{}
	if input != nil {
		data = normalizeForJQ(input)
	}

	iter := code.RunWithContext(ctx, data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if jqErr, isErr := v.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeRuleExpression,
				"jq evaluation failed for %q: %s", expression, jqErr.Error()).
				WithCause(jqErr).
				WithDetails(map[string]any{"expression": expression})
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func (e *GoJQEngine) getOrCompile(expression string) (*gojq.Code, error) {
	if expression == "" {
		return nil, schema.NewError(schema.ErrCodeRuleExpression, "empty jq expression")
	}

	e.mu.RLock()
	if code, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return code, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if code, ok := e.cache[expression]; ok {
		return code, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeRuleExpression,
			"jq parse error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeRuleExpression,
			"jq compile error in %q: %s", expression, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"expression": expression})
	}

	e.cache[expression] = code
	return code, nil
}

// normalizeForJQ converts numeric values to types gojq accepts.
// gojq only handles int, float64, string, bool, nil, []any, and
// map[string]any.
func normalizeForJQ(v map[string]any) map[string]any {
	out := make(map[string]any, len(v))
	for k, val := range v {
		out[k] = normalizeValue(val)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeForJQ(t)
	case []any:
		arr := make([]any, len(t))
		for i, item := range t {
			arr[i] = normalizeValue(item)
		}
		return arr
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

var _ Engine = (*GoJQEngine)(nil)
