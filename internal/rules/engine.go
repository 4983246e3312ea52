package rules

import (
	"context"

	"github.com/vantagerisk/procanvas/pkg/schema"
)

// Language identifies the expression language a business rule is
// written in.
type Language string

const (
	LanguageCEL  Language = "cel"
	LanguageExpr Language = "expr"
	LanguageJQ   Language = "jq"
)

// DefaultLanguage is assumed when a catalog rule does not declare one.
const DefaultLanguage = LanguageCEL

// Engine evaluates business-rule expressions attached to decision
// steps. Three implementations: CEL (default), Expr, and GoJQ.
// Engines never execute a saved process; they only preview which
// branch a decision would take for a sample input.
type Engine interface {
	Name() Language
	// Check compiles the expression without evaluating it, reporting
	// syntax errors. Used by the validator.
	Check(expression string) error
	Evaluate(ctx context.Context, expression string, input map[string]any) (any, error)
}

// Set bundles the available engines keyed by language.
type Set struct {
	engines map[Language]Engine
}

// NewSet constructs a Set with all supported engines.
func NewSet() (*Set, error) {
	cel, err := NewCELEngine()
	if err != nil {
		return nil, err
	}
	s := &Set{engines: make(map[Language]Engine, 3)}
	for _, e := range []Engine{cel, NewExprEngine(), NewGoJQEngine()} {
		s.engines[e.Name()] = e
	}
	return s, nil
}

// Engine returns the engine for the language, defaulting blank to CEL.
func (s *Set) Engine(lang Language) (Engine, *schema.DesignError) {
	if lang == "" {
		lang = DefaultLanguage
	}
	e, ok := s.engines[lang]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeRuleExpression, "unsupported rule language %q", lang)
	}
	return e, nil
}
