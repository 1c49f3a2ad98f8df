package wfcore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/waitcore/pkg/wctx"
)

// ConditionKind tags a Condition's evaluation strategy (spec.md §4.8's
// condition list).
type ConditionKind string

const (
	CondCtxEquals    ConditionKind = "ctxEquals"
	CondCtxNotEquals ConditionKind = "ctxNotEquals"
	CondCtxDefined   ConditionKind = "ctxDefined"
	CondCtxMissing   ConditionKind = "ctxMissing"
	CondExists       ConditionKind = "exists"
	CondNotExists    ConditionKind = "notExists"
	CondTextContains ConditionKind = "textContains"
	CondURLIncludes  ConditionKind = "urlIncludes"
	CondAllOf        ConditionKind = "allOf"
	CondAnyOf        ConditionKind = "anyOf"
	CondNot          ConditionKind = "not"
	CondMatches      ConditionKind = "matches"
)

// Condition is a tagged variant; only the fields relevant to Kind are
// read.
type Condition struct {
	Kind ConditionKind `yaml:"kind" json:"kind"`

	Key   string `yaml:"key,omitempty" json:"key,omitempty"`     // ctxEquals/ctxNotEquals/ctxDefined/ctxMissing/exists/notExists/textContains
	Value any    `yaml:"value,omitempty" json:"value,omitempty"` // ctxEquals/ctxNotEquals
	Text  string `yaml:"text,omitempty" json:"text,omitempty"`   // textContains
	Exact bool   `yaml:"exact,omitempty" json:"exact,omitempty"` // textContains

	URLValue string `yaml:"urlValue,omitempty" json:"urlValue,omitempty"` // urlIncludes

	Of    []Condition `yaml:"of,omitempty" json:"of,omitempty"`       // allOf/anyOf
	Inner *Condition  `yaml:"inner,omitempty" json:"inner,omitempty"` // not

	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"` // matches
}

// CurrentURLFunc supplies the "current URL" urlIncludes compares
// against. There is no browser location in this library; callers wire
// whatever notion of "current URL" their own page-module layer owns.
type CurrentURLFunc func() string

// Env is everything condition evaluation needs from the running step.
type Env struct {
	Context    *wctx.Manager
	Bridge     *ResolverBridge
	RunID      string
	WorkflowID string
	StepID     string
	Attempt    int
	CurrentURL CurrentURLFunc
	Logger     *slog.Logger
	Exprs      *ExprEvaluator
}

// Evaluate dispatches on cond.Kind. exists/textContains resolve via
// the resolver bridge with synthetic probe steps and swallow errors
// to false, per spec.md §4.8.
func Evaluate(ctx context.Context, cond *Condition, env Env) (bool, error) {
	if cond == nil {
		return true, nil
	}
	switch cond.Kind {
	case CondCtxEquals:
		v, ok := env.Context.Get(cond.Key)
		return ok && equalAny(v, cond.Value), nil
	case CondCtxNotEquals:
		v, ok := env.Context.Get(cond.Key)
		return !ok || !equalAny(v, cond.Value), nil
	case CondCtxDefined:
		_, ok := env.Context.Get(cond.Key)
		return ok, nil
	case CondCtxMissing:
		_, ok := env.Context.Get(cond.Key)
		return !ok, nil
	case CondExists:
		return probeExists(ctx, cond.Key, env), nil
	case CondNotExists:
		return !probeExists(ctx, cond.Key, env), nil
	case CondTextContains:
		return probeTextContains(ctx, cond.Key, cond.Text, cond.Exact, env), nil
	case CondURLIncludes:
		if env.CurrentURL == nil {
			return false, nil
		}
		return strings.Contains(env.CurrentURL(), cond.URLValue), nil
	case CondAllOf:
		for _, c := range cond.Of {
			ok, err := Evaluate(ctx, &c, env)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case CondAnyOf:
		for _, c := range cond.Of {
			ok, err := Evaluate(ctx, &c, env)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case CondNot:
		ok, err := Evaluate(ctx, cond.Inner, env)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case CondMatches:
		return evaluateMatches(cond.Expression, env)
	default:
		return false, fmt.Errorf("wfcore: unknown condition kind %q", cond.Kind)
	}
}

func equalAny(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b) && fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}

func probeExists(ctx context.Context, key string, env Env) bool {
	if env.Bridge == nil {
		return false
	}
	_, err := env.Bridge.Resolve(ctx, env.RunID, env.WorkflowID, "", "probe-exists", key, env.Attempt)
	return err == nil
}

func probeTextContains(ctx context.Context, key, text string, exact bool, env Env) bool {
	if env.Bridge == nil {
		return false
	}
	rr, err := env.Bridge.Resolve(ctx, env.RunID, env.WorkflowID, "", "probe-text", key, env.Attempt)
	if err != nil || !rr.Found() {
		return false
	}
	got := rr.Element.TextContent()
	if exact {
		return got == text
	}
	return strings.Contains(got, text)
}

// evaluateMatches evaluates an expr-lang expression against the
// context snapshot. Per spec.md §4.9's "unresolved matches condition"
// design note, a missing/nil evaluator warns and returns false rather
// than erroring the step.
func evaluateMatches(expression string, env Env) (bool, error) {
	if env.Exprs == nil {
		logWarn(env.Logger, "matches condition has no expression evaluator configured", "expression", expression)
		return false, nil
	}
	snapshot := map[string]any{}
	if env.Context != nil {
		snapshot["context"] = env.Context.Snapshot()
	}
	ok, err := env.Exprs.Evaluate(expression, snapshot)
	if err != nil {
		logWarn(env.Logger, "matches expression failed to evaluate", "expression", expression, "err", err)
		return false, nil
	}
	return ok, nil
}

func logWarn(logger *slog.Logger, msg string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warn(msg, args...)
}

// ExprEvaluator compiles and caches expr-lang programs for the
// matches(expression) condition, grounded directly on
// pkg/workflow/expression.Evaluator's compile-and-cache shape.
type ExprEvaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEvaluator constructs an empty ExprEvaluator.
func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

// Evaluate compiles (or reuses a cached compile of) expression and
// runs it against env, requiring a boolean result.
func (e *ExprEvaluator) Evaluate(expression string, env map[string]any) (bool, error) {
	if expression == "" {
		return true, nil
	}
	program, err := e.compile(expression)
	if err != nil {
		return false, fmt.Errorf("wfcore: compile %q: %w", expression, err)
	}
	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("wfcore: evaluate %q: %w", expression, err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("wfcore: expression %q must return a boolean, got %T", expression, result)
	}
	return b, nil
}

func (e *ExprEvaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if p, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return p, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.cache[expression] = program
	e.mu.Unlock()
	return program, nil
}
