// Package debug provides a jq query helper over a running or completed
// run's context snapshot, for interactive inspection without adding a
// dependency on jq to pkg/wfcore itself.
package debug

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

// DefaultTimeout bounds how long one query may run against a snapshot.
const DefaultTimeout = 1 * time.Second

// Querier evaluates jq expressions against context snapshots
// (map[string]any, as returned by wctx.Manager.Snapshot).
type Querier struct {
	timeout time.Duration
}

// NewQuerier constructs a Querier; a zero timeout falls back to
// DefaultTimeout.
func NewQuerier(timeout time.Duration) *Querier {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Querier{timeout: timeout}
}

// QueryContext evaluates expression against snapshot and returns
// every result jq produces: nil for none, the single value for one
// result, or a slice for several.
func (q *Querier) QueryContext(ctx context.Context, snapshot map[string]any, expression string) (any, error) {
	if expression == "" {
		return snapshot, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	resultChan := make(chan any, 1)
	errorChan := make(chan error, 1)

	go func() {
		iter := code.Run(snapshot)
		var results []any
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				errorChan <- err
				return
			}
			results = append(results, v)
		}
		switch len(results) {
		case 0:
			resultChan <- nil
		case 1:
			resultChan <- results[0]
		default:
			resultChan <- results
		}
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errorChan:
		return nil, err
	case <-execCtx.Done():
		return nil, fmt.Errorf("query execution timeout after %v", q.timeout)
	}
}

// Validate reports whether expression compiles, without running it.
func (q *Querier) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	query, err := gojq.Parse(expression)
	if err != nil {
		return fmt.Errorf("invalid jq expression: %w", err)
	}
	if _, err := gojq.Compile(query); err != nil {
		return fmt.Errorf("jq compilation failed: %w", err)
	}
	return nil
}
