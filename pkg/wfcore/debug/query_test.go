package debug

import (
	"context"
	"reflect"
	"testing"
)

func TestQueryContext(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		snapshot   map[string]any
		want       any
		wantErr    bool
	}{
		{
			name:       "empty expression returns the snapshot as-is",
			expression: "",
			snapshot:   map[string]any{"total": 42},
			want:       map[string]any{"total": 42},
		},
		{
			name:       "field extraction",
			expression: ".total",
			snapshot:   map[string]any{"total": 42},
			want:       42,
		},
		{
			name:       "invalid expression",
			expression: ".[",
			snapshot:   map[string]any{},
			wantErr:    true,
		},
	}

	q := NewQuerier(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := q.QueryContext(context.Background(), tt.snapshot, tt.expression)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryContext_DefaultTimeoutAppliedWhenZero(t *testing.T) {
	q := NewQuerier(0)
	if q.timeout != DefaultTimeout {
		t.Fatalf("expected default timeout %v, got %v", DefaultTimeout, q.timeout)
	}
}

func TestValidate(t *testing.T) {
	q := NewQuerier(0)
	if err := q.Validate(""); err != nil {
		t.Fatalf("empty expression should be valid: %v", err)
	}
	if err := q.Validate(".foo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Validate(".["); err == nil {
		t.Fatal("expected an error for invalid syntax")
	}
}
