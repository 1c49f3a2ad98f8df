package telemetry_test

import (
	"reflect"
	"testing"

	"github.com/tombee/waitcore/pkg/telemetry"
)

func TestSanitize_MasksSensitiveKeysByDefault(t *testing.T) {
	in := map[string]any{
		"username": "alice",
		"password": "hunter2-and-then-some",
		"apiToken": "tok",
	}
	out := telemetry.Sanitize(in, nil).(map[string]any)

	if out["username"] != "alice" {
		t.Fatalf("expected non-sensitive field untouched, got %v", out["username"])
	}
	if out["password"] != "********" {
		t.Fatalf("expected long sensitive value masked to 8 stars, got %v", out["password"])
	}
	if out["apiToken"] != "****" {
		t.Fatalf("expected short sensitive value masked to 4 stars, got %v", out["apiToken"])
	}
}

func TestSanitize_MasksNullishAndNumericSensitiveValues(t *testing.T) {
	in := map[string]any{
		"sessionId": nil,
		"authCode":  1234,
	}
	out := telemetry.Sanitize(in, nil).(map[string]any)

	if out["sessionId"] != "****" {
		t.Fatalf("expected nil sensitive value masked to 4 stars, got %v", out["sessionId"])
	}
	if out["authCode"] != "****" {
		t.Fatalf("expected numeric sensitive value masked to 4 stars, got %v", out["authCode"])
	}
}

func TestSanitize_RecursesThroughArraysAndNestedObjects(t *testing.T) {
	in := map[string]any{
		"accounts": []any{
			map[string]any{"secretKey": "supersecretvalue"},
			map[string]any{"secretKey": "abc"},
		},
	}
	out := telemetry.Sanitize(in, nil).(map[string]any)
	accounts := out["accounts"].([]any)

	first := accounts[0].(map[string]any)
	second := accounts[1].(map[string]any)
	if first["secretKey"] != "********" {
		t.Fatalf("expected nested long secret masked, got %v", first["secretKey"])
	}
	if second["secretKey"] != "****" {
		t.Fatalf("expected nested short secret masked, got %v", second["secretKey"])
	}
}

func TestSanitize_CustomSanitizerOverridesDefaultForHandledFields(t *testing.T) {
	in := map[string]any{"authToken": "verysecretvalue"}
	custom := func(key string, value any) (any, bool) {
		if key == "authToken" {
			return "REDACTED-BY-CALLER", true
		}
		return nil, false
	}
	out := telemetry.Sanitize(in, custom).(map[string]any)
	if out["authToken"] != "REDACTED-BY-CALLER" {
		t.Fatalf("expected custom sanitizer value, got %v", out["authToken"])
	}
}

func TestSanitize_CustomSanitizerFallsThroughWhenUnhandled(t *testing.T) {
	in := map[string]any{"password": "averylongpassword"}
	custom := func(key string, value any) (any, bool) { return nil, false }
	out := telemetry.Sanitize(in, custom).(map[string]any)
	if out["password"] != "********" {
		t.Fatalf("expected default mask when custom sanitizer declines, got %v", out["password"])
	}
}

func TestSanitize_LeavesNonMatchingStructureUnchanged(t *testing.T) {
	in := map[string]any{
		"nested": map[string]any{
			"name":  "widget",
			"count": 3,
		},
	}
	out := telemetry.Sanitize(in, nil)
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("expected structure without sensitive keys to be unchanged, got %v", out)
	}
}
