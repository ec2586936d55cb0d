package message

import (
	"testing"
)

func TestSanitizeStripsTransportHandles(t *testing.T) {
	msg := Message{
		"payload": 15.0,
		"req":     struct{ conn int }{1},
		"res":     "handle",
		"socket":  make(chan int),
	}

	out := Sanitize(msg)

	for _, k := range []string{"req", "res", "socket"} {
		if _, ok := out[k]; ok {
			t.Errorf("field %q was not stripped", k)
		}
	}
	if out["payload"] != 15.0 {
		t.Errorf("payload = %v, want 15", out["payload"])
	}
	if _, ok := msg["socket"]; !ok {
		t.Error("Sanitize modified the input message")
	}
}

func TestSanitizeIsDeep(t *testing.T) {
	nested := map[string]any{"value": "a"}
	msg := Message{"payload": nested, "list": []any{"x"}}

	out := Sanitize(msg)
	nested["value"] = "b"
	msg["list"].([]any)[0] = "y"

	inner, ok := out["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload has type %T, want map[string]any", out["payload"])
	}
	if inner["value"] != "a" {
		t.Errorf("nested value changed through the copy: %v", inner["value"])
	}
	if out["list"].([]any)[0] != "x" {
		t.Errorf("list element changed through the copy")
	}
}

func TestSanitizeFallsBackOnUnsupportedValues(t *testing.T) {
	msg := Message{
		"payload":  "keep",
		"callback": func() {},
		"nested": map[string]any{
			"ok": 1.5,
			"ch": make(chan struct{}),
		},
	}

	out := Sanitize(msg)

	if out["payload"] != "keep" {
		t.Errorf("payload = %v, want keep", out["payload"])
	}
	if _, ok := out["callback"]; ok {
		t.Error("function value survived sanitize")
	}
	nested, ok := out["nested"].(map[string]any)
	if !ok {
		t.Fatalf("nested has type %T", out["nested"])
	}
	if nested["ok"] != 1.5 {
		t.Errorf("nested.ok = %v, want 1.5", nested["ok"])
	}
	if _, ok := nested["ch"]; ok {
		t.Error("channel value survived sanitize")
	}
}

func TestSanitizeNil(t *testing.T) {
	out := Sanitize(nil)
	if out == nil || len(out) != 0 {
		t.Errorf("Sanitize(nil) = %v, want empty message", out)
	}
}
