package message

import (
	"errors"
	"math"
	"testing"
)

func TestGet(t *testing.T) {
	msg := Message{
		"payload": 21.5,
		"data": map[string]any{
			"temp": map[string]any{"value": "18"},
			"list": []any{1.0, map[string]any{"x": 2.0}},
		},
		"headers": map[string]any{"content-type": "json"},
	}

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"payload", 21.5, true},
		{"data.temp.value", "18", true},
		{"data.list[0]", 1.0, true},
		{"data.list[1].x", 2.0, true},
		{`headers["content-type"]`, "json", true},
		{`headers['content-type']`, "json", true},
		{"data.list[5]", nil, false},
		{"data.missing.value", nil, false},
		{"payload.inner", nil, false},
		{"", nil, false},
		{"data..temp", nil, false},
		{"data[x]", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := Get(msg, tt.path)
			if ok != tt.ok {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Get(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	msg := Message{"list": []any{1.0, 2.0}}

	if err := Set(msg, "a.b.c", 5.0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, _ := Get(msg, "a.b.c"); v != 5.0 {
		t.Errorf("a.b.c = %v, want 5", v)
	}

	if err := Set(msg, "list[1]", 9.0); err != nil {
		t.Fatalf("Set index failed: %v", err)
	}
	if v, _ := Get(msg, "list[1]"); v != 9.0 {
		t.Errorf("list[1] = %v, want 9", v)
	}

	if err := Set(msg, "list[4]", 1.0); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("out of range index: got %v, want ErrInvalidPath", err)
	}
	if err := Set(msg, "", 1.0); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty path: got %v, want ErrEmptyPath", err)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{"float64", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"uint64", uint64(3), 3, true},
		{"negative int64", int64(-4), -4, true},
		{"numeric string", "15", 15, true},
		{"padded string", "  -2.5 ", -2.5, true},
		{"exponent string", "1e3", 1000, true},
		{"infinity string", "Infinity", math.Inf(1), true},
		{"overflow string", "1e400", math.Inf(1), true},
		// Loose coercion would read "" and nil as 0 and booleans as 1/0.
		// They are ignored instead so a missing reading never arms a node.
		{"empty string", "", 0, false},
		{"blank string", "   ", 0, false},
		{"word", "reset", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"NaN", math.NaN(), 0, false},
		{"NaN string", "NaN", 0, false},
		{"object", map[string]any{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			if ok != tt.ok {
				t.Fatalf("Number(%v) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Number(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithDoesNotMutate(t *testing.T) {
	orig := Message{"payload": 1.0}
	out := orig.With("reset", true)

	if _, ok := orig["reset"]; ok {
		t.Error("With mutated the original message")
	}
	if out["reset"] != true || out["payload"] != 1.0 {
		t.Errorf("With result = %v", out)
	}
}

func TestValidatePath(t *testing.T) {
	for _, ok := range []string{"payload", "a.b[0]", `x["y z"].w`} {
		if err := ValidatePath(ok); err != nil {
			t.Errorf("ValidatePath(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"", ".a", "a.", "a..b", "a[", "a[-1]"} {
		if err := ValidatePath(bad); err == nil {
			t.Errorf("ValidatePath(%q) = nil, want error", bad)
		}
	}
}
