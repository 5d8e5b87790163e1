package wirecmp

import "testing"

func TestNewRequestID(t *testing.T) {
	a := NewRequestID()
	b := NewRequestID()
	if len(a) != 32 {
		t.Errorf("len = %d, want 32 hex chars", len(a))
	}
	if a == b {
		t.Error("ids should be unique")
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"int", 5, 5},
		{"int64", int64(6), 6},
		{"float64 from JSON", float64(7), 7},
		{"numeric string", "8", 8},
		{"garbage string", "x", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AsInt(tt.in); got != tt.want {
				t.Errorf("AsInt(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAsFloat(t *testing.T) {
	if AsFloat(float64(1.5)) != 1.5 || AsFloat(3) != 3 || AsFloat("x") != 0 {
		t.Error("AsFloat coercion mismatch")
	}
}

func TestAsStringAndBool(t *testing.T) {
	if AsString("hi") != "hi" || AsString(42) != "" {
		t.Error("AsString coercion mismatch")
	}
	if !AsBool(true) || AsBool("true") {
		t.Error("AsBool coercion mismatch")
	}
}
