package wirecmp

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
)

// NewRequestID generates an opaque id keying the per-request asset table.
func NewRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("wirecmp: request id entropy unavailable: " + err.Error())
	}
	return hex.EncodeToString(b[:])
}

// Wire values decoded from JSON arrive as float64/bool/string/nil; live
// properties may hold native Go types. These coercions let components read
// the bag without caring which side of a round trip a value is on.

// AsInt coerces a wire or native numeric value to int.
func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// AsFloat coerces a wire or native numeric value to float64.
func AsFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// AsString coerces a value to string, returning "" for non-strings.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsBool coerces a value to bool, returning false for non-bools.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// Int reads a property as int.
func (s *State) Int(key string) int { return AsInt(s.Get(key)) }

// String reads a property as string.
func (s *State) String(key string) string { return AsString(s.Get(key)) }

// Bool reads a property as bool.
func (s *State) Bool(key string) bool { return AsBool(s.Get(key)) }

// Float reads a property as float64.
func (s *State) Float(key string) float64 { return AsFloat(s.Get(key)) }
