// Package value implements the primitive option value domain for Quicky.
//
// Configuration values and declared option values may reach the core in
// different primitive shapes ("true" versus true, "3" versus 3). The value
// package models the four accepted shapes as a closed sum type and provides
// the coercion and equivalence rules used to reconcile them.
package value

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is the JSON null value.
	KindNull Kind = iota
	// KindBool is a boolean.
	KindBool
	// KindNumber is a float64 number.
	KindNumber
	// KindString is a string.
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is one of null, bool, number or string.
// The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload and whether v is a boolean.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the numeric payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string payload and whether v is a string.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Any returns v as a plain Go value suitable for a configuration write.
// Whole numbers are returned as int64 so encoders do not emit "3.0".
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if v.n == math.Trunc(v.n) && math.Abs(v.n) < 1<<53 {
			return int64(v.n)
		}
		return v.n
	case KindString:
		return v.s
	default:
		return nil
	}
}

// Identical reports whether a and b hold the same variant and payload.
func Identical(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	default:
		return false
	}
}

// Normalize converts decoded configuration data into a Value.
// Maps, slices and any other shape are rejected.
func Normalize(raw any) (Value, bool) {
	switch v := raw.(type) {
	case nil:
		return Null(), true
	case Value:
		return v, true
	case bool:
		return Bool(v), true
	case string:
		return String(v), true
	case float64:
		return Number(v), true
	case float32:
		return Number(float64(v)), true
	case int:
		return Number(float64(v)), true
	case int8:
		return Number(float64(v)), true
	case int16:
		return Number(float64(v)), true
	case int32:
		return Number(float64(v)), true
	case int64:
		return Number(float64(v)), true
	case uint:
		return Number(float64(v)), true
	case uint8:
		return Number(float64(v)), true
	case uint16:
		return Number(float64(v)), true
	case uint32:
		return Number(float64(v)), true
	case uint64:
		return Number(float64(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, false
		}
		return Number(f), true
	default:
		return Value{}, false
	}
}

// formatNumber renders n without a trailing ".0" or exponent for ordinary
// magnitudes.
func formatNumber(n float64) string {
	if math.Abs(n) >= 1e21 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// parseNumber parses a trimmed numeric literal.
// Empty input, NaN and infinities are not numbers.
func parseNumber(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
