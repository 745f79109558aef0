package value

import (
	"regexp"
	"strings"
)

// BooleanLike returns the boolean meaning of v.
// Booleans pass through and the strings "true"/"false" (trimmed, any case)
// map to their boolean. Everything else is not boolean-like.
func BooleanLike(v Value) (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindString:
		trimmed := strings.TrimSpace(v.s)
		if strings.EqualFold(trimmed, "true") {
			return true, true
		}
		if strings.EqualFold(trimmed, "false") {
			return false, true
		}
		return false, false
	case KindNull, KindNumber:
		return false, false
	default:
		return false, false
	}
}

// NumberLike returns the numeric meaning of v.
// Numbers pass through and strings holding a numeric literal are parsed.
func NumberLike(v Value) (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindString:
		return parseNumber(v.s)
	case KindNull, KindBool:
		return 0, false
	default:
		return 0, false
	}
}

// Canonical returns the tagged comparison form of v:
// "null", "bool:<b>", "num:<n>" or "str:<s>".
func Canonical(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "bool:true"
		}
		return "bool:false"
	case KindNumber:
		return "num:" + formatNumber(v.n)
	case KindString:
		return "str:" + v.s
	default:
		return ""
	}
}

// Equivalent reports whether a and b carry the same meaning.
//
// Identical values are equivalent. Null only matches null. Otherwise the
// values are compared as booleans when both are boolean-like, as numbers when
// both are number-like, and by their canonical form as a last resort.
func Equivalent(a, b Value) bool {
	if Identical(a, b) {
		return true
	}
	if a.kind == KindNull || b.kind == KindNull {
		return false
	}

	boolA, okA := BooleanLike(a)
	boolB, okB := BooleanLike(b)
	if okA && okB {
		return boolA == boolB
	}

	numA, okA := NumberLike(a)
	numB, okB := NumberLike(b)
	if okA && okB {
		return numA == numB
	}

	return Canonical(a) == Canonical(b)
}

// InferPrimitive converts a string holding "true", "false", "null" or a
// numeric literal into that primitive. Non-strings and other strings are
// returned unchanged; a blank string becomes "".
func InferPrimitive(v Value) Value {
	if v.kind != KindString {
		return v
	}

	trimmed := strings.TrimSpace(v.s)
	if trimmed == "" {
		return String("")
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "null":
		return Null()
	}

	if n, ok := parseNumber(trimmed); ok {
		return Number(n)
	}
	return v
}

// CoerceToSample reshapes v to the primitive kind of sample, the value
// already stored for the key at some configuration layer.
//
// A missing or null sample falls back to InferPrimitive. A boolean sample
// converts boolean-like values, then numbers (non-zero is true), and keeps the
// sample when v cannot be converted. A numeric sample converts number-like
// values, then booleans (1/0), and keeps the sample otherwise. A string sample
// stringifies v, with null becoming "".
func CoerceToSample(v Value, sample Value, hasSample bool) Value {
	if !hasSample {
		return InferPrimitive(v)
	}

	switch sample.kind {
	case KindNull:
		return InferPrimitive(v)

	case KindBool:
		if b, ok := BooleanLike(v); ok {
			return Bool(b)
		}
		if n, ok := v.AsNumber(); ok {
			return Bool(n != 0)
		}
		return sample

	case KindNumber:
		if n, ok := NumberLike(v); ok {
			return Number(n)
		}
		if b, ok := v.AsBool(); ok {
			if b {
				return Number(1)
			}
			return Number(0)
		}
		return sample

	case KindString:
		switch v.kind {
		case KindString:
			return v
		case KindNull:
			return String("")
		default:
			return String(Display(v))
		}

	default:
		return InferPrimitive(v)
	}
}

// Display renders v for humans: "null", "true"/"false", the number, or the
// string itself.
func Display(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	default:
		return ""
	}
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// Sanitize replaces every character outside [A-Za-z0-9_.-] with "_".
func Sanitize(s string) string {
	return unsafeKeyChars.ReplaceAllString(s, "_")
}

// ContextValueKey returns the readable serialization used to namespace
// per-option signals: "null", "bool_true", "num_3", "str_foo".
func ContextValueKey(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "bool_true"
		}
		return "bool_false"
	case KindNumber:
		return "num_" + formatNumber(v.n)
	case KindString:
		sanitized := Sanitize(v.s)
		if sanitized == "" {
			sanitized = "empty"
		}
		return "str_" + sanitized
	default:
		return ""
	}
}
