// Package number implements the total-ordered ranking scalar used by the
// query engine's custom sort criteria.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHY NOT JUST float64?
// ═══════════════════════════════════════════════════════════════════════════════
// Ranked attributes come from user documents as decimal text: "42", "3.14",
// "-7". Parsing everything as float64 would silently lose integer identity
// (large integers can't round-trip through float64) and would accept NaN,
// which breaks the total order a ranking criterion depends on. Number keeps
// the parsed representation (Integer or Float) and refuses to compare across
// variants within the same attribute.
// ═══════════════════════════════════════════════════════════════════════════════
package number

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrMixedVariant is returned when a ranked attribute sees both Integer and
// Float values across documents within the same index.
var ErrMixedVariant = errors.New("number: ranked attribute mixes integer and float values")

// ErrNotANumber is returned when a value cannot be parsed as either a signed
// 64-bit integer or a finite 64-bit float.
var ErrNotANumber = errors.New("number: value is not a finite number")

// Variant tags which representation a Number holds.
type Variant uint8

const (
	// VariantInteger marks a Number backed by an int64.
	VariantInteger Variant = iota
	// VariantFloat marks a Number backed by a float64.
	VariantFloat
)

// Number is a total-ordered scalar: either a signed 64-bit integer or a
// finite (non-NaN, non-Inf) 64-bit float. Zero value is Integer(0).
type Number struct {
	variant Variant
	i       int64
	f       float64
}

// Int wraps an int64 as an Integer-variant Number.
func Int(v int64) Number {
	return Number{variant: VariantInteger, i: v}
}

// Flt wraps a float64 as a Float-variant Number. Panics if v is NaN or Inf;
// callers parsing untrusted input should use Parse instead.
func Flt(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic("number: Flt called with NaN or Inf")
	}
	return Number{variant: VariantFloat, f: v}
}

// Parse decodes a decimal UTF-8 string into a Number. It first tries a
// signed 64-bit integer; on failure it tries a finite 64-bit float. NaN and
// Inf textual forms ("NaN", "Inf", "+Inf") are rejected.
func Parse(s string) (Number, error) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, fmt.Errorf("%w: %q", ErrNotANumber, s)
	}
	return Number{variant: VariantFloat, f: f}, nil
}

// Variant reports which representation this Number holds.
func (n Number) Variant() Variant { return n.variant }

// Int64 returns the integer payload; only meaningful when Variant() ==
// VariantInteger.
func (n Number) Int64() int64 { return n.i }

// Float64 returns the float payload; only meaningful when Variant() ==
// VariantFloat.
func (n Number) Float64() float64 { return n.f }

// Compare returns -1, 0, or 1 comparing n to other. Comparing across
// variants (one Integer, one Float) returns ErrMixedVariant: a single
// ranked attribute must agree on variant across all documents, and the
// query engine's SortByAttr criterion must detect this rather than
// silently coerce.
func (n Number) Compare(other Number) (int, error) {
	if n.variant != other.variant {
		return 0, ErrMixedVariant
	}
	switch n.variant {
	case VariantInteger:
		switch {
		case n.i < other.i:
			return -1, nil
		case n.i > other.i:
			return 1, nil
		default:
			return 0, nil
		}
	default: // VariantFloat, IEEE-754 total ordering on a non-NaN payload
		switch {
		case n.f < other.f:
			return -1, nil
		case n.f > other.f:
			return 1, nil
		case math.Signbit(n.f) && !math.Signbit(other.f):
			return -1, nil // -0 before +0
		case !math.Signbit(n.f) && math.Signbit(other.f):
			return 1, nil
		default:
			return 0, nil
		}
	}
}

// String renders the Number back to decimal text.
func (n Number) String() string {
	if n.variant == VariantInteger {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}
