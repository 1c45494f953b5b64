package objectspace

import "math"

// Kind discriminates canonical value variants. The four scalar kinds
// (KindInt, KindFloat, KindBool, KindString) are also the domains over
// which exact-key and range lookups are defined.
type Kind uint8

// Canonical value kinds.
const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Key is a tagged scalar used for exact-key lookups and as a range
// bound. The zero Key is invalid; build keys with [Int], [Float],
// [Bool] or [String].
type Key struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Int returns an integer-domain key.
func Int(v int64) Key { return Key{kind: KindInt, i: v} }

// Float returns a float-domain key.
//
// A NaN value is accepted here but rejected with [ErrNaN] by every
// operation the key is passed to.
func Float(v float64) Key { return Key{kind: KindFloat, f: v} }

// Bool returns a boolean-domain key. Booleans order false before true.
func Bool(v bool) Key { return Key{kind: KindBool, b: v} }

// String returns a string-domain key.
func String(v string) Key { return Key{kind: KindString, s: v} }

// Kind reports the scalar domain of the key, or KindInvalid for the
// zero Key.
func (k Key) Kind() Kind { return k.kind }

// Equal reports whether two keys have the same domain and value.
func (k Key) Equal(other Key) bool { return k == other }

// Less reports whether k orders before other. Only meaningful for keys
// of the same domain.
func (k Key) Less(other Key) bool {
	switch k.kind {
	case KindBool:
		return !k.b && other.b
	case KindInt:
		return k.i < other.i
	case KindFloat:
		return k.f < other.f
	case KindString:
		return k.s < other.s
	default:
		return false
	}
}

// check validates a key for use in a query.
func (k Key) check() error {
	switch k.kind {
	case KindInt, KindBool, KindString:
		return nil
	case KindFloat:
		if math.IsNaN(k.f) {
			return ErrNaN
		}

		return nil
	default:
		return ErrInvalidKey
	}
}

// Range selects keys between an optional lower and an optional upper
// bound, each either inclusive or exclusive. The zero Range is
// unbounded on both sides and matches every key of the field's domain.
type Range struct {
	lo, hi         Key
	loExcl, hiExcl bool
}

// Span returns the half-open range [lo, hi).
func Span(lo, hi Key) Range { return Range{lo: lo, hi: hi, hiExcl: true} }

// SpanClosed returns the closed range [lo, hi].
func SpanClosed(lo, hi Key) Range { return Range{lo: lo, hi: hi} }

// AtLeast returns the range [lo, +inf).
func AtLeast(lo Key) Range { return Range{lo: lo} }

// Above returns the range (lo, +inf).
func Above(lo Key) Range { return Range{lo: lo, loExcl: true} }

// AtMost returns the range (-inf, hi].
func AtMost(hi Key) Range { return Range{hi: hi} }

// Below returns the range (-inf, hi).
func Below(hi Key) Range { return Range{hi: hi, hiExcl: true} }

// Kind reports the scalar domain of the range bounds, or KindInvalid
// for a fully unbounded range.
func (r Range) Kind() Kind {
	if r.lo.kind != KindInvalid {
		return r.lo.kind
	}

	return r.hi.kind
}

// Contains reports whether k satisfies both bounds. The key is assumed
// to share the range's domain.
func (r Range) Contains(k Key) bool {
	if r.lo.kind != KindInvalid {
		if k.Less(r.lo) {
			return false
		}

		if r.loExcl && k.Equal(r.lo) {
			return false
		}
	}

	return !r.pastUpper(k)
}

// pastUpper reports whether k lies beyond the upper bound. Used to stop
// ascending scans early.
func (r Range) pastUpper(k Key) bool {
	if r.hi.kind == KindInvalid {
		return false
	}

	if r.hi.Less(k) {
		return true
	}

	return r.hiExcl && k.Equal(r.hi)
}

// check validates the range bounds for use in a query.
func (r Range) check() error {
	for _, bound := range []Key{r.lo, r.hi} {
		if bound.kind == KindInvalid {
			continue
		}

		if err := bound.check(); err != nil {
			return err
		}
	}

	if r.lo.kind != KindInvalid && r.hi.kind != KindInvalid && r.lo.kind != r.hi.kind {
		return ErrFieldDomain
	}

	return nil
}
