package objectspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// value is the canonical serialized form of a user value: a tagged tree
// of scalars, opaque arrays and ordered objects. Values are produced by
// canonicalize at write time and turned back into user types by
// decodeInto at read time.
type value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []value
	obj  []field
}

// field is one entry of an ordered object. Insertion order is
// significant: deflatten resolves path collisions first-wins.
type field struct {
	name string
	val  value
}

// fieldValue returns the value of the named field and whether it exists.
func (v value) fieldValue(name string) (value, bool) {
	for _, f := range v.obj {
		if f.name == name {
			return f.val, true
		}
	}

	return value{}, false
}

// scalarKey returns the value as a lookup key if it is scalar.
func (v value) scalarKey() (Key, bool) {
	switch v.kind {
	case KindBool:
		return Bool(v.b), true
	case KindInt:
		return Int(v.i), true
	case KindFloat:
		return Float(v.f), true
	case KindString:
		return String(v.s), true
	default:
		return Key{}, false
	}
}

// canonicalize serializes a user value into canonical form.
//
// The user value is marshaled with encoding/json and re-parsed at the
// token level so that object field order and the integer/float
// distinction of each numeric literal survive.
func canonicalize(v any) (value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		var unsupported *json.UnsupportedValueError
		if errors.As(err, &unsupported) && strings.Contains(unsupported.Str, "NaN") {
			return value{}, ErrNaN
		}

		return value{}, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}

	return parseCanonical(data)
}

// parseCanonical parses JSON bytes into a canonical value.
func parseCanonical(data []byte) (value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := readValue(dec)
	if err != nil {
		return value{}, fmt.Errorf("%w: %v", ErrNotSerializable, err)
	}

	return v, nil
}

func readValue(dec *json.Decoder) (value, error) {
	tok, err := dec.Token()
	if err != nil {
		return value{}, err
	}

	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		default:
			return value{}, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return value{kind: KindString, s: t}, nil
	case bool:
		return value{kind: KindBool, b: t}, nil
	case json.Number:
		return numberValue(t)
	case nil:
		return value{kind: KindNull}, nil
	default:
		return value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

// numberValue classifies a numeric literal: no fractional part or
// exponent means integer, everything else float.
func numberValue(num json.Number) (value, error) {
	lit := num.String()

	if !strings.ContainsAny(lit, ".eE") {
		i, err := num.Int64()
		if err == nil {
			return value{kind: KindInt, i: i}, nil
		}
		// Integral literal outside int64 range; degrade to float.
	}

	f, err := num.Float64()
	if err != nil {
		return value{}, err
	}

	return value{kind: KindFloat, f: f}, nil
}

func readObject(dec *json.Decoder) (value, error) {
	obj := value{kind: KindObject}

	for {
		tok, err := dec.Token()
		if err != nil {
			return value{}, err
		}

		if delim, ok := tok.(json.Delim); ok && delim == '}' {
			return obj, nil
		}

		name, ok := tok.(string)
		if !ok {
			return value{}, fmt.Errorf("object key is not a string: %v", tok)
		}

		val, err := readValue(dec)
		if err != nil {
			return value{}, err
		}

		if _, exists := obj.fieldValue(name); exists {
			// Duplicate field; first occurrence wins.
			continue
		}

		obj.obj = append(obj.obj, field{name: name, val: val})
	}
}

func readArray(dec *json.Decoder) (value, error) {
	arr := value{kind: KindArray, arr: []value{}}

	for {
		tok, err := dec.Token()
		if err != nil {
			return value{}, err
		}

		if delim, ok := tok.(json.Delim); ok && delim == ']' {
			return arr, nil
		}

		val, err := valueFromToken(dec, tok)
		if err != nil {
			return value{}, err
		}

		arr.arr = append(arr.arr, val)
	}
}

// checkFieldNames rejects field names containing the path separator.
// Arrays are not descended: they are stored whole and never flattened,
// so dotted names inside them cannot collide with a path.
func checkFieldNames(v value) error {
	if v.kind != KindObject {
		return nil
	}

	for _, f := range v.obj {
		if strings.Contains(f.name, ".") {
			return fmt.Errorf("%w: %q", ErrDottedField, f.name)
		}

		if err := checkFieldNames(f.val); err != nil {
			return err
		}
	}

	return nil
}

// interfaceValue converts the canonical value into the shape
// encoding/json marshals natively. Object order is irrelevant here:
// the result is only ever unmarshaled into a caller's type.
func (v value) interfaceValue() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, elem := range v.arr {
			out[i] = elem.interfaceValue()
		}

		return out
	case KindObject:
		out := make(map[string]any, len(v.obj))
		for _, f := range v.obj {
			out[f.name] = f.val.interfaceValue()
		}

		return out
	default:
		return nil
	}
}

// decodeInto renders the canonical value back to JSON and unmarshals it
// into out, which must be a non-nil pointer.
func decodeInto(v value, out any) error {
	data, err := json.Marshal(v.interfaceValue())
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	return nil
}
