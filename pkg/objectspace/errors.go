package objectspace

import "errors"

// Sentinel errors returned by objectspace operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, objectspace.ErrUnknownField) {
//	    // the queried path is not part of this type's schema
//	}
var (
	// ErrNotSerializable indicates a value could not be converted to the
	// canonical stored form (for example a channel- or func-typed field).
	//
	// This is a programming error.
	ErrNotSerializable = errors.New("objectspace: value is not serializable")

	// ErrNaN indicates a NaN was encountered where an ordered value is
	// required: in a float field of a written value, in a [Float] key, or
	// in a range bound. NaN has no place in an ordered index.
	ErrNaN = errors.New("objectspace: NaN is not an ordered value")

	// ErrDottedField indicates a written value has a field name containing
	// '.', which would collide with the path separator.
	//
	// Recovery: rename the field or tag it with a dot-free name.
	ErrDottedField = errors.New("objectspace: field name contains '.'")

	// ErrUnknownField indicates a keyed or ranged query named a path that
	// does not exist in the stored type's schema.
	//
	// A type that has never been written does not report this; queries
	// against it simply find no match (or block until a write arrives).
	ErrUnknownField = errors.New("objectspace: no indexed field at path")

	// ErrFieldDomain indicates the scalar domain of a key or range does
	// not match the domain of the field at the queried path, or the two
	// bounds of a range have different domains.
	ErrFieldDomain = errors.New("objectspace: key domain does not match field")

	// ErrInvalidKey indicates a zero-valued [Key] was used in a keyed
	// query. Keys must be built with [Int], [Float], [Bool] or [String].
	//
	// This is a programming error.
	ErrInvalidKey = errors.New("objectspace: invalid key")
)
