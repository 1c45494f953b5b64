// Package objectspace provides a concurrent, process-local associative
// value store in the tradition of tuple spaces.
//
// Producers deposit typed Go values with [Write]; consumers locate values
// of a type by whole type, by exact field value, or by field range, and
// either copy them out (read) or remove them (take). Read and take come
// in non-blocking (Try*) and blocking forms; the blocking forms suspend
// until a matching value is written. The space is the coordination
// primitive: workers need no queues, locks, or channels of their own.
//
// # Basic Usage
//
//	space := objectspace.New()
//
//	if err := objectspace.Write(space, Task{Start: 0, End: 10}); err != nil {
//	    // value could not be serialized
//	}
//
//	// Non-blocking: returns immediately.
//	task, ok, err := objectspace.TryTakeKey[Task](space, "finished", objectspace.Bool(false))
//
//	// Blocking: waits until a Task with finished == true arrives.
//	task, err = objectspace.TakeKey[Task](ctx, space, "finished", objectspace.Bool(true))
//
// # Field paths
//
// Values are stored in a canonical serialized form; nested struct fields
// are addressed with dotted paths ("person.count"). The path separator
// is not escaped, so field names containing '.' are rejected at write
// time. For scalar types (int64, string, ...) the empty path addresses
// the value itself. Arrays are stored whole and are not indexable.
//
// Numeric fields are classified by their serialized literal: a number
// without a fractional part indexes under the integer domain, everything
// else under the float domain. A float64 field holding 3.0 serializes as
// "3" and must therefore be queried with [Int], not [Float].
//
// # Concurrency
//
// All operations are safe for concurrent use on a shared [Space].
// Blocking operations wait on a per-type broadcast and re-check after
// every write of that type; there is no fairness between blocked
// consumers. Blocking operations honor context cancellation and
// otherwise wait indefinitely.
//
// # Error Handling
//
// Usage errors ([ErrNotSerializable], [ErrNaN], [ErrUnknownField],
// [ErrFieldDomain], [ErrInvalidKey]) abort the calling operation only;
// the space remains usable. "No match" is not an error: Try* forms
// report it with a false boolean, the *All forms with an empty slice.
package objectspace
