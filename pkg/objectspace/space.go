package objectspace

import (
	"context"
	"reflect"
	"sync"
)

// Space is the top-level store: a concurrent map from stored value type
// to its entry. Entries are created on first touch by a writer or a
// consumer and are never destroyed.
//
// The zero Space is ready to use, but a Space must not be copied after
// first use. All operations are safe for concurrent use.
type Space struct {
	entries sync.Map // reflect.Type -> *entry
}

// New returns an empty space.
func New() *Space { return &Space{} }

// entryFor returns the entry for t, creating it if needed. Reads stay
// lock-free on the hot path; only the first touch of a type pays for
// the LoadOrStore.
func (s *Space) entryFor(t reflect.Type) *entry {
	if e, ok := s.entries.Load(t); ok {
		return e.(*entry)
	}

	e, _ := s.entries.LoadOrStore(t, newEntry())

	return e.(*entry)
}

// Write deposits a value into the space and wakes every consumer
// blocked on type T.
//
// The value is canonicalized, flattened, and indexed on every scalar
// leaf. Write fails with [ErrNotSerializable], [ErrNaN],
// [ErrDottedField], or [ErrFieldDomain] (when a field's numeric domain
// disagrees with values of T already stored); a failed write leaves the
// space untouched.
func Write[T any](s *Space, v T) error {
	val, err := canonicalize(v)
	if err != nil {
		return err
	}

	if err := checkFieldNames(val); err != nil {
		return err
	}

	flat := flatten(val)

	e := s.entryFor(reflect.TypeOf((*T)(nil)).Elem())

	e.mu.Lock()

	err = e.insert(flat)
	if err == nil {
		// Broadcast: every waiter holds the old channel.
		close(e.wake)
		e.wake = make(chan struct{})
	}

	e.mu.Unlock()

	return err
}

// TryRead returns a copy of some value of type T, earliest written
// first. It does not remove the value and never blocks.
func TryRead[T any](s *Space) (T, bool, error) {
	return tryOne[T](s, (*entry).peekAny)
}

// TryReadKey is [TryRead] restricted to values whose field at path
// equals key.
func TryReadKey[T any](s *Space, path string, key Key) (T, bool, error) {
	return tryOne[T](s, func(e *entry) (value, bool, error) { return e.peekKey(path, key) })
}

// TryReadRange is [TryRead] restricted to values whose field at path
// falls within r; candidates are considered in ascending field order.
func TryReadRange[T any](s *Space, path string, r Range) (T, bool, error) {
	return tryOne[T](s, func(e *entry) (value, bool, error) { return e.peekRange(path, r) })
}

// ReadAll returns copies of every value of type T in insertion order.
func ReadAll[T any](s *Space) ([]T, error) {
	return collect[T](s, (*entry).peekAll)
}

// ReadAllKey returns copies of every value of type T whose field at
// path equals key, in insertion order.
func ReadAllKey[T any](s *Space, path string, key Key) ([]T, error) {
	return collect[T](s, func(e *entry) ([]value, error) { return e.peekAllKey(path, key) })
}

// ReadAllRange returns copies of every value of type T whose field at
// path falls within r, ascending by field value then insertion order.
func ReadAllRange[T any](s *Space, path string, r Range) ([]T, error) {
	return collect[T](s, func(e *entry) ([]value, error) { return e.peekAllRange(path, r) })
}

// Read blocks until some value of type T is present and returns a copy
// of it. Cancel or time out via ctx.
func Read[T any](ctx context.Context, s *Space) (T, error) {
	return waitOne[T](ctx, s, (*entry).peekAny)
}

// ReadKey blocks until a value of type T whose field at path equals key
// is present and returns a copy of it.
func ReadKey[T any](ctx context.Context, s *Space, path string, key Key) (T, error) {
	return waitOne[T](ctx, s, func(e *entry) (value, bool, error) { return e.peekKey(path, key) })
}

// ReadRange blocks until a value of type T whose field at path falls
// within r is present and returns a copy of it.
func ReadRange[T any](ctx context.Context, s *Space, path string, r Range) (T, error) {
	return waitOne[T](ctx, s, func(e *entry) (value, bool, error) { return e.peekRange(path, r) })
}

// TryTake removes and returns some value of type T, earliest written
// first. It never blocks.
func TryTake[T any](s *Space) (T, bool, error) {
	return tryOne[T](s, (*entry).removeAny)
}

// TryTakeKey is [TryTake] restricted to values whose field at path
// equals key.
func TryTakeKey[T any](s *Space, path string, key Key) (T, bool, error) {
	return tryOne[T](s, func(e *entry) (value, bool, error) { return e.removeKey(path, key) })
}

// TryTakeRange is [TryTake] restricted to values whose field at path
// falls within r; candidates are considered in ascending field order.
func TryTakeRange[T any](s *Space, path string, r Range) (T, bool, error) {
	return tryOne[T](s, func(e *entry) (value, bool, error) { return e.removeRange(path, r) })
}

// TakeAll removes and returns every value of type T in insertion order.
func TakeAll[T any](s *Space) ([]T, error) {
	return collect[T](s, (*entry).removeAll)
}

// TakeAllKey removes and returns every value of type T whose field at
// path equals key, in insertion order.
func TakeAllKey[T any](s *Space, path string, key Key) ([]T, error) {
	return collect[T](s, func(e *entry) ([]value, error) { return e.removeAllKey(path, key) })
}

// TakeAllRange removes and returns every value of type T whose field at
// path falls within r, ascending by field value then insertion order.
func TakeAllRange[T any](s *Space, path string, r Range) ([]T, error) {
	return collect[T](s, func(e *entry) ([]value, error) { return e.removeAllRange(path, r) })
}

// Take blocks until some value of type T is present, removes it, and
// returns it. Cancel or time out via ctx.
func Take[T any](ctx context.Context, s *Space) (T, error) {
	return waitOne[T](ctx, s, (*entry).removeAny)
}

// TakeKey blocks until a value of type T whose field at path equals key
// is present, removes it, and returns it.
func TakeKey[T any](ctx context.Context, s *Space, path string, key Key) (T, error) {
	return waitOne[T](ctx, s, func(e *entry) (value, bool, error) { return e.removeKey(path, key) })
}

// TakeRange blocks until a value of type T whose field at path falls
// within r is present, removes it, and returns it.
func TakeRange[T any](ctx context.Context, s *Space, path string, r Range) (T, error) {
	return waitOne[T](ctx, s, func(e *entry) (value, bool, error) { return e.removeRange(path, r) })
}

// selector picks at most one value from an entry; the entry lock is
// held for the duration of the call.
type selector func(*entry) (value, bool, error)

// bulkSelector picks every matching value from an entry.
type bulkSelector func(*entry) ([]value, error)

func tryOne[T any](s *Space, sel selector) (T, bool, error) {
	var zero T

	e := s.entryFor(reflect.TypeOf((*T)(nil)).Elem())

	e.mu.Lock()
	v, ok, err := sel(e)
	e.mu.Unlock()

	if err != nil || !ok {
		return zero, false, err
	}

	out, decErr := materialize[T](v)
	if decErr != nil {
		// The slot does not decode into T; report no value.
		return zero, false, nil
	}

	return out, true, nil
}

func waitOne[T any](ctx context.Context, s *Space, sel selector) (T, error) {
	var zero T

	e := s.entryFor(reflect.TypeOf((*T)(nil)).Elem())

	for {
		e.mu.Lock()
		v, ok, err := sel(e)
		wake := e.wake
		e.mu.Unlock()

		if err != nil {
			return zero, err
		}

		if ok {
			out, decErr := materialize[T](v)
			if decErr == nil {
				return out, nil
			}
			// Non-decodable match; treat as a miss and wait for the
			// next write like any other consumer.
		}

		select {
		case <-wake:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

func collect[T any](s *Space, sel bulkSelector) ([]T, error) {
	e := s.entryFor(reflect.TypeOf((*T)(nil)).Elem())

	e.mu.Lock()
	vals, err := sel(e)
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(vals))

	for _, v := range vals {
		t, decErr := materialize[T](v)
		if decErr != nil {
			// Skip slots that do not decode into T.
			continue
		}

		out = append(out, t)
	}

	return out, nil
}

// materialize deflattens a stored value and decodes it into a fresh T.
// The result shares no memory with the store.
func materialize[T any](v value) (T, error) {
	var out T

	err := decodeInto(deflatten(v), &out)

	return out, err
}
