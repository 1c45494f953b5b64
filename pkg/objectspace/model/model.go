// Package model provides a deliberately simple, in-memory model of
// objectspace's publicly observable behavior for a single stored type.
//
// The model is intentionally easy to audit: it keeps values in one
// slice in write order and answers every query with a linear scan
// instead of secondary indices. Property tests drive the real space and
// the model with the same operation sequence and compare results.
package model

import (
	"sort"

	"github.com/calvinalkan/objectspace/pkg/objectspace"
)

// Field extracts the lookup key of one indexable dotted path from a
// value. The model has no canonicalizer, so callers register an
// extractor per path they intend to query.
type Field[T any] func(T) objectspace.Key

// item is one stored value. Ids grow monotonically and are never
// reused, mirroring slot ids in the real space.
type item[T any] struct {
	id  uint64
	val T
}

// Space is the reference model. It is not safe for concurrent use; the
// real space's concurrency is tested separately.
type Space[T any] struct {
	fields map[string]Field[T]
	items  []item[T]
	next   uint64
}

// New returns an empty model with the given path extractors.
func New[T any](fields map[string]Field[T]) *Space[T] {
	return &Space[T]{fields: fields}
}

// Write appends a value.
func (s *Space[T]) Write(v T) {
	s.items = append(s.items, item[T]{id: s.next, val: v})
	s.next++
}

// Len reports the number of live values.
func (s *Space[T]) Len() int { return len(s.items) }

// TryRead returns the earliest-written value.
func (s *Space[T]) TryRead() (T, bool) {
	return s.first(s.matchAll())
}

// TryReadKey returns the earliest-written value whose field at path
// equals key.
func (s *Space[T]) TryReadKey(path string, key objectspace.Key) (T, bool) {
	return s.first(s.matchKey(path, key))
}

// TryReadRange returns the first value in ascending field order whose
// field at path satisfies r.
func (s *Space[T]) TryReadRange(path string, r objectspace.Range) (T, bool) {
	return s.first(s.matchRange(path, r))
}

// ReadAll returns every value in write order.
func (s *Space[T]) ReadAll() []T {
	return s.values(s.matchAll())
}

// ReadAllKey returns every value whose field at path equals key, in
// write order.
func (s *Space[T]) ReadAllKey(path string, key objectspace.Key) []T {
	return s.values(s.matchKey(path, key))
}

// ReadAllRange returns every value whose field at path satisfies r,
// ascending by field value then write order.
func (s *Space[T]) ReadAllRange(path string, r objectspace.Range) []T {
	return s.values(s.matchRange(path, r))
}

// TryTake removes and returns the earliest-written value.
func (s *Space[T]) TryTake() (T, bool) {
	return s.removeFirst(s.matchAll())
}

// TryTakeKey removes and returns the earliest-written value whose field
// at path equals key.
func (s *Space[T]) TryTakeKey(path string, key objectspace.Key) (T, bool) {
	return s.removeFirst(s.matchKey(path, key))
}

// TryTakeRange removes and returns the first value in ascending field
// order whose field at path satisfies r.
func (s *Space[T]) TryTakeRange(path string, r objectspace.Range) (T, bool) {
	return s.removeFirst(s.matchRange(path, r))
}

// TakeAll removes and returns every value in write order.
func (s *Space[T]) TakeAll() []T {
	return s.removeMatches(s.matchAll())
}

// TakeAllKey removes and returns every value whose field at path equals
// key, in write order.
func (s *Space[T]) TakeAllKey(path string, key objectspace.Key) []T {
	return s.removeMatches(s.matchKey(path, key))
}

// TakeAllRange removes and returns every value whose field at path
// satisfies r, ascending by field value then write order.
func (s *Space[T]) TakeAllRange(path string, r objectspace.Range) []T {
	return s.removeMatches(s.matchRange(path, r))
}

// matchAll returns every item in write order.
func (s *Space[T]) matchAll() []item[T] {
	out := make([]item[T], len(s.items))
	copy(out, s.items)

	return out
}

// matchKey returns items whose extracted key equals key, in write order.
func (s *Space[T]) matchKey(path string, key objectspace.Key) []item[T] {
	extract, known := s.fields[path]
	if !known {
		return nil
	}

	var out []item[T]

	for _, it := range s.items {
		if extract(it.val).Equal(key) {
			out = append(out, it)
		}
	}

	return out
}

// matchRange returns items whose extracted key satisfies r, sorted
// ascending by key then by write order.
func (s *Space[T]) matchRange(path string, r objectspace.Range) []item[T] {
	extract, known := s.fields[path]
	if !known {
		return nil
	}

	var out []item[T]

	for _, it := range s.items {
		if r.Contains(extract(it.val)) {
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := extract(out[i].val), extract(out[j].val)
		if a.Equal(b) {
			return out[i].id < out[j].id
		}

		return a.Less(b)
	})

	return out
}

func (s *Space[T]) values(matches []item[T]) []T {
	out := make([]T, len(matches))

	for i, it := range matches {
		out[i] = it.val
	}

	return out
}

func (s *Space[T]) first(matches []item[T]) (T, bool) {
	var zero T

	if len(matches) == 0 {
		return zero, false
	}

	return matches[0].val, true
}

func (s *Space[T]) removeFirst(matches []item[T]) (T, bool) {
	v, ok := s.first(matches)
	if ok {
		s.delete(matches[0].id)
	}

	return v, ok
}

func (s *Space[T]) removeMatches(matches []item[T]) []T {
	out := make([]T, len(matches))

	for i, it := range matches {
		out[i] = it.val
		s.delete(it.id)
	}

	return out
}

func (s *Space[T]) delete(id uint64) {
	for i, it := range s.items {
		if it.id == id {
			s.items = append(s.items[:i], s.items[i+1:]...)

			return
		}
	}
}
