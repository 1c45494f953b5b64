package objectspace

import (
	"fmt"
	"sync"

	"github.com/google/btree"
)

// slot is one stored value. Slot ids increase monotonically per entry
// and are never reused.
type slot struct {
	id  uint64
	val value
}

// entry holds every live value of one stored type: the slot table,
// one secondary index per indexable dotted path, and the wait state for
// blocking consumers of that type.
//
// All entry methods must be called with mu held. Blocking callers grab
// wake under mu, release mu, and wait for the channel to close; Write
// closes and replaces it on every successful insert (broadcast).
type entry struct {
	mu   sync.Mutex
	wake chan struct{}

	slots *btree.BTreeG[slot]
	index map[string]*fieldIndex
	next  uint64
}

func newEntry() *entry {
	return &entry{
		wake:  make(chan struct{}),
		slots: btree.NewG(btreeDegree, func(a, b slot) bool { return a.id < b.id }),
		index: make(map[string]*fieldIndex),
	}
}

// leaf is one indexable scalar of a flattened value.
type leaf struct {
	path string
	key  Key
}

// indexableLeaves enumerates the scalar leaves of a flattened value.
// A scalar root indexes under the empty path; arrays, nulls and (for
// the root) objects-of-arrays contribute nothing.
func indexableLeaves(v value) []leaf {
	if v.kind == KindObject {
		leaves := make([]leaf, 0, len(v.obj))

		for _, f := range v.obj {
			if k, ok := f.val.scalarKey(); ok {
				leaves = append(leaves, leaf{path: f.name, key: k})
			}
		}

		return leaves
	}

	if k, ok := v.scalarKey(); ok {
		return []leaf{{path: "", key: k}}
	}

	return nil
}

// insert stores a flattened value under a fresh slot id and registers
// it in every applicable secondary index. Domain conflicts are detected
// before anything is mutated, so a failed insert leaves no trace.
func (e *entry) insert(v value) error {
	leaves := indexableLeaves(v)

	for _, lf := range leaves {
		if err := lf.key.check(); err != nil {
			return err
		}

		if fi := e.index[lf.path]; fi != nil && fi.kind != lf.key.kind {
			return fmt.Errorf("%w: field %q is %s, got %s",
				ErrFieldDomain, lf.path, fi.kind, lf.key.kind)
		}
	}

	id := e.next
	e.next++

	e.slots.ReplaceOrInsert(slot{id: id, val: v})

	for _, lf := range leaves {
		fi := e.index[lf.path]
		if fi == nil {
			fi = newFieldIndex(lf.key.kind)
			e.index[lf.path] = fi
		}

		fi.insert(lf.key, id)
	}

	return nil
}

// removeSlot deletes a slot from the slot table and from every index
// bucket that referenced it, navigating by the slot's own value.
func (e *entry) removeSlot(s slot) {
	e.slots.Delete(s)

	for _, lf := range indexableLeaves(s.val) {
		if fi := e.index[lf.path]; fi != nil {
			fi.remove(lf.key, s.id)
		}
	}
}

// resolve maps a slot id from an index bucket back to its value.
func (e *entry) resolve(id uint64) (slot, bool) {
	return e.slots.Get(slot{id: id})
}

// lookupIndex finds the secondary index for path and verifies the query
// domain against it. A nil index with nil error means the entry has
// never held a value: the query simply finds no match, so a blocking
// consumer that arrives before the first write can wait.
func (e *entry) lookupIndex(path string, kind Kind) (*fieldIndex, error) {
	fi := e.index[path]
	if fi == nil {
		if len(e.index) == 0 && e.slots.Len() == 0 {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %q", ErrUnknownField, path)
	}

	if kind != KindInvalid && fi.kind != kind {
		return nil, fmt.Errorf("%w: field %q is %s, got %s", ErrFieldDomain, path, fi.kind, kind)
	}

	return fi, nil
}

// peekAny returns the earliest-inserted slot's value.
func (e *entry) peekAny() (value, bool, error) {
	s, ok := e.slots.Min()

	return s.val, ok, nil
}

func (e *entry) removeAny() (value, bool, error) {
	s, ok := e.slots.Min()
	if !ok {
		return value{}, false, nil
	}

	e.removeSlot(s)

	return s.val, true, nil
}

// peekAll returns every live value in insertion order.
func (e *entry) peekAll() ([]value, error) {
	out := make([]value, 0, e.slots.Len())

	e.slots.Ascend(func(s slot) bool {
		out = append(out, s.val)

		return true
	})

	return out, nil
}

// removeAll empties the entry wholesale and returns the removed values
// in insertion order. Indexes keep their domains so the schema survives.
func (e *entry) removeAll() ([]value, error) {
	out, _ := e.peekAll()

	e.slots.Clear(false)

	for _, fi := range e.index {
		fi.reset()
	}

	return out, nil
}

func (e *entry) peekKey(path string, k Key) (value, bool, error) {
	fi, err := e.keyIndex(path, k)
	if err != nil || fi == nil {
		return value{}, false, err
	}

	id, ok := fi.firstEq(k)
	if !ok {
		return value{}, false, nil
	}

	s, _ := e.resolve(id)

	return s.val, true, nil
}

func (e *entry) removeKey(path string, k Key) (value, bool, error) {
	fi, err := e.keyIndex(path, k)
	if err != nil || fi == nil {
		return value{}, false, err
	}

	id, ok := fi.firstEq(k)
	if !ok {
		return value{}, false, nil
	}

	s, _ := e.resolve(id)
	e.removeSlot(s)

	return s.val, true, nil
}

func (e *entry) peekAllKey(path string, k Key) ([]value, error) {
	fi, err := e.keyIndex(path, k)
	if err != nil || fi == nil {
		return nil, err
	}

	return e.resolveAll(fi.allEq(k)), nil
}

func (e *entry) removeAllKey(path string, k Key) ([]value, error) {
	fi, err := e.keyIndex(path, k)
	if err != nil || fi == nil {
		return nil, err
	}

	return e.removeIDs(fi.allEq(k)), nil
}

func (e *entry) peekRange(path string, r Range) (value, bool, error) {
	fi, err := e.rangeIndex(path, r)
	if err != nil || fi == nil {
		return value{}, false, err
	}

	id, ok := fi.firstInRange(r)
	if !ok {
		return value{}, false, nil
	}

	s, _ := e.resolve(id)

	return s.val, true, nil
}

func (e *entry) removeRange(path string, r Range) (value, bool, error) {
	fi, err := e.rangeIndex(path, r)
	if err != nil || fi == nil {
		return value{}, false, err
	}

	id, ok := fi.firstInRange(r)
	if !ok {
		return value{}, false, nil
	}

	s, _ := e.resolve(id)
	e.removeSlot(s)

	return s.val, true, nil
}

func (e *entry) peekAllRange(path string, r Range) ([]value, error) {
	fi, err := e.rangeIndex(path, r)
	if err != nil || fi == nil {
		return nil, err
	}

	return e.resolveAll(fi.allInRange(r)), nil
}

func (e *entry) removeAllRange(path string, r Range) ([]value, error) {
	fi, err := e.rangeIndex(path, r)
	if err != nil || fi == nil {
		return nil, err
	}

	return e.removeIDs(fi.allInRange(r)), nil
}

func (e *entry) keyIndex(path string, k Key) (*fieldIndex, error) {
	if err := k.check(); err != nil {
		return nil, err
	}

	return e.lookupIndex(path, k.kind)
}

func (e *entry) rangeIndex(path string, r Range) (*fieldIndex, error) {
	if err := r.check(); err != nil {
		return nil, err
	}

	return e.lookupIndex(path, r.Kind())
}

func (e *entry) resolveAll(ids []uint64) []value {
	out := make([]value, 0, len(ids))

	for _, id := range ids {
		if s, ok := e.resolve(id); ok {
			out = append(out, s.val)
		}
	}

	return out
}

func (e *entry) removeIDs(ids []uint64) []value {
	out := make([]value, 0, len(ids))

	for _, id := range ids {
		s, ok := e.resolve(id)
		if !ok {
			continue
		}

		e.removeSlot(s)
		out = append(out, s.val)
	}

	return out
}
