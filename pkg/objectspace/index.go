package objectspace

import "github.com/google/btree"

// bucket holds every live slot id whose indexed field equals key.
// Ids are kept in insertion order so "any one" selections are
// deterministic (first-in).
type bucket struct {
	key Key
	ids []uint64
}

// fieldIndex is the secondary index for one dotted path: an ordered map
// from scalar key to bucket. A single B-tree keyed by the tagged [Key]
// serves all four scalar domains; kind pins the domain the path was
// first written with and every later insert and query must match it.
type fieldIndex struct {
	kind Kind
	tree *btree.BTreeG[*bucket]
}

func newFieldIndex(kind Kind) *fieldIndex {
	return &fieldIndex{
		kind: kind,
		tree: btree.NewG(btreeDegree, func(a, b *bucket) bool { return a.key.Less(b.key) }),
	}
}

const btreeDegree = 8

// insert adds id under k, creating the bucket on first use of the key.
func (fi *fieldIndex) insert(k Key, id uint64) {
	b, ok := fi.tree.Get(&bucket{key: k})
	if ok {
		b.ids = append(b.ids, id)

		return
	}

	fi.tree.ReplaceOrInsert(&bucket{key: k, ids: []uint64{id}})
}

// remove deletes id from the bucket at k. An emptied bucket is removed
// from the tree so range scans never visit dead keys.
func (fi *fieldIndex) remove(k Key, id uint64) {
	b, ok := fi.tree.Get(&bucket{key: k})
	if !ok {
		return
	}

	for i, got := range b.ids {
		if got == id {
			b.ids = append(b.ids[:i], b.ids[i+1:]...)

			break
		}
	}

	if len(b.ids) == 0 {
		fi.tree.Delete(b)
	}
}

// firstEq returns the earliest-inserted slot id stored under k.
func (fi *fieldIndex) firstEq(k Key) (uint64, bool) {
	b, ok := fi.tree.Get(&bucket{key: k})
	if !ok || len(b.ids) == 0 {
		return 0, false
	}

	return b.ids[0], true
}

// allEq returns a copy of the slot ids stored under k, in insertion
// order.
func (fi *fieldIndex) allEq(k Key) []uint64 {
	b, ok := fi.tree.Get(&bucket{key: k})
	if !ok {
		return nil
	}

	out := make([]uint64, len(b.ids))
	copy(out, b.ids)

	return out
}

// ascendRange visits the buckets whose keys satisfy r in ascending key
// order, stopping early when yield returns false or the upper bound is
// passed.
func (fi *fieldIndex) ascendRange(r Range, yield func(*bucket) bool) {
	visit := func(b *bucket) bool {
		if r.pastUpper(b.key) {
			return false
		}

		if !r.Contains(b.key) {
			// Below or exactly on an exclusive lower bound; keep going.
			return true
		}

		return yield(b)
	}

	if r.lo.kind != KindInvalid {
		fi.tree.AscendGreaterOrEqual(&bucket{key: r.lo}, visit)

		return
	}

	fi.tree.Ascend(visit)
}

// firstInRange returns the first slot id found scanning buckets in
// ascending key order, then insertion order within a bucket.
func (fi *fieldIndex) firstInRange(r Range) (uint64, bool) {
	var (
		id    uint64
		found bool
	)

	fi.ascendRange(r, func(b *bucket) bool {
		if len(b.ids) == 0 {
			return true
		}

		id = b.ids[0]
		found = true

		return false
	})

	return id, found
}

// allInRange returns every matching slot id, ascending by key then by
// insertion order.
func (fi *fieldIndex) allInRange(r Range) []uint64 {
	var out []uint64

	fi.ascendRange(r, func(b *bucket) bool {
		out = append(out, b.ids...)

		return true
	})

	return out
}

// reset drops every bucket but keeps the domain, so the path stays part
// of the schema after a take-all.
func (fi *fieldIndex) reset() {
	fi.tree.Clear(false)
}
