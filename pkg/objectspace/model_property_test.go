package objectspace_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/calvinalkan/objectspace/pkg/objectspace"
	"github.com/calvinalkan/objectspace/pkg/objectspace/model"
)

// rec is the record type driven through the property tests. Every field
// sits in a distinct index domain.
type rec struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
	Name  string  `json:"name"`
	Done  bool    `json:"done"`
}

func recFields() map[string]model.Field[rec] {
	return map[string]model.Field[rec]{
		"id":    func(r rec) objectspace.Key { return objectspace.Int(r.ID) },
		"score": func(r rec) objectspace.Key { return objectspace.Float(r.Score) },
		"name":  func(r rec) objectspace.Key { return objectspace.String(r.Name) },
		"done":  func(r rec) objectspace.Key { return objectspace.Bool(r.Done) },
	}
}

func randomRec(rng *rand.Rand) rec {
	return rec{
		ID: rng.Int63n(10),
		// .5 increments keep the score in the float domain on every
		// write: whole floats serialize without a fractional part and
		// would land in the int domain instead.
		Score: float64(rng.Int63n(10)) + 0.5,
		Name:  string(rune('a' + rng.Intn(5))),
		Done:  rng.Intn(2) == 0,
	}
}

func randomKey(rng *rand.Rand) (string, objectspace.Key) {
	switch rng.Intn(4) {
	case 0:
		return "id", objectspace.Int(rng.Int63n(10))
	case 1:
		return "score", objectspace.Float(float64(rng.Int63n(10)) + 0.5)
	case 2:
		return "name", objectspace.String(string(rune('a' + rng.Intn(5))))
	default:
		return "done", objectspace.Bool(rng.Intn(2) == 0)
	}
}

func randomRange(rng *rand.Rand) (string, objectspace.Range) {
	lo := objectspace.Int(rng.Int63n(10))
	hi := objectspace.Int(rng.Int63n(10) + 5)

	switch rng.Intn(5) {
	case 0:
		return "id", objectspace.Span(lo, hi)
	case 1:
		return "id", objectspace.SpanClosed(lo, hi)
	case 2:
		return "id", objectspace.AtLeast(lo)
	case 3:
		return "id", objectspace.Below(hi)
	default:
		return "id", objectspace.Range{}
	}
}

func Test_Space_Agrees_With_Reference_Model(t *testing.T) {
	t.Parallel()

	const (
		seeds = 20
		ops   = 400
	)

	for seed := int64(0); seed < seeds; seed++ {
		seed := seed

		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			t.Parallel()

			rng := rand.New(rand.NewSource(seed))

			space := objectspace.New()
			ref := model.New(recFields())

			for op := 0; op < ops; op++ {
				step := describeStep(t, rng, space, ref)

				// Full-state comparison after every step catches
				// divergence at the operation that introduced it.
				gotAll, err := objectspace.ReadAll[rec](space)
				if err != nil {
					t.Fatalf("op %d (%s): ReadAll: %v", op, step, err)
				}

				if diff := cmp.Diff(nonNil(ref.ReadAll()), nonNil(gotAll)); diff != "" {
					t.Fatalf("op %d (%s): state diverged (-model +space):\n%s", op, step, diff)
				}
			}
		})
	}
}

// describeStep applies one random operation to both stores and fails the
// test if their direct results differ.
func describeStep(t *testing.T, rng *rand.Rand, space *objectspace.Space, ref *model.Space[rec]) string {
	t.Helper()

	switch rng.Intn(10) {
	case 0, 1, 2, 3: // bias toward writes so the stores stay populated
		r := randomRec(rng)

		if err := objectspace.Write(space, r); err != nil {
			t.Fatalf("Write(%+v): %v", r, err)
		}

		ref.Write(r)

		return fmt.Sprintf("write %+v", r)

	case 4:
		got, gotOK, err := objectspace.TryRead[rec](space)
		if err != nil {
			t.Fatalf("TryRead: %v", err)
		}

		want, wantOK := ref.TryRead()
		compareOne(t, "TryRead", got, gotOK, want, wantOK)

		return "try-read"

	case 5:
		path, key := randomKey(rng)

		got, gotOK, err := objectspace.TryTakeKey[rec](space, path, key)
		if err != nil {
			t.Fatalf("TryTakeKey(%s): %v", path, err)
		}

		want, wantOK := ref.TryTakeKey(path, key)
		compareOne(t, "TryTakeKey", got, gotOK, want, wantOK)

		return fmt.Sprintf("try-take-key %s=%v", path, key)

	case 6:
		path, key := randomKey(rng)

		got, err := objectspace.ReadAllKey[rec](space, path, key)
		if err != nil {
			t.Fatalf("ReadAllKey(%s): %v", path, err)
		}

		if diff := cmp.Diff(nonNil(ref.ReadAllKey(path, key)), nonNil(got)); diff != "" {
			t.Fatalf("ReadAllKey(%s) diverged (-model +space):\n%s", path, diff)
		}

		return fmt.Sprintf("read-all-key %s=%v", path, key)

	case 7:
		path, r := randomRange(rng)

		got, gotOK, err := objectspace.TryTakeRange[rec](space, path, r)
		if err != nil {
			t.Fatalf("TryTakeRange(%s): %v", path, err)
		}

		want, wantOK := ref.TryTakeRange(path, r)
		compareOne(t, "TryTakeRange", got, gotOK, want, wantOK)

		return fmt.Sprintf("try-take-range %s", path)

	case 8:
		path, r := randomRange(rng)

		got, err := objectspace.TakeAllRange[rec](space, path, r)
		if err != nil {
			t.Fatalf("TakeAllRange(%s): %v", path, err)
		}

		if diff := cmp.Diff(nonNil(ref.TakeAllRange(path, r)), nonNil(got)); diff != "" {
			t.Fatalf("TakeAllRange(%s) diverged (-model +space):\n%s", path, diff)
		}

		return fmt.Sprintf("take-all-range %s", path)

	default:
		got, gotOK, err := objectspace.TryTake[rec](space)
		if err != nil {
			t.Fatalf("TryTake: %v", err)
		}

		want, wantOK := ref.TryTake()
		compareOne(t, "TryTake", got, gotOK, want, wantOK)

		return "try-take"
	}
}

func compareOne(t *testing.T, op string, got rec, gotOK bool, want rec, wantOK bool) {
	t.Helper()

	if gotOK != wantOK {
		t.Fatalf("%s: match mismatch: space=%v model=%v", op, gotOK, wantOK)
	}

	if gotOK && !cmp.Equal(want, got) {
		t.Fatalf("%s diverged:\nspace %+v\nmodel %+v", op, got, want)
	}
}

// nonNil maps a nil result slice to an empty one; the two stores build
// their outputs differently.
func nonNil(in []rec) []rec {
	if in == nil {
		return []rec{}
	}

	return in
}
