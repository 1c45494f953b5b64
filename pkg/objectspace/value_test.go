package objectspace

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func Test_Canonicalize_Classifies_Numbers_By_Serialized_Literal(t *testing.T) {
	t.Parallel()

	in := struct {
		I int64   `json:"i"`
		F float64 `json:"f"`
		G float64 `json:"g"`
	}{I: 3, F: 2.5, G: 3.0}

	v, err := canonicalize(in)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	wantKinds := map[string]Kind{
		"i": KindInt,
		"f": KindFloat,
		"g": KindInt, // 3.0 serializes as "3": no fractional part
	}

	for name, want := range wantKinds {
		fv, ok := v.fieldValue(name)
		if !ok {
			t.Fatalf("field %q missing", name)
		}

		if fv.kind != want {
			t.Fatalf("field %q: got kind %s, want %s", name, fv.kind, want)
		}
	}
}

func Test_Canonicalize_Rejects_NaN(t *testing.T) {
	t.Parallel()

	_, err := canonicalize(struct{ F float64 }{F: math.NaN()})
	if !errors.Is(err, ErrNaN) {
		t.Fatalf("canonicalize with NaN leaf must return ErrNaN; got %v", err)
	}
}

func Test_Canonicalize_Rejects_Unserializable_Values(t *testing.T) {
	t.Parallel()

	_, err := canonicalize(struct{ C chan int }{C: make(chan int)})
	if !errors.Is(err, ErrNotSerializable) {
		t.Fatalf("canonicalize with chan field must return ErrNotSerializable; got %v", err)
	}
}

func Test_Canonicalize_Preserves_Field_Order(t *testing.T) {
	t.Parallel()

	in := struct {
		Z int64  `json:"z"`
		A string `json:"a"`
		M bool   `json:"m"`
	}{Z: 1, A: "x", M: true}

	v, err := canonicalize(in)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	var names []string
	for _, f := range v.obj {
		names = append(names, f.name)
	}

	if !reflect.DeepEqual(names, []string{"z", "a", "m"}) {
		t.Fatalf("field order not preserved: %v", names)
	}
}

func Test_CheckFieldNames_Rejects_Dotted_Names(t *testing.T) {
	t.Parallel()

	v, err := canonicalize(map[string]int64{"a.b": 1})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	if err := checkFieldNames(v); !errors.Is(err, ErrDottedField) {
		t.Fatalf("checkFieldNames must reject dotted field names; got %v", err)
	}
}

func Test_CheckFieldNames_Ignores_Names_Inside_Arrays(t *testing.T) {
	t.Parallel()

	// Arrays are never flattened, so dotted names inside them are
	// harmless.
	v := mustParse(t, `{"xs":[{"a.b":1}]}`)

	if err := checkFieldNames(v); err != nil {
		t.Fatalf("checkFieldNames: %v", err)
	}
}

func Test_DecodeInto_Round_Trips_Nested_Structs(t *testing.T) {
	t.Parallel()

	type person struct {
		Count int64  `json:"count"`
		Name  string `json:"name"`
	}

	type wrapper struct {
		Person person  `json:"person"`
		Tags   []string `json:"tags"`
	}

	in := wrapper{Person: person{Count: 3, Name: "Tuan"}, Tags: []string{"x", "y"}}

	v, err := canonicalize(in)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	var out wrapper

	err = decodeInto(deflatten(flatten(v)), &out)
	if err != nil {
		t.Fatalf("decodeInto: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", out, in)
	}

	// Re-canonicalizing the decoded value must reproduce the canonical
	// tree exactly.
	again, err := canonicalize(out)
	if err != nil {
		t.Fatalf("canonicalize decoded: %v", err)
	}

	if !reflect.DeepEqual(v, again) {
		t.Fatalf("canonical form not stable:\ngot  %+v\nwant %+v", again, v)
	}
}

func Test_ParseCanonical_Keeps_First_Duplicate_Field(t *testing.T) {
	t.Parallel()

	v := mustParse(t, `{"a":1,"a":2}`)

	fv, ok := v.fieldValue("a")
	if !ok || fv.kind != KindInt || fv.i != 1 {
		t.Fatalf("first duplicate must win; got %+v", fv)
	}
}

func Test_IndexableLeaves_Skips_Arrays_And_Nulls(t *testing.T) {
	t.Parallel()

	v := flatten(mustParse(t, `{"n":1,"f":2.5,"b":true,"s":"x","xs":[1,2],"z":null}`))

	leaves := indexableLeaves(v)

	got := make(map[string]Kind, len(leaves))
	for _, lf := range leaves {
		got[lf.path] = lf.key.Kind()
	}

	want := map[string]Kind{"n": KindInt, "f": KindFloat, "b": KindBool, "s": KindString}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("leaves mismatch:\ngot  %v\nwant %v", got, want)
	}
}

func Test_IndexableLeaves_Uses_Empty_Path_For_Scalar_Root(t *testing.T) {
	t.Parallel()

	leaves := indexableLeaves(mustParse(t, `42`))

	if len(leaves) != 1 || leaves[0].path != "" || !leaves[0].key.Equal(Int(42)) {
		t.Fatalf("scalar root must index under the empty path; got %+v", leaves)
	}
}
