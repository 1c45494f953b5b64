package objectspace

import "strings"

// flatten hoists the leaves of nested objects to the top level under
// dotted paths: {a:{b:1}} becomes {"a.b":1}. Non-object values are
// returned unchanged, and arrays are kept whole at whatever path they
// appear. Applied once at write time.
func flatten(v value) value {
	if v.kind != KindObject {
		return v
	}

	return value{kind: KindObject, obj: flattenFields(v.obj)}
}

func flattenFields(fields []field) []field {
	out := make([]field, 0, len(fields))
	seen := make(map[string]bool, len(fields))

	add := func(name string, val value) {
		if seen[name] {
			// Path collision; first occurrence wins.
			return
		}

		seen[name] = true
		out = append(out, field{name: name, val: val})
	}

	for _, f := range fields {
		if f.val.kind != KindObject {
			add(f.name, f.val)

			continue
		}

		for _, sub := range flattenFields(f.val.obj) {
			add(f.name+"."+sub.name, sub.val)
		}
	}

	return out
}

// deflatten is the inverse of flatten: each dotted key is split on its
// first '.' and the pieces are rebuilt into nested objects, recursively.
// On collision the first-inserted value wins, except that a grouped
// object displaces a plain field of the same name. Applied once at read
// time, before a value is returned to the caller.
func deflatten(v value) value {
	if v.kind != KindObject {
		return v
	}

	return value{kind: KindObject, obj: deflattenFields(v.obj)}
}

func deflattenFields(fields []field) []field {
	var out []field

	// Dotted fields grouped by their head segment. Each head occupies
	// the position of its first occurrence in out; the grouped object
	// is filled in below and displaces a plain field of the same name.
	groups := make(map[string][]field)

	for _, f := range fields {
		head, tail, dotted := strings.Cut(f.name, ".")
		if !dotted {
			if !hasField(out, f.name) {
				out = append(out, f)
			}

			continue
		}

		if !hasField(out, head) {
			out = append(out, field{name: head})
		}

		if !hasField(groups[head], tail) {
			groups[head] = append(groups[head], field{name: tail, val: f.val})
		}
	}

	for head, sub := range groups {
		out[fieldIndexOf(out, head)].val = value{kind: KindObject, obj: deflattenFields(sub)}
	}

	return out
}

func hasField(fields []field, name string) bool {
	return fieldIndexOf(fields, name) >= 0
}

func fieldIndexOf(fields []field, name string) int {
	for i, f := range fields {
		if f.name == name {
			return i
		}
	}

	return -1
}
