package diff

import "github.com/nao1215/desyncdiff/internal/model"

// Values compares two decoded value trees and returns path-qualified
// entries for every difference. Entry order follows key/index iteration
// order; it is not sorted separately.
//
// Associative arrays serialized as pair-lists get logical naming: when
// both sides of a node are maps with exactly the keys {key, value}, the
// last path segment (the structural list index) is replaced by the
// decoded key, so a changed entry reports as data["x"] rather than
// data[0].value.
func Values(left, right *model.Value) []model.DiffEntry {
	var entries []model.DiffEntry
	walk(left, right, model.Path{}, &entries)
	return entries
}

func walk(left, right *model.Value, path model.Path, out *[]model.DiffEntry) {
	if left.Kind() != right.Kind() {
		*out = append(*out, model.DiffEntry{Path: path, Left: left, Right: right})
		return
	}

	switch left.Kind() {
	case model.KindList:
		walkLists(left, right, path, out)
	case model.KindMap:
		walkMaps(left, right, path, out)
	default:
		if !left.Equal(right) {
			*out = append(*out, model.DiffEntry{Path: path, Left: left, Right: right})
		}
	}
}

func walkLists(left, right *model.Value, path model.Path, out *[]model.DiffEntry) {
	n := left.Len()
	if right.Len() > n {
		n = right.Len()
	}
	for i := 0; i < n; i++ {
		sub := path.Child(model.Index(i))
		switch {
		case i < left.Len() && i < right.Len():
			walk(left.Index(i), right.Index(i), sub, out)
		case i < left.Len():
			*out = append(*out, model.DiffEntry{Path: sub, Left: left.Index(i)})
		default:
			*out = append(*out, model.DiffEntry{Path: sub, Right: right.Index(i)})
		}
	}
}

func walkMaps(left, right *model.Value, path model.Path, out *[]model.DiffEntry) {
	if isPair(left) && isPair(right) {
		leftKey, _ := left.Get("key")
		rightKey, _ := right.Get("key")
		named := path.ReplaceLast(model.Derived(leftKey))
		if !leftKey.Equal(rightKey) {
			*out = append(*out, model.DiffEntry{Path: named.Child(model.Key("key")), Left: leftKey, Right: rightKey})
		}
		leftVal, _ := left.Get("value")
		rightVal, _ := right.Get("value")
		walk(leftVal, rightVal, named, out)
		return
	}

	for _, k := range unionKeys(left, right) {
		sub := path.Child(model.Key(k))
		lv, inLeft := left.Get(k)
		rv, inRight := right.Get(k)
		switch {
		case inLeft && inRight:
			walk(lv, rv, sub, out)
		case inLeft:
			*out = append(*out, model.DiffEntry{Path: sub, Left: lv})
		default:
			*out = append(*out, model.DiffEntry{Path: sub, Right: rv})
		}
	}
}

// isPair reports the two-key associative pair shape {key, value}.
func isPair(v *model.Value) bool {
	return v.Len() == 2 && v.Has("key") && v.Has("value")
}

// unionKeys returns left's keys in order followed by right-only keys.
func unionKeys(left, right *model.Value) []string {
	keys := make([]string, 0, left.Len()+right.Len())
	keys = append(keys, left.Keys()...)
	for _, k := range right.Keys() {
		if !left.Has(k) {
			keys = append(keys, k)
		}
	}
	return keys
}
