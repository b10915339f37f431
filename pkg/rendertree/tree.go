package rendertree

import (
	"sort"
	"strings"
)

// Marker prefixes property keys (e.g. "#type", "#weight").
const Marker = "#"

const (
	// WeightKey holds the numeric ordering hint of a child element.
	WeightKey = "#weight"
	// SortedKey flags a tree whose children are already in final order.
	SortedKey = "#sorted"
)

// Entry is a single key/value pair of a Tree.
type Entry struct {
	Key   string
	Value any
}

// Tree is an ordered mapping of string keys to values. Values may be scalars,
// lists, or nested Trees. Keys are unique; Set replaces existing entries in
// place so their position is kept.
type Tree []Entry

// IsPropertyKey reports whether key names a property of the element rather
// than a nested child.
func IsPropertyKey(key string) bool {
	return strings.HasPrefix(key, Marker)
}

// IsChildKey reports whether key names a nested child element. The empty key
// counts as a child.
func IsChildKey(key string) bool {
	return !IsPropertyKey(key)
}

// New builds a Tree from entries. Later duplicates replace earlier values.
func New(entries ...Entry) Tree {
	tree := make(Tree, 0, len(entries))
	for _, entry := range entries {
		tree.Set(entry.Key, entry.Value)
	}
	return tree
}

// Len returns the number of entries.
func (t Tree) Len() int {
	return len(t)
}

// Keys returns the keys in order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for _, entry := range t {
		keys = append(keys, entry.Key)
	}
	return keys
}

// Get returns the value stored at key. The boolean is false when the key is
// absent, which is distinct from a key holding a nil value.
func (t Tree) Get(key string) (any, bool) {
	if idx := t.index(key); idx >= 0 {
		return t[idx].Value, true
	}
	return nil, false
}

// Has reports whether key is present.
func (t Tree) Has(key string) bool {
	return t.index(key) >= 0
}

// Set stores value at key, appending new keys at the end.
func (t *Tree) Set(key string, value any) {
	if idx := t.index(key); idx >= 0 {
		(*t)[idx].Value = value
		return
	}
	*t = append(*t, Entry{Key: key, Value: value})
}

// Children returns the child entries in their original relative order. The
// result is never nil and does not share its backing array with t.
func (t Tree) Children() Tree {
	return t.filter(IsChildKey)
}

// Properties returns the property entries in their original relative order.
func (t Tree) Properties() Tree {
	return t.filter(IsPropertyKey)
}

// SortedChildren returns the children ordered by the "#weight" property of
// each child element. The sort is stable and children without a weight count
// as zero. Trees flagged with "#sorted: true" keep their original order.
func (t Tree) SortedChildren() Tree {
	children := t.Children()
	if sorted, ok := t.Get(SortedKey); ok {
		if flag, isBool := sorted.(bool); isBool && flag {
			return children
		}
	}

	weights := make([]float64, len(children))
	weighted := false
	for i, child := range children {
		if w, ok := childWeight(child.Value); ok {
			weights[i] = w
			weighted = true
		}
	}
	if !weighted {
		return children
	}

	order := make([]int, len(children))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weights[order[a]] < weights[order[b]]
	})

	out := make(Tree, 0, len(children))
	for _, idx := range order {
		out = append(out, children[idx])
	}
	return out
}

// Map returns a shallow copy of the entries as a Go map. Order is lost.
func (t Tree) Map() map[string]any {
	out := make(map[string]any, len(t))
	for _, entry := range t {
		out[entry.Key] = entry.Value
	}
	return out
}

func (t Tree) index(key string) int {
	for i, entry := range t {
		if entry.Key == key {
			return i
		}
	}
	return -1
}

func (t Tree) filter(keep func(string) bool) Tree {
	out := make(Tree, 0, len(t))
	for _, entry := range t {
		if keep(entry.Key) {
			out = append(out, entry)
		}
	}
	return out
}

func childWeight(value any) (float64, bool) {
	raw, ok, err := Lookup(value, WeightKey)
	if err != nil || !ok {
		return 0, false
	}
	return toFloat(raw)
}
