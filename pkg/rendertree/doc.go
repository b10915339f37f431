// Package rendertree models the render trees produced by a rendering pipeline:
// ordered key/value structures where keys starting with the `#` marker carry
// properties of the element itself and every other key names a nested child
// element. Tree keeps entries in insertion order so templates iterate children
// in the order the pipeline produced them, and the YAML/JSON codec preserves
// that order when fixtures are loaded from disk.
//
// Classification is purely by key name (see IsPropertyKey); value types are
// never inspected to decide whether an entry is a child.
package rendertree
