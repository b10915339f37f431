// Package render exposes render tree helpers (field_children, property,
// sorted_children) as template functions and sanitises "#markup" HTML.
package render

import (
	"strings"

	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

// Default template function names.
const (
	FieldChildrenFunc  = "field_children"
	PropertyFunc       = "property"
	SortedChildrenFunc = "sorted_children"
)

// TemplateFuncsConfig customises the names the field helpers are registered
// under. Empty names fall back to the defaults.
type TemplateFuncsConfig struct {
	FieldChildrenName  string
	PropertyName       string
	SortedChildrenName string
}

// FieldChildren returns the child elements of a field render tree, dropping
// every "#"-prefixed property key while keeping the original order. A nil
// field yields an empty tree so templates can range over empty fields without
// guards.
func FieldChildren(field any) (rendertree.Tree, error) {
	tree, err := rendertree.From(field)
	if err != nil {
		return nil, err
	}
	return tree.Children(), nil
}

// SortedChildren is FieldChildren ordered by each child's "#weight".
func SortedChildren(field any) (rendertree.Tree, error) {
	tree, err := rendertree.From(field)
	if err != nil {
		return nil, err
	}
	return tree.SortedChildren(), nil
}

// Property reads name from a render tree. Missing keys and nil trees return a
// nil value rather than an error.
func Property(element any, name string) (any, error) {
	value, _, err := rendertree.Lookup(element, name)
	if err != nil {
		return nil, err
	}
	return value, nil
}

// TemplateFuncs returns the field helpers keyed by template function name,
// suitable for go-template engines (gotemplate.WithTemplateFunc) as well as
// text/template and html/template func maps.
//
// In templates:
//
//	{% for item in field_children(field) %}{{ property(item.Value, "#markup") }}{% endfor %}
func TemplateFuncs(cfg TemplateFuncsConfig) map[string]any {
	return map[string]any{
		funcName(cfg.FieldChildrenName, FieldChildrenFunc):   FieldChildren,
		funcName(cfg.PropertyName, PropertyFunc):             Property,
		funcName(cfg.SortedChildrenName, SortedChildrenFunc): SortedChildren,
	}
}

func funcName(name, fallback string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return fallback
}
