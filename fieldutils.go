// Package fieldutils exposes render tree helpers to template engines. The two
// core helpers are:
//
//   - field_children(field): the child elements of a field render tree, with
//     "#"-prefixed property keys removed and the original order kept.
//   - property(element, name): the value stored under name, or nothing when
//     the key is missing.
//
// Use NewEngine for a pongo2 engine with the helpers pre-registered, or
// FuncMap to plug them into text/template and html/template.
package fieldutils

import (
	texttemplate "text/template"

	"github.com/goliatone/go-fieldutils/pkg/render"
	"github.com/goliatone/go-fieldutils/pkg/render/template"
	"github.com/goliatone/go-fieldutils/pkg/render/template/gotemplate"
	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

// Tree aliases rendertree.Tree for callers building render trees.
type Tree = rendertree.Tree

// Entry aliases rendertree.Entry.
type Entry = rendertree.Entry

// TemplateFuncsConfig aliases render.TemplateFuncsConfig to rename helpers.
type TemplateFuncsConfig = render.TemplateFuncsConfig

// ErrInvalidInput is returned when a helper receives something other than a
// mapping.
var ErrInvalidInput = rendertree.ErrInvalidInput

// FieldChildren returns the child elements of field in their original order.
func FieldChildren(field any) (Tree, error) {
	return render.FieldChildren(field)
}

// Property returns the value stored under name, reporting whether it exists.
func Property(element any, name string) (any, bool, error) {
	return rendertree.Lookup(element, name)
}

// ParseTree decodes a YAML or JSON render tree keeping key order.
func ParseTree(data []byte) (Tree, error) {
	return rendertree.Parse(data)
}

// TemplateFuncs returns the helpers under their default names.
func TemplateFuncs() map[string]any {
	return render.TemplateFuncs(render.TemplateFuncsConfig{})
}

// FuncMap returns the helpers as a text/template func map. Convert with
// html/template.FuncMap(fieldutils.FuncMap()) for HTML templates.
func FuncMap() texttemplate.FuncMap {
	return texttemplate.FuncMap(TemplateFuncs())
}

// Register installs the helpers on any engine exposing RegisterFunc.
func Register(r template.FuncRegistrar) error {
	return template.RegisterFuncs(r, TemplateFuncs())
}

// NewEngine builds a pongo2 engine loading the embedded templates, with the
// field helpers and the markup filter registered. Options are applied after
// the defaults so callers can add a base dir or swap the FS.
func NewEngine(options ...gotemplate.Option) (*gotemplate.Engine, error) {
	opts := append([]gotemplate.Option{gotemplate.WithFS(EmbeddedTemplates())}, options...)
	return gotemplate.New(opts...)
}
