// Package template defines the renderer-agnostic engine seam the field helpers
// are registered against. Adapters live in sub-packages; gotemplate wraps a
// pongo2 template set.
package template
