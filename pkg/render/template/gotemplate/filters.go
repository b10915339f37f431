package gotemplate

import (
	"fmt"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-fieldutils/pkg/render"
	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

func registerDefaultFilters() {
	if !pongo2.FilterExists("trim") {
		_ = pongo2.RegisterFilter("trim", filterTrim)
	}
	if !pongo2.FilterExists("markup") {
		_ = pongo2.RegisterFilter("markup", filterMarkup)
	}
}

// filterTrim strips surrounding whitespace; absent values become "".
func filterTrim(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsValue(""), nil
	}
	return pongo2.AsValue(strings.TrimSpace(in.String())), nil
}

// filterMarkup emits sanitised HTML without escaping. The input is either a
// markup string or an element whose "#markup" property holds one. Anything
// that is neither renders as nothing.
func filterMarkup(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	value := in.Interface()
	if _, isString := value.(string); !isString {
		markup, found, err := rendertree.Lookup(value, render.MarkupKey)
		if err != nil || !found {
			return pongo2.AsSafeValue(""), nil
		}
		value = markup
	}
	if value == nil {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(render.SanitizeMarkup(fmt.Sprint(value))), nil
}
