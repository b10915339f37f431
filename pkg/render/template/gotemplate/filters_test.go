package gotemplate

import (
	"testing"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

func TestFilterTrim(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{name: "padded title", in: "  Tags \n", want: "Tags"},
		{name: "nil", in: nil, want: ""},
		{name: "number", in: 42, want: "42"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := filterTrim(pongo2.AsValue(tc.in), nil)
			if err != nil {
				t.Fatalf("trim: %v", err)
			}
			if got := out.String(); got != tc.want {
				t.Fatalf("trim(%#v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFilterMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{name: "string", in: "<em>ok</em>", want: "<em>ok</em>"},
		{name: "element", in: rendertree.New(rendertree.Entry{Key: "#markup", Value: "<b>x</b><script>x()</script>"}), want: "<b>x</b>"},
		{name: "element without markup", in: rendertree.New(rendertree.Entry{Key: "#theme", Value: "item"}), want: ""},
		{name: "map element", in: map[string]any{"#markup": 7}, want: "7"},
		{name: "list", in: []any{"a", "b"}, want: ""},
		{name: "nil", in: nil, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := filterMarkup(pongo2.AsValue(tc.in), nil)
			if err != nil {
				t.Fatalf("markup: %v", err)
			}
			if got := out.String(); got != tc.want {
				t.Fatalf("markup(%#v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
