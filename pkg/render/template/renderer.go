package template

import (
	"io"
)

// TemplateRenderer mirrors the github.com/goliatone/go-template engine
// contract, extended with function registration so helpers such as
// field_children and property can be exposed to templates.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	RegisterFunc(name string, fn any) error
	GlobalContext(data any) error
}

// FuncRegistrar is the subset of TemplateRenderer needed to install helpers.
type FuncRegistrar interface {
	RegisterFunc(name string, fn any) error
}

// RegisterFuncs installs every function in funcs on r, stopping at the first
// failure.
func RegisterFuncs(r FuncRegistrar, funcs map[string]any) error {
	for name, fn := range funcs {
		if err := r.RegisterFunc(name, fn); err != nil {
			return err
		}
	}
	return nil
}
