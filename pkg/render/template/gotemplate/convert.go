package gotemplate

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

// convertToContext turns template data into a pongo2 context. Structs map to
// their JSON field names; rendertree values are kept as they are so the field
// helpers still see ordered entries.
func convertToContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}

	switch v := data.(type) {
	case pongo2.Context:
		return contextFromMap(v)
	case map[string]any:
		return contextFromMap(v)
	case rendertree.Tree:
		return contextFromMap(v.Map())
	case *rendertree.Tree:
		if v == nil {
			return pongo2.Context{}, nil
		}
		return contextFromMap(v.Map())
	}

	converted, err := convertValue(data)
	if err != nil {
		return nil, err
	}
	values, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("gotemplate: template data must be a map or struct, got %T", data)
	}
	return contextFromMap(values)
}

func contextFromMap(values map[string]any) (pongo2.Context, error) {
	ctx := make(pongo2.Context, len(values))
	for key, value := range values {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		converted, err := convertValue(value)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: %s: %w", name, err)
		}
		ctx[name] = converted
	}
	return ctx, nil
}

// convertValue normalises a template value. Trees and functions pass
// through, containers are walked, and only values with their own JSON
// encoding (or maps without string keys) go through encoding/json.
func convertValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case rendertree.Tree:
		return v, nil
	case *rendertree.Tree:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case string, bool, int, int64, float64:
		return v, nil
	case pongo2.Context:
		return convertMap(v)
	case map[string]any:
		return convertMap(v)
	case []any:
		return convertSlice(v)
	case json.Marshaler:
		return viaJSON(v)
	}
	return convertReflect(reflect.ValueOf(value))
}

func convertReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return nil, nil
	case reflect.Func:
		return rv.Interface(), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return convertValue(rv.Elem().Interface())
	case reflect.Struct:
		return convertStruct(rv)
	case reflect.Slice:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return viaJSON(rv.Interface())
		}
		return convertList(rv)
	case reflect.Array:
		return convertList(rv)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return viaJSON(rv.Interface())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			converted, err := convertValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = converted
		}
		return out, nil
	case reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil, fmt.Errorf("unsupported template value of type %s", rv.Type())
	default:
		return rv.Interface(), nil
	}
}

func convertStruct(rv reflect.Value) (map[string]any, error) {
	out := make(map[string]any, rv.NumField())
	if err := collectFields(rv, out); err != nil {
		return nil, err
	}
	return out, nil
}

// collectFields follows encoding/json naming: tags rename or drop fields and
// fields promoted from embedded structs lose to fields declared directly.
func collectFields(rv reflect.Value, out map[string]any) error {
	rt := rv.Type()
	promoted := map[string]any{}

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}
		value := rv.Field(i)

		if field.Anonymous && name == "" {
			embedded := value
			if embedded.Kind() == reflect.Pointer {
				if embedded.IsNil() {
					continue
				}
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := collectFields(embedded, promoted); err != nil {
					return err
				}
				continue
			}
		}

		if !field.IsExported() || !value.CanInterface() {
			continue
		}
		if omitEmpty && value.IsZero() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		converted, err := convertValue(value.Interface())
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		out[name] = converted
	}

	for name, value := range promoted {
		if _, ok := out[name]; !ok {
			out[name] = value
		}
	}
	return nil
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func convertMap(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for key, value := range values {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = converted
	}
	return out, nil
}

func convertSlice(values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, value := range values {
		converted, err := convertValue(value)
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func convertList(rv reflect.Value) ([]any, error) {
	out := make([]any, rv.Len())
	for i := range out {
		converted, err := convertValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = converted
	}
	return out, nil
}

func viaJSON(value any) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: encode %T: %w", value, err)
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("gotemplate: decode %T: %w", value, err)
	}
	return decoded, nil
}
