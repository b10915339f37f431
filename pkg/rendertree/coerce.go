package rendertree

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidInput is returned when a value that is not a mapping is used where
// a render tree is expected.
var ErrInvalidInput = errors.New("rendertree: invalid input")

// From coerces v into a Tree. Accepted inputs are Tree, *Tree, map[string]any
// and any other map keyed by strings. Go maps carry no order, so their entries
// are sorted by key to keep output deterministic. A nil input yields an empty
// tree; anything else fails with ErrInvalidInput.
func From(v any) (Tree, error) {
	switch tv := v.(type) {
	case nil:
		return Tree{}, nil
	case Tree:
		if tv == nil {
			return Tree{}, nil
		}
		return tv, nil
	case *Tree:
		if tv == nil || *tv == nil {
			return Tree{}, nil
		}
		return *tv, nil
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for key := range tv {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		tree := make(Tree, 0, len(keys))
		for _, key := range keys {
			tree = append(tree, Entry{Key: key, Value: tv[key]})
		}
		return tree, nil
	}

	rv, ok := stringKeyedMap(v)
	if !ok {
		return nil, invalidInput(v)
	}
	if !rv.IsValid() {
		return Tree{}, nil
	}

	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	tree := make(Tree, 0, len(keys))
	for _, key := range keys {
		tree = append(tree, Entry{Key: key.String(), Value: rv.MapIndex(key).Interface()})
	}
	return tree, nil
}

// Lookup reads key from any value From accepts without materialising a Tree
// for map inputs. The boolean reports presence; nil input reports absence.
func Lookup(v any, key string) (any, bool, error) {
	switch tv := v.(type) {
	case nil:
		return nil, false, nil
	case Tree:
		value, ok := tv.Get(key)
		return value, ok, nil
	case *Tree:
		if tv == nil {
			return nil, false, nil
		}
		value, ok := tv.Get(key)
		return value, ok, nil
	case map[string]any:
		value, ok := tv[key]
		return value, ok, nil
	}

	rv, ok := stringKeyedMap(v)
	if !ok {
		return nil, false, invalidInput(v)
	}
	if !rv.IsValid() {
		return nil, false, nil
	}
	value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
	if !value.IsValid() {
		return nil, false, nil
	}
	return value.Interface(), true, nil
}

// stringKeyedMap unwraps pointers and reports whether v is a map keyed by a
// string kind. A nil pointer yields an invalid value with ok set.
func stringKeyedMap(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, true
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	return rv, true
}

func invalidInput(v any) error {
	return fmt.Errorf("%w: expected a mapping, got %T", ErrInvalidInput, v)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
