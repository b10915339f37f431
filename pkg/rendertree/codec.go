package rendertree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Parse decodes a render tree from YAML or JSON, keeping mapping order. Empty
// or null documents produce an empty tree. Valid JSON is decoded with JSON
// rules so escapes such as \/ are honoured.
func Parse(data []byte) (Tree, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Tree{}, nil
	}
	if json.Valid(data) {
		return parseJSON(data)
	}
	var tree Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("rendertree: parse: %w", err)
	}
	if tree == nil {
		tree = Tree{}
	}
	return tree, nil
}

// UnmarshalYAML decodes a YAML mapping node. Nested mappings become Trees and
// sequences become []any.
func (t *Tree) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidInput, node.Line)
	}
	tree, err := decodeMapping(node)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. A JSON null leaves
// the tree unchanged.
func (t *Tree) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	tree, err := parseJSON(data)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

// MarshalJSON writes the entries as a JSON object in order.
func (t Tree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(entry.Value)
		if err != nil {
			return nil, fmt.Errorf("rendertree: marshal %q: %w", entry.Key, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func parseJSON(data []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	value, err := decodeJSON(dec)
	if err != nil {
		return nil, fmt.Errorf("rendertree: parse: %w", err)
	}
	switch v := value.(type) {
	case nil:
		return Tree{}, nil
	case Tree:
		return v, nil
	}
	return nil, invalidInput(value)
}

// decodeJSON reads one value from dec. Objects become Trees in document
// order; a repeated key keeps its first position and its last value.
func decodeJSON(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch tok := tok.(type) {
	case json.Delim:
		if tok == '{' {
			tree := Tree{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := decodeJSON(dec)
				if err != nil {
					return nil, err
				}
				tree.Set(key, value)
			}
			_, err := dec.Token()
			return tree, err
		}
		items := []any{}
		for dec.More() {
			value, err := decodeJSON(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
		}
		_, err := dec.Token()
		return items, err
	case json.Number:
		return jsonNumber(tok), nil
	default:
		return tok, nil
	}
}

// jsonNumber matches the YAML decoder: integers become int, the rest float64.
func jsonNumber(n json.Number) any {
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func decodeMapping(node *yaml.Node) (Tree, error) {
	tree := make(Tree, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		if isMergeKey(keyNode) {
			if err := mergeInto(&tree, valueNode); err != nil {
				return nil, err
			}
			continue
		}

		value, err := decodeNode(valueNode)
		if err != nil {
			return nil, err
		}
		tree.Set(keyNode.Value, value)
	}
	return tree, nil
}

func isMergeKey(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Value == "<<" && (node.Tag == "" || node.Tag == "!!merge")
}

// mergeInto applies a YAML merge key. Keys already present win.
func mergeInto(tree *Tree, node *yaml.Node) error {
	sources := []*yaml.Node{node}
	if node.Kind == yaml.SequenceNode {
		sources = node.Content
	}
	for _, src := range sources {
		value, err := decodeNode(src)
		if err != nil {
			return err
		}
		merged, ok := value.(Tree)
		if !ok {
			return fmt.Errorf("%w: line %d: merge value must be a mapping", ErrInvalidInput, src.Line)
		}
		for _, entry := range merged {
			if !tree.Has(entry.Key) {
				tree.Set(entry.Key, entry.Value)
			}
		}
	}
	return nil
}

func decodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return decodeNode(node.Content[0])
	case yaml.AliasNode:
		return decodeNode(node.Alias)
	case yaml.MappingNode:
		return decodeMapping(node)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	default:
		var value any
		if err := node.Decode(&value); err != nil {
			return nil, fmt.Errorf("rendertree: line %d: %w", node.Line, err)
		}
		return value, nil
	}
}
