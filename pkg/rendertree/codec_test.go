package rendertree_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

func TestParseYAMLKeepsOrder(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "field.yaml"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	tree, err := rendertree.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	wantKeys := []string{"#theme", "#title", "#label_display", "#weight", "zeta", "alpha", "#items", "middle"}
	if diff := cmp.Diff(wantKeys, tree.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"zeta", "alpha", "middle"}, tree.Children().Keys()); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"alpha", "middle", "zeta"}, tree.SortedChildren().Keys()); diff != "" {
		t.Fatalf("sorted children mismatch (-want +got):\n%s", diff)
	}

	zeta, ok := tree.Get("zeta")
	if !ok {
		t.Fatalf("expected zeta child")
	}
	child, isTree := zeta.(rendertree.Tree)
	if !isTree {
		t.Fatalf("expected nested Tree, got %T", zeta)
	}
	if weight, _ := child.Get("#weight"); weight != 2 {
		t.Fatalf("expected integer weight 2, got %#v", weight)
	}

	items, _ := tree.Get("#items")
	if diff := cmp.Diff([]any{"zeta", "alpha"}, items); diff != "" {
		t.Fatalf("items mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONKeepsOrder(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "field.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	tree, err := rendertree.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]string{"second", "first"}, tree.Children().Keys()); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyAndInvalid(t *testing.T) {
	for _, input := range []string{"", "   \n", "null"} {
		tree, err := rendertree.Parse([]byte(input))
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if tree == nil || tree.Len() != 0 {
			t.Fatalf("parse %q: expected empty tree, got %#v", input, tree)
		}
	}

	for _, input := range []string{"- a\n- b\n", "just a string", "[1, 2]"} {
		if _, err := rendertree.Parse([]byte(input)); !errors.Is(err, rendertree.ErrInvalidInput) {
			t.Fatalf("parse %q: expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestParseMergeKeys(t *testing.T) {
	data := []byte(`
base: &base
  "#type": link
  "#weight": 1
child:
  <<: *base
  "#weight": 5
`)
	tree, err := rendertree.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	raw, _ := tree.Get("child")
	child := raw.(rendertree.Tree)
	want := rendertree.Tree{
		{Key: "#type", Value: "link"},
		{Key: "#weight", Value: 5},
	}
	if diff := cmp.Diff(want, child); diff != "" {
		t.Fatalf("merged child mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeJSONRoundTripKeepsOrder(t *testing.T) {
	tree := rendertree.New(
		rendertree.Entry{Key: "#type", Value: "container"},
		rendertree.Entry{Key: "zeta", Value: rendertree.Tree{{Key: "#markup", Value: "Z"}}},
		rendertree.Entry{Key: "alpha", Value: []any{"a", 1}},
	)

	payload, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"#type":"container","zeta":{"#markup":"Z"},"alpha":["a",1]}`
	if string(payload) != want {
		t.Fatalf("marshal mismatch\nwant: %s\n got: %s", want, payload)
	}

	var decoded struct {
		Field rendertree.Tree `json:"field"`
	}
	if err := json.Unmarshal([]byte(`{"field":`+string(payload)+`}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"#type", "zeta", "alpha"}, decoded.Field.Keys()); diff != "" {
		t.Fatalf("decoded keys mismatch (-want +got):\n%s", diff)
	}
}

func TestParseJSONEscapesAndNumbers(t *testing.T) {
	data := []byte(`{"a\/b": "x\/y", "été": "ok", "count": 3, "ratio": 0.5, "big": 1e400, "dup": 1, "tail": null, "dup": 2}`)

	want := rendertree.Tree{
		{Key: "a/b", Value: "x/y"},
		{Key: "été", Value: "ok"},
		{Key: "count", Value: 3},
		{Key: "ratio", Value: 0.5},
		{Key: "big", Value: "1e400"},
		{Key: "dup", Value: 2},
		{Key: "tail", Value: nil},
	}

	tree, err := rendertree.Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(want, tree); diff != "" {
		t.Fatalf("parse mismatch (-want +got):\n%s", diff)
	}

	var decoded rendertree.Tree
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(want, decoded); diff != "" {
		t.Fatalf("unmarshal mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalJSONRejectsNonObjects(t *testing.T) {
	var decoded struct {
		Field rendertree.Tree `json:"field"`
	}
	err := json.Unmarshal([]byte(`{"field": ["a"]}`), &decoded)
	if !errors.Is(err, rendertree.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	decoded.Field = rendertree.Tree{{Key: "kept"}}
	if err := json.Unmarshal([]byte(`{"field": null}`), &decoded); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if diff := cmp.Diff([]string{"kept"}, decoded.Field.Keys()); diff != "" {
		t.Fatalf("null should leave the tree unchanged (-want +got):\n%s", diff)
	}
}
