package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunWritesRenderedTemplate(t *testing.T) {
	dir := t.TempDir()

	treePath := filepath.Join(dir, "tree.json")
	writeFile(t, treePath, `{"#title": "Links", "b": {"#markup": "B"}, "a": {"#markup": "A"}}`)
	tplPath := filepath.Join(dir, "links.html")
	writeFile(t, tplPath, `{{ property(node, "#title") }}:{% for item in field_children(node) %}{{ item.Key }}{% endfor %}`)
	outPath := filepath.Join(dir, "out.html")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(logger, treePath, tplPath, "node", outPath); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(got) != "Links:ba" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRunRequiresTree(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(logger, "", "", "field", "")
	if err == nil || !strings.Contains(err.Error(), "-tree") {
		t.Fatalf("expected missing tree error, got %v", err)
	}
}

func TestRunRejectsNonMappingTree(t *testing.T) {
	dir := t.TempDir()
	treePath := filepath.Join(dir, "tree.yaml")
	writeFile(t, treePath, "- a\n- b\n")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(logger, treePath, "", "field", ""); err == nil {
		t.Fatalf("expected error for list tree")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
