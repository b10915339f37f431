package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-fieldutils"
	"github.com/goliatone/go-fieldutils/pkg/render/template/gotemplate"
	"github.com/goliatone/go-fieldutils/pkg/rendertree"
)

func main() {
	treePath := flag.String("tree", "", "render tree fixture (YAML or JSON)")
	tplPath := flag.String("template", "", "template file (embedded \"field\" template if empty)")
	varName := flag.String("var", "field", "template variable the tree is bound to")
	output := flag.String("output", "", "output file (stdout if empty)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, *treePath, *tplPath, *varName, *output); err != nil {
		logger.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, treePath, tplPath, varName, output string) error {
	if strings.TrimSpace(treePath) == "" {
		return errors.New("-tree is required")
	}

	data, err := os.ReadFile(treePath)
	if err != nil {
		return fmt.Errorf("read tree: %w", err)
	}
	tree, err := rendertree.Parse(data)
	if err != nil {
		return err
	}
	logger.Debug("loaded render tree", "path", treePath, "children", tree.Children().Len())

	opts := []gotemplate.Option{gotemplate.WithLogger(logger)}
	name := "field"
	if tplPath != "" {
		ext := filepath.Ext(tplPath)
		if ext == "" {
			return fmt.Errorf("template %q needs a file extension", tplPath)
		}
		opts = append(opts,
			gotemplate.WithBaseDir(filepath.Dir(tplPath)),
			gotemplate.WithExtension(ext),
		)
		name = strings.TrimSuffix(filepath.Base(tplPath), ext)
	}

	engine, err := fieldutils.NewEngine(opts...)
	if err != nil {
		return err
	}

	rendered, err := engine.RenderTemplate(name, map[string]any{varName: tree})
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Print(rendered)
		return nil
	}
	if err := os.WriteFile(output, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("output written", "path", output)
	return nil
}
