package gotemplate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"

	"github.com/goliatone/go-fieldutils/pkg/render"
	"github.com/goliatone/go-fieldutils/pkg/render/template"
)

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir      string
	templates    fs.FS
	extension    string
	templateFn   map[string]any
	globalData   map[string]any
	logger       *slog.Logger
	fieldHelpers bool
	helperNames  render.TemplateFuncsConfig
	preHooks     []gotemplatepkg.PreHook
	postHooks    []gotemplatepkg.PostHook
}

// WithBaseDir loads templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from an fs.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = files
	}
}

// WithExtension overrides the ".tpl" extension appended to template names.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		cfg.extension = trimmed
	}
}

// WithTemplateFunc registers extra functions (or pongo2 filters) on load.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(cfg *config) {
		if len(funcs) == 0 {
			return
		}
		if cfg.templateFn == nil {
			cfg.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			cfg.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globalData == nil {
			cfg.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithLogger routes engine diagnostics to logger. The default discards them.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithoutFieldHelpers skips registering field_children, property and
// sorted_children on construction.
func WithoutFieldHelpers() Option {
	return func(cfg *config) {
		cfg.fieldHelpers = false
	}
}

// WithFieldHelperNames renames the field helpers registered on construction.
func WithFieldHelperNames(names render.TemplateFuncsConfig) Option {
	return func(cfg *config) {
		cfg.helperNames = names
	}
}

// WithPreHooks runs hooks before each render. A pre hook may swap the
// template name, inline content or data through the go-template HookContext.
func WithPreHooks(hooks ...gotemplatepkg.PreHook) Option {
	return func(cfg *config) {
		cfg.preHooks = append(cfg.preHooks, hooks...)
	}
}

// WithPostHooks runs hooks after each render; each receives the previous
// output in HookContext.Output and returns the replacement.
func WithPostHooks(hooks ...gotemplatepkg.PostHook) Option {
	return func(cfg *config) {
		cfg.postHooks = append(cfg.postHooks, hooks...)
	}
}

// Engine satisfies template.TemplateRenderer with a pongo2 template set. Hooks
// follow the github.com/goliatone/go-template contract, but template data is
// converted without a JSON round trip so render trees keep their order.
type Engine struct {
	mu sync.RWMutex

	templateSet *pongo2.TemplateSet
	templates   map[string]*pongo2.Template
	tplExt      string
	logger      *slog.Logger
	hooks       *gotemplatepkg.HookManager
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine. Unless WithoutFieldHelpers is given, the render
// tree helpers are available to every template.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		extension:    ".tpl",
		fieldHelpers: true,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.baseDir == "" && cfg.templates == nil {
		return nil, errors.New("gotemplate: need to provide either base dir or fs.FS")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}

	engine := &Engine{
		templateSet: pongo2.NewSet("fieldutils", loaders...),
		templates:   make(map[string]*pongo2.Template),
		tplExt:      cfg.extension,
		logger:      cfg.logger,
		hooks:       gotemplatepkg.NewHooksManager(),
	}
	registerDefaultFilters()

	for _, hook := range cfg.preHooks {
		engine.RegisterPreHook(hook)
	}
	for _, hook := range cfg.postHooks {
		engine.RegisterPostHook(hook)
	}

	if err := engine.GlobalContext(cfg.globalData); err != nil {
		return nil, fmt.Errorf("gotemplate: apply global data: %w", err)
	}
	if cfg.fieldHelpers {
		if err := template.RegisterFuncs(engine, render.TemplateFuncs(cfg.helperNames)); err != nil {
			return nil, fmt.Errorf("gotemplate: register field helpers: %w", err)
		}
	}
	for name, fn := range cfg.templateFn {
		if err := engine.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("gotemplate: register template func %q: %w", name, err)
		}
	}

	return engine, nil
}

// Render treats name as inline content when it contains template tags and as
// a template name otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if isTemplateContent(name) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate loads (and caches) the named template and executes it.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	return e.render(renderJob{name: name, data: data}, out)
}

// RenderString parses templateContent and executes it without caching.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	return e.render(renderJob{content: templateContent, inline: true, data: data}, out)
}

// RegisterPreHook adds a hook run before every render. Lower priorities run
// first; hooks sharing a priority run in registration order.
func (e *Engine) RegisterPreHook(hook gotemplatepkg.PreHook, priority ...int) {
	if hook != nil {
		e.hooks.AddPreHook(hook, priority...)
	}
}

// RegisterPostHook adds a hook run after every render, ordered like pre hooks.
func (e *Engine) RegisterPostHook(hook gotemplatepkg.PostHook, priority ...int) {
	if hook != nil {
		e.hooks.AddPostHook(hook, priority...)
	}
}

// RegisterFilter registers a template filter. pongo2 filters are process
// wide, so registering an existing name fails.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if strings.TrimSpace(name) == "" || fn == nil {
		return errors.New("gotemplate: filter name and function required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already exists", name)
	}

	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var paramVal any
		if param != nil {
			paramVal = param.Interface()
		}
		result, err := fn(in.Interface(), paramVal)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	}
	if err := pongo2.RegisterFilter(name, filter); err != nil {
		return err
	}
	e.logger.Debug("registered template filter", "name", name)
	return nil
}

// RegisterFunc exposes fn to templates as a callable global named name.
func (e *Engine) RegisterFunc(name string, fn any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("gotemplate: engine is nil")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("gotemplate: function name required")
	}
	if !isCallable(fn) {
		return fmt.Errorf("gotemplate: %q is not a function (got %T)", name, fn)
	}
	return e.registerTemplateFunc(name, fn)
}

// GlobalContext merges data into the globals visible to every template.
func (e *Engine) GlobalContext(data any) error {
	if e == nil || e.templateSet == nil {
		return errors.New("gotemplate: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals.Update(globalCtx)
	return nil
}

type renderJob struct {
	name    string
	content string
	inline  bool
	data    any
}

func (e *Engine) render(job renderJob, out []io.Writer) (string, error) {
	if e == nil || e.templateSet == nil {
		return "", errors.New("gotemplate: engine is nil")
	}

	meta := map[string]any{"ext": e.tplExt}
	for _, hook := range e.hooks.PreHooks() {
		hctx := &gotemplatepkg.HookContext{
			TemplateName: job.name,
			Template:     job.content,
			Data:         job.data,
			Metadata:     meta,
			IsPreHook:    true,
		}
		if err := hook(hctx); err != nil {
			return "", fmt.Errorf("gotemplate: pre-hook: %w", err)
		}
		job.name, job.content, job.data = hctx.TemplateName, hctx.Template, hctx.Data
	}

	tmpl, label, err := e.compile(job)
	if err != nil {
		return "", err
	}

	viewContext, err := convertToContext(job.data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: convert data: %w", err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(viewContext, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", label, err)
	}

	rendered := buf.String()
	for _, hook := range e.hooks.PostHooks() {
		hctx := &gotemplatepkg.HookContext{
			TemplateName: job.name,
			Template:     job.content,
			Data:         job.data,
			Output:       rendered,
			Metadata:     meta,
		}
		if rendered, err = hook(hctx); err != nil {
			return "", fmt.Errorf("gotemplate: post-hook: %w", err)
		}
		job.data = hctx.Data
	}

	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) compile(job renderJob) (*pongo2.Template, string, error) {
	if job.inline {
		tmpl, err := e.templateSet.FromString(job.content)
		if err != nil {
			return nil, "", fmt.Errorf("gotemplate: parse template string: %w", err)
		}
		return tmpl, "template string", nil
	}

	path := job.name
	if !strings.HasSuffix(path, e.tplExt) {
		path += e.tplExt
	}
	tmpl, err := e.cachedTemplate(path)
	if err != nil {
		return nil, "", err
	}
	return tmpl, fmt.Sprintf("template %q", path), nil
}

func (e *Engine) cachedTemplate(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.templateSet.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	e.logger.Debug("cached template", "path", path)
	return tmpl, nil
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}

	if filter, ok := fn.(pongo2.FilterFunction); ok {
		if pongo2.FilterExists(trimmed) {
			return nil
		}
		return pongo2.RegisterFilter(trimmed, filter)
	}
	if !isCallable(fn) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.templateSet.Globals == nil {
		e.templateSet.Globals = make(pongo2.Context)
	}
	e.templateSet.Globals[trimmed] = fn
	e.logger.Debug("registered template function", "name", trimmed)
	return nil
}

func isTemplateContent(s string) bool {
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Kind() == reflect.Func
}
