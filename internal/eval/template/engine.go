package template

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aescanero/dago-node-render/internal/filter"
	"github.com/aymerick/raymond"
	"github.com/aymerick/raymond/ast"
	"github.com/aymerick/raymond/parser"
	"go.uber.org/zap"
)

// FilterHelper is the generic helper reaching any filter, including dynamic ones
const FilterHelper = "filter"

// reservedHelpers are raymond builtins that filters must not shadow
var reservedHelpers = map[string]bool{
	"if":     true,
	"unless": true,
	"with":   true,
	"each":   true,
	"log":    true,
	"lookup": true,
	"equal":  true,

	FilterHelper: true,
}

var (
	anyType     = reflect.TypeOf((*interface{})(nil)).Elem()
	optionsType = reflect.TypeOf((*raymond.Options)(nil))
)

// Engine renders Handlebars templates whose helpers are registry filters
type Engine struct {
	filters *filter.Registry
	logger  *zap.Logger
	cache   map[string]*raymond.Template
	mu      sync.RWMutex
}

// NewEngine creates a new template engine backed by filters
func NewEngine(filters *filter.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		filters: filters,
		logger:  logger,
		cache:   make(map[string]*raymond.Template),
	}
}

// Filters returns the registry backing the engine
func (e *Engine) Filters() *filter.Registry {
	return e.filters
}

// RegisterFilter registers a filter and drops compiled templates so that new
// names become available as helpers
func (e *Engine) RegisterFilter(name string, callback interface{}) {
	e.filters.Register(name, callback)
	e.ClearCache()
}

// Render renders a template with the given data
func (e *Engine) Render(templateStr string, data interface{}) (string, error) {
	// Get or compile template
	tmpl, err := e.getTemplate(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to compile template: %w", err)
	}

	// Execute the template
	result, err := tmpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	return result, nil
}

// RenderPipeline renders a template and applies post filters to the output.
// The rendered output is HTML; each post filter receives the shared content
// context, so classic filters emit warnings and content-aware ones may change
// the final content type.
func (e *Engine) RenderPipeline(templateStr string, data interface{}, post ...string) (string, filter.ContentType, error) {
	out, err := e.Render(templateStr, data)
	if err != nil {
		return "", "", err
	}

	info := filter.NewInfo(filter.HTML)
	var value interface{} = out
	for _, name := range post {
		value, err = e.filters.InvokeContentAware(name, info, value)
		if err != nil {
			return "", "", fmt.Errorf("post filter %q failed: %w", name, err)
		}
	}

	e.logger.Debug("rendered pipeline",
		zap.Strings("post_filters", post),
		zap.String("content_type", string(info.ContentType)),
	)

	return stringify(value), info.ContentType, nil
}

// getTemplate gets a compiled template from cache or compiles it
func (e *Engine) getTemplate(templateStr string) (*raymond.Template, error) {
	// Check cache first (read lock)
	e.mu.RLock()
	if tmpl, ok := e.cache[templateStr]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	// Compile the template (write lock)
	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if tmpl, ok := e.cache[templateStr]; ok {
		return tmpl, nil
	}

	// Parse and compile the template
	program, err := parser.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	tmpl, err := raymond.Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if err := e.bindHelpers(tmpl, program); err != nil {
		return nil, err
	}

	// Cache the template
	e.cache[templateStr] = tmpl

	return tmpl, nil
}

// bindHelpers registers a helper for every filter the template calls. Raymond
// helpers have a fixed arity, so each helper is built with the parameter count
// used at its call sites. Names used without parameters stay data lookups.
func (e *Engine) bindHelpers(tmpl *raymond.Template, program *ast.Program) error {
	uses := helperUses(program)

	names := make([]string, 0, len(uses))
	for name := range uses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		arities := uses[name]
		generic := name == FilterHelper

		if !generic {
			if !e.filters.Has(name) {
				continue
			}
			if reservedHelpers[name] {
				e.logger.Debug("filter shadows a builtin helper, use the filter helper instead",
					zap.String("filter", name),
				)
				continue
			}
		}

		arity, bound, err := callArity(name, arities)
		if err != nil {
			return err
		}
		if !bound {
			continue
		}

		if generic {
			tmpl.RegisterHelper(name, makeHelper(arity, e.genericHelper))
			continue
		}
		tmpl.RegisterHelper(name, makeHelper(arity, e.namedHelper(name)))
	}

	return nil
}

// callArity picks the single parameter count name is called with
func callArity(name string, arities map[int]bool) (int, bool, error) {
	counts := make([]int, 0, len(arities))
	for n := range arities {
		if n > 0 {
			counts = append(counts, n)
		}
	}
	sort.Ints(counts)

	switch {
	case len(counts) == 0:
		return 0, false, nil
	case len(counts) > 1:
		return 0, false, fmt.Errorf("filter %q is called with %d and %d arguments in one template", name, counts[0], counts[1])
	case arities[0]:
		return 0, false, fmt.Errorf("%q is used both as a filter and as a data field in one template", name)
	}

	return counts[0], true, nil
}

// makeHelper builds a raymond helper taking arity parameters and the options
func makeHelper(arity int, call func(options *raymond.Options) interface{}) interface{} {
	in := make([]reflect.Type, arity+1)
	for i := 0; i < arity; i++ {
		in[i] = anyType
	}
	in[arity] = optionsType

	fnType := reflect.FuncOf(in, []reflect.Type{anyType}, false)
	return reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		out := call(args[arity].Interface().(*raymond.Options))
		return []reflect.Value{reflect.ValueOf(&out).Elem()}
	}).Interface()
}

// namedHelper builds the helper for {{name value arg... key=val}}
func (e *Engine) namedHelper(name string) func(options *raymond.Options) interface{} {
	return func(options *raymond.Options) interface{} {
		return e.callFilter(name, options.Params(), options)
	}
}

// genericHelper serves {{filter "name" value arg... key=val}}
func (e *Engine) genericHelper(options *raymond.Options) interface{} {
	params := options.Params()
	return e.callFilter(raymond.Str(params[0]), params[1:], options)
}

// callFilter applies a filter through the classic path. Helpers cannot
// return errors, so failures panic and surface from Exec.
func (e *Engine) callFilter(name string, params []interface{}, options *raymond.Options) interface{} {
	fn, err := e.filters.ResolveClassic(name)
	if err != nil {
		panic(err)
	}

	args := make([]interface{}, 0, len(params)+1)
	for _, param := range params {
		args = append(args, toFilter(param))
	}
	if hash := options.Hash(); len(hash) > 0 {
		args = append(args, hash)
	}

	out, err := fn(args...)
	if err != nil {
		panic(fmt.Errorf("filter %q failed: %w", name, err))
	}

	return toEngine(out)
}

// ValidateTemplate validates a template without rendering it
func (e *Engine) ValidateTemplate(templateStr string) error {
	_, err := raymond.Parse(templateStr)
	return err
}

// ClearCache clears the compiled template cache
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*raymond.Template)
}

// toFilter converts raymond safe strings to filter markup
func toFilter(value interface{}) interface{} {
	if s, ok := value.(raymond.SafeString); ok {
		return filter.Markup(s)
	}
	return value
}

// toEngine converts filter markup to raymond safe strings
func toEngine(value interface{}) interface{} {
	if m, ok := value.(filter.Markup); ok {
		return raymond.SafeString(m)
	}
	return value
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case filter.Markup:
		return string(v)
	default:
		return raymond.Str(v)
	}
}
