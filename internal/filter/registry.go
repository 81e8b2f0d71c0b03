package filter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// entry is one statically registered filter
type entry struct {
	callback   interface{}
	classified bool
	binding    binding
}

// Registry maps filter names to callbacks. Static filters are found by
// case-insensitive name; dynamic resolvers are consulted, most recent first,
// for names with no static entry.
type Registry struct {
	entries   map[string]*entry
	resolvers []Resolver
	wrappers  map[string]Func
	mu        sync.RWMutex

	logger             *zap.Logger
	onWarning          WarningHandler
	suggestionDistance int
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for warnings and debug output
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWarningHandler installs a side channel that receives every warning
func WithWarningHandler(handler WarningHandler) Option {
	return func(r *Registry) {
		r.onWarning = handler
	}
}

// WithSuggestionDistance sets the largest edit distance offered as a
// suggestion. Zero disables suggestions.
func WithSuggestionDistance(distance int) Option {
	return func(r *Registry) {
		r.suggestionDistance = distance
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:            make(map[string]*entry),
		wrappers:           make(map[string]Func),
		logger:             zap.NewNop(),
		suggestionDistance: DefaultSuggestionDistance,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// canonical returns the lookup key for a filter name
func canonical(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register installs a filter. An empty name prepends callback to the dynamic
// resolver chain. Otherwise callback replaces any static filter of the same
// name and the memoized wrapper for that name is dropped.
//
// Register panics when callback has a shape the registry cannot call.
func (r *Registry) Register(name string, callback interface{}) {
	key := canonical(name)
	if key == "" {
		resolver, err := asResolver(callback)
		if err != nil {
			panic(fmt.Sprintf("filter: %v", err))
		}
		r.RegisterResolver(resolver)
		return
	}

	if err := checkCallback(callback); err != nil {
		panic(fmt.Sprintf("filter %q: %v", key, err))
	}

	r.mu.Lock()
	r.entries[key] = &entry{callback: callback}
	delete(r.wrappers, key)

	// Aliases may reach the old callback through other aliases, so all of
	// them are classified again
	for aliasName, e := range r.entries {
		if _, ok := e.callback.(string); ok {
			e.classified = false
			e.binding = binding{}
			delete(r.wrappers, aliasName)
		}
	}
	r.mu.Unlock()

	r.logger.Debug("registered filter", zap.String("filter", key))
}

// RegisterResolver prepends a dynamic filter to the resolver chain
func (r *Registry) RegisterResolver(resolver Resolver) {
	if isNil(resolver) {
		panic("filter: resolver is nil")
	}

	r.mu.Lock()
	r.resolvers = append([]Resolver{resolver}, r.resolvers...)
	count := len(r.resolvers)
	r.mu.Unlock()

	r.logger.Debug("registered dynamic filter", zap.Int("resolvers", count))
}

// Names returns the sorted canonical names of all static filters
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a static filter is registered under name
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[canonical(name)]
	return ok
}

// ResolveClassic returns a ready-to-call function for name using the classic
// calling convention. The wrapper is memoized per canonical name.
func (r *Registry) ResolveClassic(name string) (Func, error) {
	key := canonical(name)
	if key == "" {
		return nil, &UndefinedFilterError{Name: name}
	}

	// Check memoized wrappers first (read lock)
	r.mu.RLock()
	if fn, ok := r.wrappers[key]; ok {
		r.mu.RUnlock()
		return fn, nil
	}
	r.mu.RUnlock()

	// Build the wrapper (write lock)
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check again in case another goroutine built it
	if fn, ok := r.wrappers[key]; ok {
		return fn, nil
	}

	if _, ok := r.entries[key]; ok {
		b, err := r.classifyLocked(key, nil)
		if err != nil {
			return nil, err
		}
		fn := r.classicWrapper(b)
		r.wrappers[key] = fn
		return fn, nil
	}

	if len(r.resolvers) == 0 {
		return nil, r.undefinedLocked(strings.TrimSpace(name))
	}

	fn := r.dynamicWrapper(key, strings.TrimSpace(name))
	r.wrappers[key] = fn
	return fn, nil
}

// Apply resolves name with ResolveClassic and calls it with args
func (r *Registry) Apply(name string, args ...interface{}) (interface{}, error) {
	fn, err := r.ResolveClassic(name)
	if err != nil {
		return nil, err
	}
	return fn(args...)
}

// InvokeContentAware calls the static filter name with an explicit content
// context. Content-aware filters receive info directly. Classic filters are
// called with args alone and content-type anomalies are reported as warnings.
// Dynamic filters are not reachable through this path.
func (r *Registry) InvokeContentAware(name string, info *Info, args ...interface{}) (interface{}, error) {
	key := canonical(name)
	b, found, err := r.classify(key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, r.undefined(strings.TrimSpace(name))
	}

	if info == nil {
		info = NewInfo(Text)
	}

	if b.contentAware {
		return b.aware(info, args...)
	}

	if !info.IsText() {
		r.warn(mismatchWarning(key, info.ContentType))
	}

	out, err := b.classic(args...)
	if err != nil {
		return nil, err
	}

	if markup, ok := out.(Markup); ok {
		r.warn(upgradeWarning(key))
		info.ContentType = HTML
		return string(markup), nil
	}

	return out, nil
}

// classify returns the binding of a static entry, classifying it on first use
func (r *Registry) classify(key string) (binding, bool, error) {
	r.mu.RLock()
	e, ok := r.entries[key]
	if ok && e.classified {
		b := e.binding
		r.mu.RUnlock()
		return b, true, nil
	}
	r.mu.RUnlock()

	if !ok {
		return binding{}, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; !ok {
		return binding{}, false, nil
	}
	b, err := r.classifyLocked(key, nil)
	return b, true, err
}

// classifyLocked binds the entry for key and caches the result on it.
// String callbacks are aliases resolved to their target at this point.
func (r *Registry) classifyLocked(key string, seen map[string]bool) (binding, error) {
	e := r.entries[key]
	if e.classified {
		return e.binding, nil
	}

	var b binding
	if alias, ok := e.callback.(string); ok {
		target := canonical(alias)
		if seen == nil {
			seen = make(map[string]bool)
		}
		seen[key] = true

		if _, exists := r.entries[target]; !exists || seen[target] {
			return binding{}, r.undefinedLocked(alias)
		}

		resolved, err := r.classifyLocked(target, seen)
		if err != nil {
			return binding{}, err
		}
		b = resolved
	} else {
		bound, err := bind(e.callback)
		if err != nil {
			return binding{}, fmt.Errorf("filter %q: %w", key, err)
		}
		b = bound
	}

	e.binding = b
	e.classified = true
	return b, nil
}

// classicWrapper adapts a binding to the classic calling convention. Classic
// filters are returned as is. Content-aware filters get a fresh TEXT context,
// switched to HTML when the first argument is markup, and their result is
// marked safe when the context ends up HTML.
func (r *Registry) classicWrapper(b binding) Func {
	if !b.contentAware {
		return b.classic
	}

	aware := b.aware
	return func(args ...interface{}) (interface{}, error) {
		info := NewInfo(Text)
		if len(args) > 0 {
			if raw, ok := unwrapMarkup(args[0]); ok {
				args = append([]interface{}{raw}, args[1:]...)
				info.ContentType = HTML
			}
		}

		out, err := aware(info, args...)
		if err != nil {
			return nil, err
		}

		if info.ContentType == HTML {
			return MarkSafe(out), nil
		}
		return out, nil
	}
}

// dynamicWrapper consults the resolver chain on every call and reports
// failures under name as first requested. When a resolver
// declines and a static entry for key has appeared meanwhile, the static
// filter serves the call and replaces this wrapper for later lookups.
func (r *Registry) dynamicWrapper(key, name string) Func {
	return func(args ...interface{}) (interface{}, error) {
		r.mu.RLock()
		chain := append([]Resolver(nil), r.resolvers...)
		r.mu.RUnlock()

		for _, resolver := range chain {
			result, err := resolver.Resolve(key, args...)
			if err != nil {
				return nil, err
			}
			if value, ok := result.Value(); ok {
				return value, nil
			}

			fn, promoted, err := r.promote(key)
			if err != nil {
				return nil, err
			}
			if promoted {
				return fn(args...)
			}
		}

		return nil, r.undefined(name)
	}
}

// promote memoizes the static wrapper for key if a static entry now exists
func (r *Registry) promote(key string) (Func, bool, error) {
	if !r.Has(key) {
		return nil, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[key]; !ok {
		return nil, false, nil
	}

	b, err := r.classifyLocked(key, nil)
	if err != nil {
		return nil, false, err
	}

	fn := r.classicWrapper(b)
	r.wrappers[key] = fn
	r.logger.Debug("promoted dynamic filter", zap.String("filter", key))
	return fn, true, nil
}

func (r *Registry) undefined(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.undefinedLocked(name)
}

func (r *Registry) undefinedLocked(name string) error {
	return &UndefinedFilterError{
		Name:       name,
		Suggestion: suggest(name, r.namesLocked(), r.suggestionDistance),
	}
}

// warn reports a warning through the logger and the optional handler
func (r *Registry) warn(w Warning) {
	r.logger.Warn(w.Message,
		zap.String("filter", w.Filter),
		zap.String("kind", string(w.Kind)),
		zap.String("content_type", string(w.ContentType)),
	)

	if r.onWarning != nil {
		r.onWarning(w)
	}
}
