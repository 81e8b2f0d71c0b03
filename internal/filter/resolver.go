package filter

import "fmt"

// Result is the outcome of a dynamic resolver: either a handled value or
// NotHandled, which lets the chain continue. A handled nil is a legitimate
// filter result.
type Result struct {
	value   interface{}
	handled bool
}

// NotHandled signals that a resolver does not know the requested filter
var NotHandled = Result{}

// Handled wraps a value computed by a resolver
func Handled(value interface{}) Result {
	return Result{value: value, handled: true}
}

// Value returns the computed value and whether the resolver handled the call
func (r Result) Value() (interface{}, bool) {
	return r.value, r.handled
}

// Resolver is a dynamic filter: a fallback consulted by name when no static
// filter matches
type Resolver interface {
	Resolve(name string, args ...interface{}) (Result, error)
}

// ResolverFunc adapts a function to the Resolver interface
type ResolverFunc func(name string, args ...interface{}) (Result, error)

// Resolve calls f(name, args...)
func (f ResolverFunc) Resolve(name string, args ...interface{}) (Result, error) {
	return f(name, args...)
}

// asResolver accepts the resolver shapes Register understands
func asResolver(callback interface{}) (Resolver, error) {
	if isNil(callback) {
		return nil, fmt.Errorf("resolver is nil")
	}

	switch cb := callback.(type) {
	case Resolver:
		return cb, nil
	case func(string, ...interface{}) (Result, error):
		return ResolverFunc(cb), nil
	default:
		return nil, fmt.Errorf("unsupported resolver type %T", callback)
	}
}
