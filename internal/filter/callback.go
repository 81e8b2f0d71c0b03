package filter

import (
	"errors"
	"fmt"
	"reflect"
)

// Func is a classic, content-agnostic filter
type Func func(args ...interface{}) (interface{}, error)

// ContextFunc is a content-aware filter. It receives the content context as
// its first argument and may change it to describe its output.
type ContextFunc func(info *Info, args ...interface{}) (interface{}, error)

// Filter is implemented by objects that act as classic filters
type Filter interface {
	Filter(args ...interface{}) (interface{}, error)
}

// ContentFilter is implemented by objects that act as content-aware filters
type ContentFilter interface {
	FilterContent(info *Info, args ...interface{}) (interface{}, error)
}

// ErrInvalidArguments is returned when arguments cannot be bound to a
// reflected filter's parameters
var ErrInvalidArguments = errors.New("invalid filter arguments")

var (
	infoType  = reflect.TypeOf((*Info)(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// binding is a classified callback in one of the two calling conventions
type binding struct {
	contentAware bool
	classic      Func
	aware        ContextFunc
}

// checkCallback reports whether callback has a shape the registry can call
func checkCallback(callback interface{}) error {
	if isNil(callback) {
		return fmt.Errorf("callback is nil")
	}

	switch callback.(type) {
	case string, Func, ContextFunc, Filter, ContentFilter,
		func(...interface{}) (interface{}, error),
		func(*Info, ...interface{}) (interface{}, error):
		return nil
	}

	fn := reflect.ValueOf(callback)
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("unsupported callback type %T", callback)
	}
	return checkResults(fn.Type())
}

// isNil reports whether v is nil or a nil func, such as Func(nil)
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && rv.IsNil()
}

// checkResults accepts (T) and (T, error) result lists
func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if t.Out(1) != errorType {
			return fmt.Errorf("second result of %s must be error", t)
		}
		return nil
	default:
		return fmt.Errorf("%s must return one value and an optional error", t)
	}
}

// bind classifies callback and adapts it to its calling convention.
// Typed callbacks carry their convention explicitly; any other func is
// content-aware iff its first parameter is exactly *Info.
func bind(callback interface{}) (binding, error) {
	switch cb := callback.(type) {
	case ContextFunc:
		return binding{contentAware: true, aware: cb}, nil
	case func(*Info, ...interface{}) (interface{}, error):
		return binding{contentAware: true, aware: cb}, nil
	case Func:
		return binding{classic: cb}, nil
	case func(...interface{}) (interface{}, error):
		return binding{classic: cb}, nil
	case ContentFilter:
		return binding{contentAware: true, aware: cb.FilterContent}, nil
	case Filter:
		return binding{classic: cb.Filter}, nil
	}

	if err := checkCallback(callback); err != nil {
		return binding{}, err
	}
	return reflectBinding(reflect.ValueOf(callback)), nil
}

// reflectBinding wraps an arbitrary func value
func reflectBinding(fn reflect.Value) binding {
	t := fn.Type()
	contentAware := t.NumIn() > 0 && t.In(0) == infoType

	call := func(info *Info, args []interface{}) (interface{}, error) {
		in, err := bindArgs(t, contentAware, info, args)
		if err != nil {
			return nil, err
		}

		out := fn.Call(in)
		if len(out) == 2 && !out[1].IsNil() {
			return nil, out[1].Interface().(error)
		}
		return out[0].Interface(), nil
	}

	if contentAware {
		return binding{
			contentAware: true,
			aware: func(info *Info, args ...interface{}) (interface{}, error) {
				return call(info, args)
			},
		}
	}

	return binding{
		classic: func(args ...interface{}) (interface{}, error) {
			return call(nil, args)
		},
	}
}

// bindArgs converts call arguments to the parameter types of t
func bindArgs(t reflect.Type, contentAware bool, info *Info, args []interface{}) ([]reflect.Value, error) {
	offset := 0
	in := make([]reflect.Value, 0, len(args)+1)
	if contentAware {
		in = append(in, reflect.ValueOf(info))
		offset = 1
	}

	fixed := t.NumIn() - offset
	if t.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrInvalidArguments, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrInvalidArguments, fixed, len(args))
	}

	for i, arg := range args {
		var paramType reflect.Type
		if i < fixed {
			paramType = t.In(i + offset)
		} else {
			paramType = t.In(t.NumIn() - 1).Elem()
		}

		v, err := convertArg(arg, paramType)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %d: %v", ErrInvalidArguments, i, err)
		}
		in = append(in, v)
	}

	return in, nil
}

// convertArg converts a single argument to the given type
func convertArg(arg interface{}, to reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch to.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(to), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", to)
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(to) {
		return v, nil
	}
	if sameFamily(v.Kind(), to.Kind()) && v.Type().ConvertibleTo(to) {
		return v.Convert(to), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, to)
}

// sameFamily restricts conversions to numeric-to-numeric and string-to-string
func sameFamily(from, to reflect.Kind) bool {
	return (isNumeric(from) && isNumeric(to)) || (from == reflect.String && to == reflect.String)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
