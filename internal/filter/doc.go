// Package filter resolves and invokes template filters by name.
//
// A Registry holds two tiers of filters. Static filters are registered under
// a case-insensitive name. Dynamic filters are resolvers consulted, most
// recently registered first, for names that have no static entry.
//
// Example usage:
//
//	reg := filter.NewRegistry(filter.WithLogger(logger))
//
//	reg.Register("upper", filter.Func(func(args ...interface{}) (interface{}, error) {
//	    return strings.ToUpper(fmt.Sprint(args[0])), nil
//	}))
//
//	upper, err := reg.ResolveClassic("UPPER")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, _ := upper("abc") // "ABC"
//
// Content-aware filters take an *Info as their first parameter and may change
// its content type to describe their output:
//
//	reg.Register("escape", filter.ContextFunc(func(info *filter.Info, args ...interface{}) (interface{}, error) {
//	    if info.ContentType == filter.HTML {
//	        return args[0], nil
//	    }
//	    info.ContentType = filter.HTML
//	    return html.EscapeString(fmt.Sprint(args[0])), nil
//	}))
//
// Through ResolveClassic a content-aware filter sees an HTML context when its
// first argument is Markup, and its result comes back as Markup when the
// context is HTML after the call. InvokeContentAware passes a caller-owned
// context instead:
//
//	info := filter.NewInfo(filter.HTML)
//	out, err := reg.InvokeContentAware("upper", info, "<b>x</b>")
//	// upper is classic: a content_type_mismatch warning is emitted
//
// Dynamic filters return NotHandled for names they do not know:
//
//	reg.Register("", filter.ResolverFunc(func(name string, args ...interface{}) (filter.Result, error) {
//	    if name != "shout" {
//	        return filter.NotHandled, nil
//	    }
//	    return filter.Handled(fmt.Sprint(args[0]) + "!"), nil
//	}))
//
// Unknown names fail with an *UndefinedFilterError carrying a "did you mean"
// suggestion taken from the static names when one is close enough.
//
// The registry is safe for concurrent use. Callbacks never run while its lock
// is held, so resolvers may register static filters while resolving.
package filter
