package filter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func upperFilter(args ...interface{}) (interface{}, error) {
	return strings.ToUpper(fmt.Sprint(args[0])), nil
}

func funcPointer(fn Func) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

func newObservedRegistry(opts ...Option) (*Registry, *observer.ObservedLogs, *[]Warning) {
	core, logs := observer.New(zap.WarnLevel)
	warnings := &[]Warning{}
	opts = append([]Option{
		WithLogger(zap.New(core)),
		WithWarningHandler(func(w Warning) { *warnings = append(*warnings, w) }),
	}, opts...)
	return NewRegistry(opts...), logs, warnings
}

func TestResolveClassic_CaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))

	fn, err := reg.ResolveClassic("upper")
	require.NoError(t, err)
	out, err := fn("abc")
	require.NoError(t, err)
	assert.Equal(t, "ABC", out)

	again, err := reg.ResolveClassic("UPPER")
	require.NoError(t, err)
	out, err = again("xyz")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", out)

	assert.Equal(t, funcPointer(fn), funcPointer(again))
}

func TestResolveClassic_Memoized(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.Register("Double", func(n int) int {
		calls++
		return n * 2
	})

	first, err := reg.ResolveClassic("double")
	require.NoError(t, err)
	second, err := reg.ResolveClassic("DOUBLE")
	require.NoError(t, err)
	assert.Equal(t, funcPointer(first), funcPointer(second))

	a, err := first(21)
	require.NoError(t, err)
	b, err := second(21)
	require.NoError(t, err)
	assert.Equal(t, 42, a)
	assert.Equal(t, a, b)
	assert.Equal(t, 2, calls)
}

func TestRegister_InvalidatesWrapper(t *testing.T) {
	reg := NewRegistry()
	reg.Register("greet", Func(func(args ...interface{}) (interface{}, error) {
		return "hello", nil
	}))

	fn, err := reg.ResolveClassic("greet")
	require.NoError(t, err)
	out, _ := fn()
	assert.Equal(t, "hello", out)

	reg.Register("GREET", Func(func(args ...interface{}) (interface{}, error) {
		return "bonjour", nil
	}))

	fn, err = reg.ResolveClassic("greet")
	require.NoError(t, err)
	out, _ = fn()
	assert.Equal(t, "bonjour", out)
}

func TestNames(t *testing.T) {
	reg := NewRegistry()
	reg.Register("Upper", Func(upperFilter))
	reg.Register("lower", Func(upperFilter))
	reg.Register("", ResolverFunc(func(string, ...interface{}) (Result, error) { return NotHandled, nil }))

	assert.Equal(t, []string{"lower", "upper"}, reg.Names())
	assert.True(t, reg.Has("UPPER"))
	assert.False(t, reg.Has("missing"))
}

func TestResolveClassic_Undefined(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.ResolveClassic("trim")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndefinedFilter))

	undefined, ok := IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Equal(t, "trim", undefined.Name)
	assert.Empty(t, undefined.Suggestion)
}

func TestResolveClassic_UndefinedWithSuggestion(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))
	reg.Register("trim", Func(upperFilter))

	_, err := reg.ResolveClassic("uper")
	undefined, ok := IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Equal(t, "upper", undefined.Suggestion)
	assert.Contains(t, err.Error(), `did you mean "upper"?`)

	_, err = reg.ResolveClassic("trimm")
	undefined, ok = IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Equal(t, "trim", undefined.Suggestion)

	_, err = reg.ResolveClassic("completely_different")
	undefined, ok = IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Empty(t, undefined.Suggestion)
}

func TestResolveClassic_SuggestionsDisabled(t *testing.T) {
	reg := NewRegistry(WithSuggestionDistance(0))
	reg.Register("upper", Func(upperFilter))

	_, err := reg.ResolveClassic("uper")
	undefined, ok := IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Empty(t, undefined.Suggestion)
}

func TestResolveClassic_ContentAwareWrapper(t *testing.T) {
	reg := NewRegistry()
	var seen ContentType
	reg.Register("keep", ContextFunc(func(info *Info, args ...interface{}) (interface{}, error) {
		seen = info.ContentType
		return args[0], nil
	}))
	reg.Register("reset", ContextFunc(func(info *Info, args ...interface{}) (interface{}, error) {
		info.ContentType = Text
		return args[0], nil
	}))

	keep, err := reg.ResolveClassic("keep")
	require.NoError(t, err)

	out, err := keep(Markup("<b>x</b>"))
	require.NoError(t, err)
	assert.Equal(t, HTML, seen)
	assert.Equal(t, Markup("<b>x</b>"), out)

	out, err = keep("plain")
	require.NoError(t, err)
	assert.Equal(t, Text, seen)
	assert.Equal(t, "plain", out)

	reset, err := reg.ResolveClassic("reset")
	require.NoError(t, err)
	out, err = reset(Markup("<b>x</b>"))
	require.NoError(t, err)
	assert.Equal(t, "<b>x</b>", out)
}

func TestResolveClassic_ContentAwareDeclaresHTML(t *testing.T) {
	reg := NewRegistry()
	reg.Register("bold", func(info *Info, s string) string {
		info.ContentType = HTML
		return "<b>" + s + "</b>"
	})

	out, err := reg.Apply("bold", "x")
	require.NoError(t, err)
	assert.Equal(t, Markup("<b>x</b>"), out)
}

func TestInvokeContentAware_ClassicMismatchWarns(t *testing.T) {
	reg, logs, warnings := newObservedRegistry()
	reg.Register("upper", Func(upperFilter))

	info := NewInfo(HTML)
	out, err := reg.InvokeContentAware("upper", info, "<i>a</i>")
	require.NoError(t, err)
	assert.Equal(t, "<I>A</I>", out)

	require.Len(t, *warnings, 1)
	assert.Equal(t, ContentTypeMismatch, (*warnings)[0].Kind)
	assert.Contains(t, (*warnings)[0].Message, "striptags")
	assert.Equal(t, 1, logs.Len())
	assert.Equal(t, HTML, info.ContentType)
}

func TestInvokeContentAware_ClassicNonHTMLMismatch(t *testing.T) {
	reg, _, warnings := newObservedRegistry()
	reg.Register("upper", Func(upperFilter))

	_, err := reg.InvokeContentAware("upper", NewInfo(CSS), "a")
	require.NoError(t, err)

	require.Len(t, *warnings, 1)
	assert.Equal(t, CSS, (*warnings)[0].ContentType)
	assert.NotContains(t, (*warnings)[0].Message, "striptags")
}

func TestInvokeContentAware_ClassicTextNoWarning(t *testing.T) {
	reg, logs, warnings := newObservedRegistry()
	reg.Register("upper", Func(upperFilter))

	out, err := reg.InvokeContentAware("upper", NewInfo(Text), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", out)
	assert.Empty(t, *warnings)
	assert.Equal(t, 0, logs.Len())
}

func TestInvokeContentAware_ClassicReturnsMarkup(t *testing.T) {
	reg, _, warnings := newObservedRegistry()
	reg.Register("linkify", Func(func(args ...interface{}) (interface{}, error) {
		return Markup(`<a href="#">` + fmt.Sprint(args[0]) + `</a>`), nil
	}))

	info := NewInfo(Text)
	out, err := reg.InvokeContentAware("linkify", info, "x")
	require.NoError(t, err)
	assert.Equal(t, `<a href="#">x</a>`, out)
	assert.IsType(t, "", out)
	assert.Equal(t, HTML, info.ContentType)

	require.Len(t, *warnings, 1)
	assert.Equal(t, FilterShouldBeContentAware, (*warnings)[0].Kind)
}

func TestInvokeContentAware_ContentAwareMutatesContext(t *testing.T) {
	reg := NewRegistry()
	reg.Register("escape", ContextFunc(func(info *Info, args ...interface{}) (interface{}, error) {
		info.ContentType = HTML
		return "&lt;" + fmt.Sprint(args[0]), nil
	}))

	info := NewInfo(Text)
	out, err := reg.InvokeContentAware("Escape", info, "x")
	require.NoError(t, err)
	assert.Equal(t, "&lt;x", out)
	assert.Equal(t, HTML, info.ContentType)
}

func TestInvokeContentAware_NilInfo(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))

	out, err := reg.InvokeContentAware("upper", nil, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", out)
}

func TestInvokeContentAware_IgnoresDynamicFilters(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return Handled("dynamic"), nil
	}))

	_, err := reg.InvokeContentAware("uppr", NewInfo(Text), "a")
	undefined, ok := IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Equal(t, "upper", undefined.Suggestion)

	out, err := reg.Apply("uppr", "a")
	require.NoError(t, err)
	assert.Equal(t, "dynamic", out)
}

func TestDynamicChain_MostRecentFirst(t *testing.T) {
	reg := NewRegistry()
	var order []string
	reg.Register("", ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		order = append(order, "A")
		return Handled("A:" + name), nil
	}))
	reg.Register("", func(name string, args ...interface{}) (Result, error) {
		order = append(order, "B")
		return Handled("B:" + name), nil
	})

	out, err := reg.Apply("shout", "x")
	require.NoError(t, err)
	assert.Equal(t, "B:shout", out)
	assert.Equal(t, []string{"B"}, order)
}

func TestDynamicChain_FallsThrough(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		if name == "shout" {
			return Handled(fmt.Sprint(args[0]) + "!"), nil
		}
		return NotHandled, nil
	}))
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return NotHandled, nil
	}))

	out, err := reg.Apply("shout", "hey")
	require.NoError(t, err)
	assert.Equal(t, "hey!", out)

	_, err = reg.Apply("whisper", "hey")
	assert.True(t, errors.Is(err, ErrUndefinedFilter))
}

func TestDynamicChain_UndefinedKeepsRequestedName(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return NotHandled, nil
	}))

	_, err := reg.Apply(" Uppr ", "x")
	undefined, ok := IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Equal(t, "Uppr", undefined.Name)
	assert.Equal(t, "upper", undefined.Suggestion)
}

func TestDynamicChain_HandledNil(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return Handled(nil), nil
	}))
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return NotHandled, nil
	}))

	out, err := reg.Apply("anything")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDynamicChain_ResolverError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return NotHandled, boom
	}))

	_, err := reg.Apply("anything")
	assert.ErrorIs(t, err, boom)
}

func TestDynamicChain_Promotion(t *testing.T) {
	reg := NewRegistry()
	resolves := 0
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		resolves++
		if name == "shout" {
			reg.Register("shout", Func(func(args ...interface{}) (interface{}, error) {
				return fmt.Sprint(args[0]) + "!", nil
			}))
		}
		return NotHandled, nil
	}))

	fn, err := reg.ResolveClassic("shout")
	require.NoError(t, err)

	out, err := fn("hey")
	require.NoError(t, err)
	assert.Equal(t, "hey!", out)
	assert.Equal(t, 1, resolves)

	promoted, err := reg.ResolveClassic("SHOUT")
	require.NoError(t, err)
	out, err = promoted("again")
	require.NoError(t, err)
	assert.Equal(t, "again!", out)
	assert.Equal(t, 1, resolves)
	assert.Equal(t, []string{"shout"}, reg.Names())
}

func TestDynamicWrapper_SeesLaterStaticEntry(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterResolver(ResolverFunc(func(name string, args ...interface{}) (Result, error) {
		return NotHandled, nil
	}))

	fn, err := reg.ResolveClassic("late")
	require.NoError(t, err)

	_, err = fn("x")
	require.True(t, errors.Is(err, ErrUndefinedFilter))

	reg.Register("late", Func(upperFilter))

	out, err := fn("x")
	require.NoError(t, err)
	assert.Equal(t, "X", out)
}

func TestAlias(t *testing.T) {
	reg := NewRegistry()
	reg.Register("e", "escape")
	reg.Register("escape", ContextFunc(func(info *Info, args ...interface{}) (interface{}, error) {
		info.ContentType = HTML
		return "esc:" + fmt.Sprint(args[0]), nil
	}))

	out, err := reg.Apply("e", "x")
	require.NoError(t, err)
	assert.Equal(t, Markup("esc:x"), out)

	reg.Register("escape", Func(func(args ...interface{}) (interface{}, error) {
		return "v2:" + fmt.Sprint(args[0]), nil
	}))
	out, err = reg.Apply("e", "x")
	require.NoError(t, err)
	assert.Equal(t, "v2:x", out)
}

func TestAlias_MissingTarget(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))
	reg.Register("u", "uppr")

	_, err := reg.ResolveClassic("u")
	undefined, ok := IsUndefinedFilter(err)
	require.True(t, ok)
	assert.Equal(t, "uppr", undefined.Name)
	assert.Equal(t, "upper", undefined.Suggestion)
}

func TestAlias_Cycle(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", "b")
	reg.Register("b", "a")

	_, err := reg.ResolveClassic("a")
	assert.True(t, errors.Is(err, ErrUndefinedFilter))
}

type suffixFilter struct{ suffix string }

func (f suffixFilter) Filter(args ...interface{}) (interface{}, error) {
	return fmt.Sprint(args[0]) + f.suffix, nil
}

type wrapFilter struct{}

func (wrapFilter) FilterContent(info *Info, args ...interface{}) (interface{}, error) {
	info.ContentType = HTML
	return "<p>" + fmt.Sprint(args[0]) + "</p>", nil
}

func TestRegister_FilterObjects(t *testing.T) {
	reg := NewRegistry()
	reg.Register("suffix", suffixFilter{suffix: "!"})
	reg.Register("wrap", wrapFilter{})

	out, err := reg.Apply("suffix", "a")
	require.NoError(t, err)
	assert.Equal(t, "a!", out)

	out, err = reg.Apply("wrap", "a")
	require.NoError(t, err)
	assert.Equal(t, Markup("<p>a</p>"), out)
}

func TestRegister_ReflectedFuncs(t *testing.T) {
	reg := NewRegistry()
	reg.Register("repeat", func(s string, n int) (string, error) {
		if n < 0 {
			return "", errors.New("negative count")
		}
		return strings.Repeat(s, n), nil
	})
	reg.Register("sum", func(nums ...float64) float64 {
		total := 0.0
		for _, n := range nums {
			total += n
		}
		return total
	})

	out, err := reg.Apply("repeat", "ab", 3)
	require.NoError(t, err)
	assert.Equal(t, "ababab", out)

	_, err = reg.Apply("repeat", "ab", -1)
	assert.EqualError(t, err, "negative count")

	_, err = reg.Apply("repeat", "ab")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = reg.Apply("repeat", 3, 3)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	out, err = reg.Apply("sum", 1, 2.5, int64(3))
	require.NoError(t, err)
	assert.Equal(t, 6.5, out)
}

func TestRegister_MarkupArgumentToStringParam(t *testing.T) {
	reg := NewRegistry()
	reg.Register("len", func(s string) int { return len(s) })

	out, err := reg.Apply("len", Markup("<b>"))
	require.NoError(t, err)
	assert.Equal(t, 3, out)
}

func TestRegister_PanicsOnUnsupportedCallback(t *testing.T) {
	reg := NewRegistry()

	assert.Panics(t, func() { reg.Register("bad", 42) })
	assert.Panics(t, func() { reg.Register("bad", nil) })
	assert.Panics(t, func() { reg.Register("bad", func(s string) {}) })
	assert.Panics(t, func() { reg.Register("bad", func(s string) (string, string) { return s, s }) })
	assert.Panics(t, func() { reg.Register("", Func(upperFilter)) })
}

func TestRegister_PanicsOnNilFuncs(t *testing.T) {
	reg := NewRegistry()

	assert.Panics(t, func() { reg.Register("nilf", Func(nil)) })
	assert.Panics(t, func() { reg.Register("nilf", ContextFunc(nil)) })
	assert.Panics(t, func() { reg.Register("nilf", (func(string) string)(nil)) })
	assert.Panics(t, func() { reg.Register("", ResolverFunc(nil)) })
	assert.Panics(t, func() { reg.RegisterResolver(ResolverFunc(nil)) })
	assert.False(t, reg.Has("nilf"))
}

func TestRegistry_ConcurrentResolution(t *testing.T) {
	reg := NewRegistry()
	reg.Register("upper", Func(upperFilter))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := reg.Apply("UPPER", fmt.Sprintf("v%d", i))
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("V%d", i), out)
			reg.Register(fmt.Sprintf("f%d", i), Func(upperFilter))
		}(i)
	}
	wg.Wait()

	assert.Len(t, reg.Names(), 17)
}
