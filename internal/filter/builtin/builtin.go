// Package builtin provides the standard filters installed into every render
// registry.
package builtin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aescanero/dago-node-render/internal/filter"
	"github.com/aymerick/raymond"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Registrar is the part of the registry the builtins need
type Registrar interface {
	Register(name string, callback interface{})
}

// Install registers the builtin filters
func Install(reg Registrar) {
	// upper filter
	reg.Register("upper", func(str string) string {
		return strings.ToUpper(str)
	})

	// lower filter
	reg.Register("lower", func(str string) string {
		return strings.ToLower(str)
	})

	// trim filter
	reg.Register("trim", func(str string) string {
		return strings.TrimSpace(str)
	})

	// default filter - return the fallback if the value is empty
	reg.Register("default", filter.Func(func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("default: missing value")
		}
		value := args[0]
		if value != nil && value != "" {
			return value, nil
		}
		if len(args) < 2 {
			return "", nil
		}
		return fallback(args[1]), nil
	}))

	// contains filter - check if string contains substring
	reg.Register("contains", func(str, substr string) bool {
		return strings.Contains(str, substr)
	})

	// join filter - join array elements with separator
	reg.Register("join", filter.Func(func(args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("join: missing value")
		}
		sep := ", "
		if len(args) > 1 {
			sep = fmt.Sprint(option(args[1], "sep"))
		}
		return joinValues(args[0], sep), nil
	}))

	// length filter - get length of array/string/map
	reg.Register("length", func(value interface{}) int {
		switch v := value.(type) {
		case string:
			return len(v)
		case filter.Markup:
			return len(v)
		case []interface{}:
			return len(v)
		case []string:
			return len(v)
		case map[string]interface{}:
			return len(v)
		default:
			return 0
		}
	})

	// escape filter - escape text, leave markup untouched
	reg.Register("escape", func(info *filter.Info, value interface{}) string {
		if info.ContentType == filter.HTML {
			return fmt.Sprint(value)
		}
		info.ContentType = filter.HTML
		return raymond.Escape(fmt.Sprint(value))
	})
	reg.Register("e", "escape")

	// striptags filter - remove markup tags, result is text
	reg.Register("striptags", func(info *filter.Info, value interface{}) string {
		info.ContentType = filter.Text
		return strings.TrimSpace(tagPattern.ReplaceAllString(fmt.Sprint(value), ""))
	})

	// safe filter - declare the value as markup
	reg.Register("safe", func(info *filter.Info, value interface{}) interface{} {
		info.ContentType = filter.HTML
		return value
	})
}

// option reads key from a hash argument, or returns the argument itself
func option(arg interface{}, key string) interface{} {
	if hash, ok := arg.(map[string]interface{}); ok {
		return hash[key]
	}
	return arg
}

func fallback(arg interface{}) interface{} {
	if hash, ok := arg.(map[string]interface{}); ok {
		if v, ok := hash["fallback"]; ok {
			return v
		}
		return ""
	}
	return arg
}

func joinValues(value interface{}, sep string) string {
	switch v := value.(type) {
	case []string:
		return strings.Join(v, sep)
	case []interface{}:
		strs := make([]string, len(v))
		for i, item := range v {
			strs[i] = fmt.Sprint(item)
		}
		return strings.Join(strs, sep)
	default:
		return fmt.Sprint(value)
	}
}
