package filter

import (
	"fmt"
)

// ContentType classifies the value flowing through a filter chain
type ContentType string

const (
	// Text is plain, unescaped text
	Text ContentType = "text"

	// HTML is markup that is safe to emit without escaping
	HTML ContentType = "html"

	// CSS is a stylesheet fragment
	CSS ContentType = "css"

	// JS is a script fragment
	JS ContentType = "js"

	// URL is a URL or URL component
	URL ContentType = "url"
)

// Info is the mutable content context handed to content-aware filters.
// A filter may read ContentType to branch and overwrite it to declare the
// content type of its output.
type Info struct {
	ContentType ContentType
}

// NewInfo creates a content context for the given content type
func NewInfo(contentType ContentType) *Info {
	return &Info{ContentType: contentType}
}

// IsText reports whether the context holds plain text
func (i *Info) IsText() bool {
	return i == nil || i.ContentType == Text || i.ContentType == ""
}

// Markup is a string that has been marked safe to emit as HTML
type Markup string

// String returns the raw markup
func (m Markup) String() string {
	return string(m)
}

// MarkSafe flags a filter result as markup
func MarkSafe(value interface{}) Markup {
	switch v := value.(type) {
	case nil:
		return ""
	case Markup:
		return v
	case string:
		return Markup(v)
	case fmt.Stringer:
		return Markup(v.String())
	default:
		return Markup(fmt.Sprint(v))
	}
}

// unwrapMarkup returns the raw string behind a markup value
func unwrapMarkup(value interface{}) (interface{}, bool) {
	if m, ok := value.(Markup); ok {
		return string(m), true
	}
	return value, false
}
