package filter

import "fmt"

// WarningKind identifies a non-fatal content-type anomaly
type WarningKind string

const (
	// ContentTypeMismatch is raised when a classic filter receives non-text content
	ContentTypeMismatch WarningKind = "content_type_mismatch"

	// FilterShouldBeContentAware is raised when a classic filter returns markup
	FilterShouldBeContentAware WarningKind = "filter_should_be_content_aware"
)

// Warning is a diagnostic emitted while invoking a filter. It never changes
// the outcome of the call.
type Warning struct {
	Kind        WarningKind
	Filter      string
	ContentType ContentType
	Message     string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}

// WarningHandler receives warnings as a side channel
type WarningHandler func(Warning)

func mismatchWarning(name string, contentType ContentType) Warning {
	msg := fmt.Sprintf("filter %q is not content-aware and received %s content; the result may be wrong", name, contentType)
	if contentType == HTML {
		msg = fmt.Sprintf("filter %q is not content-aware and received HTML; apply \"striptags\" before it or make it content-aware", name)
	}
	return Warning{
		Kind:        ContentTypeMismatch,
		Filter:      name,
		ContentType: contentType,
		Message:     msg,
	}
}

func upgradeWarning(name string) Warning {
	return Warning{
		Kind:        FilterShouldBeContentAware,
		Filter:      name,
		ContentType: HTML,
		Message:     fmt.Sprintf("filter %q returned markup and should be made content-aware", name),
	}
}
