package filter

import (
	"errors"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeUndefinedFilter is the text code carried by undefined filter envelopes
const TextCodeUndefinedFilter = "UNDEFINED_FILTER"

// ErrUndefinedFilter matches every UndefinedFilterError via errors.Is
var ErrUndefinedFilter = errors.New("undefined filter")

// UndefinedFilterError reports a filter name that no static entry or dynamic
// resolver could serve
type UndefinedFilterError struct {
	Name       string
	Suggestion string
}

func (e *UndefinedFilterError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("undefined filter %q, did you mean %q?", e.Name, e.Suggestion)
	}
	return fmt.Sprintf("undefined filter %q", e.Name)
}

// Unwrap exposes ErrUndefinedFilter
func (e *UndefinedFilterError) Unwrap() error {
	return ErrUndefinedFilter
}

// ToServiceError converts the error into a go-errors envelope
func (e *UndefinedFilterError) ToServiceError() *goerrors.Error {
	metadata := map[string]any{"filter": e.Name}
	if e.Suggestion != "" {
		metadata["suggestion"] = e.Suggestion
	}

	err := goerrors.New(e.Error(), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeUndefinedFilter)
	err.WithMetadata(metadata)
	return err
}

// IsUndefinedFilter extracts an UndefinedFilterError from err's chain
func IsUndefinedFilter(err error) (*UndefinedFilterError, bool) {
	var undefined *UndefinedFilterError
	if errors.As(err, &undefined) {
		return undefined, true
	}
	return nil, false
}
