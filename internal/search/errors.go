package search

import (
	"errors"
	"fmt"
)

// Kind classifies a search failure so the tool boundary can convert it into
// a structured error payload instead of a stringly-typed one.
type Kind string

const (
	// KindProviderFailure means the embedding or captioning call failed;
	// the search could not be attempted. Never conflated with zero matches.
	KindProviderFailure Kind = "provider_failure"
	// KindNotFound means an image reference could not be resolved to a
	// fetchable URL. No search is attempted.
	KindNotFound Kind = "not_found"
	// KindInvalidArgument means the caller supplied unusable arguments.
	KindInvalidArgument Kind = "invalid_argument"
	// KindStoreFailure means the catalog store failed mid-pipeline.
	KindStoreFailure Kind = "store_failure"
)

// Error is the typed failure returned by the search engine.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, or "" when err is not a search
// error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
