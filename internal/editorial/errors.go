package editorial

import (
	"errors"
	"fmt"
)

// Kind classifies an Error. Callers branch on the kind, never on which
// internal pipeline step produced it.
type Kind string

const (
	// KindInvalidInput: the URL does not resolve to a known problem shape.
	KindInvalidInput Kind = "invalid_input"
	// KindUpstream: a network or parse failure talking to Codeforces or
	// the tutorial page.
	KindUpstream Kind = "upstream_fetch"
	// KindTutorialNotFound: no tutorial could be located for the problem.
	KindTutorialNotFound Kind = "tutorial_not_found"
	// KindExtraction: the AI step could not produce a usable editorial.
	KindExtraction Kind = "extraction"
	// KindCache: a cache backend failure. Never escapes GetEditorial;
	// only ClearCache surfaces it.
	KindCache Kind = "cache"
	// KindInternal: anything a collaborator raised that was not already
	// one of ours, wrapped once at the orchestrator boundary.
	KindInternal Kind = "internal"
)

// Error is the single error family this service exposes. Every failure
// that reaches a caller is one of these; the original cause stays
// reachable through Unwrap for diagnostics.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a domain error with no underlying cause.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap attaches a cause to a domain error. A nil cause yields a plain E.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is (or wraps) a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}

// AsError extracts the domain error from err, if there is one.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
