// Package errorx implements the coder-registry error pattern used across the
// handler layer (errorx.MustRegister, errorx.WithCode, errorx.WrapC),
// matching the call sites observed in the teacher's handler/v1 package. Each
// of spec.md §7's five error kinds gets a contiguous code block, registered
// by its owning package (internal/pipeline/errors.go).
package errorx

import (
	"fmt"
	"net/http"
	"sync"
)

// Coder maps a stable numeric code to an HTTP status and default message.
type Coder interface {
	Code() int
	HTTPStatus() int
	String() string
	Reference() string
}

type coder struct {
	code int
	http int
	msg  string
	ref  string
}

func (c *coder) Code() int         { return c.code }
func (c *coder) HTTPStatus() int   { return c.http }
func (c *coder) String() string    { return c.msg }
func (c *coder) Reference() string { return c.ref }

var (
	mu       sync.RWMutex
	registry = map[int]Coder{}
)

// NewCoder builds a Coder without registering it; used by callers that want
// a one-off code/status pair (e.g. an argument-validation error keyed by
// constraint name) without polluting the global registry.
func NewCoder(code, httpStatus int, msg string) Coder {
	return &coder{code: code, http: httpStatus, msg: msg}
}

// MustRegister registers a Coder under its Code(), panicking on collision.
// Intended to run from package init(), matching the teacher's convention.
func MustRegister(c Coder) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[c.Code()]; exists {
		panic(fmt.Sprintf("errorx: code %d already registered", c.Code()))
	}
	registry[c.Code()] = c
}

func lookup(code int) Coder {
	mu.RLock()
	defer mu.RUnlock()
	if c, ok := registry[code]; ok {
		return c
	}
	return &coder{code: code, http: http.StatusInternalServerError, msg: "internal error"}
}

// Error is the concrete error type returned by WithCode/WrapC. It carries the
// resolved Coder plus an optional human-readable detail and cause.
type Error struct {
	Coder  Coder
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Coder.String(), e.Detail)
	}
	return e.Coder.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCode builds an *Error for a registered code with a formatted detail.
func WithCode(code int, format string, args ...interface{}) *Error {
	return &Error{Coder: lookup(code), Detail: fmt.Sprintf(format, args...)}
}

// WrapC wraps an existing error with a registered code, preserving the
// original error as Cause for %w-style unwrapping.
func WrapC(err error, code int, format string, args ...interface{}) *Error {
	detail := fmt.Sprintf(format, args...)
	if err != nil {
		detail = fmt.Sprintf("%s: %v", detail, err)
	}
	return &Error{Coder: lookup(code), Detail: detail, Cause: err}
}

// HTTPStatus extracts the HTTP status of an error produced by this package,
// defaulting to 500 for anything else.
func HTTPStatus(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Coder.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Code extracts the numeric code, or 0 if err did not originate here.
func Code(err error) int {
	if e, ok := err.(*Error); ok {
		return e.Coder.Code()
	}
	return 0
}
