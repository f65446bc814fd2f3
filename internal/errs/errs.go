// Package errs provides the decode-error taxonomy used by the PSD
// reader: malformed-header, truncated, resource-limit, unsupported and
// allocation-failed, one Kind per family of decode failure. The EXIF
// reader does not use it: it marks unreadable fields absent instead.
package errs

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind classifies why a decode failed.
type Kind int

const (
	// MalformedHeader covers signature, reserved-byte, version,
	// bit-depth, color-mode and compression-method violations.
	MalformedHeader Kind = iota
	// Truncated covers any read that runs past buffer/file end.
	Truncated
	// ResourceLimit covers file-size or pixel-count limits being
	// exceeded; always carries OutOfMemory=true.
	ResourceLimit
	// Unsupported covers ZIP compression, unsupported bit depths and
	// channel counts that don't reduce to {1,3,4}.
	Unsupported
	// AllocationFailed covers a failed allocation; always carries
	// OutOfMemory=true.
	AllocationFailed
)

func (k Kind) String() string {
	switch k {
	case MalformedHeader:
		return "malformed-header"
	case Truncated:
		return "truncated"
	case ResourceLimit:
		return "resource-limit"
	case Unsupported:
		return "unsupported"
	case AllocationFailed:
		return "allocation-failed"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the psd package; cursor returns
// plain wrapped errors, which psd classifies into an Error. OutOfMemory distinguishes resource exhaustion from
// malformed input so callers can offer a downscale path instead of
// simply failing the decode.
type Error struct {
	Kind        Kind
	OutOfMemory bool
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given Kind.
func New(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

// Newf builds a malformed-header/truncated/unsupported style error from
// a format string.
func Newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

// Limit builds a resource-limit error reporting the limit that was
// exceeded in human-readable form.
func Limit(what string, got, max uint64) *Error {
	return &Error{
		Kind:        ResourceLimit,
		OutOfMemory: true,
		Err: fmt.Errorf("%s %s exceeds limit %s", what,
			humanize.Bytes(got), humanize.Bytes(max)),
	}
}

// Alloc builds an allocation-failed error.
func Alloc(what string) *Error {
	return &Error{Kind: AllocationFailed, OutOfMemory: true, Err: fmt.Errorf("failed to allocate %s", what)}
}

// IsOutOfMemory reports whether err (or any error it wraps) was raised
// with the OutOfMemory flag set.
func IsOutOfMemory(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.OutOfMemory
	}
	return false
}
