package avi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructural marks a missing chunk or a chunk with the wrong four-character code.
	ErrStructural = errors.New("structural error")
	// ErrConsistency marks cross-checked fields that disagree.
	ErrConsistency = errors.New("consistency error")
	// ErrUnsupportedFormat marks streams other than uncompressed 24-bit video of the required size.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCountMismatch marks an index frame count outside the configured tolerance.
	ErrCountMismatch = errors.New("frame count mismatch")
	// ErrRange marks a frame index or crop window outside its bounds.
	ErrRange = errors.New("out of range")
)

// Error describes a terminal parse or access failure.
type Error struct {
	Kind   error
	Part   string
	Reason string
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if name := strings.TrimSpace(e.Part); name != "" {
		parts = append(parts, name)
	}
	if reason := strings.TrimSpace(e.Reason); reason != "" {
		parts = append(parts, reason)
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, part, format string, args ...any) *Error {
	return &Error{Kind: kind, Part: part, Reason: fmt.Sprintf(format, args...)}
}

// RangeError builds an ErrRange failure for callers outside the parser.
func RangeError(format string, args ...any) error {
	return newError(ErrRange, "", format, args...)
}

// Reason returns the human-readable reason carried by err, or err.Error() when
// err is not an *Error.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var aviErr *Error
	if errors.As(err, &aviErr) {
		return aviErr.Reason
	}
	return err.Error()
}
