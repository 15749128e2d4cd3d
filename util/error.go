package util

import (
	"strings"
)

// -----------------------------------------------------------------------------

type extendedError struct {
	message string
	err     error
}

// -----------------------------------------------------------------------------

// NewExtendedError wraps err and prepends the given message. The wrapped error remains reachable
// through errors.Is and errors.As so sentinel errors keep their identity.
func NewExtendedError(err error, message string) error {
	return &extendedError{
		message: message,
		err:     err,
	}
}

// Error returns the message followed by every cause in the chain, e.g. "a [err=b [err=c]]".
func (w *extendedError) Error() string {
	sb := strings.Builder{}
	_, _ = sb.WriteString(w.message)

	opened := 0
	for err := w.err; err != nil; {
		_, _ = sb.WriteString(" [err=")
		opened += 1

		childW, ok := err.(*extendedError)
		if !ok {
			// A foreign error renders its own chain.
			_, _ = sb.WriteString(err.Error())
			break
		}
		_, _ = sb.WriteString(childW.message)
		err = childW.err
	}
	_, _ = sb.WriteString(strings.Repeat("]", opened))

	// Done
	return sb.String()
}

// Unwrap returns the underlying error.
func (w *extendedError) Unwrap() error {
	return w.err
}
