package writers

import (
	"errors"
	"io"
	"syscall"
)

// IsBrokenPipe reports whether a write failed because the reader of the
// tick stream went away, as with `heatsim --builtin leshak-gun | head`.
// Runs ending this way still exit 0.
func IsBrokenPipe(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, syscall.EPIPE), errors.Is(err, io.ErrClosedPipe):
		return true
	default:
		return false
	}
}
