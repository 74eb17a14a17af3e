package mpix

import "github.com/deepteams/mpix/internal/errno"

// Sentinel errors an Image's methods return, wrapping internal/errno so
// callers can test with errors.Is(err, mpix.ErrInvalid) instead of
// comparing strings.
var (
	ErrInvalid       = errno.EINVAL
	ErrRange         = errno.ERANGE
	ErrNoMemory      = errno.ENOMEM
	ErrNotImplemented = errno.ENOSYS
	ErrNoBuffers     = errno.ENOBUFS
	ErrNoSpace       = errno.ENOSPC
	ErrCancelled     = errno.ECANCELED
)
