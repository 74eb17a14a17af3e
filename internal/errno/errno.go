// Package errno defines the small, closed set of POSIX-style error codes
// that mpix surfaces across its public API. Every sticky error an Image
// records wraps one of these so callers can compare with errors.Is instead
// of matching on error strings.
package errno

import "fmt"

// Errno is a POSIX-style error code. The zero value is not a valid Errno;
// use Errno.Error to render it and errors.Is to test for a specific code.
type Errno int

const (
	_ Errno = iota
	EINVAL
	ERANGE
	ENOMEM
	ENOSYS
	ENOBUFS
	ENOSPC
	ECANCELED
)

var names = map[Errno]string{
	EINVAL:    "EINVAL",
	ERANGE:    "ERANGE",
	ENOMEM:    "ENOMEM",
	ENOSYS:    "ENOSYS",
	ENOBUFS:   "ENOBUFS",
	ENOSPC:    "ENOSPC",
	ECANCELED: "ECANCELED",
}

func (e Errno) Error() string {
	if name, ok := names[e]; ok {
		return name
	}
	return fmt.Sprintf("errno(%d)", int(e))
}

// Is lets errors.Is match a wrapped Errno against a bare Errno value,
// e.g. errors.Is(img.Err(), errno.ENOSPC).
func (e Errno) Is(target error) bool {
	t, ok := target.(Errno)
	return ok && t == e
}

// Wrap attaches context to e without losing its identity under errors.Is.
func Wrap(e Errno, context string) error {
	return &wrapped{code: e, context: context}
}

type wrapped struct {
	code    Errno
	context string
}

func (w *wrapped) Error() string {
	if w.context == "" {
		return w.code.Error()
	}
	return w.context + ": " + w.code.Error()
}

func (w *wrapped) Unwrap() error { return w.code }
