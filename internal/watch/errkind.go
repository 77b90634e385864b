package watch

import (
	"errors"
	"io/fs"
	"syscall"
)

// errKindOf classifies a stat() failure into a small, comparable set of
// kinds so two unrelated errors of the same kind (e.g. two "not exist"
// failures from different stat calls) compare equal.
func errKindOf(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "not-exist"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	default:
		return "other"
	}
}

// errCodeOf extracts the underlying OS errno, if any, so two failures of
// the same kind but different errno (rare, but possible on some
// platforms) are still told apart.
func errCodeOf(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return ""
}
