package bucketkit

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Error taxonomy. Every failure surfaced by the core belongs to exactly one
// of these categories; raw backend errors are wrapped once, at the provider
// boundary, into ErrNative.
var (
	ErrNotFound          = errors.New("entry not found")
	ErrDuplicatedElement = errors.New("element already registered")
	ErrInvalidParams     = errors.New("invalid parameters")
	ErrPermission        = errors.New("permission denied")
	ErrNative            = errors.New("native backend error")
	ErrUnknown           = errors.New("unknown error")

	// ErrNotSupported is returned when a backend lacks the capability an
	// operation requires (signed URLs, native paths, directory handling).
	ErrNotSupported = errors.New("operation not supported")

	// ErrNotAURI is the sentinel returned by ResolveFileURI when the input
	// does not look like a file URI at all; callers then treat the string
	// as a bucket-relative path.
	ErrNotAURI = errors.New("not a file uri")
)

// StorageError records a failed operation, the path it targeted, the
// taxonomy category it falls into, and the underlying cause (if any).
type StorageError struct {
	Op   string
	Path string
	Kind error // one of the taxonomy sentinels above
	Err  error // underlying cause, may be nil
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause, so
// errors.Is matches either chain.
func (e *StorageError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// storageErr is the internal constructor used at the provider boundary.
func storageErr(op, path string, kind, cause error) *StorageError {
	return &StorageError{Op: op, Path: path, Kind: kind, Err: cause}
}

// normalizeError applies the wrap-once policy at the provider boundary.
// Errors already carrying a taxonomy category pass through untouched, as do
// context cancellations; recognized "does not exist" errors become
// ErrNotFound; anything else is wrapped as ErrNative.
func normalizeError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, os.ErrNotExist), errors.Is(err, fs.ErrNotExist):
		return storageErr(op, path, ErrNotFound, err)
	case errors.Is(err, ErrDuplicatedElement):
		return storageErr(op, path, ErrDuplicatedElement, err)
	case errors.Is(err, ErrInvalidParams):
		return storageErr(op, path, ErrInvalidParams, err)
	case errors.Is(err, ErrPermission), errors.Is(err, os.ErrPermission):
		return storageErr(op, path, ErrPermission, err)
	case errors.Is(err, ErrNotSupported):
		return storageErr(op, path, ErrNotSupported, err)
	default:
		return storageErr(op, path, ErrNative, err)
	}
}

// IsNotFound reports whether an error indicates a missing entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicatedElement reports whether an error indicates a duplicate
// registration (provider name, bucket name, or bucket alias).
func IsDuplicatedElement(err error) bool {
	return errors.Is(err, ErrDuplicatedElement)
}

// IsInvalidParams reports whether an error indicates rejected parameters.
func IsInvalidParams(err error) bool {
	return errors.Is(err, ErrInvalidParams)
}

// IsPermission reports whether an error indicates a permission denial.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermission)
}

// IsNative reports whether an error wraps a raw backend failure.
func IsNative(err error) bool {
	return errors.Is(err, ErrNative)
}
