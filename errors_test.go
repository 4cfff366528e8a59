package bucketkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestNormalizeError(t *testing.T) {
	cause := errors.New("disk on fire")

	tests := []struct {
		name string
		in   error
		kind error
	}{
		{name: "not exist", in: os.ErrNotExist, kind: ErrNotFound},
		{name: "wrapped not found", in: fmt.Errorf("x: %w", ErrNotFound), kind: ErrNotFound},
		{name: "duplicated", in: fmt.Errorf("x: %w", ErrDuplicatedElement), kind: ErrDuplicatedElement},
		{name: "invalid params", in: fmt.Errorf("x: %w", ErrInvalidParams), kind: ErrInvalidParams},
		{name: "permission", in: os.ErrPermission, kind: ErrPermission},
		{name: "not supported", in: fmt.Errorf("x: %w", ErrNotSupported), kind: ErrNotSupported},
		{name: "raw backend error", in: cause, kind: ErrNative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := normalizeError("op", "some/path", tt.in)
			if !errors.Is(err, tt.kind) {
				t.Errorf("normalizeError(%v) kind = %v, want %v", tt.in, err, tt.kind)
			}
			var se *StorageError
			if !errors.As(err, &se) {
				t.Fatalf("normalizeError(%v) is not a StorageError: %T", tt.in, err)
			}
			if se.Op != "op" || se.Path != "some/path" {
				t.Errorf("StorageError fields = %q, %q", se.Op, se.Path)
			}
		})
	}
}

func TestNormalizeErrorWrapOnce(t *testing.T) {
	inner := storageErr("put", "a.txt", ErrNative, errors.New("boom"))
	out := normalizeError("copy", "b.txt", inner)
	if out != inner { //nolint:errorlint // identity is the point
		t.Errorf("already-wrapped error was re-wrapped: %v", out)
	}
}

func TestNormalizeErrorContext(t *testing.T) {
	if err := normalizeError("op", "p", context.Canceled); !errors.Is(err, context.Canceled) || IsNative(err) {
		t.Errorf("context.Canceled mishandled: %v", err)
	}
	if err := normalizeError("op", "p", nil); err != nil {
		t.Errorf("nil error produced %v", err)
	}
}

func TestStorageErrorUnwrapBothChains(t *testing.T) {
	cause := os.ErrNotExist
	err := normalizeError("get", "x", cause)

	if !IsNotFound(err) {
		t.Error("taxonomy chain broken: not NotFound")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("cause chain broken: not os.ErrNotExist")
	}
}

func TestStorageErrorMessage(t *testing.T) {
	err := storageErr("delete", "a/b.txt", ErrPermission, nil)
	want := "delete a/b.txt: permission denied"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
