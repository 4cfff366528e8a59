package bucketkit

import (
	"fmt"
	"strconv"
	"strings"
)

// Permission bits, matching the conventional octal digit layout.
const (
	PermRead    uint32 = 4
	PermWrite   uint32 = 2
	PermExecute uint32 = 1
)

// ParseMode converts a mode string such as "0755" or "644" to its numeric
// value. The string is interpreted as octal regardless of a leading zero.
func ParseMode(mode string) (uint32, error) {
	s := strings.TrimSpace(mode)
	s = strings.TrimPrefix(s, "0o")
	if s == "" {
		return 0, fmt.Errorf("%w: empty permission mode", ErrInvalidParams)
	}
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: permission mode %q is not octal", ErrInvalidParams, mode)
	}
	return uint32(v), nil
}

// CheckPermissionMode reports whether the owner digit of mode grants the
// required bits. The mode is masked with 0o777 and only the most
// significant (owner) digit is consulted: single-tenant semantics, not
// POSIX group/other.
func CheckPermissionMode(required, mode uint32) bool {
	owner := (mode & 0o777) >> 6
	return owner&required != 0
}

// CheckPermission is the string-mode variant of CheckPermissionMode.
func CheckPermission(required uint32, mode string) (bool, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return false, err
	}
	return CheckPermissionMode(required, m), nil
}

// CanReadMode reports whether mode grants owner read access.
func CanReadMode(mode string) (bool, error) {
	return CheckPermission(PermRead, mode)
}

// CanWriteMode reports whether mode grants owner write access.
func CanWriteMode(mode string) (bool, error) {
	return CheckPermission(PermWrite, mode)
}
