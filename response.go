package bucketkit

// Response pairs an abstracted result with the untouched native backend
// response. The native half is the escape hatch for backend-specific
// metadata (SDK response objects, HTTP headers, pagination internals); the
// core never inspects it.
type Response[R any] struct {
	Result R
	Native any
}

// NewResponse wraps a result and its native counterpart.
func NewResponse[R any](result R, native any) *Response[R] {
	return &Response[R]{Result: result, Native: native}
}

// FileResult is the tagged "returning" variant: URI is always set; Entry
// is hydrated only when the resolved returning flag asked for entries.
type FileResult struct {
	URI   string
	Entry *FileEntry
}
