package bucketkit

import (
	"time"
)

// Option configures a single operation.
type Option func(*Options)

// Options carries all per-operation settings. Operations read only the
// fields that apply to them; backends receive the same struct so native
// options can ride along.
type Options struct {
	// ContentType sets the MIME type for writes; detected when empty.
	ContentType string

	// Metadata attaches backend metadata to written files.
	Metadata map[string]string

	// Overwrite allows writes to replace existing files.
	Overwrite bool

	// Recursive makes listings descend into subdirectories.
	Recursive bool

	// Pattern filters listing and batch results. Applied per page/level,
	// before the predicate and before recursion.
	Pattern Pattern

	// Filter is the custom predicate, applied after the pattern.
	Filter func(*FileEntry) bool

	// Returning overrides the hydration flag: true returns FileEntry
	// objects, false bare URIs. Unset falls back to bucket config, then
	// provider config, then session config.
	Returning *bool

	// Cleanup overrides the empty-directory cleanup flag after move and
	// delete operations. Same fallback chain as Returning.
	Cleanup *bool

	// PageToken resumes a paginated backend listing.
	PageToken string

	// Expires overrides the provider's default signed-URL lifetime.
	Expires time.Duration

	// Native passes backend-specific options through untouched.
	Native map[string]any

	// suppressCleanup disables per-call cleanup inside batch fan-out; the
	// batch runs cleanup once at the end instead.
	suppressCleanup bool
}

func applyOptions(opts []Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// clone returns a shallow copy, used when the engine adjusts options for
// internal sub-operations.
func (o *Options) clone() *Options {
	c := *o
	return &c
}

// WithContentType sets the MIME type of a written file.
func WithContentType(contentType string) Option {
	return func(o *Options) { o.ContentType = contentType }
}

// WithMetadata attaches metadata to a written file.
func WithMetadata(metadata map[string]string) Option {
	return func(o *Options) { o.Metadata = metadata }
}

// WithOverwrite allows or forbids replacing existing files.
func WithOverwrite(overwrite bool) Option {
	return func(o *Options) { o.Overwrite = overwrite }
}

// WithRecursive toggles recursive listing.
func WithRecursive(recursive bool) Option {
	return func(o *Options) { o.Recursive = recursive }
}

// WithPattern filters results by pattern.
func WithPattern(p Pattern) Option {
	return func(o *Options) { o.Pattern = p }
}

// WithGlob is shorthand for WithPattern(GlobPattern(pattern)).
func WithGlob(pattern string) Option {
	return func(o *Options) { o.Pattern = GlobPattern(pattern) }
}

// WithFilter sets the custom predicate, evaluated after the pattern.
func WithFilter(fn func(*FileEntry) bool) Option {
	return func(o *Options) { o.Filter = fn }
}

// WithReturning overrides the entry-hydration flag for this call.
func WithReturning(returning bool) Option {
	return func(o *Options) { o.Returning = &returning }
}

// WithCleanup overrides the empty-directory cleanup flag for this call.
func WithCleanup(cleanup bool) Option {
	return func(o *Options) { o.Cleanup = &cleanup }
}

// WithPageToken resumes a paginated listing at the given backend token.
func WithPageToken(token string) Option {
	return func(o *Options) { o.PageToken = token }
}

// WithExpires overrides the signed-URL lifetime.
func WithExpires(expires time.Duration) Option {
	return func(o *Options) { o.Expires = expires }
}

// WithNative passes a backend-specific option through the core untouched.
func WithNative(key string, value any) Option {
	return func(o *Options) {
		if o.Native == nil {
			o.Native = make(map[string]any)
		}
		o.Native[key] = value
	}
}
