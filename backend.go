package bucketkit

import (
	"context"
	"io"
	"time"
)

// ListPage is one page of a backend listing. Hierarchical backends return
// a single page per directory level, including directory entries, and
// leave NextPageToken empty. Flat-namespace backends return file entries
// under a prefix and set NextPageToken while more pages remain; the engine
// loops until the token is empty.
type ListPage struct {
	Entries       []*FileEntry
	NextPageToken string
}

// Backend is the minimal primitive contract a driver must satisfy for the
// batch-operation engine to provide recursive and bulk operations
// generically: stream-read, write, delete-one, and
// list-one-level-or-prefix. Everything else is an optional capability.
//
// Backends report a missing entry with ErrNotFound (directly or via a
// StorageError); any other error is wrapped once as ErrNative at the
// provider boundary.
type Backend interface {
	// Init prepares the backend (login, root-directory creation).
	Init(ctx context.Context) error

	// Dispose releases backend resources.
	Dispose(ctx context.Context) error

	// Put writes a file from the reader.
	Put(ctx context.Context, bucket *Bucket, path string, content io.Reader, opts *Options) (*Response[*FileEntry], error)

	// Open returns a stream for reading a file.
	Open(ctx context.Context, bucket *Bucket, path string, opts *Options) (*Response[io.ReadCloser], error)

	// Remove deletes a single file. A missing file is an ErrNotFound,
	// which the engine treats as success (idempotent delete).
	Remove(ctx context.Context, bucket *Bucket, path string, opts *Options) (*Response[bool], error)

	// List returns one level (hierarchical) or one prefix page (flat) at
	// path, resuming at opts.PageToken when set.
	List(ctx context.Context, bucket *Bucket, path string, opts *Options) (*Response[*ListPage], error)
}

// ============================================================================
// Optional capability interfaces
// ============================================================================
// Drivers expose extras through type assertion; the engine substitutes a
// generic implementation when a capability is absent:
//
//	if copier, ok := backend.(Copier); ok {
//	    return copier.Copy(ctx, bucket, src, dst, opts)
//	}

// Copier indicates native (typically server-side) copy support. Without
// it the engine bridges a read stream into a write.
type Copier interface {
	Copy(ctx context.Context, bucket *Bucket, src, dst string, opts *Options) (*Response[*FileEntry], error)
}

// Mover indicates native move/rename support. Without it the engine
// copies then deletes the source.
type Mover interface {
	Move(ctx context.Context, bucket *Bucket, src, dst string, opts *Options) (*Response[*FileEntry], error)
}

// Stater indicates native single-entry metadata lookup. Without it the
// engine hydrates entries by listing the parent level.
type Stater interface {
	Stat(ctx context.Context, bucket *Bucket, path string) (*Response[*FileEntry], error)
}

// DirMaker indicates explicit directory creation on hierarchical
// backends. Flat-namespace backends have no directories to create.
type DirMaker interface {
	MakeDir(ctx context.Context, bucket *Bucket, path string) error
}

// DirRemover indicates explicit removal of (empty) directories. The
// cleanup pass is a no-op on backends without it.
type DirRemover interface {
	RemoveDir(ctx context.Context, bucket *Bucket, path string) error
}

// Signer indicates native pre-signed URL support. Without it the engine
// falls back to the session-level URL generator.
type Signer interface {
	SignedURL(ctx context.Context, bucket *Bucket, path string, expires time.Duration) (string, error)
}

// PublicURLer indicates native public (unsigned) URL support.
type PublicURLer interface {
	PublicURL(bucket *Bucket, path string) (string, error)
}

// NativePather exposes the backend-native form of a path (absolute disk
// path, object key with prefix, ...).
type NativePather interface {
	NativePath(bucket *Bucket, path string) (string, error)
}

// BucketManager lets a provider create, physically destroy, and enumerate
// bucket containers. Providers on backends without it manage buckets as a
// registry-only concept.
type BucketManager interface {
	// MakeBucket creates the physical container for a bucket.
	MakeBucket(ctx context.Context, bucket *Bucket) error

	// DestroyBucket deletes the physical container and its contents.
	DestroyBucket(ctx context.Context, bucket *Bucket) error

	// ListBucketContainers enumerates container names that exist on the
	// backend, registered or not.
	ListBucketContainers(ctx context.Context) ([]string, error)
}
