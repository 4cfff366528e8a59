package bucketkit

import (
	"context"
	"io"
)

// AliasStrategy selects how a bucket's globally unique alias is derived
// from its provider-local name.
type AliasStrategy string

const (
	// AliasName uses the bucket name as-is. Two providers registering the
	// same bucket name will collide in the session's global registry.
	AliasName AliasStrategy = "name"

	// AliasProviderName prefixes the bucket name with the provider name,
	// "provider:bucket".
	AliasProviderName AliasStrategy = "provider:name"

	// AliasCustom delegates to the provider's AliasFunc.
	AliasCustom AliasStrategy = "custom"
)

// AliasFunc derives a bucket alias under the AliasCustom strategy.
type AliasFunc func(providerName, bucketName string) string

// BucketConfig holds per-bucket settings. Unset fields inherit the
// provider's defaults, which in turn inherit the session's.
type BucketConfig struct {
	// Mode is the bucket's 3-digit octal permission mode.
	Mode string

	// AutoCleanup overrides the provider's empty-directory cleanup flag.
	AutoCleanup *bool

	// Returning overrides the provider's entry-hydration flag.
	Returning *bool

	// Native carries backend-specific bucket settings (region, storage
	// class, root subpath, ...).
	Native map[string]string
}

// Bucket is a named namespace within a provider. It holds no state beyond
// identity and configuration: every operation is pure delegation to the
// owning provider, gated by the bucket's permission mode.
type Bucket struct {
	name     string
	alias    string
	config   BucketConfig
	provider *Provider
}

// Name returns the provider-local bucket name.
func (b *Bucket) Name() string {
	return b.name
}

// Alias returns the bucket's session-wide unique alias.
func (b *Bucket) Alias() string {
	return b.alias
}

// Provider returns the owning provider.
func (b *Bucket) Provider() *Provider {
	return b.provider
}

// Config returns the bucket's configuration.
func (b *Bucket) Config() BucketConfig {
	return b.config
}

// Mode returns the effective permission mode: the bucket's own, else the
// provider's, else the session default.
func (b *Bucket) Mode() string {
	if b.config.Mode != "" {
		return b.config.Mode
	}
	return b.provider.Mode()
}

// CanRead reports whether the bucket's mode grants owner read access.
func (b *Bucket) CanRead() bool {
	ok, err := CanReadMode(b.Mode())
	return err == nil && ok
}

// CanWrite reports whether the bucket's mode grants owner write access.
func (b *Bucket) CanWrite() bool {
	ok, err := CanWriteMode(b.Mode())
	return err == nil && ok
}

// URI returns the canonical file URI for a path inside this bucket.
func (b *Bucket) URI(path string) string {
	return BuildFileURI(b.provider.Name(), b.alias, path)
}

// checkRead gates read-type operations on the bucket mode.
func (b *Bucket) checkRead(op string, ref PathRef) error {
	if !b.CanRead() {
		return storageErr(op, refPath(ref), ErrPermission, nil)
	}
	return nil
}

// checkWrite gates write-type operations on the bucket mode.
func (b *Bucket) checkWrite(op string, ref PathRef) error {
	if !b.CanWrite() {
		return storageErr(op, refPath(ref), ErrPermission, nil)
	}
	return nil
}

// writeTarget returns the bucket a destination ref actually writes into:
// the ref's own bucket for cross-bucket destinations, b otherwise. Its
// mode, not the source's, gates the write.
func (b *Bucket) writeTarget(ref PathRef) *Bucket {
	if dst := refBucket(ref); dst != nil {
		return dst
	}
	return b
}

// ============================================================================
// Facade methods: pure delegation to the owning provider
// ============================================================================

// PutFile writes a file from the reader.
func (b *Bucket) PutFile(ctx context.Context, ref PathRef, content io.Reader, opts ...Option) (*Response[*FileResult], error) {
	if err := b.checkWrite("put", ref); err != nil {
		return nil, err
	}
	return b.provider.PutFile(ctx, b, ref, content, opts...)
}

// GetFile hydrates the FileEntry at ref.
func (b *Bucket) GetFile(ctx context.Context, ref PathRef) (*Response[*FileEntry], error) {
	if err := b.checkRead("get", ref); err != nil {
		return nil, err
	}
	return b.provider.GetFile(ctx, b, ref)
}

// GetFileStream opens a read stream.
func (b *Bucket) GetFileStream(ctx context.Context, ref PathRef, opts ...Option) (*Response[io.ReadCloser], error) {
	if err := b.checkRead("stream", ref); err != nil {
		return nil, err
	}
	return b.provider.GetFileStream(ctx, b, ref, opts...)
}

// GetFileContents reads the whole file into memory.
func (b *Bucket) GetFileContents(ctx context.Context, ref PathRef, opts ...Option) (*Response[[]byte], error) {
	if err := b.checkRead("contents", ref); err != nil {
		return nil, err
	}
	return b.provider.GetFileContents(ctx, b, ref, opts...)
}

// FileExists reports whether a file exists at ref.
func (b *Bucket) FileExists(ctx context.Context, ref PathRef) (bool, error) {
	if err := b.checkRead("exists", ref); err != nil {
		return false, err
	}
	return b.provider.FileExists(ctx, b, ref)
}

// ListFiles lists files under ref, honoring the recursive, pattern,
// predicate, and returning options.
func (b *Bucket) ListFiles(ctx context.Context, ref PathRef, opts ...Option) (*Response[[]FileResult], error) {
	if err := b.checkRead("list", ref); err != nil {
		return nil, err
	}
	return b.provider.ListFiles(ctx, b, ref, opts...)
}

// CopyFile copies a single file. A *FileEntry destination pinned to a
// different bucket requests a cross-bucket copy.
func (b *Bucket) CopyFile(ctx context.Context, src, dst PathRef, opts ...Option) (*Response[*FileResult], error) {
	if err := b.checkRead("copy", src); err != nil {
		return nil, err
	}
	if err := b.writeTarget(dst).checkWrite("copy", dst); err != nil {
		return nil, err
	}
	return b.provider.CopyFile(ctx, b, src, dst, opts...)
}

// MoveFile moves a single file.
func (b *Bucket) MoveFile(ctx context.Context, src, dst PathRef, opts ...Option) (*Response[*FileResult], error) {
	if err := b.checkRead("move", src); err != nil {
		return nil, err
	}
	if err := b.checkWrite("move", src); err != nil {
		return nil, err
	}
	if err := b.writeTarget(dst).checkWrite("move", dst); err != nil {
		return nil, err
	}
	return b.provider.MoveFile(ctx, b, src, dst, opts...)
}

// DeleteFile deletes a single file; deleting a missing file succeeds.
func (b *Bucket) DeleteFile(ctx context.Context, ref PathRef, opts ...Option) (*Response[bool], error) {
	if err := b.checkWrite("delete", ref); err != nil {
		return nil, err
	}
	return b.provider.DeleteFile(ctx, b, ref, opts...)
}

// CopyFiles recursively copies every file under srcDir matching pattern
// into dstDir, preserving relative sub-paths.
func (b *Bucket) CopyFiles(ctx context.Context, srcDir, dstDir PathRef, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	if err := b.checkRead("copy-batch", srcDir); err != nil {
		return nil, err
	}
	if err := b.writeTarget(dstDir).checkWrite("copy-batch", dstDir); err != nil {
		return nil, err
	}
	return b.provider.CopyFiles(ctx, b, srcDir, dstDir, pattern, opts...)
}

// MoveFiles recursively moves matching files and optionally cleans up
// directories left empty under srcDir.
func (b *Bucket) MoveFiles(ctx context.Context, srcDir, dstDir PathRef, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	if err := b.checkRead("move-batch", srcDir); err != nil {
		return nil, err
	}
	if err := b.checkWrite("move-batch", srcDir); err != nil {
		return nil, err
	}
	if err := b.writeTarget(dstDir).checkWrite("move-batch", dstDir); err != nil {
		return nil, err
	}
	return b.provider.MoveFiles(ctx, b, srcDir, dstDir, pattern, opts...)
}

// DeleteFiles recursively deletes matching files under dir.
func (b *Bucket) DeleteFiles(ctx context.Context, dir PathRef, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	if err := b.checkWrite("delete-batch", dir); err != nil {
		return nil, err
	}
	return b.provider.DeleteFiles(ctx, b, dir, pattern, opts...)
}

// RemoveEmptyDirectories removes directories under ref left without any
// (transitive) file, bottom-up.
func (b *Bucket) RemoveEmptyDirectories(ctx context.Context, ref PathRef) (*Response[int], error) {
	if err := b.checkWrite("cleanup", ref); err != nil {
		return nil, err
	}
	return b.provider.RemoveEmptyDirectories(ctx, b, ref)
}

// CreateDirectory explicitly creates a directory on hierarchical
// backends.
func (b *Bucket) CreateDirectory(ctx context.Context, ref PathRef) error {
	if err := b.checkWrite("mkdir", ref); err != nil {
		return err
	}
	return b.provider.CreateDirectory(ctx, b, ref)
}

// GetSignedURL returns a pre-signed URL for ref.
func (b *Bucket) GetSignedURL(ctx context.Context, ref PathRef, opts ...Option) (string, error) {
	if err := b.checkRead("sign", ref); err != nil {
		return "", err
	}
	return b.provider.GetSignedURL(ctx, b, ref, opts...)
}

// GetPublicURL returns the public URL for ref.
func (b *Bucket) GetPublicURL(ref PathRef) (string, error) {
	return b.provider.GetPublicURL(b, ref)
}

// NativePath returns the backend-native form of ref.
func (b *Bucket) NativePath(ref PathRef) (string, error) {
	return b.provider.NativePath(b, ref)
}

// Checksum streams the file at ref through the given algorithm.
func (b *Bucket) Checksum(ctx context.Context, ref PathRef, algorithm ChecksumAlgorithm) (string, error) {
	if err := b.checkRead("checksum", ref); err != nil {
		return "", err
	}
	return b.provider.Checksum(ctx, b, ref, algorithm)
}
