package bucketkit

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultMode = "0777"

// ProviderConfig is the canonical provider configuration, built either
// from a config struct or from a provider URI (query parameters overlay
// struct fields).
type ProviderConfig struct {
	// Name is the provider's unique name within a session; it doubles as
	// the URI scheme for its buckets.
	Name string

	// Type selects the registered backend constructor.
	Type string

	// Mode is the default 3-digit octal permission mode for the
	// provider's buckets. Empty inherits the session default.
	Mode string

	// AutoCleanup is the provider-level empty-directory cleanup default.
	AutoCleanup *bool

	// Returning is the provider-level entry-hydration default.
	Returning *bool

	// SignedURLExpiry is the default signed-URL lifetime. Zero inherits
	// the session default.
	SignedURLExpiry time.Duration

	// AliasStrategy picks how bucket aliases are derived; AliasName when
	// empty.
	AliasStrategy AliasStrategy

	// AliasFunc backs the AliasCustom strategy.
	AliasFunc AliasFunc

	// SupportsCrossBucket declares that the provider can be the
	// destination of cross-bucket and cross-provider operations.
	SupportsCrossBucket bool

	// DisableAutoInit skips the automatic Init call on registration.
	DisableAutoInit bool

	// Replace disposes an existing provider with the same name instead
	// of failing with DuplicatedElement.
	Replace bool

	// Native carries backend-specific settings (credentials, endpoints).
	Native map[string]string
}

func (c *ProviderConfig) validate() error {
	if c.Name == "" || c.Type == "" {
		return fmt.Errorf("%w: provider name and type are required", ErrInvalidParams)
	}
	if !providerNamePattern.MatchString(c.Name) {
		return fmt.Errorf("%w: provider name %q", ErrInvalidParams, c.Name)
	}
	if !providerNamePattern.MatchString(c.Type) {
		return fmt.Errorf("%w: provider type %q", ErrInvalidParams, c.Type)
	}
	return nil
}

// Provider wraps one backend driver instance and implements the generic
// batch-operation engine on top of the backend's primitive contract.
// Batch operations fan out all matched items concurrently with no
// concurrency cap.
type Provider struct {
	mu           sync.RWMutex
	name         string
	providerType string
	config       ProviderConfig
	backend      Backend
	buckets      *Registry[string, *Bucket]
	session      *Session
	observers    observerList
	ready        bool
}

// NewProvider creates a provider over an already-constructed backend.
// Sessions normally construct providers through registered provider
// types; this constructor is for embedders and driver tests.
func NewProvider(cfg ProviderConfig, backend Backend) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrInvalidParams)
	}
	return &Provider{
		name:         cfg.Name,
		providerType: cfg.Type,
		config:       cfg,
		backend:      backend,
		buckets:      NewRegistry[string, *Bucket](),
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.name }

// Type returns the backend type name.
func (p *Provider) Type() string { return p.providerType }

// Config returns the provider configuration.
func (p *Provider) Config() ProviderConfig { return p.config }

// Backend returns the underlying backend driver.
func (p *Provider) Backend() Backend { return p.backend }

// Session returns the owning session, nil for standalone providers.
func (p *Provider) Session() *Session { return p.session }

// Ready reports whether Init has completed.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// SupportsCrossBucketOperations reports the declared capability gate for
// cross-bucket and cross-provider destinations.
func (p *Provider) SupportsCrossBucketOperations() bool {
	return p.config.SupportsCrossBucket
}

// Mode returns the provider's effective permission mode.
func (p *Provider) Mode() string {
	if p.config.Mode != "" {
		return p.config.Mode
	}
	if p.session != nil && p.session.config.DefaultMode != "" {
		return p.session.config.DefaultMode
	}
	return defaultMode
}

// Subscribe registers a bucket lifecycle observer and returns its
// unsubscribe function.
func (p *Provider) Subscribe(o BucketObserver) (unsubscribe func()) {
	return p.observers.subscribe(o)
}

// Init prepares the backend (login, root creation). Calling Init on a
// ready provider is a no-op.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready {
		return nil
	}
	if err := p.backend.Init(ctx); err != nil {
		return normalizeError("init", p.name, err)
	}
	p.ready = true
	return nil
}

// Dispose tears the provider down: every bucket is unregistered (with
// lifecycle events, so the session's global registry stays consistent)
// and the backend is released.
func (p *Provider) Dispose(ctx context.Context) error {
	for _, b := range p.buckets.List() {
		p.observers.emit(BucketEvent{Type: BeforeBucketRemove, Provider: p, Bucket: b}) //nolint:errcheck // disposal is not abortable
		p.buckets.Remove(b.Name())
		p.observers.emit(BucketEvent{Type: AfterBucketRemove, Provider: p, Bucket: b}) //nolint:errcheck
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ready {
		return nil
	}
	p.ready = false
	if err := p.backend.Dispose(ctx); err != nil {
		return normalizeError("dispose", p.name, err)
	}
	return nil
}

func (p *Provider) requireReady(op, path string) error {
	if !p.Ready() {
		return storageErr(op, path, ErrInvalidParams, fmt.Errorf("provider %q not initialized", p.name))
	}
	return nil
}

// ============================================================================
// Bucket lifecycle
// ============================================================================

func (p *Provider) aliasFor(name string) string {
	switch p.config.AliasStrategy {
	case AliasProviderName:
		return p.name + ":" + name
	case AliasCustom:
		if p.config.AliasFunc != nil {
			return p.config.AliasFunc(p.name, name)
		}
		return name
	default:
		return name
	}
}

// AddBucket creates and registers a bucket. The alias derived by the
// provider's strategy must be free session-wide; the session's observer
// rejects duplicates with DuplicatedElement before anything is created.
func (p *Provider) AddBucket(ctx context.Context, name string, cfg *BucketConfig) (*Bucket, error) {
	if name == "" {
		return nil, storageErr("add-bucket", name, ErrInvalidParams, fmt.Errorf("bucket name is required"))
	}
	if err := p.requireReady("add-bucket", name); err != nil {
		return nil, err
	}

	bucket := &Bucket{
		name:     name,
		alias:    p.aliasFor(name),
		provider: p,
	}
	if cfg != nil {
		bucket.config = *cfg
	}

	if err := p.observers.emit(BucketEvent{Type: BeforeBucketAdd, Provider: p, Bucket: bucket}); err != nil {
		return nil, normalizeError("add-bucket", name, err)
	}
	if err := p.buckets.Add(name, bucket, false); err != nil {
		return nil, normalizeError("add-bucket", name, err)
	}

	if mgr, ok := p.backend.(BucketManager); ok {
		if err := mgr.MakeBucket(ctx, bucket); err != nil {
			p.buckets.Remove(name)
			return nil, normalizeError("add-bucket", name, err)
		}
	}

	if err := p.observers.emit(BucketEvent{Type: AfterBucketAdd, Provider: p, Bucket: bucket}); err != nil {
		p.buckets.Remove(name)
		return nil, normalizeError("add-bucket", name, err)
	}
	return bucket, nil
}

// GetBucket returns a registered bucket by its provider-local name.
func (p *Provider) GetBucket(name string) (*Bucket, bool) {
	return p.buckets.Get(name)
}

// ListBuckets returns all registered buckets.
func (p *Provider) ListBuckets() []*Bucket {
	return p.buckets.List()
}

// RemoveBucket unregisters a bucket without touching its contents.
func (p *Provider) RemoveBucket(ctx context.Context, name string) error {
	bucket, ok := p.buckets.Get(name)
	if !ok {
		return storageErr("remove-bucket", name, ErrNotFound, nil)
	}
	if err := p.observers.emit(BucketEvent{Type: BeforeBucketRemove, Provider: p, Bucket: bucket}); err != nil {
		return normalizeError("remove-bucket", name, err)
	}
	p.buckets.Remove(name)
	if err := p.observers.emit(BucketEvent{Type: AfterBucketRemove, Provider: p, Bucket: bucket}); err != nil {
		return normalizeError("remove-bucket", name, err)
	}
	return nil
}

// DestroyBucket deletes the physical container and unregisters the
// bucket. Requires the backend's BucketManager capability.
func (p *Provider) DestroyBucket(ctx context.Context, name string) error {
	bucket, ok := p.buckets.Get(name)
	if !ok {
		return storageErr("destroy-bucket", name, ErrNotFound, nil)
	}
	mgr, ok := p.backend.(BucketManager)
	if !ok {
		return storageErr("destroy-bucket", name, ErrNotSupported, nil)
	}

	if err := p.observers.emit(BucketEvent{Type: BeforeBucketDestroy, Provider: p, Bucket: bucket}); err != nil {
		return normalizeError("destroy-bucket", name, err)
	}
	if err := mgr.DestroyBucket(ctx, bucket); err != nil {
		return normalizeError("destroy-bucket", name, err)
	}
	p.buckets.Remove(name)
	if err := p.observers.emit(BucketEvent{Type: AfterBucketDestroy, Provider: p, Bucket: bucket}); err != nil {
		return normalizeError("destroy-bucket", name, err)
	}
	return nil
}

// ListUnregisteredBuckets enumerates backend containers that exist but
// are not registered with this provider.
func (p *Provider) ListUnregisteredBuckets(ctx context.Context) ([]string, error) {
	mgr, ok := p.backend.(BucketManager)
	if !ok {
		return nil, storageErr("list-buckets", "", ErrNotSupported, nil)
	}
	containers, err := mgr.ListBucketContainers(ctx)
	if err != nil {
		return nil, normalizeError("list-buckets", "", err)
	}
	var out []string
	for _, name := range containers {
		if !p.buckets.Has(name) {
			out = append(out, name)
		}
	}
	return out, nil
}

// ============================================================================
// Option resolution
// ============================================================================

func (p *Provider) slugFunc() SlugFunc {
	if p.session != nil && p.session.slugFn != nil {
		return p.session.slugFn
	}
	return DefaultSlug
}

func (p *Provider) matcher() Matcher {
	if p.session != nil && p.session.matcher != nil {
		return p.session.matcher
	}
	return defaultMatcher
}

func (p *Provider) normRef(ref PathRef) string {
	return NormalizePath(refPath(ref), p.slugFunc())
}

// resolveReturning walks the fallback chain: explicit option, bucket
// config, provider config, session config; first non-null wins.
func (p *Provider) resolveReturning(o *Options, b *Bucket) bool {
	if o != nil && o.Returning != nil {
		return *o.Returning
	}
	if b != nil && b.config.Returning != nil {
		return *b.config.Returning
	}
	if p.config.Returning != nil {
		return *p.config.Returning
	}
	if p.session != nil {
		return p.session.config.Returning
	}
	return false
}

// resolveCleanup follows the same chain for the auto-cleanup flag.
func (p *Provider) resolveCleanup(o *Options, b *Bucket) bool {
	if o != nil && o.Cleanup != nil {
		return *o.Cleanup
	}
	if b != nil && b.config.AutoCleanup != nil {
		return *b.config.AutoCleanup
	}
	if p.config.AutoCleanup != nil {
		return *p.config.AutoCleanup
	}
	if p.session != nil {
		return p.session.config.AutoCleanup
	}
	return false
}

func (p *Provider) fileResult(b *Bucket, path string, entry *FileEntry, o *Options) FileResult {
	r := FileResult{URI: b.URI(path)}
	if p.resolveReturning(o, b) {
		if entry == nil {
			entry = &FileEntry{
				Path:   path,
				Name:   entryName(path),
				Exists: true,
				Type:   EntryFile,
			}
		}
		entry.Bucket = b
		r.Entry = entry
	}
	return r
}

// ============================================================================
// Single-file operations
// ============================================================================

// PutFile writes a file from the reader.
func (p *Provider) PutFile(ctx context.Context, b *Bucket, ref PathRef, content io.Reader, opts ...Option) (*Response[*FileResult], error) {
	o := applyOptions(opts)
	path := p.normRef(ref)
	if err := p.requireReady("put", path); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, storageErr("put", path, ErrInvalidParams, fmt.Errorf("cannot write to bucket root"))
	}

	resp, err := p.backend.Put(ctx, b, path, content, o)
	if err != nil {
		return nil, normalizeError("put", path, err)
	}
	result := p.fileResult(b, path, resp.Result, o)
	return NewResponse(&result, resp.Native), nil
}

// GetFile rehydrates the entry at ref, via the backend's Stater
// capability or, failing that, by listing the parent level.
func (p *Provider) GetFile(ctx context.Context, b *Bucket, ref PathRef) (*Response[*FileEntry], error) {
	path := p.normRef(ref)
	if err := p.requireReady("get", path); err != nil {
		return nil, err
	}

	if stater, ok := p.backend.(Stater); ok {
		resp, err := stater.Stat(ctx, b, path)
		if err != nil {
			return nil, normalizeError("get", path, err)
		}
		resp.Result.Bucket = b
		return resp, nil
	}

	entries, err := p.listLevel(ctx, b, parentDir(path), nil)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.Path == path {
			e.Bucket = b
			return NewResponse(e, nil), nil
		}
	}
	return nil, storageErr("get", path, ErrNotFound, nil)
}

// FileExists reports whether a file exists at ref.
func (p *Provider) FileExists(ctx context.Context, b *Bucket, ref PathRef) (bool, error) {
	resp, err := p.GetFile(ctx, b, ref)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return resp.Result.Exists && !resp.Result.IsDir(), nil
}

// GetFileStream opens a read stream for ref.
func (p *Provider) GetFileStream(ctx context.Context, b *Bucket, ref PathRef, opts ...Option) (*Response[io.ReadCloser], error) {
	o := applyOptions(opts)
	path := p.normRef(ref)
	if err := p.requireReady("stream", path); err != nil {
		return nil, err
	}
	resp, err := p.backend.Open(ctx, b, path, o)
	if err != nil {
		return nil, normalizeError("stream", path, err)
	}
	return resp, nil
}

// GetFileContents reads the whole file into memory via the stream
// primitive.
func (p *Provider) GetFileContents(ctx context.Context, b *Bucket, ref PathRef, opts ...Option) (*Response[[]byte], error) {
	resp, err := p.GetFileStream(ctx, b, ref, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Result.Close()

	data, err := io.ReadAll(resp.Result)
	if err != nil {
		return nil, normalizeError("contents", p.normRef(ref), err)
	}
	return NewResponse(data, resp.Native), nil
}

// DeleteFile deletes a single file. A missing file is success, never
// NotFound: the file is already gone.
func (p *Provider) DeleteFile(ctx context.Context, b *Bucket, ref PathRef, opts ...Option) (*Response[bool], error) {
	o := applyOptions(opts)
	path := p.normRef(ref)
	if err := p.requireReady("delete", path); err != nil {
		return nil, err
	}
	return p.deleteOne(ctx, b, path, o)
}

func (p *Provider) deleteOne(ctx context.Context, b *Bucket, path string, o *Options) (*Response[bool], error) {
	resp, err := p.backend.Remove(ctx, b, path, o)
	if err != nil {
		nerr := normalizeError("delete", path, err)
		if IsNotFound(nerr) {
			return NewResponse(false, nil), nil
		}
		return nil, nerr
	}

	if !o.suppressCleanup && p.resolveCleanup(o, b) {
		if _, err := p.removeEmptyDirs(ctx, b, parentDir(path)); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// CopyFile copies one file. Same-bucket copies use the backend's native
// Copier when available; everything else bridges a read stream into a
// write, which is what lets backends without a native copy primitive
// participate at the cost of a full read+write.
func (p *Provider) CopyFile(ctx context.Context, b *Bucket, src, dst PathRef, opts ...Option) (*Response[*FileResult], error) {
	o := applyOptions(opts)
	srcPath := p.normRef(src)
	dstBucket, dstPath, err := p.resolveDestination(b, dst, "copy", srcPath)
	if err != nil {
		return nil, err
	}
	if err := p.requireReady("copy", srcPath); err != nil {
		return nil, err
	}

	entry, native, err := p.copyOne(ctx, b, srcPath, dstBucket, dstPath, o)
	if err != nil {
		return nil, err
	}
	result := dstBucket.provider.fileResult(dstBucket, dstPath, entry, o)
	return NewResponse(&result, native), nil
}

// MoveFile moves one file: the backend's native Mover for same-bucket
// moves, copy-then-delete otherwise.
func (p *Provider) MoveFile(ctx context.Context, b *Bucket, src, dst PathRef, opts ...Option) (*Response[*FileResult], error) {
	o := applyOptions(opts)
	srcPath := p.normRef(src)
	dstBucket, dstPath, err := p.resolveDestination(b, dst, "move", srcPath)
	if err != nil {
		return nil, err
	}
	if err := p.requireReady("move", srcPath); err != nil {
		return nil, err
	}

	if dstBucket == b {
		if mover, ok := p.backend.(Mover); ok {
			resp, err := mover.Move(ctx, b, srcPath, dstPath, o)
			if err != nil {
				return nil, normalizeError("move", srcPath, err)
			}
			if !o.suppressCleanup && p.resolveCleanup(o, b) {
				if _, err := p.removeEmptyDirs(ctx, b, parentDir(srcPath)); err != nil {
					return nil, err
				}
			}
			result := p.fileResult(b, dstPath, resp.Result, o)
			return NewResponse(&result, resp.Native), nil
		}
	}

	entry, native, err := p.copyOne(ctx, b, srcPath, dstBucket, dstPath, o)
	if err != nil {
		return nil, err
	}
	if _, err := p.deleteOne(ctx, b, srcPath, o); err != nil {
		return nil, err
	}
	result := dstBucket.provider.fileResult(dstBucket, dstPath, entry, o)
	return NewResponse(&result, native), nil
}

// resolveDestination normalizes a destination ref and enforces the
// cross-bucket guard: a destination bucket other than the source must
// belong to a provider declaring SupportsCrossBucketOperations, checked
// before any I/O occurs.
func (p *Provider) resolveDestination(src *Bucket, dst PathRef, op, srcPath string) (*Bucket, string, error) {
	dstBucket := refBucket(dst)
	if dstBucket == nil {
		dstBucket = src
	}
	dstPath := dstBucket.provider.normRef(dst)

	if dstBucket != src && !dstBucket.provider.SupportsCrossBucketOperations() {
		return nil, "", storageErr(op, srcPath, ErrInvalidParams,
			fmt.Errorf("provider %q does not support cross-bucket operations", dstBucket.provider.Name()))
	}
	return dstBucket, dstPath, nil
}

// copyOne is the generic copy primitive: native fast path within one
// bucket, read-stream-into-write everywhere else.
func (p *Provider) copyOne(ctx context.Context, srcBucket *Bucket, srcPath string, dstBucket *Bucket, dstPath string, o *Options) (*FileEntry, any, error) {
	if srcBucket == dstBucket {
		if copier, ok := p.backend.(Copier); ok {
			resp, err := copier.Copy(ctx, srcBucket, srcPath, dstPath, o)
			if err != nil {
				return nil, nil, normalizeError("copy", srcPath, err)
			}
			return resp.Result, resp.Native, nil
		}
	}

	stream, err := p.backend.Open(ctx, srcBucket, srcPath, o)
	if err != nil {
		return nil, nil, normalizeError("copy", srcPath, err)
	}
	defer stream.Result.Close()

	wo := o.clone()
	wo.Overwrite = true
	dstProvider := dstBucket.provider
	resp, err := dstProvider.backend.Put(ctx, dstBucket, dstPath, stream.Result, wo)
	if err != nil {
		return nil, nil, normalizeError("copy", dstPath, err)
	}
	return resp.Result, resp.Native, nil
}

// ============================================================================
// Listing
// ============================================================================

// ListFiles lists files under ref. Pattern and predicate filtering run
// per page/level, pattern first, before any recursion.
func (p *Provider) ListFiles(ctx context.Context, b *Bucket, ref PathRef, opts ...Option) (*Response[[]FileResult], error) {
	o := applyOptions(opts)
	base := p.normRef(ref)
	if err := p.requireReady("list", base); err != nil {
		return nil, err
	}

	entries, err := p.listAll(ctx, b, base, base, o)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(entries))
	for i, e := range entries {
		results[i] = p.fileResult(b, e.Path, e, o)
	}
	return NewResponse(results, nil), nil
}

// listAll accumulates matching files under base. Hierarchical backends
// are walked depth-first; paginated backends are drained page by page via
// continuation tokens. root is the original listing base, which pattern
// matching is relative to.
func (p *Provider) listAll(ctx context.Context, b *Bucket, base, root string, o *Options) ([]*FileEntry, error) {
	var files []*FileEntry
	var dirs []*FileEntry

	token := o.PageToken
	for {
		lo := o.clone()
		lo.PageToken = token
		resp, err := p.backend.List(ctx, b, base, lo)
		if err != nil {
			return nil, normalizeError("list", base, err)
		}
		page := resp.Result

		for _, e := range page.Entries {
			e.Bucket = b
			if e.IsDir() {
				dirs = append(dirs, e)
				continue
			}
			ok, err := p.matchEntry(e, root, o)
			if err != nil {
				return nil, err
			}
			if ok {
				files = append(files, e)
			}
		}

		if page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	if o.Recursive {
		for _, d := range dirs {
			sub, err := p.listAll(ctx, b, d.Path, root, o)
			if err != nil {
				return nil, err
			}
			files = append(files, sub...)
		}
	}
	return files, nil
}

// matchEntry applies the fixed filter order: pattern match, then custom
// predicate. Matching is against the path relative to the listing root.
func (p *Provider) matchEntry(e *FileEntry, root string, o *Options) (bool, error) {
	rel := relativeTo(e.Path, root)
	ok, err := p.matcher().Match(o.Pattern, rel)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if o.Filter != nil && !o.Filter(e) {
		return false, nil
	}
	return true, nil
}

// listLevel drains a single level (all pages) without recursion or
// filtering. Used for entry hydration and directory cleanup.
func (p *Provider) listLevel(ctx context.Context, b *Bucket, base string, o *Options) ([]*FileEntry, error) {
	if o == nil {
		o = &Options{}
	}
	var out []*FileEntry
	token := ""
	for {
		lo := o.clone()
		lo.Recursive = false
		lo.PageToken = token
		resp, err := p.backend.List(ctx, b, base, lo)
		if err != nil {
			return nil, normalizeError("list", base, err)
		}
		page := resp.Result
		for _, e := range page.Entries {
			e.Bucket = b
		}
		out = append(out, page.Entries...)
		if page.NextPageToken == "" {
			return out, nil
		}
		token = page.NextPageToken
	}
}

func relativeTo(path, base string) string {
	if base == "" {
		return path
	}
	return strings.TrimPrefix(path, base+"/")
}

// ============================================================================
// Batch operations
// ============================================================================

// CopyFiles recursively lists srcDir, filters by pattern, and fans out
// one CopyFile per match concurrently, with no concurrency cap. The
// destination path of each match is its source path with the srcDir
// prefix swapped for dstDir. Results come back in listing order; the
// first failing item fails the whole batch.
func (p *Provider) CopyFiles(ctx context.Context, b *Bucket, srcDir, dstDir PathRef, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	return p.fanOut(ctx, b, srcDir, dstDir, pattern, opts, "copy-batch",
		func(ctx context.Context, b *Bucket, srcPath string, dstBucket *Bucket, dstPath string, o *Options) (*FileEntry, error) {
			entry, _, err := p.copyOne(ctx, b, srcPath, dstBucket, dstPath, o)
			return entry, err
		}, false)
}

// MoveFiles is the move fan-out: each match is moved with its per-call
// cleanup suppressed, then cleanup runs once over srcDir if the resolved
// cleanup flag is true.
func (p *Provider) MoveFiles(ctx context.Context, b *Bucket, srcDir, dstDir PathRef, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	return p.fanOut(ctx, b, srcDir, dstDir, pattern, opts, "move-batch",
		func(ctx context.Context, b *Bucket, srcPath string, dstBucket *Bucket, dstPath string, o *Options) (*FileEntry, error) {
			entry, _, err := p.copyOne(ctx, b, srcPath, dstBucket, dstPath, o)
			if err != nil {
				return nil, err
			}
			if _, err := p.deleteOne(ctx, b, srcPath, o); err != nil {
				return nil, err
			}
			return entry, nil
		}, true)
}

// DeleteFiles deletes every match under dir, then conditionally cleans up
// empty directories once.
func (p *Provider) DeleteFiles(ctx context.Context, b *Bucket, dir PathRef, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	o := applyOptions(opts)
	if pattern != "" {
		o.Pattern = GlobPattern(pattern)
	}
	o.Recursive = true
	base := p.normRef(dir)
	if err := p.requireReady("delete-batch", base); err != nil {
		return nil, err
	}

	entries, err := p.listAll(ctx, b, base, base, o)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		g.Go(func() error {
			do := o.clone()
			do.suppressCleanup = true
			if _, err := p.deleteOne(gctx, b, e.Path, do); err != nil {
				return err
			}
			results[i] = FileResult{URI: b.URI(e.Path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.resolveCleanup(o, b) {
		if _, err := p.removeEmptyDirs(ctx, b, base); err != nil {
			return nil, err
		}
	}
	return NewResponse(results, nil), nil
}

// fanOut is the shared copy/move batch skeleton.
func (p *Provider) fanOut(
	ctx context.Context,
	b *Bucket,
	srcDir, dstDir PathRef,
	pattern string,
	opts []Option,
	op string,
	item func(ctx context.Context, b *Bucket, srcPath string, dstBucket *Bucket, dstPath string, o *Options) (*FileEntry, error),
	cleanupSource bool,
) (*Response[[]FileResult], error) {
	o := applyOptions(opts)
	if pattern != "" {
		o.Pattern = GlobPattern(pattern)
	}
	o.Recursive = true

	src := p.normRef(srcDir)
	dstBucket, dst, err := p.resolveDestination(b, dstDir, op, src)
	if err != nil {
		return nil, err
	}
	if err := p.requireReady(op, src); err != nil {
		return nil, err
	}

	entries, err := p.listAll(ctx, b, src, src, o)
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, len(entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		rel := NormalizePath(relativeTo(e.Path, src), p.slugFunc())
		target := joinPath(dst, rel)
		g.Go(func() error {
			co := o.clone()
			co.suppressCleanup = true
			entry, err := item(gctx, b, e.Path, dstBucket, target, co)
			if err != nil {
				return err
			}
			results[i] = dstBucket.provider.fileResult(dstBucket, target, entry, o)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cleanupSource && p.resolveCleanup(o, b) {
		if _, err := p.removeEmptyDirs(ctx, b, src); err != nil {
			return nil, err
		}
	}
	return NewResponse(results, nil), nil
}

// ============================================================================
// Directory cleanup
// ============================================================================

// RemoveEmptyDirectories removes, bottom-up, every directory under ref
// (including ref itself) that no longer transitively contains a file.
// The result is the number of directories removed.
func (p *Provider) RemoveEmptyDirectories(ctx context.Context, b *Bucket, ref PathRef) (*Response[int], error) {
	base := p.normRef(ref)
	if err := p.requireReady("cleanup", base); err != nil {
		return nil, err
	}
	n, err := p.removeEmptyDirs(ctx, b, base)
	if err != nil {
		return nil, err
	}
	return NewResponse(n, nil), nil
}

// removeEmptyDirs recurses into every child directory first, then
// re-lists: a directory is deleted only after all of its descendants have
// been processed, so it is never removed while it still (transitively)
// contains a file. No-op on backends without the DirRemover capability.
func (p *Provider) removeEmptyDirs(ctx context.Context, b *Bucket, base string) (int, error) {
	remover, ok := p.backend.(DirRemover)
	if !ok {
		return 0, nil
	}
	return p.cleanupDir(ctx, b, base, remover)
}

func (p *Provider) cleanupDir(ctx context.Context, b *Bucket, base string, remover DirRemover) (int, error) {
	entries, err := p.listLevel(ctx, b, base, nil)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}

	count := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := p.cleanupDir(ctx, b, e.Path, remover)
		if err != nil {
			return count, err
		}
		count += n
	}

	entries, err = p.listLevel(ctx, b, base, nil)
	if err != nil {
		if IsNotFound(err) {
			return count, nil
		}
		return count, err
	}
	if len(entries) == 0 && base != "" {
		if err := remover.RemoveDir(ctx, b, base); err != nil {
			nerr := normalizeError("cleanup", base, err)
			if IsNotFound(nerr) {
				return count, nil
			}
			return count, nerr
		}
		count++
	}
	return count, nil
}

// ============================================================================
// Directories, URLs, native paths, checksums
// ============================================================================

// CreateDirectory explicitly creates a directory. Requires the DirMaker
// capability; flat-namespace backends have nothing to create.
func (p *Provider) CreateDirectory(ctx context.Context, b *Bucket, ref PathRef) error {
	path := p.normRef(ref)
	if err := p.requireReady("mkdir", path); err != nil {
		return err
	}
	maker, ok := p.backend.(DirMaker)
	if !ok {
		return storageErr("mkdir", path, ErrNotSupported, nil)
	}
	return normalizeError("mkdir", path, maker.MakeDir(ctx, b, path))
}

// GetSignedURL returns a pre-signed URL: the backend's native Signer when
// available, otherwise the session-level URL generator.
func (p *Provider) GetSignedURL(ctx context.Context, b *Bucket, ref PathRef, opts ...Option) (string, error) {
	o := applyOptions(opts)
	path := p.normRef(ref)
	if err := p.requireReady("sign", path); err != nil {
		return "", err
	}

	expires := o.Expires
	if expires == 0 {
		expires = p.config.SignedURLExpiry
	}
	if expires == 0 && p.session != nil {
		expires = time.Duration(p.session.config.SignedURLTTL) * time.Second
	}

	if signer, ok := p.backend.(Signer); ok {
		url, err := signer.SignedURL(ctx, b, path, expires)
		return url, normalizeError("sign", path, err)
	}
	if p.session != nil && p.session.urlGen != nil {
		url, err := p.session.urlGen(ctx, b, path, expires)
		return url, normalizeError("sign", path, err)
	}
	return "", storageErr("sign", path, ErrNotSupported, nil)
}

// GetPublicURL returns the public URL: the backend's native PublicURLer
// when available, otherwise the canonical file URI.
func (p *Provider) GetPublicURL(b *Bucket, ref PathRef) (string, error) {
	path := p.normRef(ref)
	if err := p.requireReady("public-url", path); err != nil {
		return "", err
	}
	if urler, ok := p.backend.(PublicURLer); ok {
		url, err := urler.PublicURL(b, path)
		return url, normalizeError("public-url", path, err)
	}
	return b.URI(path), nil
}

// NativePath returns the backend-native form of ref.
func (p *Provider) NativePath(b *Bucket, ref PathRef) (string, error) {
	path := p.normRef(ref)
	if err := p.requireReady("native-path", path); err != nil {
		return "", err
	}
	pather, ok := p.backend.(NativePather)
	if !ok {
		return "", storageErr("native-path", path, ErrNotSupported, nil)
	}
	native, err := pather.NativePath(b, path)
	return native, normalizeError("native-path", path, err)
}

// Checksum streams the file at ref through the given algorithm.
func (p *Provider) Checksum(ctx context.Context, b *Bucket, ref PathRef, algorithm ChecksumAlgorithm) (string, error) {
	resp, err := p.GetFileStream(ctx, b, ref)
	if err != nil {
		return "", err
	}
	defer resp.Result.Close()
	sum, err := CalculateChecksum(resp.Result, algorithm)
	return sum, normalizeError("checksum", p.normRef(ref), err)
}

var defaultMatcher = NewGlobMatcher()
