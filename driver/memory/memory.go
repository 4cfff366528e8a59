// Package memory provides an in-memory backend. It implements every
// optional capability, which makes it the reference driver and the one to
// use in tests and caching scenarios.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/bucketkit"
)

// memFile is one stored file.
type memFile struct {
	content     []byte
	contentType string
	metadata    map[string]string
	modTime     time.Time
}

// container holds one bucket's namespace: files and explicitly created
// directories, both keyed by normalized path. The root "" always exists.
type container struct {
	files map[string]*memFile
	dirs  map[string]time.Time
}

func newContainer() *container {
	return &container{
		files: make(map[string]*memFile),
		dirs:  map[string]time.Time{"": time.Now()},
	}
}

// Config holds memory backend settings.
type Config struct {
	// PageSize splits listings into pages of at most this many entries,
	// exercising the continuation-token path. 0 returns one page per
	// level.
	PageSize int
}

// Backend is the in-memory driver. A single mutex guards all containers;
// contention is acceptable for a test and cache backend.
type Backend struct {
	mu         sync.RWMutex
	containers map[string]*container
	pageSize   int
}

var (
	_ bucketkit.Backend       = (*Backend)(nil)
	_ bucketkit.Copier        = (*Backend)(nil)
	_ bucketkit.Mover         = (*Backend)(nil)
	_ bucketkit.Stater        = (*Backend)(nil)
	_ bucketkit.DirMaker      = (*Backend)(nil)
	_ bucketkit.DirRemover    = (*Backend)(nil)
	_ bucketkit.NativePather  = (*Backend)(nil)
	_ bucketkit.BucketManager = (*Backend)(nil)
)

// New creates an empty in-memory backend.
func New(cfg ...Config) *Backend {
	b := &Backend{containers: make(map[string]*container)}
	if len(cfg) > 0 {
		b.pageSize = cfg[0].PageSize
	}
	return b
}

// Init implements bucketkit.Backend. Nothing to prepare.
func (b *Backend) Init(ctx context.Context) error {
	return ctxErr(ctx)
}

// Dispose implements bucketkit.Backend, dropping all stored data.
func (b *Backend) Dispose(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.containers = make(map[string]*container)
	return nil
}

func ctxErr(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// get returns the container for a bucket, which must have been created
// through MakeBucket.
func (b *Backend) get(bucket *bucketkit.Bucket) (*container, error) {
	c, ok := b.containers[bucket.Name()]
	if !ok {
		return nil, fmt.Errorf("%w: bucket %q", bucketkit.ErrNotFound, bucket.Name())
	}
	return c, nil
}

// ============================================================================
// Primitive contract
// ============================================================================

// Put implements bucketkit.Backend.
func (b *Backend) Put(ctx context.Context, bucket *bucketkit.Bucket, p string, content io.Reader, opts *bucketkit.Options) (*bucketkit.Response[*bucketkit.FileEntry], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	if _, exists := c.files[p]; exists && !opts.Overwrite {
		return nil, fmt.Errorf("%w: %s", bucketkit.ErrDuplicatedElement, p)
	}
	if _, isDir := c.dirs[p]; isDir {
		return nil, fmt.Errorf("%w: %s is a directory", bucketkit.ErrInvalidParams, p)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = bucketkit.GuessContentType(p, data)
	}

	c.ensureParents(p)
	f := &memFile{
		content:     data,
		contentType: contentType,
		metadata:    opts.Metadata,
		modTime:     time.Now(),
	}
	c.files[p] = f
	return bucketkit.NewResponse(fileEntry(p, f), nil), nil
}

// Open implements bucketkit.Backend. The returned stream reads a
// snapshot, so a concurrent overwrite does not corrupt it.
func (b *Backend) Open(ctx context.Context, bucket *bucketkit.Bucket, p string, opts *bucketkit.Options) (*bucketkit.Response[io.ReadCloser], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	f, ok := c.files[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bucketkit.ErrNotFound, p)
	}
	rc := io.NopCloser(bytes.NewReader(f.content))
	return bucketkit.NewResponse(rc, nil), nil
}

// Remove implements bucketkit.Backend.
func (b *Backend) Remove(ctx context.Context, bucket *bucketkit.Bucket, p string, opts *bucketkit.Options) (*bucketkit.Response[bool], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	if _, ok := c.files[p]; !ok {
		return nil, fmt.Errorf("%w: %s", bucketkit.ErrNotFound, p)
	}
	delete(c.files, p)
	return bucketkit.NewResponse(true, nil), nil
}

// List implements bucketkit.Backend: one directory level per call, files
// and subdirectories, sorted by name. With a configured page size the
// level is split into pages addressed by integer continuation tokens.
func (b *Backend) List(ctx context.Context, bucket *bucketkit.Bucket, p string, opts *bucketkit.Options) (*bucketkit.Response[*bucketkit.ListPage], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	if _, ok := c.dirs[p]; !ok {
		if _, isFile := c.files[p]; isFile {
			return nil, fmt.Errorf("%w: %s is not a directory", bucketkit.ErrInvalidParams, p)
		}
		return nil, fmt.Errorf("%w: %s", bucketkit.ErrNotFound, p)
	}

	entries := c.level(p)
	page := &bucketkit.ListPage{Entries: entries}

	if b.pageSize > 0 && len(entries) > 0 {
		start := 0
		if opts.PageToken != "" {
			start, err = strconv.Atoi(opts.PageToken)
			if err != nil || start < 0 || start > len(entries) {
				return nil, fmt.Errorf("%w: page token %q", bucketkit.ErrInvalidParams, opts.PageToken)
			}
		}
		end := start + b.pageSize
		if end > len(entries) {
			end = len(entries)
		}
		page.Entries = entries[start:end]
		if end < len(entries) {
			page.NextPageToken = strconv.Itoa(end)
		}
	}
	return bucketkit.NewResponse(page, nil), nil
}

// level collects the immediate children of dir, sorted by name.
func (c *container) level(dir string) []*bucketkit.FileEntry {
	var entries []*bucketkit.FileEntry
	for p, f := range c.files {
		if isChild(dir, p) {
			entries = append(entries, fileEntry(p, f))
		}
	}
	for p, mod := range c.dirs {
		if p != "" && isChild(dir, p) {
			entries = append(entries, dirEntry(p, mod))
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// isChild reports whether p is an immediate child of dir.
func isChild(dir, p string) bool {
	if dir == "" {
		return !strings.Contains(p, "/")
	}
	if !strings.HasPrefix(p, dir+"/") {
		return false
	}
	return !strings.Contains(p[len(dir)+1:], "/")
}

// ============================================================================
// Capabilities
// ============================================================================

// Copy implements bucketkit.Copier.
func (b *Backend) Copy(ctx context.Context, bucket *bucketkit.Bucket, src, dst string, opts *bucketkit.Options) (*bucketkit.Response[*bucketkit.FileEntry], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	f, ok := c.files[src]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bucketkit.ErrNotFound, src)
	}

	c.ensureParents(dst)
	dup := &memFile{
		content:     append([]byte(nil), f.content...),
		contentType: f.contentType,
		metadata:    f.metadata,
		modTime:     time.Now(),
	}
	c.files[dst] = dup
	return bucketkit.NewResponse(fileEntry(dst, dup), nil), nil
}

// Move implements bucketkit.Mover.
func (b *Backend) Move(ctx context.Context, bucket *bucketkit.Bucket, src, dst string, opts *bucketkit.Options) (*bucketkit.Response[*bucketkit.FileEntry], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	f, ok := c.files[src]
	if !ok {
		return nil, fmt.Errorf("%w: %s", bucketkit.ErrNotFound, src)
	}

	c.ensureParents(dst)
	delete(c.files, src)
	f.modTime = time.Now()
	c.files[dst] = f
	return bucketkit.NewResponse(fileEntry(dst, f), nil), nil
}

// Stat implements bucketkit.Stater.
func (b *Backend) Stat(ctx context.Context, bucket *bucketkit.Bucket, p string) (*bucketkit.Response[*bucketkit.FileEntry], error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	c, err := b.get(bucket)
	if err != nil {
		return nil, err
	}
	if f, ok := c.files[p]; ok {
		return bucketkit.NewResponse(fileEntry(p, f), nil), nil
	}
	if mod, ok := c.dirs[p]; ok {
		return bucketkit.NewResponse(dirEntry(p, mod), nil), nil
	}
	return nil, fmt.Errorf("%w: %s", bucketkit.ErrNotFound, p)
}

// MakeDir implements bucketkit.DirMaker.
func (b *Backend) MakeDir(ctx context.Context, bucket *bucketkit.Bucket, p string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.get(bucket)
	if err != nil {
		return err
	}
	if _, exists := c.files[p]; exists {
		return fmt.Errorf("%w: %s is a file", bucketkit.ErrInvalidParams, p)
	}
	c.ensureParents(p)
	c.dirs[p] = time.Now()
	return nil
}

// RemoveDir implements bucketkit.DirRemover. Only empty directories can
// be removed.
func (b *Backend) RemoveDir(ctx context.Context, bucket *bucketkit.Bucket, p string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	c, err := b.get(bucket)
	if err != nil {
		return err
	}
	if _, ok := c.dirs[p]; !ok {
		return fmt.Errorf("%w: %s", bucketkit.ErrNotFound, p)
	}
	prefix := p + "/"
	for fp := range c.files {
		if strings.HasPrefix(fp, prefix) {
			return fmt.Errorf("%w: %s is not empty", bucketkit.ErrInvalidParams, p)
		}
	}
	for dp := range c.dirs {
		if strings.HasPrefix(dp, prefix) {
			return fmt.Errorf("%w: %s is not empty", bucketkit.ErrInvalidParams, p)
		}
	}
	delete(c.dirs, p)
	return nil
}

// NativePath implements bucketkit.NativePather.
func (b *Backend) NativePath(bucket *bucketkit.Bucket, p string) (string, error) {
	if p == "" {
		return "mem://" + bucket.Name(), nil
	}
	return "mem://" + bucket.Name() + "/" + p, nil
}

// MakeBucket implements bucketkit.BucketManager. Re-creating an existing
// container keeps its contents.
func (b *Backend) MakeBucket(ctx context.Context, bucket *bucketkit.Bucket) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.containers[bucket.Name()]; !ok {
		b.containers[bucket.Name()] = newContainer()
	}
	return nil
}

// DestroyBucket implements bucketkit.BucketManager.
func (b *Backend) DestroyBucket(ctx context.Context, bucket *bucketkit.Bucket) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.containers[bucket.Name()]; !ok {
		return fmt.Errorf("%w: bucket %q", bucketkit.ErrNotFound, bucket.Name())
	}
	delete(b.containers, bucket.Name())
	return nil
}

// ListBucketContainers implements bucketkit.BucketManager.
func (b *Backend) ListBucketContainers(ctx context.Context) ([]string, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.containers))
	for name := range b.containers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ============================================================================
// Helpers
// ============================================================================

// ensureParents registers every ancestor directory of p.
func (c *container) ensureParents(p string) {
	for dir := parent(p); dir != ""; dir = parent(dir) {
		if _, ok := c.dirs[dir]; !ok {
			c.dirs[dir] = time.Now()
		}
	}
}

func parent(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}

func fileEntry(p string, f *memFile) *bucketkit.FileEntry {
	return &bucketkit.FileEntry{
		Path:        p,
		Name:        path.Base(p),
		Exists:      true,
		Type:        bucketkit.EntryFile,
		Size:        int64(len(f.content)),
		ContentType: f.contentType,
		ModTime:     f.modTime,
	}
}

func dirEntry(p string, mod time.Time) *bucketkit.FileEntry {
	return &bucketkit.FileEntry{
		Path:    p,
		Name:    path.Base(p),
		Exists:  true,
		Type:    bucketkit.EntryDirectory,
		ModTime: mod,
	}
}
