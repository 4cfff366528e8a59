package bucketkit

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// Provider types
// ============================================================================

// ProviderFactory constructs a backend from a provider configuration.
// Drivers register one per type name.
type ProviderFactory func(cfg *ProviderConfig) (Backend, error)

// TypeRegistry maps provider type names to backend factories. Type names
// must satisfy the same grammar as provider names, since both appear as
// URI schemes.
type TypeRegistry struct {
	reg *Registry[string, ProviderFactory]
}

// NewTypeRegistry creates an empty type registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{reg: NewRegistry[string, ProviderFactory]()}
}

// Register adds a factory under a type name.
func (t *TypeRegistry) Register(name string, factory ProviderFactory, replace bool) error {
	if !providerNamePattern.MatchString(name) {
		return fmt.Errorf("%w: provider type %q", ErrInvalidParams, name)
	}
	if factory == nil {
		return fmt.Errorf("%w: nil factory for type %q", ErrInvalidParams, name)
	}
	return t.reg.Add(name, factory, replace)
}

// Unregister removes a type, reporting whether it was registered.
func (t *TypeRegistry) Unregister(name string) bool {
	return t.reg.Remove(name)
}

// Lookup returns the factory for a type name.
func (t *TypeRegistry) Lookup(name string) (ProviderFactory, bool) {
	return t.reg.Get(name)
}

// Types returns the registered type names.
func (t *TypeRegistry) Types() []string {
	return t.reg.Keys()
}

// DefaultTypes is the process-wide type registry that drivers register
// into from their init functions. Sessions use it unless WithTypeRegistry
// overrides it.
var DefaultTypes = NewTypeRegistry()

// RegisterProviderType registers a backend factory in DefaultTypes.
func RegisterProviderType(name string, factory ProviderFactory) error {
	return DefaultTypes.Register(name, factory, false)
}

// UnregisterProviderType removes a type from DefaultTypes.
func UnregisterProviderType(name string) bool {
	return DefaultTypes.Unregister(name)
}

// ============================================================================
// Session
// ============================================================================

// URLGenerator produces URLs for backends without native signing support.
// It is the session-level fallback behind GetSignedURL.
type URLGenerator func(ctx context.Context, bucket *Bucket, path string, expires time.Duration) (string, error)

// SessionOption configures a session at construction time.
type SessionOption func(*Session)

// WithLogger sets the session logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMatcher replaces the default glob matcher for the whole session.
func WithMatcher(m Matcher) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithSlugFunc replaces the segment slug function used by path
// normalization.
func WithSlugFunc(fn SlugFunc) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.slugFn = fn
		}
	}
}

// WithURLGenerator sets the fallback signed-URL generator.
func WithURLGenerator(gen URLGenerator) SessionOption {
	return func(s *Session) { s.urlGen = gen }
}

// WithTypeRegistry scopes the session to its own provider-type registry
// instead of DefaultTypes.
func WithTypeRegistry(types *TypeRegistry) SessionOption {
	return func(s *Session) {
		if types != nil {
			s.types = types
		}
	}
}

// Session owns a set of providers and the global bucket-alias registry.
// It is the root object of the library: create one, register providers,
// then address everything through bucket aliases and file URIs.
type Session struct {
	config    SessionConfig
	types     *TypeRegistry
	providers *Registry[string, *Provider]
	buckets   *Registry[string, *Bucket]
	logger    *zap.Logger
	urlGen    URLGenerator
	slugFn    SlugFunc
	matcher   Matcher
}

// NewSession creates a session. A nil config uses built-in defaults; use
// GetConfig or WithPrefix to load the config from the environment.
func NewSession(cfg *SessionConfig, opts ...SessionOption) *Session {
	if cfg == nil {
		cfg = &SessionConfig{
			DefaultMode:  defaultMode,
			SignedURLTTL: 900,
		}
	}
	s := &Session{
		config:    *cfg,
		types:     DefaultTypes,
		providers: NewRegistry[string, *Provider](),
		buckets:   NewRegistry[string, *Bucket](),
		logger:    zap.NewNop(),
		slugFn:    DefaultSlug,
		matcher:   NewGlobMatcher(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the session configuration.
func (s *Session) Config() SessionConfig { return s.config }

// Logger returns the session logger.
func (s *Session) Logger() *zap.Logger { return s.logger }

// observeBuckets is the session-side lifecycle observer attached to every
// provider. It keeps the global alias registry in sync and vetoes
// BeforeBucketAdd when the alias is already taken, which is what makes
// bucket aliases unique session-wide.
func (s *Session) observeBuckets(event BucketEvent) error {
	switch event.Type {
	case BeforeBucketAdd:
		if s.buckets.Has(event.Bucket.Alias()) {
			return fmt.Errorf("%w: bucket alias %q", ErrDuplicatedElement, event.Bucket.Alias())
		}
	case AfterBucketAdd:
		s.buckets.Add(event.Bucket.Alias(), event.Bucket, true) //nolint:errcheck // replace=true cannot fail
		s.logger.Info("bucket registered",
			zap.String("provider", event.Provider.Name()),
			zap.String("bucket", event.Bucket.Name()),
			zap.String("alias", event.Bucket.Alias()))
	case AfterBucketRemove, AfterBucketDestroy:
		s.buckets.Remove(event.Bucket.Alias())
		s.logger.Info("bucket unregistered",
			zap.String("provider", event.Provider.Name()),
			zap.String("alias", event.Bucket.Alias()))
	}
	return nil
}

// AddProvider constructs a backend via the registered type factory,
// wraps it in a provider, and registers it. Unless DisableAutoInit is
// set, the provider is initialized before returning. Replace disposes an
// existing provider of the same name first.
func (s *Session) AddProvider(ctx context.Context, cfg *ProviderConfig) (*Provider, error) {
	if cfg == nil {
		return nil, storageErr("add-provider", "", ErrInvalidParams, fmt.Errorf("nil provider config"))
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	factory, ok := s.types.Lookup(cfg.Type)
	if !ok {
		return nil, storageErr("add-provider", cfg.Name, ErrInvalidParams,
			fmt.Errorf("unknown provider type %q", cfg.Type))
	}

	if existing, ok := s.providers.Get(cfg.Name); ok {
		if !cfg.Replace {
			return nil, storageErr("add-provider", cfg.Name, ErrDuplicatedElement, nil)
		}
		if err := existing.Dispose(ctx); err != nil {
			return nil, err
		}
		s.providers.Remove(cfg.Name)
	}

	backend, err := factory(cfg)
	if err != nil {
		return nil, normalizeError("add-provider", cfg.Name, err)
	}
	provider, err := NewProvider(*cfg, backend)
	if err != nil {
		return nil, err
	}
	provider.session = s
	provider.Subscribe(BucketObserverFunc(s.observeBuckets))

	if err := s.providers.Add(cfg.Name, provider, false); err != nil {
		return nil, normalizeError("add-provider", cfg.Name, err)
	}

	if !cfg.DisableAutoInit {
		if err := provider.Init(ctx); err != nil {
			s.providers.Remove(cfg.Name)
			return nil, err
		}
	}

	s.logger.Info("provider registered",
		zap.String("provider", cfg.Name),
		zap.String("type", cfg.Type),
		zap.Bool("ready", provider.Ready()))
	return provider, nil
}

// AddProviderFromURI registers a provider from a compact URI of the form
//
//	type://name?mode=0755&crossBucket=true&region=eu-west-1
//
// Recognized query parameters map onto ProviderConfig fields; anything
// else is passed through as a native backend setting.
func (s *Session) AddProviderFromURI(ctx context.Context, uri string) (*Provider, error) {
	parts, ok := ParseFileURI(uri)
	if !ok {
		return nil, storageErr("add-provider", uri, ErrNotAURI, nil)
	}

	cfg := &ProviderConfig{
		Type:   parts.Provider,
		Name:   parts.Bucket,
		Native: make(map[string]string),
	}
	for key, vals := range parts.Query() {
		if len(vals) == 0 {
			continue
		}
		v := vals[len(vals)-1]
		switch key {
		case "mode":
			cfg.Mode = v
		case "alias":
			cfg.AliasStrategy = AliasStrategy(v)
		case "autoInit":
			cfg.DisableAutoInit = v == "false"
		case "crossBucket":
			cfg.SupportsCrossBucket = v == "true"
		case "replace":
			cfg.Replace = v == "true"
		case "cleanup":
			b := v == "true"
			cfg.AutoCleanup = &b
		case "returning":
			b := v == "true"
			cfg.Returning = &b
		case "expiry":
			seconds, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, storageErr("add-provider", uri, ErrInvalidParams,
					fmt.Errorf("expiry %q: %v", v, err))
			}
			cfg.SignedURLExpiry = time.Duration(seconds) * time.Second
		default:
			cfg.Native[key] = v
		}
	}
	return s.AddProvider(ctx, cfg)
}

// GetProvider returns a registered provider by name.
func (s *Session) GetProvider(name string) (*Provider, bool) {
	return s.providers.Get(name)
}

// ListProviders returns all registered providers.
func (s *Session) ListProviders() []*Provider {
	return s.providers.List()
}

// RemoveProvider disposes a provider and unregisters it together with all
// of its buckets.
func (s *Session) RemoveProvider(ctx context.Context, name string) error {
	provider, ok := s.providers.Get(name)
	if !ok {
		return storageErr("remove-provider", name, ErrNotFound, nil)
	}
	if err := provider.Dispose(ctx); err != nil {
		return err
	}
	s.providers.Remove(name)
	s.logger.Info("provider removed", zap.String("provider", name))
	return nil
}

// GetBucket returns a bucket by its session-wide alias.
func (s *Session) GetBucket(alias string) (*Bucket, bool) {
	return s.buckets.Get(alias)
}

// ListBuckets returns every bucket registered across all providers.
func (s *Session) ListBuckets() []*Bucket {
	return s.buckets.List()
}

// Dispose tears down every provider. The first failure aborts.
func (s *Session) Dispose(ctx context.Context) error {
	for _, p := range s.providers.List() {
		if err := p.Dispose(ctx); err != nil {
			return err
		}
		s.providers.Remove(p.Name())
	}
	s.logger.Info("session disposed")
	return nil
}

// ============================================================================
// URI resolution
// ============================================================================

// ResolveFileURI resolves a file URI to its provider, bucket, and
// normalized path. A string that is not a URI at all fails with the
// ErrNotAURI sentinel, so callers can fall back to treating it as a
// bucket-relative path.
func (s *Session) ResolveFileURI(raw string) (*Location, error) {
	parts, ok := ParseFileURI(raw)
	if !ok {
		return nil, storageErr("resolve", raw, ErrNotAURI, nil)
	}

	provider, ok := s.providers.Get(parts.Provider)
	if !ok {
		return nil, storageErr("resolve", raw, ErrNotFound,
			fmt.Errorf("provider %q not registered", parts.Provider))
	}
	bucket, ok := s.buckets.Get(parts.Bucket)
	if !ok || bucket.Provider() != provider {
		return nil, storageErr("resolve", raw, ErrNotFound,
			fmt.Errorf("bucket alias %q not registered under provider %q", parts.Bucket, parts.Provider))
	}

	return &Location{
		Provider: provider,
		Bucket:   bucket,
		Path:     NormalizePath(parts.Path, s.slugFn),
	}, nil
}

// MakeFileURI builds the canonical URI for a path inside the bucket with
// the given alias.
func (s *Session) MakeFileURI(alias, path string) (string, error) {
	bucket, ok := s.buckets.Get(alias)
	if !ok {
		return "", storageErr("make-uri", alias, ErrNotFound, nil)
	}
	return bucket.URI(NormalizePath(path, s.slugFn)), nil
}

// ============================================================================
// URI-addressed operations
// ============================================================================
// Convenience wrappers that resolve file URIs and delegate to the bucket
// facade, so callers holding only URIs never touch registries directly.
// Copy and move accept destinations in other buckets and providers; the
// destination provider must declare SupportsCrossBucket.

// PutFile writes a file at the location the URI addresses.
func (s *Session) PutFile(ctx context.Context, uri string, content io.Reader, opts ...Option) (*Response[*FileResult], error) {
	loc, err := s.ResolveFileURI(uri)
	if err != nil {
		return nil, err
	}
	return loc.Bucket.PutFile(ctx, loc.Ref(), content, opts...)
}

// GetFile hydrates the entry the URI addresses.
func (s *Session) GetFile(ctx context.Context, uri string) (*Response[*FileEntry], error) {
	loc, err := s.ResolveFileURI(uri)
	if err != nil {
		return nil, err
	}
	return loc.Bucket.GetFile(ctx, loc.Ref())
}

// GetFileStream opens a read stream at the URI.
func (s *Session) GetFileStream(ctx context.Context, uri string, opts ...Option) (*Response[io.ReadCloser], error) {
	loc, err := s.ResolveFileURI(uri)
	if err != nil {
		return nil, err
	}
	return loc.Bucket.GetFileStream(ctx, loc.Ref(), opts...)
}

// DeleteFile deletes the file the URI addresses.
func (s *Session) DeleteFile(ctx context.Context, uri string, opts ...Option) (*Response[bool], error) {
	loc, err := s.ResolveFileURI(uri)
	if err != nil {
		return nil, err
	}
	return loc.Bucket.DeleteFile(ctx, loc.Ref(), opts...)
}

// ListFiles lists files under the URI.
func (s *Session) ListFiles(ctx context.Context, uri string, opts ...Option) (*Response[[]FileResult], error) {
	loc, err := s.ResolveFileURI(uri)
	if err != nil {
		return nil, err
	}
	return loc.Bucket.ListFiles(ctx, loc.Ref(), opts...)
}

// CopyFile copies between two URIs, possibly across buckets and
// providers.
func (s *Session) CopyFile(ctx context.Context, srcURI, dstURI string, opts ...Option) (*Response[*FileResult], error) {
	src, dst, err := s.resolvePair(srcURI, dstURI)
	if err != nil {
		return nil, err
	}
	return src.Bucket.CopyFile(ctx, src.Ref(), dst.Ref(), opts...)
}

// MoveFile moves between two URIs.
func (s *Session) MoveFile(ctx context.Context, srcURI, dstURI string, opts ...Option) (*Response[*FileResult], error) {
	src, dst, err := s.resolvePair(srcURI, dstURI)
	if err != nil {
		return nil, err
	}
	return src.Bucket.MoveFile(ctx, src.Ref(), dst.Ref(), opts...)
}

// CopyFiles recursively copies matching files between two directory URIs.
func (s *Session) CopyFiles(ctx context.Context, srcURI, dstURI, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	src, dst, err := s.resolvePair(srcURI, dstURI)
	if err != nil {
		return nil, err
	}
	return src.Bucket.CopyFiles(ctx, src.Ref(), dst.Ref(), pattern, opts...)
}

// MoveFiles recursively moves matching files between two directory URIs.
func (s *Session) MoveFiles(ctx context.Context, srcURI, dstURI, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	src, dst, err := s.resolvePair(srcURI, dstURI)
	if err != nil {
		return nil, err
	}
	return src.Bucket.MoveFiles(ctx, src.Ref(), dst.Ref(), pattern, opts...)
}

// DeleteFiles recursively deletes matching files under a directory URI.
func (s *Session) DeleteFiles(ctx context.Context, uri, pattern string, opts ...Option) (*Response[[]FileResult], error) {
	loc, err := s.ResolveFileURI(uri)
	if err != nil {
		return nil, err
	}
	return loc.Bucket.DeleteFiles(ctx, loc.Ref(), pattern, opts...)
}

func (s *Session) resolvePair(srcURI, dstURI string) (*Location, *Location, error) {
	src, err := s.ResolveFileURI(srcURI)
	if err != nil {
		return nil, nil, err
	}
	dst, err := s.ResolveFileURI(dstURI)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}
