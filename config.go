package bucketkit

import (
	"github.com/gobeaver/beaver-kit/config"
)

// SessionConfig holds the session-wide defaults at the end of every
// fallback chain (explicit option -> bucket config -> provider config ->
// session config).
type SessionConfig struct {
	// DefaultMode is the permission mode applied to providers and buckets
	// that do not set their own.
	DefaultMode string `env:"BUCKETKIT_DEFAULT_MODE,default:0777"`

	// AutoCleanup removes directories left empty by move and delete
	// operations.
	AutoCleanup bool `env:"BUCKETKIT_AUTO_CLEANUP,default:false"`

	// Returning hydrates FileEntry objects in results instead of bare
	// URIs.
	Returning bool `env:"BUCKETKIT_RETURNING,default:false"`

	// SignedURLTTL is the default signed-URL lifetime in seconds.
	SignedURLTTL int64 `env:"BUCKETKIT_SIGNED_URL_TTL,default:900"`
}

// GetConfig returns a SessionConfig loaded from the environment.
func GetConfig() (*SessionConfig, error) {
	cfg := &SessionConfig{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Builder loads session config from the environment under a custom prefix.
type Builder struct {
	prefix string
}

// WithPrefix creates a Builder reading BUCKETKIT_* variables under the
// given prefix.
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// New creates a session from the builder's environment.
func (b *Builder) New(opts ...SessionOption) (*Session, error) {
	cfg := &SessionConfig{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return NewSession(cfg, opts...), nil
}
