package authgate

import (
	"errors"
	"fmt"

	"github.com/hqstack/authgate/internal/audit"
	"github.com/hqstack/authgate/internal/limiters"
	"github.com/hqstack/authgate/internal/stores"
	"github.com/hqstack/authgate/session"
	"github.com/hqstack/authgate/token"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles a [Gate]. Without a Redis client every store falls back
// to its in-memory implementation, which is enough for tests and
// single-process deployments but shares no state across replicas.
type Builder struct {
	config      Config
	redis       redis.UniversalClient
	logger      zerolog.Logger
	accounts    AccountProvider
	hasher      PasswordHasher
	auditSink   AuditSink
	verifiers   []Verifier
	revocations RevocationStore
	retries     RetryLimiter
	sessions    SessionRegistry
	built       bool
}

// New starts a builder with [DefaultConfig] and a no-op logger.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithSecret sets the token signing secret on the current configuration.
func (b *Builder) WithSecret(secret string) *Builder {
	b.config.Token.Secret = secret
	return b
}

// WithRedis backs all three stores with Redis. Required for deployments
// with more than one replica.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithLogger sets the logger the gate and its verifiers write to.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAccountProvider wires the host's account lookup. Together with
// [Builder.WithPasswordHasher] it enables the password verifier and
// [Gate.Login].
func (b *Builder) WithAccountProvider(provider AccountProvider) *Builder {
	b.accounts = provider
	return b
}

// WithPasswordHasher sets the password hash verifier implementation.
func (b *Builder) WithPasswordHasher(hasher PasswordHasher) *Builder {
	b.hasher = hasher
	return b
}

// WithAuditSink sets the destination for audit events and implies
// Audit.Enabled.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithVerifier appends a custom verifier to the chain, after the built-in
// ones. The chain runs verifiers in registration order.
func (b *Builder) WithVerifier(v Verifier) *Builder {
	if v != nil {
		b.verifiers = append(b.verifiers, v)
	}
	return b
}

// WithRevocationStore overrides the built-in revocation store.
func (b *Builder) WithRevocationStore(s RevocationStore) *Builder {
	b.revocations = s
	return b
}

// WithRetryLimiter overrides the built-in retry limiter.
func (b *Builder) WithRetryLimiter(l RetryLimiter) *Builder {
	b.retries = l
	return b
}

// WithSessionRegistry overrides the built-in session registry.
func (b *Builder) WithSessionRegistry(r SessionRegistry) *Builder {
	b.sessions = r
	return b
}

// Build validates the configuration and assembles the gate. A builder
// builds once.
func (b *Builder) Build() (*Gate, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	codec, err := token.NewCodec(token.Config{
		Secret: b.config.Token.Secret,
		TTL:    b.config.Token.TTL,
		MaxTTL: b.config.Token.MaxTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	revocations := b.revocations
	if revocations == nil {
		if b.redis != nil {
			revocations = stores.NewRedisRevocations(b.redis, b.config.Stores.RedisPrefix)
		} else {
			revocations = stores.NewMemoryRevocations(b.config.Token.MaxTTL)
		}
	}

	retries := b.retries
	if retries == nil && b.config.Retry.Enabled {
		cfg := limiters.RetryConfig{
			Limit:  b.config.Retry.Limit,
			Window: b.config.Retry.Window,
		}
		if b.redis != nil {
			retries = limiters.NewRedisRetryLimiter(b.redis, b.config.Stores.RedisPrefix, cfg)
		} else {
			retries = limiters.NewMemoryRetryLimiter(cfg)
		}
	}

	sessions := b.sessions
	if sessions == nil {
		cfg := session.Config{
			Prefix:      b.config.Stores.RedisPrefix,
			MaxSessions: b.config.Session.MaxSessions,
			EvictOldest: b.config.Session.EvictOldest,
			MaxLifetime: b.config.Token.MaxTTL,
		}
		if b.redis != nil {
			sessions, err = session.NewRedisRegistry(b.redis, cfg)
		} else {
			sessions, err = session.NewMemoryRegistry(cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("session registry: %w", err)
		}
	}

	verifiers := []Verifier{NewTokenVerifier(codec, b.accounts)}
	if b.accounts != nil && b.hasher != nil {
		verifiers = append(verifiers, NewPasswordVerifier(b.accounts, b.hasher, retries, b.logger))
	}
	verifiers = append(verifiers, b.verifiers...)
	chain := NewChain(verifiers...)

	dispatcher := audit.NewDispatcher(audit.Config{
		Enabled:    b.config.Audit.Enabled,
		BufferSize: b.config.Audit.BufferSize,
		DropIfFull: b.config.Audit.DropIfFull,
	}, b.auditSink)

	b.built = true
	return &Gate{
		config:      b.config,
		codec:       codec,
		revocations: revocations,
		retries:     retries,
		sessions:    sessions,
		chain:       chain,
		audit:       dispatcher,
		metrics:     newMetrics(b.config.Metrics),
		logger:      b.logger,
	}, nil
}
