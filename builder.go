package goUserbot

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goUserbot/internal/rate"
	"github.com/MrEthical07/goUserbot/session"
)

// Builder assembles an [Engine]. Construction is allocation-only; no I/O
// happens until Build, and the builder is single-use.
type Builder struct {
	config    Config
	transport Transport
	sessions  session.Store
	redis     redis.UniversalClient
	auditSink AuditSink
	clock     Clock

	built bool
}

// New returns a builder preloaded with the package defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithTransport sets the RPC collaborator. Required.
func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

// WithSessionStore sets the session persistence backend. When omitted and a
// Redis client is provided, sessions are stored in Redis; otherwise an
// in-memory store is used and sessions do not survive the process.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessions = store
	return b
}

// WithRedis shares flood-wait state (and, absent an explicit session store,
// session persistence) across processes through the given client.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets the audit event destination and enables auditing.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithClock overrides the time source, mainly for tests.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	if b.transport == nil {
		return nil, errors.New("transport is required")
	}

	clock := b.clock
	if clock == nil {
		clock = systemClock{}
	}

	sessions := b.sessions
	if sessions == nil {
		if b.redis != nil {
			sessions = session.NewRedisStore(b.redis, b.config.Session.RedisPrefix)
		} else {
			sessions = session.NewMemoryStore()
		}
	}

	var waitState rate.State
	if b.redis != nil {
		waitState = rate.NewRedisState(b.redis, b.config.Rate.RedisPrefix, clock)
	} else {
		waitState = rate.NewMemoryState()
	}

	limiter := rate.New(waitState, rate.Config{
		NonBlocking: b.config.Rate.NonBlocking,
		MaxWait:     b.config.Rate.MaxFloodWait,
		Pace: map[rate.Category]float64{
			rate.CategoryJoin:    b.config.Rate.JoinsPerMinute / 60,
			rate.CategoryResolve: b.config.Rate.JoinsPerMinute / 60,
			rate.CategoryDialogs: b.config.Rate.DialogPagesPerSecond,
		},
	}, clock)

	b.built = true

	return &Engine{
		config:    b.config,
		transport: b.transport,
		sessions:  sessions,
		limiter:   limiter,
		clock:     clock,
		audit:     newAuditDispatcher(b.config.Audit, b.auditSink),
		metrics:   NewMetrics(b.config.Metrics),
	}, nil
}
