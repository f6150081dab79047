package goUserbot

import (
	"errors"
	"time"
)

// Config carries all engine tuning. Instances are configured during
// initialization and treated as immutable after [Builder.Build].
type Config struct {
	API       APIConfig
	Device    DeviceConfig
	Auth      AuthConfig
	Transport TransportConfig
	Rate      RateConfig
	Session   SessionConfig
	Registry  RegistryConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig identifies the application to the remote service. Both values are
// issued by the platform when the application is registered.
type APIConfig struct {
	ID   int32
	Hash string
}

/*
====================================
DEVICE CONFIG
====================================
*/

// DeviceConfig is the client identification sent with the code-request call.
// The remote service displays these in the account's active-session list.
type DeviceConfig struct {
	Model          string
	SystemVersion  string
	AppVersion     string
	LangCode       string
	SystemLangCode string
}

/*
====================================
AUTH CONFIG
====================================
*/

// AuthConfig tunes the login state machine.
type AuthConfig struct {
	// TwoFactorMaxAttempts caps wrong-password submissions in the
	// AwaitingTwoFactor state before the flow moves to Failed.
	TwoFactorMaxAttempts int
}

/*
====================================
TRANSPORT CONFIG
====================================
*/

// TransportConfig tunes per-call behavior on the RPC collaborator.
type TransportConfig struct {
	// CallTimeout bounds every individual RPC call. Zero disables the
	// engine-imposed deadline; the caller's context still applies.
	CallTimeout time.Duration
}

/*
====================================
RATE CONFIG
====================================
*/

// RateConfig tunes flood-wait enforcement and proactive pacing.
type RateConfig struct {
	// NonBlocking makes a throttled call fail immediately with the remaining
	// wait instead of sleeping until the category reopens. Blocking is the
	// default because most flows are sequential.
	NonBlocking bool
	// MaxFloodWait rejects recorded flood waits longer than this instead of
	// ever blocking on them. Zero means no cap.
	MaxFloodWait time.Duration
	// RedisPrefix namespaces shared flood-wait keys when the limiter state is
	// Redis-backed.
	RedisPrefix string
	// JoinsPerMinute proactively paces join and resolve calls below the
	// remote threshold. Zero disables pacing for the category.
	JoinsPerMinute float64
	// DialogPagesPerSecond proactively paces dialog-list pagination.
	// Zero disables pacing for the category.
	DialogPagesPerSecond float64
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes session persistence.
type SessionConfig struct {
	// RedisPrefix namespaces session keys when the store is Redis-backed.
	RedisPrefix string
}

/*
====================================
REGISTRY CONFIG
====================================
*/

// RegistryConfig tunes channel enumeration.
type RegistryConfig struct {
	// PageSize is the dialog-list page requested per pagination call.
	PageSize int
	// StaleAfter marks how old a ChannelRecord snapshot may be before
	// callers should re-fetch. Records are never auto-expired.
	StaleAfter time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig tunes asynchronous audit event delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of back-pressuring the calling
	// operation when the buffer is full.
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig tunes in-process counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Device: DeviceConfig{
			Model:          "goUserbot",
			SystemVersion:  "1.0",
			AppVersion:     "1.0",
			LangCode:       "en",
			SystemLangCode: "en-US",
		},
		Auth: AuthConfig{
			TwoFactorMaxAttempts: 3,
		},
		Transport: TransportConfig{
			CallTimeout: 30 * time.Second,
		},
		Rate: RateConfig{
			RedisPrefix:          "fw",
			JoinsPerMinute:       20,
			DialogPagesPerSecond: 2,
		},
		Session: SessionConfig{
			RedisPrefix: "ub",
		},
		Registry: RegistryConfig{
			PageSize:   100,
			StaleAfter: 15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.API.ID == 0 || cfg.API.Hash == "" {
		return errors.New("config: API ID and hash are required")
	}
	if cfg.Auth.TwoFactorMaxAttempts < 1 {
		return errors.New("config: TwoFactorMaxAttempts must be at least 1")
	}
	if cfg.Registry.PageSize < 1 {
		return errors.New("config: Registry.PageSize must be at least 1")
	}
	if cfg.Rate.JoinsPerMinute < 0 || cfg.Rate.DialogPagesPerSecond < 0 {
		return errors.New("config: pacing rates must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	// All fields are value types today; a shallow copy is a deep copy.
	return cfg
}
