// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional config file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in values for every setting
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override individual settings
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Server: HTTP listener, CORS and rate limiting
//     - Storage: BadgerDB location, GC and retention
//     - Events: In-process event bus and circuit breaker
//     - Supervisor: Restart policy of the service tree
//
//  2. Reputation:
//     - Engine: Realm identifier and write retries
//     - Layers: Weight and decay of each reputation layer
//     - Physics: Conservation-of-trust and entropy thresholds
//
//  3. Consumers:
//     - Detection: Manipulation detector thresholds and scan schedule
//     - Economy: Reward tier table
//     - Badges: Badge ladders
//
//  4. Observability:
//     - Logging: Log level and output format
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	Engine     EngineConfig     `koanf:"engine"`
	Layers     LayersConfig     `koanf:"layers"`
	Physics    PhysicsConfig    `koanf:"physics"`
	Detection  DetectionConfig  `koanf:"detection"`
	Economy    EconomyConfig    `koanf:"economy"`
	Badges     BadgesConfig     `koanf:"badges"`
	Events     EventsConfig     `koanf:"events"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// CORSOrigins lists allowed origins. "*" allows any origin.
	CORSOrigins []string `koanf:"cors_origins"`

	// Per-IP rate limiting of the API.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig holds BadgerDB configuration.
type StorageConfig struct {
	Path        string        `koanf:"path"`
	InMemory    bool          `koanf:"in_memory"`
	SyncWrites  bool          `koanf:"sync_writes"`
	Compression bool          `koanf:"compression"`
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCRatio     float64       `koanf:"gc_ratio"`

	// TransactionRetention is how long reputation transactions are kept.
	// Minimum 30 days.
	TransactionRetention time.Duration `koanf:"transaction_retention"`

	// EventRetention is how long votes and transfers are kept for
	// detection. Zero keeps them forever.
	EventRetention time.Duration `koanf:"event_retention"`
}

// EngineConfig holds reputation write path settings.
type EngineConfig struct {
	// RealmID namespaces every key in storage.
	RealmID string `koanf:"realm_id"`

	// MaxWriteRetries bounds automatic retries after a stale write.
	MaxWriteRetries int `koanf:"max_write_retries"`
}

// LayerSettings configures one reputation layer.
type LayerSettings struct {
	Weight             float64 `koanf:"weight"`
	Decay              string  `koanf:"decay"`
	Lambda             float64 `koanf:"lambda"`
	LinearRate         float64 `koanf:"linear_rate"`
	ValidationRequired bool    `koanf:"validation_required"`
	AllowNegative      bool    `koanf:"allow_negative"`
}

// LayersConfig holds the five reputation layers. The set is fixed, so each
// layer is a named field rather than a list.
type LayersConfig struct {
	Contribution LayerSettings `koanf:"contribution"`
	Trust        LayerSettings `koanf:"trust"`
	Governance   LayerSettings `koanf:"governance"`
	Social       LayerSettings `koanf:"social"`
	Economic     LayerSettings `koanf:"economic"`
}

// PhysicsConfig holds the write invariant thresholds.
type PhysicsConfig struct {
	TrustJumpLimit      float64 `koanf:"trust_jump_limit"`
	TrustFloor          float64 `koanf:"trust_floor"`
	PermanentDeltaLimit float64 `koanf:"permanent_delta_limit"`
}

// DetectionConfig holds manipulation detector settings.
type DetectionConfig struct {
	VotingEnabled       bool `koanf:"voting_enabled"`
	TransactionsEnabled bool `koanf:"transactions_enabled"`

	// Voting pattern thresholds.
	RapidWindow          time.Duration `koanf:"rapid_window"`
	RapidRatioThreshold  float64       `koanf:"rapid_ratio_threshold"`
	UniqueRatioThreshold float64       `koanf:"unique_ratio_threshold"`
	MinAvgLatency        time.Duration `koanf:"min_avg_latency"`

	// Transaction pattern thresholds.
	ClusterWindow          time.Duration `koanf:"cluster_window"`
	ClusterMinCount        int           `koanf:"cluster_min_count"`
	ClusterMaxParticipants int           `koanf:"cluster_max_participants"`
	OutlierLookback        time.Duration `koanf:"outlier_lookback"`
	OutlierFactor          float64       `koanf:"outlier_factor"`

	// Scheduled scan.
	ScanInterval time.Duration `koanf:"scan_interval"`
	ScanRate     float64       `koanf:"scan_rate"`
	ScanBurst    int           `koanf:"scan_burst"`
}

// EconomyConfig holds the reward tier table.
type EconomyConfig struct {
	Tiers         []TierConfig `koanf:"tiers"`
	MaxMultiplier float64      `koanf:"max_multiplier"`
}

// TierConfig is one reward tier.
type TierConfig struct {
	Name          string    `koanf:"name"`
	MinReputation float64   `koanf:"min_reputation"`
	Formula       string    `koanf:"formula"`
	Coefficients  []float64 `koanf:"coefficients"`
}

// BadgesConfig holds the badge ladders.
type BadgesConfig struct {
	// CheckOnEvent runs the evolution check after every accepted event
	// submitted through the API.
	CheckOnEvent bool           `koanf:"check_on_event"`
	Ladders      []LadderConfig `koanf:"ladders"`
}

// LadderConfig is the tier ladder of one badge category.
type LadderConfig struct {
	Category string            `koanf:"category"`
	Tiers    []BadgeTierConfig `koanf:"tiers"`
}

// BadgeTierConfig is one rung of a ladder.
type BadgeTierConfig struct {
	Rank       int               `koanf:"rank"`
	Name       string            `koanf:"name"`
	Conditions []ConditionConfig `koanf:"conditions"`
}

// ConditionConfig is one unlock threshold.
type ConditionConfig struct {
	Kind    string  `koanf:"kind"`
	Layer   string  `koanf:"layer"`
	Counter string  `koanf:"counter"`
	Min     float64 `koanf:"min"`
}

// EventsConfig holds the in-process event bus settings.
type EventsConfig struct {
	BufferSize int64 `koanf:"buffer_size"`

	// FeedLogEnabled subscribes a logger to FeedTopics.
	FeedLogEnabled bool     `koanf:"feed_log_enabled"`
	FeedTopics     []string `koanf:"feed_topics"`

	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
	BreakerInterval         time.Duration `koanf:"breaker_interval"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
}

// SupervisorConfig holds the service tree restart policy.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}
