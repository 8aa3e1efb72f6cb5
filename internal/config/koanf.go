// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/events"
	"github.com/tomtom215/civitas/internal/reputation"
	"github.com/tomtom215/civitas/internal/storage"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/civitas/config.yaml",
	"/etc/civitas/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	sc := storage.DefaultConfig()
	rc := reputation.DefaultEngineConfig()
	dc := detection.DefaultEngineConfig()
	ec := economy.DefaultConfig()
	bc := events.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Storage: StorageConfig{
			Path:                 sc.Path,
			InMemory:             false,
			SyncWrites:           sc.SyncWrites,
			Compression:          sc.Compression,
			GCInterval:           sc.GCInterval,
			GCRatio:              sc.GCRatio,
			TransactionRetention: 90 * 24 * time.Hour,
			EventRetention:       90 * 24 * time.Hour,
		},
		Engine: EngineConfig{
			RealmID:         "main",
			MaxWriteRetries: rc.MaxWriteRetries,
		},
		Layers: defaultLayers(),
		Physics: PhysicsConfig{
			TrustJumpLimit:      rc.Physics.TrustJumpLimit,
			TrustFloor:          rc.Physics.TrustFloor,
			PermanentDeltaLimit: rc.Physics.PermanentDeltaLimit,
		},
		Detection: DetectionConfig{
			VotingEnabled:          dc.VotingEnabled,
			TransactionsEnabled:    dc.TransactionsEnabled,
			RapidWindow:            dc.Voting.RapidWindow,
			RapidRatioThreshold:    dc.Voting.RapidRatioThreshold,
			UniqueRatioThreshold:   dc.Voting.UniqueRatioThreshold,
			MinAvgLatency:          dc.Voting.MinAvgLatency,
			ClusterWindow:          dc.Transactions.ClusterWindow,
			ClusterMinCount:        dc.Transactions.ClusterMinCount,
			ClusterMaxParticipants: dc.Transactions.ClusterMaxParticipants,
			OutlierLookback:        dc.Transactions.OutlierLookback,
			OutlierFactor:          dc.Transactions.OutlierFactor,
			ScanInterval:           dc.ScanInterval,
			ScanRate:               dc.ScanRate,
			ScanBurst:              dc.ScanBurst,
		},
		Economy: EconomyConfig{
			Tiers:         defaultTiers(),
			MaxMultiplier: ec.MaxMultiplier,
		},
		Badges: BadgesConfig{
			CheckOnEvent: true,
			Ladders:      defaultLadders(),
		},
		Events: EventsConfig{
			BufferSize:              bc.BufferSize,
			FeedLogEnabled:          true,
			FeedTopics:              []string{detection.FlagsTopic, badges.UnlocksTopic},
			BreakerMaxRequests:      bc.Breaker.MaxRequests,
			BreakerInterval:         bc.Breaker.Interval,
			BreakerTimeout:          bc.Breaker.Timeout,
			BreakerFailureThreshold: bc.Breaker.FailureThreshold,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load reads configuration from defaults, the config file and the environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Struct defaults
//  2. YAML config file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment variables (highest priority)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// HTTP_PORT -> server.port
	// LAYER_TRUST_WEIGHT -> layers.trust.weight
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "" if none.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
// when provided via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"events.feed_topics",
}

// processSliceFields converts comma-separated string values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (defaults or YAML)
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names to koanf paths.
// The tier table and badge ladders are only configurable from the file.
var envMappings = map[string]string{
	// Server mappings
	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_read_timeout":   "server.read_timeout",
	"http_write_timeout":  "server.write_timeout",
	"http_idle_timeout":   "server.idle_timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Storage mappings
	"badger_path":               "storage.path",
	"badger_in_memory":          "storage.in_memory",
	"badger_sync_writes":        "storage.sync_writes",
	"badger_compression":        "storage.compression",
	"badger_gc_interval":        "storage.gc_interval",
	"badger_gc_ratio":           "storage.gc_ratio",
	"reputation_tx_retention":   "storage.transaction_retention",
	"detection_event_retention": "storage.event_retention",

	// Engine mappings
	"realm_id":                     "engine.realm_id",
	"reputation_max_write_retries": "engine.max_write_retries",

	// Layer mappings
	"layer_contribution_weight":              "layers.contribution.weight",
	"layer_contribution_decay":               "layers.contribution.decay",
	"layer_contribution_lambda":              "layers.contribution.lambda",
	"layer_contribution_linear_rate":         "layers.contribution.linear_rate",
	"layer_contribution_validation_required": "layers.contribution.validation_required",
	"layer_contribution_allow_negative":      "layers.contribution.allow_negative",
	"layer_trust_weight":                     "layers.trust.weight",
	"layer_trust_decay":                      "layers.trust.decay",
	"layer_trust_lambda":                     "layers.trust.lambda",
	"layer_trust_linear_rate":                "layers.trust.linear_rate",
	"layer_trust_validation_required":        "layers.trust.validation_required",
	"layer_trust_allow_negative":             "layers.trust.allow_negative",
	"layer_governance_weight":                "layers.governance.weight",
	"layer_governance_decay":                 "layers.governance.decay",
	"layer_governance_lambda":                "layers.governance.lambda",
	"layer_governance_linear_rate":           "layers.governance.linear_rate",
	"layer_governance_validation_required":   "layers.governance.validation_required",
	"layer_governance_allow_negative":        "layers.governance.allow_negative",
	"layer_social_weight":                    "layers.social.weight",
	"layer_social_decay":                     "layers.social.decay",
	"layer_social_lambda":                    "layers.social.lambda",
	"layer_social_linear_rate":               "layers.social.linear_rate",
	"layer_social_validation_required":       "layers.social.validation_required",
	"layer_social_allow_negative":            "layers.social.allow_negative",
	"layer_economic_weight":                  "layers.economic.weight",
	"layer_economic_decay":                   "layers.economic.decay",
	"layer_economic_lambda":                  "layers.economic.lambda",
	"layer_economic_linear_rate":             "layers.economic.linear_rate",
	"layer_economic_validation_required":     "layers.economic.validation_required",
	"layer_economic_allow_negative":          "layers.economic.allow_negative",

	// Physics mappings
	"physics_trust_jump_limit":      "physics.trust_jump_limit",
	"physics_trust_floor":           "physics.trust_floor",
	"physics_permanent_delta_limit": "physics.permanent_delta_limit",

	// Detection mappings
	"detection_voting_enabled":           "detection.voting_enabled",
	"detection_transactions_enabled":     "detection.transactions_enabled",
	"detection_rapid_window":             "detection.rapid_window",
	"detection_rapid_ratio_threshold":    "detection.rapid_ratio_threshold",
	"detection_unique_ratio_threshold":   "detection.unique_ratio_threshold",
	"detection_min_avg_latency":          "detection.min_avg_latency",
	"detection_cluster_window":           "detection.cluster_window",
	"detection_cluster_min_count":        "detection.cluster_min_count",
	"detection_cluster_max_participants": "detection.cluster_max_participants",
	"detection_outlier_lookback":         "detection.outlier_lookback",
	"detection_outlier_factor":           "detection.outlier_factor",
	"detection_scan_interval":            "detection.scan_interval",
	"detection_scan_rate":                "detection.scan_rate",
	"detection_scan_burst":               "detection.scan_burst",

	// Economy mappings
	"economy_max_multiplier": "economy.max_multiplier",

	// Badge mappings
	"badges_check_on_event": "badges.check_on_event",

	// Event bus mappings
	"events_buffer_size":               "events.buffer_size",
	"events_feed_log_enabled":          "events.feed_log_enabled",
	"events_feed_topics":               "events.feed_topics",
	"events_breaker_max_requests":      "events.breaker_max_requests",
	"events_breaker_interval":          "events.breaker_interval",
	"events_breaker_timeout":           "events.breaker_timeout",
	"events_breaker_failure_threshold": "events.breaker_failure_threshold",

	// Supervisor mappings
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unmapped keys are skipped so unrelated environment variables
	// cannot pollute the config.
	return ""
}

// WatchConfigFile starts watching a config file and calls callback on change.
// Watch errors are ignored; the previous configuration stays in effect.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

// ConfigFile returns the path of the config file Load would read, or "".
func ConfigFile() string {
	return findConfigFile()
}
