// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package config provides centralized configuration management for Civitas.

Configuration is loaded with Koanf v2 from three layers, later layers
overriding earlier ones:

 1. Struct defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, else config.yaml, config.yml,
    /etc/civitas/config.yaml or /etc/civitas/config.yml
 3. Environment variables, through an explicit mapping table

Unmapped environment variables are ignored. The reward tier table and the
badge ladders are lists and can only be set from the file.

# Environment Variables

Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:8080)
  - HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT, HTTP_IDLE_TIMEOUT
  - CORS_ORIGINS: Comma-separated allowed origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Storage:
  - BADGER_PATH (default: /data/civitas), BADGER_IN_MEMORY
  - BADGER_GC_INTERVAL, BADGER_GC_RATIO
  - REPUTATION_TX_RETENTION: Transaction log TTL (default: 2160h, minimum 720h)
  - DETECTION_EVENT_RETENTION: Vote and transfer TTL, 0 keeps forever

Reputation:
  - REALM_ID: Storage namespace (default: main)
  - LAYER_<NAME>_WEIGHT, LAYER_<NAME>_DECAY, LAYER_<NAME>_LAMBDA,
    LAYER_<NAME>_LINEAR_RATE, LAYER_<NAME>_VALIDATION_REQUIRED,
    LAYER_<NAME>_ALLOW_NEGATIVE for each of CONTRIBUTION, TRUST,
    GOVERNANCE, SOCIAL and ECONOMIC
  - PHYSICS_TRUST_JUMP_LIMIT, PHYSICS_TRUST_FLOOR, PHYSICS_PERMANENT_DELTA_LIMIT

Detection:
  - DETECTION_VOTING_ENABLED, DETECTION_TRANSACTIONS_ENABLED
  - DETECTION_RAPID_WINDOW, DETECTION_RAPID_RATIO_THRESHOLD,
    DETECTION_UNIQUE_RATIO_THRESHOLD, DETECTION_MIN_AVG_LATENCY
  - DETECTION_CLUSTER_WINDOW, DETECTION_CLUSTER_MIN_COUNT,
    DETECTION_CLUSTER_MAX_PARTICIPANTS
  - DETECTION_OUTLIER_LOOKBACK, DETECTION_OUTLIER_FACTOR
  - DETECTION_SCAN_INTERVAL, DETECTION_SCAN_RATE, DETECTION_SCAN_BURST

Logging:
  - LOG_LEVEL (default: info), LOG_FORMAT (json or console), LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    return err
	}
	layers, err := reputation.NewLayerSet(cfg.LayerConfigs())

The conversion methods (LayerConfigs, DetectionSettings, EconomySettings,
BadgeLadders and so on) hand each package its own config type, so domain
packages never import this one.
*/
package config
