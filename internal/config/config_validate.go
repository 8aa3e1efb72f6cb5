// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/reputation"
)

// Rate limiting validation constants
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks that configuration values are present and in range.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateStorage,
		c.validateEngine,
		c.validateLayers,
		c.validatePhysics,
		c.validateDetection,
		c.validateEconomy,
		c.validateBadges,
		c.validateEvents,
		c.validateSupervisor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return fmt.Errorf("HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT and HTTP_IDLE_TIMEOUT must be positive")
	}
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d, got %d",
			minRateLimitRequests, maxRateLimitRequests, c.Server.RateLimitReqs)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v, got %v",
			minRateLimitWindow, maxRateLimitWindow, c.Server.RateLimitWindow)
	}
	return nil
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, panic, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

// validateStorage validates BadgerDB settings and retention
func (c *Config) validateStorage() error {
	sc := c.StorageSettings()
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if c.Storage.TransactionRetention < reputation.MinTransactionRetention {
		return fmt.Errorf("REPUTATION_TX_RETENTION must be at least %v, got %v",
			reputation.MinTransactionRetention, c.Storage.TransactionRetention)
	}
	if c.Storage.EventRetention != 0 && c.Storage.EventRetention < reputation.MinTransactionRetention {
		return fmt.Errorf("DETECTION_EVENT_RETENTION must be 0 or at least %v, got %v",
			reputation.MinTransactionRetention, c.Storage.EventRetention)
	}
	return nil
}

// validateEngine validates the realm and write path
func (c *Config) validateEngine() error {
	if c.Engine.RealmID == "" {
		return fmt.Errorf("REALM_ID is required")
	}
	if strings.Contains(c.Engine.RealmID, "/") {
		return fmt.Errorf("REALM_ID must not contain '/', got %q", c.Engine.RealmID)
	}
	if c.Engine.MaxWriteRetries < 0 {
		return fmt.Errorf("REPUTATION_MAX_WRITE_RETRIES must not be negative, got %d", c.Engine.MaxWriteRetries)
	}
	return nil
}

// validateLayers validates weights and decay parameters of every layer
func (c *Config) validateLayers() error {
	if _, err := reputation.NewLayerSet(c.LayerConfigs()); err != nil {
		return fmt.Errorf("layers: %w", err)
	}
	return nil
}

// validatePhysics validates the write invariant thresholds
func (c *Config) validatePhysics() error {
	if err := c.ReputationSettings().Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	return nil
}

// validateDetection validates detector thresholds and the scan schedule
func (c *Config) validateDetection() error {
	dc := c.DetectionSettings()
	if err := dc.Voting.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if err := dc.Transactions.Validate(); err != nil {
		return fmt.Errorf("detection: %w", err)
	}
	if dc.ScanInterval < time.Second {
		return fmt.Errorf("DETECTION_SCAN_INTERVAL must be at least 1s, got %v", dc.ScanInterval)
	}
	if !(dc.ScanRate > 0) {
		return fmt.Errorf("DETECTION_SCAN_RATE must be positive, got %v", dc.ScanRate)
	}
	if dc.ScanBurst < 1 {
		return fmt.Errorf("DETECTION_SCAN_BURST must be at least 1, got %d", dc.ScanBurst)
	}
	return nil
}

// validateEconomy validates the reward tier table
func (c *Config) validateEconomy() error {
	if err := c.EconomySettings().Validate(); err != nil {
		return fmt.Errorf("economy: %w", err)
	}
	return nil
}

// validateBadges validates every ladder and rejects duplicate categories
func (c *Config) validateBadges() error {
	seen := make(map[badges.Category]struct{})
	for _, l := range c.BadgeLadders() {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("badges: %w", err)
		}
		if _, dup := seen[l.Category]; dup {
			return fmt.Errorf("badges: category %s configured more than once", l.Category)
		}
		seen[l.Category] = struct{}{}
	}
	return nil
}

// validateEvents validates the event bus
func (c *Config) validateEvents() error {
	if err := c.EventsSettings().Validate(); err != nil {
		return fmt.Errorf("events: %w", err)
	}
	return nil
}

// validateSupervisor validates the restart policy
func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD must be positive")
	}
	if c.Supervisor.FailureDecay <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_DECAY must be positive")
	}
	if c.Supervisor.FailureBackoff <= 0 || c.Supervisor.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_BACKOFF and SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
