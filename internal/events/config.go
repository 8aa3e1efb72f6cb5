// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package events

import (
	"fmt"
	"time"
)

// Config configures the in-process event bus.
type Config struct {
	// BufferSize is the per-subscriber output channel buffer.
	BufferSize int64

	// Breaker guards the publish path.
	Breaker CircuitBreakerConfig

	// FeedTopics are logged by a Feed when non-empty.
	FeedTopics []string
}

// CircuitBreakerConfig configures the publish circuit breaker.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32        // Allowed in half-open state
	Interval         time.Duration // Reset interval for counts
	Timeout          time.Duration // Time to stay open
	FailureThreshold uint32        // Consecutive failures before opening
}

// DefaultCircuitBreakerConfig returns production defaults.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize: 256,
		Breaker:    DefaultCircuitBreakerConfig("event-bus"),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.BufferSize < 0 {
		return fmt.Errorf("buffer_size must not be negative")
	}
	if c.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("breaker failure_threshold must be at least 1")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("breaker timeout must be positive")
	}
	return nil
}
