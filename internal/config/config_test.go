// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package config

import (
	"reflect"
	"testing"

	"github.com/tomtom215/civitas/internal/badges"
	"github.com/tomtom215/civitas/internal/detection"
	"github.com/tomtom215/civitas/internal/economy"
	"github.com/tomtom215/civitas/internal/reputation"
	"github.com/tomtom215/civitas/internal/storage"
)

// The default config must convert back into each package's own defaults.
func TestDefaultsRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := defaultConfig()

	if got, want := cfg.LayerConfigs(), reputation.DefaultLayerConfigs(); !reflect.DeepEqual(got, want) {
		t.Errorf("LayerConfigs() = %+v, want %+v", got, want)
	}
	if got, want := cfg.ReputationSettings(), reputation.DefaultEngineConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("ReputationSettings() = %+v, want %+v", got, want)
	}
	if got, want := cfg.DetectionSettings(), detection.DefaultEngineConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("DetectionSettings() = %+v, want %+v", got, want)
	}
	if got, want := cfg.EconomySettings(), economy.DefaultConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("EconomySettings() = %+v, want %+v", got, want)
	}
	if got, want := cfg.BadgeLadders(), badges.DefaultLadders(); !reflect.DeepEqual(got, want) {
		t.Errorf("BadgeLadders() = %+v, want %+v", got, want)
	}
	if got, want := cfg.StorageSettings(), storage.DefaultConfig(); !reflect.DeepEqual(got, want) {
		t.Errorf("StorageSettings() = %+v, want %+v", got, want)
	}
}

func TestEventsSettings(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	ec := cfg.EventsSettings()
	if ec.BufferSize != 256 {
		t.Errorf("BufferSize = %d, want 256", ec.BufferSize)
	}
	if ec.Breaker.Name != "event-bus" || ec.Breaker.FailureThreshold != 5 {
		t.Errorf("Breaker = %+v, want event-bus with threshold 5", ec.Breaker)
	}
	want := []string{detection.FlagsTopic, badges.UnlocksTopic}
	if !reflect.DeepEqual(ec.FeedTopics, want) {
		t.Errorf("FeedTopics = %v, want %v", ec.FeedTopics, want)
	}

	cfg.Events.FeedLogEnabled = false
	if got := cfg.EventsSettings().FeedTopics; len(got) != 0 {
		t.Errorf("FeedTopics with feed log disabled = %v, want none", got)
	}
}

func TestLoggingSettings(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Logging = LoggingConfig{Level: "debug", Format: "console", Caller: true}
	lc := cfg.LoggingSettings()
	if lc.Level != "debug" || lc.Format != "console" || !lc.Caller {
		t.Errorf("LoggingSettings() = %+v, want debug/console/caller", lc)
	}
	if !lc.Timestamp || lc.Output == nil {
		t.Error("LoggingSettings() should keep timestamp and output defaults")
	}
}

func TestValidate_DuplicateLadder(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Badges.Ladders = append(cfg.Badges.Ladders, cfg.Badges.Ladders[0])
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with duplicate ladder category returned nil")
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	t.Parallel()

	for _, level := range []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"} {
		cfg := defaultConfig()
		cfg.Logging.Level = level
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with level %q error = %v", level, err)
		}
	}
}

func TestValidate_InMemoryStorageNeedsNoPath(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Storage.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with empty storage path returned nil")
	}
	cfg.Storage.InMemory = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with in-memory storage error = %v", err)
	}
}

func TestValidate_EventRetentionZeroKeepsForever(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Storage.EventRetention = 0
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with event retention 0 error = %v", err)
	}
}
