// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestWatermillAdapter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	adapter := NewWatermillAdapterWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	adapter.Info("subscribed", watermill.LogFields{"topic": "badges.unlocked"})
	adapter.Error("publish failed", errors.New("closed"), watermill.LogFields{"topic": "manipulation.flags"})
	adapter.With(watermill.LogFields{"subscriber": "feed"}).Info("ack", nil)

	out := buf.String()
	for _, want := range []string{
		`"topic":"badges.unlocked"`,
		`"error":"closed"`,
		`"subscriber":"feed"`,
		"publish failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}
