// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
)

// Handler processes one feed message. Returning an error nacks it.
type Handler func(ctx context.Context, topic string, msg *message.Message) error

// Feed consumes topics from a Bus and passes each message to a handler.
type Feed struct {
	bus     *Bus
	topics  []string
	handler Handler
}

// NewFeed creates a feed over topics. A nil handler logs each message.
func NewFeed(bus *Bus, topics []string, handler Handler) *Feed {
	if handler == nil {
		handler = logMessage
	}
	return &Feed{bus: bus, topics: topics, handler: handler}
}

// RunWithContext subscribes to every topic and consumes until ctx is done.
func (f *Feed) RunWithContext(ctx context.Context) error {
	if len(f.topics) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, topic := range f.topics {
		ch, err := f.bus.Subscribe(ctx, topic)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		wg.Add(1)
		go func(topic string, ch <-chan *message.Message) {
			defer wg.Done()
			f.consume(ctx, topic, ch)
		}(topic, ch)
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

func (f *Feed) consume(ctx context.Context, topic string, ch <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := f.handler(ctx, topic, msg); err != nil {
				logging.Warn().Err(err).Str("topic", topic).Str("message_id", msg.UUID).Msg("feed handler failed")
				msg.Nack()
				continue
			}
			metrics.RecordEventConsumed(topic)
			msg.Ack()
		}
	}
}

func logMessage(_ context.Context, topic string, msg *message.Message) error {
	logging.Info().
		Str("topic", topic).
		Str("message_id", msg.UUID).
		Str("key", msg.Metadata.Get(MetadataKey)).
		Str("correlation_id", msg.Metadata.Get(MetadataCorrelationID)).
		RawJSON("payload", msg.Payload).
		Msg("feed message")
	return nil
}
