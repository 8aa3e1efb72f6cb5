// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/metrics"
)

// Metadata keys set on every message.
const (
	MetadataKey           = "key"
	MetadataCorrelationID = "correlation_id"
	MetadataRequestID     = "request_id"
)

// Publish outcomes for metrics.
const (
	statusOK       = "ok"
	statusError    = "error"
	statusRejected = "rejected"
)

// ErrClosed is returned when publishing on a closed bus.
var ErrClosed = errors.New("event bus is closed")

// Bus publishes feed messages through a circuit breaker and hands out
// subscriptions.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	breaker    *gobreaker.CircuitBreaker[interface{}]

	mu     sync.RWMutex
	closed bool
}

// NewBus creates an in-process bus backed by a watermill Go channel.
func NewBus(cfg Config) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid events config: %w", err)
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.BufferSize,
	}, logging.NewWatermillAdapter())
	return NewBusWith(pubsub, pubsub, cfg.Breaker), nil
}

// NewBusWith creates a bus over an existing publisher and subscriber.
func NewBusWith(pub message.Publisher, sub message.Subscriber, breaker CircuitBreakerConfig) *Bus {
	return &Bus{
		publisher:  pub,
		subscriber: sub,
		breaker:    NewCircuitBreaker(breaker),
	}
}

// Publish sends a message to topic with circuit breaker protection.
func (b *Bus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}

	if id := logging.CorrelationIDFromContext(ctx); id != "" && msg.Metadata.Get(MetadataCorrelationID) == "" {
		msg.Metadata.Set(MetadataCorrelationID, id)
	}
	if id := logging.RequestIDFromContext(ctx); id != "" && msg.Metadata.Get(MetadataRequestID) == "" {
		msg.Metadata.Set(MetadataRequestID, id)
	}

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.publisher.Publish(topic, msg)
	})

	switch {
	case err == nil:
		metrics.RecordEventPublished(topic, statusOK)
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordEventPublished(topic, statusRejected)
	default:
		metrics.RecordEventPublished(topic, statusError)
	}
	return fmt.Errorf("publish to %s: %w", topic, err)
}

// PublishJSON encodes v and publishes it with key in the message metadata.
func (b *Bus) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(MetadataKey, key)
	return b.Publish(ctx, topic, msg)
}

// Subscribe returns the messages published on topic. Each message must be
// acked.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.subscriber.Subscribe(ctx, topic)
}

// BreakerState returns the breaker state for health reporting.
func (b *Bus) BreakerState() string {
	return b.breaker.State().String()
}

// Close shuts the bus down. Subscriptions are closed.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := b.publisher.Close()
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		if serr := b.subscriber.Close(); serr != nil && err == nil {
			err = serr
		}
	}
	return err
}
