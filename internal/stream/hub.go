// Package stream provides change notification fan-out for live queries.
//
// The storage port has no native reactive queries; instead, readers take a
// one-shot snapshot and subscribe to the tables the snapshot depends on.
// Every committed mutation publishes a ChangeEvent for each touched table,
// and subscribers re-read on delivery.
package stream

import (
	"sync"
	"time"
)

// Topic names the table a change event refers to.
type Topic string

const (
	TopicExecutions  Topic = "executions"
	TopicTrades      Topic = "trades"
	TopicStops       Topic = "trade_stops"
	TopicTargets     Topic = "trade_targets"
	TopicNotes       Topic = "trade_notes"
	TopicTags        Topic = "tags"
	TopicAttachments Topic = "trade_attachments"
	TopicExcursions  Topic = "trade_excursions"
	TopicReviews     Topic = "reviews"
)

// ChangeEvent signals that rows under a topic changed. It carries no row
// data; subscribers re-query for a fresh snapshot.
type ChangeEvent struct {
	Topic Topic
	At    time.Time
}

// HubConfig holds configuration for the change hub.
type HubConfig struct {
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{SubscriberBufferSize: 16}
}

// Hub fans change events out to per-topic subscribers. Sends are
// non-blocking: a subscriber that has fallen behind misses intermediate
// events but will still observe the latest state on its next re-read, so
// dropped events are harmless.
type Hub struct {
	config      HubConfig
	mu          sync.RWMutex
	subscribers map[Topic][]*subscriber
	closed      bool

	eventsPublished uint64
	eventsDropped   uint64
}

type subscriber struct {
	ch chan ChangeEvent
}

// NewHub creates a new change hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new change hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	return &Hub{
		config:      config,
		subscribers: make(map[Topic][]*subscriber),
	}
}

// Subscribe returns a channel delivering change events for the topics.
// The channel is closed by Unsubscribe or Close.
func (h *Hub) Subscribe(topics ...Topic) <-chan ChangeEvent {
	sub := &subscriber{ch: make(chan ChangeEvent, h.config.SubscriberBufferSize)}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub.ch
	}
	for _, topic := range topics {
		h.subscribers[topic] = append(h.subscribers[topic], sub)
	}
	return sub.ch
}

// Unsubscribe removes a subscription channel and closes it.
func (h *Hub) Unsubscribe(ch <-chan ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var found *subscriber
	for topic, subs := range h.subscribers {
		for i, sub := range subs {
			if sub.ch == ch {
				found = sub
				h.subscribers[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if len(h.subscribers[topic]) == 0 {
			delete(h.subscribers, topic)
		}
	}
	if found != nil {
		close(found.ch)
	}
}

// Publish delivers a change event to all subscribers of the topics.
// Duplicate deliveries to a subscriber registered on several touched
// topics are coalesced per call.
func (h *Hub) Publish(topics ...Topic) {
	now := time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	seen := make(map[*subscriber]Topic, 4)
	for _, topic := range topics {
		for _, sub := range h.subscribers[topic] {
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = topic
		}
	}

	for sub, topic := range seen {
		select {
		case sub.ch <- ChangeEvent{Topic: topic, At: now}:
			h.eventsPublished++
		default:
			h.eventsDropped++
		}
	}
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	closed := make(map[*subscriber]bool)
	for topic, subs := range h.subscribers {
		for _, sub := range subs {
			if !closed[sub] {
				close(sub.ch)
				closed[sub] = true
			}
		}
		delete(h.subscribers, topic)
	}
}

// SubscriberCount returns the number of subscribers for a topic.
func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}
