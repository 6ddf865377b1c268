// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package event provides per-task multicast of lifecycle events to
// streaming subscribers.
package event

import (
	"log/slog"
	"sync"

	"github.com/go-a2a/taskcore"
)

// DefaultBufferSize is the per-subscriber event buffer used when the
// broker is created with a non-positive size.
const DefaultBufferSize = 16

// Subscription is one subscriber's view of a task's event stream.
// Events are read from Events until the channel is closed, either
// because the task finished, the subscriber unsubscribed, or the
// subscriber fell too far behind.
type Subscription struct {
	taskID string
	ch     chan taskcore.TaskEvent

	closeOnce sync.Once
	mu        sync.Mutex
	dropped   bool
}

// TaskID returns the task this subscription watches.
func (s *Subscription) TaskID() string { return s.taskID }

// Events returns the event channel. The channel is closed when the
// stream ends.
func (s *Subscription) Events() <-chan taskcore.TaskEvent { return s.ch }

// Dropped reports whether the broker disconnected this subscriber for
// falling behind.
func (s *Subscription) Dropped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) close(dropped bool) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.dropped = dropped
		s.mu.Unlock()
		close(s.ch)
	})
}

type topic struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	finished bool
}

// Broker fans task events out to the subscribers of each task. Publish
// never blocks: a subscriber whose buffer is full is disconnected
// rather than allowed to stall the publisher or other subscribers.
type Broker struct {
	mu      sync.RWMutex
	topics  map[string]*topic
	bufSize int
	logger  *slog.Logger
}

// NewBroker creates a Broker with the given per-subscriber buffer
// size. A non-positive size selects [DefaultBufferSize].
func NewBroker(bufSize int, logger *slog.Logger) *Broker {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		topics:  make(map[string]*topic),
		bufSize: bufSize,
		logger:  logger,
	}
}

// Subscribe registers a new subscriber for a task's events. Subscribing
// to a task that already finished returns a subscription whose channel
// is closed immediately.
func (b *Broker) Subscribe(taskID string) *Subscription {
	sub := &Subscription{
		taskID: taskID,
		ch:     make(chan taskcore.TaskEvent, b.bufSize),
	}

	b.mu.Lock()
	tp, ok := b.topics[taskID]
	if !ok {
		tp = &topic{subs: make(map[*Subscription]struct{})}
		b.topics[taskID] = tp
	}
	b.mu.Unlock()

	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.finished {
		sub.close(false)
		return sub
	}
	tp.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber and closes its channel. It is safe
// to call after the stream already ended.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.RLock()
	tp := b.topics[sub.taskID]
	b.mu.RUnlock()

	if tp != nil {
		tp.mu.Lock()
		delete(tp.subs, sub)
		tp.mu.Unlock()
	}
	sub.close(false)
}

// Publish delivers an event to all subscribers of the task. Delivery
// per subscriber is in publish order; a subscriber with no buffer
// space left is dropped. Publishing to a task without subscribers is a
// no-op.
func (b *Broker) Publish(ev taskcore.TaskEvent) {
	if ev == nil {
		return
	}

	b.mu.RLock()
	tp := b.topics[ev.EventTaskID()]
	b.mu.RUnlock()
	if tp == nil {
		return
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.finished {
		return
	}
	b.deliverLocked(tp, ev)
}

// Finish delivers the final event to all subscribers, then closes the
// stream for everyone and forgets the task. Finishing an unknown or
// already finished task is a no-op.
func (b *Broker) Finish(ev taskcore.TaskEvent) {
	if ev == nil {
		return
	}
	taskID := ev.EventTaskID()

	b.mu.Lock()
	tp := b.topics[taskID]
	delete(b.topics, taskID)
	b.mu.Unlock()
	if tp == nil {
		return
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	if tp.finished {
		return
	}
	tp.finished = true

	b.deliverLocked(tp, ev)
	for sub := range tp.subs {
		sub.close(false)
	}
	tp.subs = nil
}

// deliverLocked sends ev to every subscriber of tp, dropping the ones
// whose buffers are full. Callers hold tp.mu.
func (b *Broker) deliverLocked(tp *topic, ev taskcore.TaskEvent) {
	for sub := range tp.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(tp.subs, sub)
			sub.close(true)
			b.logger.Warn("dropping slow event subscriber",
				slog.String("a2a.task_id", sub.taskID),
				slog.Int("buffer_size", b.bufSize),
			)
		}
	}
}

// SubscriberCount returns the number of active subscribers for a task.
func (b *Broker) SubscriberCount(taskID string) int {
	b.mu.RLock()
	tp := b.topics[taskID]
	b.mu.RUnlock()
	if tp == nil {
		return 0
	}

	tp.mu.Lock()
	defer tp.mu.Unlock()
	return len(tp.subs)
}
