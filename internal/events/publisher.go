// Package events delivers message list notifications to subscribers.
package events

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handler is invoked when a notification matches a subscription.
type Handler func(n *Notification)

// Filter defines criteria for matching notifications.
type Filter struct {
	// Kinds filters by notification kind (nil = all kinds).
	Kinds []Kind

	// Source filters to a specific emitter (empty = all).
	Source string
}

// Matches returns true if the notification matches the filter criteria.
func (f *Filter) Matches(n *Notification) bool {
	if n == nil {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, n.Kind) {
		return false
	}
	if f.Source != "" && n.Source != f.Source {
		return false
	}
	return true
}

// subscription represents an active event subscription.
type subscription struct {
	id      string
	filter  Filter
	handler Handler
}

// Publisher defines the interface for notification publishing and subscription.
type Publisher interface {
	// Publish sends a notification to all matching subscribers.
	Publish(ctx context.Context, n *Notification)

	// Subscribe registers a handler to receive notifications matching the filter.
	Subscribe(id string, filter Filter, handler Handler) error

	// Unsubscribe removes a subscription by ID.
	Unsubscribe(id string) error

	// SubscriberCount returns the number of active subscribers.
	SubscriberCount() int
}

// InMemoryPublisher implements Publisher using in-process pub/sub.
type InMemoryPublisher struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	now           func() time.Time
	published     map[Kind]int
}

// PublisherOption configures an InMemoryPublisher.
type PublisherOption func(*InMemoryPublisher)

// WithClock overrides the clock used to stamp notifications.
func WithClock(now func() time.Time) PublisherOption {
	return func(p *InMemoryPublisher) {
		p.now = now
	}
}

// NewInMemoryPublisher creates a new in-memory event publisher.
func NewInMemoryPublisher(opts ...PublisherOption) *InMemoryPublisher {
	p := &InMemoryPublisher{
		subscriptions: make(map[string]*subscription),
		now:           time.Now,
		published:     make(map[Kind]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends a notification to all matching subscribers synchronously,
// stamping it first when Timestamp is unset.
func (p *InMemoryPublisher) Publish(ctx context.Context, n *Notification) {
	if n == nil {
		return
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = p.now()
	}

	// Get matching subscriptions under lock
	p.mu.Lock()
	p.published[n.Kind]++
	var handlers []Handler
	for _, sub := range p.subscriptions {
		if sub.filter.Matches(n) {
			handlers = append(handlers, sub.handler)
		}
	}
	p.mu.Unlock()

	// Invoke handlers outside the lock to avoid deadlocks
	for _, handler := range handlers {
		if ctx.Err() != nil {
			return
		}
		handler(n)
	}
}

// Published returns how many notifications of kind were published.
func (p *InMemoryPublisher) Published(kind Kind) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.published[kind]
}

// SubscribeFunc registers a handler under a generated ID and returns it.
func (p *InMemoryPublisher) SubscribeFunc(filter Filter, handler Handler) (string, error) {
	id := uuid.NewString()
	if err := p.Subscribe(id, filter, handler); err != nil {
		return "", err
	}
	return id, nil
}

// Subscribe registers a handler to receive notifications matching the filter.
func (p *InMemoryPublisher) Subscribe(id string, filter Filter, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}

	p.subscriptions[id] = &subscription{
		id:      id,
		filter:  filter,
		handler: handler,
	}

	return nil
}

// Unsubscribe removes a subscription by ID.
func (p *InMemoryPublisher) Unsubscribe(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}

	delete(p.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (p *InMemoryPublisher) SubscriberCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscriptions)
}

// UpdateSubscription updates the filter for an existing subscription.
func (p *InMemoryPublisher) UpdateSubscription(id string, filter Filter) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	sub, exists := p.subscriptions[id]
	if !exists {
		return ErrSubscriptionNotFound
	}

	sub.filter = filter
	return nil
}

// Close removes all subscriptions.
func (p *InMemoryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscriptions = make(map[string]*subscription)
}

// Errors for publisher operations.
var (
	ErrInvalidSubscriptionID = &PublisherError{Message: "subscription ID is required"}
	ErrNilHandler            = &PublisherError{Message: "handler cannot be nil"}
	ErrSubscriptionExists    = &PublisherError{Message: "subscription with this ID already exists"}
	ErrSubscriptionNotFound  = &PublisherError{Message: "subscription not found"}
)

// PublisherError represents an error from publisher operations.
type PublisherError struct {
	Message string
}

func (e *PublisherError) Error() string {
	return e.Message
}
