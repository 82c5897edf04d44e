// Package events carries client state changes to in-process observers and,
// optionally, to external sinks such as a RabbitMQ exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"budgetbuddy/internal/log"
)

type Kind string

const (
	SessionLogin    Kind = "session.login"
	SessionRegister Kind = "session.register"
	SessionRestored Kind = "session.restored"
	SessionLogout   Kind = "session.logout"
	SessionExpired  Kind = "session.expired"
	ExpenseCreated  Kind = "expense.created"
	ExpenseUpdated  Kind = "expense.updated"
	ExpenseDeleted  Kind = "expense.deleted"
	BudgetUpdated   Kind = "budget.updated"
)

// Event is one state change. Only the fields relevant to Kind are set.
type Event struct {
	Kind        Kind      `json:"kind"`
	UserEmail   string    `json:"user,omitempty"`
	ExpenseID   string    `json:"expense_id,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// New stamps an event with the current time.
func New(kind Kind) Event {
	return Event{Kind: kind, Timestamp: time.Now().UTC()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	if e.Kind == "" {
		return Event{}, errors.New("event without kind")
	}
	return e, nil
}

// Publisher accepts events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Bus fans an event out to subscribers (synchronously, in subscription order)
// and then to every sink.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]func(Event)
	order  []int
	nextID int
	sinks  []Publisher
	logger *log.Logger
}

func NewBus(logger *log.Logger, sinks ...Publisher) *Bus {
	if logger == nil {
		logger = log.Discard()
	}
	return &Bus{
		subs:   make(map[int]func(Event)),
		sinks:  sinks,
		logger: logger.WithComponent(log.ComponentEvents),
	}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish runs subscribers without the bus lock held. Sink failures are
// joined into the returned error.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	sinks := b.sinks
	b.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}

	var errs []error
	for _, s := range sinks {
		if err := s.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish %s: %w", e.Kind, errors.Join(errs...))
	}
	b.logger.DebugContext(ctx, "Event published", log.FieldEvent, string(e.Kind))
	return nil
}

// Close drops subscribers and closes sinks that hold resources.
func (b *Bus) Close() error {
	b.mu.Lock()
	b.subs = make(map[int]func(Event))
	b.order = nil
	sinks := b.sinks
	b.sinks = nil
	b.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
