package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/travel-expense/internal/application/dispatcher"
	"github.com/garyjia/travel-expense/internal/application/port"
	"github.com/garyjia/travel-expense/internal/domain/entity"
	"github.com/garyjia/travel-expense/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// TransitionObserver is told about every committed status transition
type TransitionObserver interface {
	ObserveTransition(entityType, from, to string)
}

// Clock returns the current time
type Clock func() time.Time

// TokenGenerator returns a fresh single-use approval token
type TokenGenerator func() string

type options struct {
	clock               Clock
	tokens              TokenGenerator
	observer            TransitionObserver
	accountingRecipient string
}

// Option configures the report and travel request services
type Option func(*options)

// WithClock overrides time.Now
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithTokenGenerator overrides how approval tokens are generated
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(o *options) {
		o.tokens = gen
	}
}

// WithTransitionObserver reports committed transitions, e.g. to metrics
func WithTransitionObserver(observer TransitionObserver) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithAccountingRecipient sets who receives forwarded-to-accounting events
func WithAccountingRecipient(recipientID string) Option {
	return func(o *options) {
		o.accountingRecipient = recipientID
	}
}

func newOptions(opts []Option) options {
	o := options{
		clock:               time.Now,
		tokens:              uuid.NewString,
		accountingRecipient: entity.RoleAccounting,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// transition is a committed status change waiting to be observed
type transition struct {
	entityType string
	from, to   string
}

// outbox collects what a transaction decided so it can be published after commit
type outbox struct {
	events      []*event.Event
	transitions []transition
}

func (b *outbox) emit(evt *event.Event) {
	b.events = append(b.events, evt)
}

func (b *outbox) moved(entityType, from, to string) {
	b.transitions = append(b.transitions, transition{entityType: entityType, from: from, to: to})
}

// publish hands events to the dispatcher without waiting for delivery.
// Call it only after the transaction committed.
func (b *outbox) publish(ctx context.Context, d dispatcher.Dispatcher, observer TransitionObserver) {
	if observer != nil {
		for _, t := range b.transitions {
			observer.ObserveTransition(t.entityType, t.from, t.to)
		}
	}
	for _, evt := range b.events {
		d.DispatchAsync(ctx, evt)
	}
}

func recordHistory(ctx context.Context, repo port.HistoryRepository, h *entity.StatusHistory) error {
	if err := repo.Create(ctx, h); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

// notFound wraps port.ErrNotFound with the entity that was missing
func notFound(err error, what string, id int64) error {
	if errors.Is(err, port.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", what, id, port.ErrNotFound)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}
