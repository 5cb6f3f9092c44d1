package dispatcher

import (
	"context"

	"github.com/garyjia/travel-expense/internal/domain/event"
)

// Handler delivers or records one engine event
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name        string
	EventType   event.Type
	Handler     Handler
	Description string
}

// Observer is told the outcome of every handler execution
type Observer func(evt *event.Event, handlerName string, err error)
