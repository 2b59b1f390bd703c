// internal/websocket/handler.go
package websocket

import (
	"context"
	"sort"

	wstypes "hellofixo-service/internal/domain/websocket"
)

// MessageHandler answers client-initiated events for one domain.
type MessageHandler interface {
	HandleMessage(ctx context.Context, client *Client, msg *wstypes.WSMessage) error
	SupportedEvents() []wstypes.EventType
}

// HandlerRegistry maps event types to their handler.
type HandlerRegistry struct {
	handlers map[wstypes.EventType]MessageHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[wstypes.EventType]MessageHandler),
	}
}

// Register claims every event the handler supports; later registrations win.
func (r *HandlerRegistry) Register(handler MessageHandler) {
	for _, eventType := range handler.SupportedEvents() {
		r.handlers[eventType] = handler
	}
}

func (r *HandlerRegistry) GetHandler(eventType wstypes.EventType) (MessageHandler, bool) {
	handler, exists := r.handlers[eventType]
	return handler, exists
}

// Events lists the registered event types in sorted order.
func (r *HandlerRegistry) Events() []wstypes.EventType {
	out := make([]wstypes.EventType, 0, len(r.handlers))
	for e := range r.handlers {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
