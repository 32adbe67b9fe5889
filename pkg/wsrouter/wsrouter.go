package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
)

// ErrDecode wraps payload unmarshalling failures so callers can tell a
// malformed payload apart from a handler error.
var ErrDecode = errors.New("failed to decode payload")

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, conn *websocket.Conn, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type rawHandlerFunc func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error

type WSRouter struct {
	routes      map[string]rawHandlerFunc
	middlewares []Middleware
	onError     func(ctx context.Context, conn *websocket.Conn, err error)
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]rawHandlerFunc)}
}

// Use appends a middleware. Must be called before Handle registrations
// are dispatched; ordering follows registration order.
func (r *WSRouter) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// OnError sets the callback invoked when a handler returns an error.
func (r *WSRouter) OnError(f func(ctx context.Context, conn *websocket.Conn, err error)) {
	r.onError = f
}

// Handle registers a typed handler for the given message type. The raw
// payload is unmarshalled into T before the middleware chain runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				return fmt.Errorf("%w: %s", ErrDecode, err)
			}
		}

		h := func(ctx context.Context, conn *websocket.Conn, payload any) error {
			return handler(ctx, conn, payload.(T))
		}
		for i := len(r.middlewares) - 1; i >= 0; i-- {
			h = r.middlewares[i](h)
		}

		return h(ctx, conn, input)
	}
}

// ServeConn reads messages from the connection until it fails, routing each
// one by its type. Handler errors are reported through OnError and do not
// terminate the connection.
func (r *WSRouter) ServeConn(ctx context.Context, conn *websocket.Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			return err
		}

		msgCtx := context.WithValue(ctx, messageTypeKey, msg.Type)

		handler, exists := r.routes[msg.Type]
		if !exists {
			conn.WriteJSON(map[string]string{"error": "unknown message type"})
			continue
		}

		if err := handler(msgCtx, conn, msg.Payload); err != nil && r.onError != nil {
			r.onError(msgCtx, conn, err)
		}
	}
}
