package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/pkg/ctxlogger"
	"github.com/watchroom/server/pkg/wsrouter"
)

func generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

func (c *controller) requestIdMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxlogger.AppendCtx(r.Context(), slog.String("request_id", generateTimeBasedId()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (c *controller) requestLoggingMw(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.logger.DebugContext(r.Context(), "incoming request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		next.ServeHTTP(w, r)
	})
}

// messageIdWSMw tags every inbound message with its own id for log
// correlation across the handler chain.
func (c *controller) messageIdWSMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		ctx = ctxlogger.AppendCtx(ctx, slog.String("message_id", generateTimeBasedId()))
		return next(ctx, conn, payload)
	}
}

func (c *controller) loggingWSMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		start := time.Now()
		c.logger.DebugContext(ctx, "handling message", "message_type", wsrouter.GetMessageTypeFromCtx(ctx))

		err := next(ctx, conn, payload)

		c.logger.DebugContext(ctx, "message handled",
			"message_type", wsrouter.GetMessageTypeFromCtx(ctx),
			"duration", time.Since(start).String(),
			"error", err,
		)

		return err
	}
}

// validateWSMw runs struct validation on every decoded payload so handlers
// can assume well-formed input.
func (c *controller) validateWSMw(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
	return func(ctx context.Context, conn *websocket.Conn, payload any) error {
		if errs, ok := c.validate.Validate(payload); !ok {
			return fmt.Errorf("%w: %s", domain.ErrValidation, errs[0].Message)
		}

		return next(ctx, conn, payload)
	}
}
