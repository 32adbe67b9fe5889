package controller

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *controller) writeToConn(ctx context.Context, conn *websocket.Conn, out *Output) error {
	mu, _ := c.writeMus.LoadOrStore(conn, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	if err := conn.WriteJSON(out); err != nil {
		c.logger.DebugContext(ctx, "failed to write to conn", "error", err, "message_type", out.Type)
		return err
	}

	return nil
}

// broadcast fans a message out to every connection in the channel, optionally
// skipping some. Write failures are per-connection and never abort the fanout.
func (c *controller) broadcast(ctx context.Context, channel string, out *Output, skip ...*websocket.Conn) {
	for _, conn := range c.connRepo.ChannelConns(channel) {
		skipped := false
		for _, s := range skip {
			if conn == s {
				skipped = true
				break
			}
		}
		if skipped {
			continue
		}

		c.writeToConn(ctx, conn, out)
	}
}

func (c *controller) unicast(ctx context.Context, userId string, out *Output) error {
	conn, err := c.connRepo.GetConn(userId)
	if err != nil {
		return err
	}

	return c.writeToConn(ctx, conn, out)
}

// sendError maps a handler error to the client-facing error event. Fatal join
// failures collapse into "room-error"; a required passcode gets its own event
// so clients can show the prompt; everything else is named after the inbound
// message that failed.
func (c *controller) sendError(ctx context.Context, conn *websocket.Conn, err error) {
	msgType := wsrouter.GetMessageTypeFromCtx(ctx)

	var passcodeErr domain.PasscodeRequiredError
	if errors.As(err, &passcodeErr) {
		c.writeToConn(ctx, conn, &Output{
			Type: "passcode-required",
			Payload: map[string]string{
				"room_id": passcodeErr.RoomId,
			},
		})
		return
	}

	code := domain.Code(err)
	if errors.Is(err, wsrouter.ErrDecode) {
		code = domain.CodeValidation
	}

	message := err.Error()
	if code == domain.CodeInternal {
		c.logger.ErrorContext(ctx, "handler failed", "error", err, "message_type", msgType)
		message = "internal server error"
	}

	eventType := msgType + "-error"
	switch msgType {
	case "create-room", "join-room", "verify-passcode":
		eventType = "room-error"
	}

	c.writeToConn(ctx, conn, &Output{
		Type: eventType,
		Payload: errorPayload{
			Code:    code,
			Message: message,
		},
	})
}
