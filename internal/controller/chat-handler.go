package controller

import (
	"context"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/room"
)

type SendMessageInput struct {
	Message string  `json:"message" validate:"required,max=2000"`
	ReplyTo *string `json:"reply_to"`
}

func (c *controller) handleSendMessage(ctx context.Context, conn *websocket.Conn, input SendMessageInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.roomService.SendMessage(ctx, &room.SendMessageParams{
		RoomId:   session.RoomId,
		SenderId: session.UserId,
		Message:  input.Message,
		ReplyTo:  input.ReplyTo,
	})
	if err != nil {
		return err
	}

	// the sender receives the broadcast too; it carries the assigned id
	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type:    "new-message",
		Payload: resp.Message,
	})

	return nil
}

type ToggleReactionInput struct {
	MessageId string `json:"message_id" validate:"required"`
	Emoji     string `json:"emoji" validate:"required,max=16"`
}

func (c *controller) handleToggleReaction(ctx context.Context, conn *websocket.Conn, input ToggleReactionInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.roomService.ToggleReaction(ctx, &room.ToggleReactionParams{
		RoomId:    session.RoomId,
		SenderId:  session.UserId,
		MessageId: input.MessageId,
		Emoji:     input.Emoji,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: "reaction-updated",
		Payload: map[string]any{
			"message_id": resp.MessageId,
			"reactions":  resp.Reactions,
		},
	})

	return nil
}

type TypingInput struct{}

func (c *controller) handleTypingStart(ctx context.Context, conn *websocket.Conn, input TypingInput) error {
	return c.relayTyping(ctx, conn, "user-typing")
}

func (c *controller) handleTypingStop(ctx context.Context, conn *websocket.Conn, input TypingInput) error {
	return c.relayTyping(ctx, conn, "user-stopped-typing")
}

// relayTyping is fire-and-forget presence; nothing is persisted.
func (c *controller) relayTyping(ctx context.Context, conn *websocket.Conn, eventType string) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	userName, err := c.roomService.GetUserName(ctx, &room.GetUserNameParams{
		RoomId: session.RoomId,
		UserId: session.UserId,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: eventType,
		Payload: map[string]string{
			"user_id":   session.UserId,
			"user_name": userName,
		},
	}, conn)

	return nil
}
