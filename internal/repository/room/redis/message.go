package redis

import (
	"context"

	"github.com/watchroom/server/internal/repository/room"
)

func (r repo) getMessageKey(messageId string) string {
	return "message:" + messageId
}

func (r repo) getMessageListKey(roomId string) string {
	return "room:" + roomId + ":messagelist"
}

func (r repo) SetMessage(ctx context.Context, params *room.SetMessageParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	messageKey := r.getMessageKey(params.MessageId)
	r.hSetStruct(ctx, pipe, messageKey, room.Message{
		UserId:     params.UserId,
		UserName:   params.UserName,
		Message:    params.Message,
		Timestamp:  params.Timestamp,
		Type:       params.Type,
		SystemType: params.SystemType,
		ReplyTo:    params.ReplyTo,
	})
	pipe.Expire(ctx, messageKey, r.roomExp)

	messageListKey := r.getMessageListKey(params.RoomId)
	r.addWithIncrement(ctx, pipe, messageListKey, params.MessageId)
	pipe.Expire(ctx, messageListKey, r.roomExp)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMessage(ctx context.Context, params *room.GetMessageParams) (room.Message, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	var message room.Message
	if err := r.rc.HGetAll(ctx, r.getMessageKey(params.MessageId)).Scan(&message); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Message{}, err
	}

	if message.Timestamp == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMessageNotFound)
		return room.Message{}, room.ErrMessageNotFound
	}

	return message, nil
}

func (r repo) GetMessageIds(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	messageIds, err := r.rc.ZRange(ctx, r.getMessageListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return messageIds, nil
}

func (r repo) UpdateMessageReactions(ctx context.Context, params *room.UpdateMessageReactionsParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getMessageKey(params.MessageId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMessageNotFound)
		return room.ErrMessageNotFound
	}

	if err := r.rc.HSet(ctx, key, "reactions", params.Reactions).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
