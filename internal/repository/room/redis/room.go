package redis

import (
	"context"

	"github.com/watchroom/server/internal/repository/room"
)

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	roomKey := r.getRoomKey(params.RoomId)
	r.hSetStruct(ctx, pipe, roomKey, room.Room{
		HostId:       params.HostId,
		HostName:     params.HostName,
		HostToken:    params.HostToken,
		IsLocked:     params.IsLocked,
		Passcode:     params.Passcode,
		IsChatLocked: params.IsChatLocked,
		VideoUrl:     params.VideoUrl,
		VideoType:    params.VideoType,
		CreatedAt:    params.CreatedAt,
	})
	pipe.Expire(ctx, roomKey, r.roomExp)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	var rm room.Room
	if err := r.rc.HGetAll(ctx, r.getRoomKey(roomId)).Scan(&rm); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Room{}, err
	}

	if rm.HostName == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	return rm, nil
}

// RemoveRoom deletes the room hash and every per-room key, including the
// message hashes referenced by the message list.
func (r repo) RemoveRoom(ctx context.Context, roomId string) error {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	messageIds, err := r.rc.ZRange(ctx, r.getMessageListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	pipe := r.rc.TxPipeline()
	for _, messageId := range messageIds {
		pipe.Del(ctx, r.getMessageKey(messageId))
	}
	pipe.Del(ctx,
		r.getRoomKey(roomId),
		r.getUserListKey(roomId),
		r.getMessageListKey(roomId),
		r.getVideoMetaKey(roomId),
		r.getVideoStateKey(roomId),
	)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateRoomSettings(ctx context.Context, params *room.UpdateRoomSettingsParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getRoomKey(params.RoomId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, key, "is_locked", params.IsLocked, "is_chat_locked", params.IsChatLocked)
	if params.Passcode == nil {
		pipe.HDel(ctx, key, "passcode")
	} else {
		pipe.HSet(ctx, key, "passcode", *params.Passcode)
	}

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateRoomHost(ctx context.Context, params *room.UpdateRoomHostParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getRoomKey(params.RoomId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, key, "host_id", params.HostId, "host_name", params.HostName).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) UpdateRoomVideo(ctx context.Context, params *room.UpdateRoomVideoParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getRoomKey(params.RoomId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, key, "video_url", params.VideoUrl, "video_type", params.VideoType).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
