package redis

import (
	"context"

	"github.com/watchroom/server/internal/repository/room"
)

func (r repo) getUserKey(userId string) string {
	return "user:" + userId
}

func (r repo) getUserListKey(roomId string) string {
	return "room:" + roomId + ":userlist"
}

func (r repo) SetUser(ctx context.Context, params *room.SetUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	userKey := r.getUserKey(params.UserId)
	r.hSetStruct(ctx, pipe, userKey, room.User{
		Name:     params.Name,
		IsHost:   params.IsHost,
		JoinedAt: params.JoinedAt,
	})
	pipe.Expire(ctx, userKey, r.roomExp)

	userListKey := r.getUserListKey(params.RoomId)
	r.addWithIncrement(ctx, pipe, userListKey, params.UserId)
	pipe.Expire(ctx, userListKey, r.roomExp)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetUser(ctx context.Context, params *room.GetUserParams) (room.User, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	var user room.User
	if err := r.rc.HGetAll(ctx, r.getUserKey(params.UserId)).Scan(&user); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.User{}, err
	}

	if user.Name == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrUserNotFound)
		return room.User{}, room.ErrUserNotFound
	}

	return user, nil
}

func (r repo) GetUserIds(ctx context.Context, roomId string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	userIds, err := r.rc.ZRange(ctx, r.getUserListKey(roomId), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return userIds, nil
}

func (r repo) RemoveUser(ctx context.Context, params *room.RemoveUserParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	if err := r.rc.ZRem(ctx, r.getUserListKey(params.RoomId), params.UserId).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	res, err := r.rc.Del(ctx, r.getUserKey(params.UserId)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if res == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrUserNotFound)
		return room.ErrUserNotFound
	}

	return nil
}

func (r repo) UpdateUserIsHost(ctx context.Context, params *room.UpdateUserIsHostParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getUserKey(params.UserId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrUserNotFound)
		return room.ErrUserNotFound
	}

	if err := r.rc.HSet(ctx, key, "is_host", params.IsHost).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
