package redis

import (
	"context"

	"github.com/watchroom/server/internal/repository/room"
)

func (r repo) getVideoMetaKey(roomId string) string {
	return "room:" + roomId + ":videometa"
}

func (r repo) getVideoStateKey(roomId string) string {
	return "room:" + roomId + ":videostate"
}

// SetVideoMeta replaces the whole descriptor. The previous meta is deleted
// first so stale fields never survive a re-resolve.
func (r repo) SetVideoMeta(ctx context.Context, params *room.SetVideoMetaParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	key := r.getVideoMetaKey(params.RoomId)
	pipe.Del(ctx, key)
	r.hSetStruct(ctx, pipe, key, room.VideoMeta{
		OriginalUrl:     params.OriginalUrl,
		PlaybackUrl:     params.PlaybackUrl,
		VideoType:       params.VideoType,
		DeliveryType:    params.DeliveryType,
		RequiresProxy:   params.RequiresProxy,
		DecisionReasons: params.DecisionReasons,
		Timestamp:       params.Timestamp,
	})
	pipe.Expire(ctx, key, r.roomExp)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetVideoMeta(ctx context.Context, roomId string) (room.VideoMeta, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	var meta room.VideoMeta
	if err := r.rc.HGetAll(ctx, r.getVideoMetaKey(roomId)).Scan(&meta); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.VideoMeta{}, err
	}

	if meta.OriginalUrl == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrVideoMetaNotFound)
		return room.VideoMeta{}, room.ErrVideoMetaNotFound
	}

	return meta, nil
}

func (r repo) SetVideoState(ctx context.Context, params *room.SetVideoStateParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	key := r.getVideoStateKey(params.RoomId)
	r.hSetStruct(ctx, pipe, key, room.VideoState{
		IsPlaying:      params.IsPlaying,
		CurrentTime:    params.CurrentTime,
		Duration:       params.Duration,
		LastUpdateTime: params.LastUpdateTime,
	})
	pipe.Expire(ctx, key, r.roomExp)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetVideoState(ctx context.Context, roomId string) (room.VideoState, error) {
	r.logger.DebugContext(ctx, "called", "params", map[string]any{
		"room_id": roomId,
	})
	key := r.getVideoStateKey(roomId)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.VideoState{}, err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrVideoStateNotFound)
		return room.VideoState{}, room.ErrVideoStateNotFound
	}

	var state room.VideoState
	if err := r.rc.HGetAll(ctx, key).Scan(&state); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.VideoState{}, err
	}

	return state, nil
}
