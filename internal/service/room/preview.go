package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type RoomPreview struct {
	Id        string       `json:"id"`
	HostName  string       `json:"host_name"`
	Settings  SettingsView `json:"settings"`
	UserCount int          `json:"user_count"`
}

// GetRoomPreview returns the public face of a room so a client can render
// the join form (name prompt, passcode prompt, locked notice) before opening
// a websocket.
func (s service) GetRoomPreview(ctx context.Context, roomId string) (RoomPreview, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return RoomPreview{}, domain.ErrRoomNotFound
		}
		return RoomPreview{}, fmt.Errorf("failed to get room: %w", err)
	}

	userIds, err := s.roomRepo.GetUserIds(ctx, roomId)
	if err != nil {
		return RoomPreview{}, fmt.Errorf("failed to get user ids: %w", err)
	}

	return RoomPreview{
		Id:       roomId,
		HostName: rm.HostName,
		Settings: SettingsView{
			IsLocked:     rm.IsLocked,
			HasPasscode:  rm.Passcode != "",
			IsChatLocked: rm.IsChatLocked,
		},
		UserCount: len(userIds),
	}, nil
}
