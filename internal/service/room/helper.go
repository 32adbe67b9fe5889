package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

func (s service) getUsers(ctx context.Context, roomId string) ([]User, error) {
	userIds, err := s.roomRepo.GetUserIds(ctx, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to get user ids: %w", err)
	}

	users := make([]User, 0, len(userIds))
	for _, userId := range userIds {
		user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
			UserId: userId,
			RoomId: roomId,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}

		users = append(users, User{
			Id:       userId,
			Name:     user.Name,
			IsHost:   user.IsHost,
			JoinedAt: user.JoinedAt,
		})
	}

	return users, nil
}

func (s service) checkIfUserHost(ctx context.Context, roomId, userId string) error {
	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: userId,
		RoomId: roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsHost {
		return domain.ErrPermissionDenied
	}

	return nil
}

func (s service) getRoomView(ctx context.Context, roomId string, rm room.Room, users []User) RoomView {
	view := RoomView{
		Id:       roomId,
		HostId:   rm.HostId,
		HostName: rm.HostName,
		Settings: SettingsView{
			IsLocked:     rm.IsLocked,
			HasPasscode:  rm.Passcode != "",
			IsChatLocked: rm.IsChatLocked,
		},
		VideoUrl:  rm.VideoUrl,
		VideoType: rm.VideoType,
		Users:     users,
		CreatedAt: rm.CreatedAt,
	}

	if meta, err := s.roomRepo.GetVideoMeta(ctx, roomId); err == nil {
		view.VideoMeta = &domain.VideoMeta{
			OriginalUrl:     meta.OriginalUrl,
			PlaybackUrl:     meta.PlaybackUrl,
			VideoType:       meta.VideoType,
			DeliveryType:    meta.DeliveryType,
			RequiresProxy:   meta.RequiresProxy,
			DecisionReasons: decodeReasons(meta.DecisionReasons),
			Timestamp:       meta.Timestamp,
		}
	}

	if state, err := s.roomRepo.GetVideoState(ctx, roomId); err == nil {
		view.VideoState = &domain.VideoState{
			IsPlaying:      state.IsPlaying,
			CurrentTime:    state.CurrentTime,
			Duration:       state.Duration,
			LastUpdateTime: state.LastUpdateTime,
		}
	}

	return view
}

func decodeReasons(raw string) []string {
	if raw == "" {
		return nil
	}

	var reasons []string
	if err := json.Unmarshal([]byte(raw), &reasons); err != nil {
		return nil
	}

	return reasons
}
