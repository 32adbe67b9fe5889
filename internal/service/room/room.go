package room

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	o "github.com/skewb1k/optional"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type CreateRoomParams struct {
	HostName string
}

type CreateRoomResponse struct {
	RoomId    string
	HostToken string
	Host      User
	Room      RoomView
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	roomId := s.generator.GenerateRandomString(s.roomIdLength)
	hostId := uuid.NewString()

	hostToken, err := s.generateHostToken(roomId, params.HostName)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to generate host token", "error", err)
		return CreateRoomResponse{}, fmt.Errorf("failed to generate host token: %w", err)
	}

	now := time.Now().UnixMilli()
	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:    roomId,
		HostId:    hostId,
		HostName:  params.HostName,
		HostToken: hostToken,
		CreatedAt: now,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set room", "error", err)
		return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	if err := s.roomRepo.SetUser(ctx, &room.SetUserParams{
		UserId:   hostId,
		Name:     params.HostName,
		IsHost:   true,
		JoinedAt: now,
		RoomId:   roomId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set user", "error", err)
		return CreateRoomResponse{}, fmt.Errorf("failed to set user: %w", err)
	}

	host := User{
		Id:       hostId,
		Name:     params.HostName,
		IsHost:   true,
		JoinedAt: now,
	}

	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	return CreateRoomResponse{
		RoomId:    roomId,
		HostToken: hostToken,
		Host:      host,
		Room:      s.getRoomView(ctx, roomId, rm, []User{host}),
	}, nil
}

type JoinRoomParams struct {
	RoomId    string
	UserName  string
	HostToken string
}

type JoinRoomResponse struct {
	JoinedUser      User
	Users           []User
	Room            RoomView
	HostTransferred bool
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, domain.ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	tokenValid := s.isValidHostToken(params.HostToken, params.RoomId, rm.HostToken)

	if rm.IsLocked && !tokenValid {
		return JoinRoomResponse{}, domain.ErrRoomLocked
	}

	if rm.Passcode != "" && !tokenValid {
		return JoinRoomResponse{}, domain.PasscodeRequiredError{RoomId: params.RoomId}
	}

	return s.admitUser(ctx, rm, params.RoomId, params.UserName, tokenValid)
}

type VerifyPasscodeParams struct {
	RoomId    string
	UserName  string
	Passcode  string
	HostToken string
}

// VerifyPasscode admits a user through the passcode prompt. The passcode is
// checked first so a wrong passcode reads as a permission failure, not a
// fresh passcode prompt. A room that became locked while the form was open
// still blocks non-host entry.
func (s service) VerifyPasscode(ctx context.Context, params *VerifyPasscodeParams) (JoinRoomResponse, error) {
	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return JoinRoomResponse{}, domain.ErrRoomNotFound
		}
		return JoinRoomResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	tokenValid := s.isValidHostToken(params.HostToken, params.RoomId, rm.HostToken)

	if rm.Passcode != "" && rm.Passcode != params.Passcode && !tokenValid {
		return JoinRoomResponse{}, domain.ErrPermissionDenied
	}

	if rm.IsLocked && !tokenValid {
		return JoinRoomResponse{}, domain.ErrRoomLocked
	}

	return s.admitUser(ctx, rm, params.RoomId, params.UserName, tokenValid)
}

// admitUser enforces the name rules and writes the new user. The host name
// is reserved: reusing it requires the host token and transfers host
// identity to the new user (host reconnect with a fresh user id).
func (s service) admitUser(ctx context.Context, rm room.Room, roomId, userName string, tokenValid bool) (JoinRoomResponse, error) {
	users, err := s.getUsers(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	isHostReturn := userName == rm.HostName && tokenValid
	if userName == rm.HostName && !tokenValid {
		return JoinRoomResponse{}, domain.ErrNameConflict
	}

	for _, user := range users {
		if user.Name != userName {
			continue
		}
		if user.IsHost && isHostReturn {
			// stale identity from a previous host session, replaced below
			if err := s.roomRepo.RemoveUser(ctx, &room.RemoveUserParams{
				UserId: user.Id,
				RoomId: roomId,
			}); err != nil && !errors.Is(err, room.ErrUserNotFound) {
				s.logger.InfoContext(ctx, "failed to remove stale host user", "error", err)
			}
			continue
		}
		return JoinRoomResponse{}, domain.ErrNameConflict
	}

	userId := uuid.NewString()
	now := time.Now().UnixMilli()
	if err := s.roomRepo.SetUser(ctx, &room.SetUserParams{
		UserId:   userId,
		Name:     userName,
		IsHost:   isHostReturn,
		JoinedAt: now,
		RoomId:   roomId,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set user", "error", err)
		return JoinRoomResponse{}, fmt.Errorf("failed to set user: %w", err)
	}

	if isHostReturn {
		if err := s.roomRepo.UpdateRoomHost(ctx, &room.UpdateRoomHostParams{
			RoomId:   roomId,
			HostId:   userId,
			HostName: userName,
		}); err != nil {
			s.logger.InfoContext(ctx, "failed to update room host", "error", err)
			return JoinRoomResponse{}, fmt.Errorf("failed to update room host: %w", err)
		}
		rm.HostId = userId
	}

	users, err = s.getUsers(ctx, roomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	return JoinRoomResponse{
		JoinedUser: User{
			Id:       userId,
			Name:     userName,
			IsHost:   isHostReturn,
			JoinedAt: now,
		},
		Users:           users,
		Room:            s.getRoomView(ctx, roomId, rm, users),
		HostTransferred: isHostReturn,
	}, nil
}

type LeaveRoomParams struct {
	RoomId string
	UserId string
}

type LeaveRoomResponse struct {
	LeftUser   User
	Users      []User
	RoomClosed bool
}

// LeaveRoom removes the user. The room is destroyed the instant its last
// host leaves, regardless of remaining guests.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	var leftUser User
	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: params.UserId,
		RoomId: params.RoomId,
	})
	if err == nil {
		leftUser = User{
			Id:       params.UserId,
			Name:     user.Name,
			IsHost:   user.IsHost,
			JoinedAt: user.JoinedAt,
		}
	} else if !errors.Is(err, room.ErrUserNotFound) {
		return LeaveRoomResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.roomRepo.RemoveUser(ctx, &room.RemoveUserParams{
		UserId: params.UserId,
		RoomId: params.RoomId,
	}); err != nil && !errors.Is(err, room.ErrUserNotFound) {
		s.logger.InfoContext(ctx, "failed to remove user", "error", err)
	}

	users, err := s.getUsers(ctx, params.RoomId)
	if err != nil {
		return LeaveRoomResponse{}, err
	}

	hostRemains := false
	for _, u := range users {
		if u.IsHost {
			hostRemains = true
			break
		}
	}

	if !hostRemains {
		if err := s.roomRepo.RemoveRoom(ctx, params.RoomId); err != nil {
			s.logger.InfoContext(ctx, "failed to remove room", "error", err)
			return LeaveRoomResponse{}, fmt.Errorf("failed to remove room: %w", err)
		}

		return LeaveRoomResponse{
			LeftUser:   leftUser,
			RoomClosed: true,
		}, nil
	}

	return LeaveRoomResponse{
		LeftUser: leftUser,
		Users:    users,
	}, nil
}

type UpdateSettingsParams struct {
	RoomId       string
	SenderId     string
	IsLocked     *bool
	Passcode     o.Field[string]
	IsChatLocked *bool
}

type UpdateSettingsResponse struct {
	Settings SettingsView
}

// UpdateSettings merges the partial settings into the room. An explicit null
// passcode clears it.
func (s service) UpdateSettings(ctx context.Context, params *UpdateSettingsParams) (UpdateSettingsResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdateSettingsResponse{}, err
	}

	rm, err := s.roomRepo.GetRoom(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return UpdateSettingsResponse{}, domain.ErrRoomNotFound
		}
		return UpdateSettingsResponse{}, fmt.Errorf("failed to get room: %w", err)
	}

	isLocked := rm.IsLocked
	if params.IsLocked != nil {
		isLocked = *params.IsLocked
	}

	isChatLocked := rm.IsChatLocked
	if params.IsChatLocked != nil {
		isChatLocked = *params.IsChatLocked
	}

	passcode := rm.Passcode
	if params.Passcode.Defined {
		if params.Passcode.Value != nil {
			passcode = *params.Passcode.Value
		} else {
			passcode = ""
		}
	}

	var passcodePtr *string
	if passcode != "" {
		passcodePtr = &passcode
	}

	if err := s.roomRepo.UpdateRoomSettings(ctx, &room.UpdateRoomSettingsParams{
		RoomId:       params.RoomId,
		IsLocked:     isLocked,
		Passcode:     passcodePtr,
		IsChatLocked: isChatLocked,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update room settings", "error", err)
		return UpdateSettingsResponse{}, fmt.Errorf("failed to update room settings: %w", err)
	}

	return UpdateSettingsResponse{
		Settings: SettingsView{
			IsLocked:     isLocked,
			HasPasscode:  passcode != "",
			IsChatLocked: isChatLocked,
		},
	}, nil
}
