package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type PromoteUserParams struct {
	RoomId     string
	SenderId   string
	PromotedId string
}

type PromoteUserResponse struct {
	PromotedUser User
	Users        []User
}

func (s service) PromoteUser(ctx context.Context, params *PromoteUserParams) (PromoteUserResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return PromoteUserResponse{}, err
	}

	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: params.PromotedId,
		RoomId: params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrUserNotFound) {
			return PromoteUserResponse{}, domain.ErrUserNotFound
		}
		return PromoteUserResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsHost {
		s.logger.InfoContext(ctx, "user is already host", "user_id", params.PromotedId)
		return PromoteUserResponse{}, fmt.Errorf("%w: user is already host", domain.ErrValidation)
	}

	if err := s.roomRepo.UpdateUserIsHost(ctx, &room.UpdateUserIsHostParams{
		UserId: params.PromotedId,
		RoomId: params.RoomId,
		IsHost: true,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to update user is host", "error", err)
		return PromoteUserResponse{}, fmt.Errorf("failed to update user is host: %w", err)
	}

	users, err := s.getUsers(ctx, params.RoomId)
	if err != nil {
		return PromoteUserResponse{}, err
	}

	return PromoteUserResponse{
		PromotedUser: User{
			Id:       params.PromotedId,
			Name:     user.Name,
			IsHost:   true,
			JoinedAt: user.JoinedAt,
		},
		Users: users,
	}, nil
}

type KickUserParams struct {
	RoomId   string
	SenderId string
	KickedId string
}

type KickUserResponse struct {
	KickedUser  User
	Users       []User
	AlreadyGone bool
}

// KickUser removes a guest. Kicking a host or kicking yourself is rejected.
// The caller evicts the victim's connection; the service only mutates the
// roster, so the victim is still reachable when notified.
func (s service) KickUser(ctx context.Context, params *KickUserParams) (KickUserResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return KickUserResponse{}, err
	}

	if params.KickedId == params.SenderId {
		return KickUserResponse{}, domain.ErrPermissionDenied
	}

	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: params.KickedId,
		RoomId: params.RoomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrUserNotFound) {
			// target already left, treated as a no-op
			users, err := s.getUsers(ctx, params.RoomId)
			if err != nil {
				return KickUserResponse{}, err
			}
			return KickUserResponse{Users: users, AlreadyGone: true}, nil
		}
		return KickUserResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if user.IsHost {
		return KickUserResponse{}, domain.ErrPermissionDenied
	}

	if err := s.roomRepo.RemoveUser(ctx, &room.RemoveUserParams{
		UserId: params.KickedId,
		RoomId: params.RoomId,
	}); err != nil && !errors.Is(err, room.ErrUserNotFound) {
		s.logger.InfoContext(ctx, "failed to remove user", "error", err)
		return KickUserResponse{}, fmt.Errorf("failed to remove user: %w", err)
	}

	users, err := s.getUsers(ctx, params.RoomId)
	if err != nil {
		return KickUserResponse{}, err
	}

	return KickUserResponse{
		KickedUser: User{
			Id:       params.KickedId,
			Name:     user.Name,
			IsHost:   user.IsHost,
			JoinedAt: user.JoinedAt,
		},
		Users: users,
	}, nil
}
