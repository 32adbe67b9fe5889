package room

import (
	"context"
	"log/slog"

	"github.com/watchroom/server/internal/repository/room"
	"github.com/watchroom/server/pkg/randstr"
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	RemoveRoom(ctx context.Context, roomId string) error
	UpdateRoomSettings(context.Context, *room.UpdateRoomSettingsParams) error
	UpdateRoomHost(context.Context, *room.UpdateRoomHostParams) error
	// user
	SetUser(context.Context, *room.SetUserParams) error
	GetUser(context.Context, *room.GetUserParams) (room.User, error)
	GetUserIds(ctx context.Context, roomId string) ([]string, error)
	RemoveUser(context.Context, *room.RemoveUserParams) error
	UpdateUserIsHost(context.Context, *room.UpdateUserIsHostParams) error
	// video
	GetVideoMeta(ctx context.Context, roomId string) (room.VideoMeta, error)
	GetVideoState(ctx context.Context, roomId string) (room.VideoState, error)
	// chat
	SetMessage(context.Context, *room.SetMessageParams) error
	GetMessage(context.Context, *room.GetMessageParams) (room.Message, error)
	GetMessageIds(ctx context.Context, roomId string) ([]string, error)
	UpdateMessageReactions(context.Context, *room.UpdateMessageReactionsParams) error
}

type iGenerator interface {
	GenerateRandomString(length int) string
}

type Config struct {
	Secret       string
	RoomIdLength int
}

type service struct {
	roomRepo     iRoomRepo
	generator    iGenerator
	logger       *slog.Logger
	secret       string
	roomIdLength int
}

func NewService(roomRepo iRoomRepo, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:     roomRepo,
		logger:       logger,
		secret:       cfg.Secret,
		roomIdLength: cfg.RoomIdLength,
	}

	if s.roomIdLength == 0 {
		s.roomIdLength = 8
	}

	letterBytes := []byte("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	s.generator = randstr.New(letterBytes)

	return &s
}
