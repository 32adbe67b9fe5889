package signal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/repository/room"
)

const (
	KindVoice     = "voice"
	KindVideoChat = "videochat"
)

type iRoomRepo interface {
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	GetUser(context.Context, *room.GetUserParams) (room.User, error)
}

type iConnRepo interface {
	GetSession(conn *websocket.Conn) (connection.Session, error)
	GetConn(userId string) (*websocket.Conn, error)
	JoinChannel(channel string, conn *websocket.Conn)
	LeaveChannel(channel string, conn *websocket.Conn)
	IsInChannel(channel string, conn *websocket.Conn) bool
	ChannelConns(channel string) []*websocket.Conn
}

type Config struct {
	VoiceLimit     int
	VideoChatLimit int
	// RetryTick is the single artificial delay in the service: one bounded
	// retry before a hard capacity error. Best-effort race mitigation, not
	// a correctness guarantee.
	RetryTick time.Duration
}

type service struct {
	roomRepo iRoomRepo
	connRepo iConnRepo
	logger   *slog.Logger

	voiceLimit     int
	videoChatLimit int
	retryTick      time.Duration
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:       roomRepo,
		connRepo:       connRepo,
		logger:         logger,
		voiceLimit:     cfg.VoiceLimit,
		videoChatLimit: cfg.VideoChatLimit,
		retryTick:      cfg.RetryTick,
	}

	if s.retryTick == 0 {
		s.retryTick = 50 * time.Millisecond
	}

	return &s
}

// ChannelName builds the sub-channel key, e.g. "voice:<roomId>".
func ChannelName(kind, roomId string) string {
	return kind + ":" + roomId
}

func (s service) limit(kind string) int {
	if kind == KindVideoChat {
		return s.videoChatLimit
	}

	return s.voiceLimit
}

func (s service) checkCanJoin(ctx context.Context, roomId, userId string) error {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return domain.ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if !rm.IsChatLocked {
		return nil
	}

	user, err := s.roomRepo.GetUser(ctx, &room.GetUserParams{
		UserId: userId,
		RoomId: roomId,
	})
	if err != nil {
		if errors.Is(err, room.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsHost {
		return domain.ErrPermissionDenied
	}

	return nil
}
