package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type iRoomRepo interface {
	GetRoom(ctx context.Context, roomId string) (room.Room, error)
	UpdateRoomVideo(context.Context, *room.UpdateRoomVideoParams) error
	GetUser(context.Context, *room.GetUserParams) (room.User, error)
	SetVideoMeta(context.Context, *room.SetVideoMetaParams) error
	GetVideoMeta(ctx context.Context, roomId string) (room.VideoMeta, error)
	SetVideoState(context.Context, *room.SetVideoStateParams) error
	GetVideoState(ctx context.Context, roomId string) (room.VideoState, error)
}

type iResolver interface {
	Resolve(ctx context.Context, videoUrl string) (domain.VideoMeta, error)
}

type iProxyBuilder interface {
	BuildProxyUrl(videoUrl, referer string) string
}

type Config struct {
	// system chat messages for play/pause are debounced per room so host
	// scrubbing does not spam the chat; the state write itself never is
	SystemMessageDebounce time.Duration
	ErrorReportDebounce   time.Duration
}

type service struct {
	roomRepo iRoomRepo
	resolver iResolver
	proxy    iProxyBuilder
	logger   *slog.Logger

	systemMessageDebounce time.Duration
	errorReportDebounce   time.Duration

	mu               sync.Mutex
	lastStateMessage map[string]time.Time
	lastErrorReport  map[string]time.Time
}

func NewService(roomRepo iRoomRepo, resolver iResolver, proxy iProxyBuilder, cfg *Config, logger *slog.Logger) *service {
	s := service{
		roomRepo:              roomRepo,
		resolver:              resolver,
		proxy:                 proxy,
		logger:                logger,
		systemMessageDebounce: cfg.SystemMessageDebounce,
		errorReportDebounce:   cfg.ErrorReportDebounce,
		lastStateMessage:      make(map[string]time.Time),
		lastErrorReport:       make(map[string]time.Time),
	}

	if s.systemMessageDebounce == 0 {
		s.systemMessageDebounce = 4 * time.Second
	}
	if s.errorReportDebounce == 0 {
		s.errorReportDebounce = 10 * time.Second
	}

	return &s
}

// EvictRoom drops the per-room debounce state. Called when a room closes so
// the maps do not grow without bound.
func (s *service) EvictRoom(roomId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.lastStateMessage, roomId)
	delete(s.lastErrorReport, roomId)
}

// allowStateMessage reports whether a play/pause system message may be
// emitted for the room and stamps the window when it may.
func (s *service) allowStateMessage(roomId string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastStateMessage[roomId]; ok && now.Sub(last) < s.systemMessageDebounce {
		return false
	}

	s.lastStateMessage[roomId] = now
	return true
}

// allowErrorReport gates error reports the same way; reports inside the
// window are dropped entirely.
func (s *service) allowErrorReport(roomId string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastErrorReport[roomId]; ok && now.Sub(last) < s.errorReportDebounce {
		return false
	}

	s.lastErrorReport[roomId] = now
	return true
}

func (s *service) checkIfUserHost(ctx context.Context, roomId, userId string) error {
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
