package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type SetVideoParams struct {
	RoomId   string
	SenderId string
	VideoUrl string
}

type SetVideoResponse struct {
	VideoUrl  string
	VideoType string
	Meta      domain.VideoMeta
}

// SetVideo resolves the source and replaces the room's video. Resolution
// failures surface to the caller; nothing is defaulted silently.
func (s *service) SetVideo(ctx context.Context, params *SetVideoParams) (SetVideoResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return SetVideoResponse{}, err
	}

	meta, err := s.resolver.Resolve(ctx, params.VideoUrl)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to resolve video source", "error", err, "video_url", params.VideoUrl)
		return SetVideoResponse{}, fmt.Errorf("failed to resolve video source: %w", err)
	}

	if err := s.roomRepo.UpdateRoomVideo(ctx, &room.UpdateRoomVideoParams{
		RoomId:    params.RoomId,
		VideoUrl:  params.VideoUrl,
		VideoType: meta.VideoType,
	}); err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return SetVideoResponse{}, domain.ErrRoomNotFound
		}
		return SetVideoResponse{}, fmt.Errorf("failed to update room video: %w", err)
	}

	if err := s.setVideoMeta(ctx, params.RoomId, meta); err != nil {
		return SetVideoResponse{}, err
	}

	// new video always starts paused at zero
	if err := s.roomRepo.SetVideoState(ctx, &room.SetVideoStateParams{
		RoomId:         params.RoomId,
		IsPlaying:      false,
		CurrentTime:    0,
		Duration:       0,
		LastUpdateTime: time.Now().UnixMilli(),
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to reset video state", "error", err)
		return SetVideoResponse{}, fmt.Errorf("failed to reset video state: %w", err)
	}

	return SetVideoResponse{
		VideoUrl:  params.VideoUrl,
		VideoType: meta.VideoType,
		Meta:      meta,
	}, nil
}

type ErrorReportParams struct {
	RoomId      string
	SenderId    string
	Code        int
	CurrentSrc  string
	CurrentTime float64
}

type ErrorReportResponse struct {
	FallbackApplied bool
	Meta            *domain.VideoMeta
}

// HandleErrorReport is the client-driven recovery path. Two tiers, in order:
// wrap the original URL through the proxy (fast path for CORS/403-class
// failures), else re-resolve the original URL in case the playback URL
// expired or the CDN endpoint rotated. Reports inside the per-room debounce
// window, stale reports, and reports while already proxying are no-ops.
func (s *service) HandleErrorReport(ctx context.Context, params *ErrorReportParams) (ErrorReportResponse, error) {
	if !s.allowErrorReport(params.RoomId, time.Now()) {
		return ErrorReportResponse{}, nil
	}

	stored, err := s.roomRepo.GetVideoMeta(ctx, params.RoomId)
	if err != nil {
		if errors.Is(err, room.ErrVideoMetaNotFound) {
			return ErrorReportResponse{}, nil
		}
		return ErrorReportResponse{}, fmt.Errorf("failed to get video meta: %w", err)
	}

	if stored.RequiresProxy {
		return ErrorReportResponse{}, nil
	}

	if params.CurrentSrc != stored.PlaybackUrl {
		s.logger.InfoContext(ctx, "stale error report",
			"reported_src", params.CurrentSrc,
			"playback_url", stored.PlaybackUrl,
		)
		return ErrorReportResponse{}, nil
	}

	reasons := decodeReasons(stored.DecisionReasons)

	if s.proxyAllowed(stored.VideoType, reasons) {
		meta := domain.VideoMeta{
			OriginalUrl:     stored.OriginalUrl,
			PlaybackUrl:     s.proxy.BuildProxyUrl(stored.OriginalUrl, ""),
			VideoType:       stored.VideoType,
			DeliveryType:    domain.DeliveryTypeFileProxy,
			RequiresProxy:   true,
			DecisionReasons: append(reasons, "proxy-fallback"),
			Timestamp:       time.Now().UnixMilli(),
		}

		if err := s.setVideoMeta(ctx, params.RoomId, meta); err != nil {
			return ErrorReportResponse{}, err
		}

		s.logger.InfoContext(ctx, "applied proxy fallback", "room_id", params.RoomId, "code", params.Code)
		return ErrorReportResponse{FallbackApplied: true, Meta: &meta}, nil
	}

	resolved, err := s.resolver.Resolve(ctx, stored.OriginalUrl)
	if err != nil {
		s.logger.InfoContext(ctx, "re-resolution failed", "error", err, "room_id", params.RoomId)
		return ErrorReportResponse{}, nil
	}

	if resolved.PlaybackUrl == stored.PlaybackUrl {
		return ErrorReportResponse{}, nil
	}

	resolved.DecisionReasons = append(append(reasons, resolved.DecisionReasons...), "re-resolved")
	resolved.Timestamp = time.Now().UnixMilli()

	if err := s.setVideoMeta(ctx, params.RoomId, resolved); err != nil {
		return ErrorReportResponse{}, err
	}

	s.logger.InfoContext(ctx, "applied re-resolution fallback", "room_id", params.RoomId, "code", params.Code)
	return ErrorReportResponse{FallbackApplied: true, Meta: &resolved}, nil
}

// proxyAllowed: YouTube sources and sources flagged direct-required cannot
// be proxied.
func (s *service) proxyAllowed(videoType string, reasons []string) bool {
	if videoType == domain.VideoTypeYoutube {
		return false
	}

	return !slices.Contains(reasons, "direct-required")
}

func (s *service) setVideoMeta(ctx context.Context, roomId string, meta domain.VideoMeta) error {
	encoded, err := json.Marshal(meta.DecisionReasons)
	if err != nil {
		return fmt.Errorf("failed to encode decision reasons: %w", err)
	}

	if err := s.roomRepo.SetVideoMeta(ctx, &room.SetVideoMetaParams{
		RoomId:          roomId,
		OriginalUrl:     meta.OriginalUrl,
		PlaybackUrl:     meta.PlaybackUrl,
		VideoType:       meta.VideoType,
		DeliveryType:    meta.DeliveryType,
		RequiresProxy:   meta.RequiresProxy,
		DecisionReasons: string(encoded),
		Timestamp:       meta.Timestamp,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set video meta", "error", err)
		return fmt.Errorf("failed to set video meta: %w", err)
	}

	return nil
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
