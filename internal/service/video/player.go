package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
)

type UpdatePlaybackParams struct {
	RoomId      string
	SenderId    string
	CurrentTime float64
}

type UpdatePlaybackResponse struct {
	State             domain.VideoState
	EmitSystemMessage bool
}

// PlayVideo writes a playing checkpoint. The checkpoint write is never
// debounced; only the accompanying system chat message is.
func (s *service) PlayVideo(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	return s.updatePlayback(ctx, params, true)
}

func (s *service) PauseVideo(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	return s.updatePlayback(ctx, params, false)
}

func (s *service) updatePlayback(ctx context.Context, params *UpdatePlaybackParams, isPlaying bool) (UpdatePlaybackResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdatePlaybackResponse{}, err
	}

	now := time.Now()
	state := domain.VideoState{
		IsPlaying:      isPlaying,
		CurrentTime:    params.CurrentTime,
		LastUpdateTime: now.UnixMilli(),
	}

	if prev, err := s.roomRepo.GetVideoState(ctx, params.RoomId); err == nil {
		state.Duration = prev.Duration
	} else if !errors.Is(err, room.ErrVideoStateNotFound) {
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to get video state: %w", err)
	}

	if err := s.roomRepo.SetVideoState(ctx, &room.SetVideoStateParams{
		RoomId:         params.RoomId,
		IsPlaying:      state.IsPlaying,
		CurrentTime:    state.CurrentTime,
		Duration:       state.Duration,
		LastUpdateTime: state.LastUpdateTime,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set video state", "error", err)
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to set video state: %w", err)
	}

	return UpdatePlaybackResponse{
		State:             state,
		EmitSystemMessage: s.allowStateMessage(params.RoomId, now),
	}, nil
}

// SeekVideo writes a new position checkpoint, keeping the playing flag.
func (s *service) SeekVideo(ctx context.Context, params *UpdatePlaybackParams) (UpdatePlaybackResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return UpdatePlaybackResponse{}, err
	}

	state := domain.VideoState{
		CurrentTime:    params.CurrentTime,
		LastUpdateTime: time.Now().UnixMilli(),
	}

	if prev, err := s.roomRepo.GetVideoState(ctx, params.RoomId); err == nil {
		state.IsPlaying = prev.IsPlaying
		state.Duration = prev.Duration
	} else if !errors.Is(err, room.ErrVideoStateNotFound) {
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to get video state: %w", err)
	}

	if err := s.roomRepo.SetVideoState(ctx, &room.SetVideoStateParams{
		RoomId:         params.RoomId,
		IsPlaying:      state.IsPlaying,
		CurrentTime:    state.CurrentTime,
		Duration:       state.Duration,
		LastUpdateTime: state.LastUpdateTime,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set video state", "error", err)
		return UpdatePlaybackResponse{}, fmt.Errorf("failed to set video state: %w", err)
	}

	return UpdatePlaybackResponse{State: state}, nil
}

type SyncCheckParams struct {
	RoomId      string
	SenderId    string
	CurrentTime float64
	IsPlaying   bool
	Timestamp   int64
}

type SyncCheckResponse struct {
	CurrentTime float64
	IsPlaying   bool
	Timestamp   int64
}

// HandleSyncCheck relays the host's periodic checkpoint to followers. It is
// the drift-correcting heartbeat between discrete play/pause/seek events and
// is not persisted as authoritative state.
func (s *service) HandleSyncCheck(ctx context.Context, params *SyncCheckParams) (SyncCheckResponse, error) {
	if err := s.checkIfUserHost(ctx, params.RoomId, params.SenderId); err != nil {
		return SyncCheckResponse{}, err
	}

	return SyncCheckResponse{
		CurrentTime: params.CurrentTime,
		IsPlaying:   params.IsPlaying,
		Timestamp:   params.Timestamp,
	}, nil
}
