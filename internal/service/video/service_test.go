package video

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/room"
	roomRedis "github.com/watchroom/server/internal/repository/room/redis"
)

type stubResolver struct {
	meta  domain.VideoMeta
	err   error
	calls int
}

func (r *stubResolver) Resolve(ctx context.Context, videoUrl string) (domain.VideoMeta, error) {
	r.calls++
	if r.err != nil {
		return domain.VideoMeta{}, r.err
	}

	meta := r.meta
	meta.OriginalUrl = videoUrl
	if meta.PlaybackUrl == "" {
		meta.PlaybackUrl = videoUrl
	}

	return meta, nil
}

type stubProxy struct{}

func (stubProxy) BuildProxyUrl(videoUrl, referer string) string {
	return "https://proxy.local/proxy?url=" + videoUrl
}

func newTestService(t *testing.T, res *stubResolver, cfg *Config) (*service, *room.SetUserParams) {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	roomRepo := roomRedis.NewRepo(rc, 24*time.Hour, slog.Default())

	ctx := context.Background()
	require.NoError(t, roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomId:    "room1",
		HostId:    "host1",
		HostName:  "alice",
		HostToken: "token",
		CreatedAt: time.Now().UnixMilli(),
	}))

	host := &room.SetUserParams{
		UserId:   "host1",
		Name:     "alice",
		IsHost:   true,
		JoinedAt: time.Now().UnixMilli(),
		RoomId:   "room1",
	}
	require.NoError(t, roomRepo.SetUser(ctx, host))

	return NewService(roomRepo, res, stubProxy{}, cfg, slog.Default()), host
}

func TestSetVideoResetsState(t *testing.T) {
	res := &stubResolver{meta: domain.VideoMeta{
		VideoType:       domain.VideoTypeMP4,
		DeliveryType:    domain.DeliveryTypeDirect,
		DecisionReasons: []string{"file-extension"},
	}}
	service, host := newTestService(t, res, &Config{})
	ctx := context.Background()

	resp, err := service.SetVideo(ctx, &SetVideoParams{
		RoomId:   "room1",
		SenderId: host.UserId,
		VideoUrl: "https://cdn.example.com/movie.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VideoTypeMP4, resp.VideoType)
	assert.Equal(t, domain.DeliveryTypeDirect, resp.Meta.DeliveryType)
	assert.False(t, resp.Meta.RequiresProxy)

	state, err := service.roomRepo.GetVideoState(ctx, "room1")
	require.NoError(t, err)
	assert.False(t, state.IsPlaying, "new video must start paused")
	assert.Zero(t, state.CurrentTime)

	// guests cannot set the video
	_, err = service.SetVideo(ctx, &SetVideoParams{
		RoomId:   "room1",
		SenderId: "someone-else",
		VideoUrl: "https://cdn.example.com/other.mp4",
	})
	assert.Error(t, err)
}

func TestPlaybackCheckpoints(t *testing.T) {
	res := &stubResolver{meta: domain.VideoMeta{
		VideoType:    domain.VideoTypeMP4,
		DeliveryType: domain.DeliveryTypeDirect,
	}}
	service, host := newTestService(t, res, &Config{
		SystemMessageDebounce: time.Hour,
	})
	ctx := context.Background()

	_, err := service.SetVideo(ctx, &SetVideoParams{
		RoomId:   "room1",
		SenderId: host.UserId,
		VideoUrl: "https://cdn.example.com/movie.mp4",
	})
	require.NoError(t, err)

	playResp, err := service.PlayVideo(ctx, &UpdatePlaybackParams{
		RoomId:      "room1",
		SenderId:    host.UserId,
		CurrentTime: 12.5,
	})
	require.NoError(t, err)
	assert.True(t, playResp.State.IsPlaying)
	assert.Equal(t, 12.5, playResp.State.CurrentTime)
	assert.True(t, playResp.EmitSystemMessage, "first state change announces")

	// the second state change within the window stays quiet
	pauseResp, err := service.PauseVideo(ctx, &UpdatePlaybackParams{
		RoomId:      "room1",
		SenderId:    host.UserId,
		CurrentTime: 13,
	})
	require.NoError(t, err)
	assert.False(t, pauseResp.State.IsPlaying)
	assert.False(t, pauseResp.EmitSystemMessage, "debounced state change must not announce")

	seekResp, err := service.SeekVideo(ctx, &UpdatePlaybackParams{
		RoomId:      "room1",
		SenderId:    host.UserId,
		CurrentTime: 100,
	})
	require.NoError(t, err)
	assert.False(t, seekResp.State.IsPlaying, "seek keeps the paused flag")
	assert.Equal(t, float64(100), seekResp.State.CurrentTime)

	// only hosts drive playback
	_, err = service.PlayVideo(ctx, &UpdatePlaybackParams{
		RoomId:   "room1",
		SenderId: "guest",
	})
	assert.Error(t, err)
}

func TestErrorReportProxyFallback(t *testing.T) {
	res := &stubResolver{meta: domain.VideoMeta{
		VideoType:       domain.VideoTypeMP4,
		DeliveryType:    domain.DeliveryTypeDirect,
		DecisionReasons: []string{"file-extension"},
	}}
	service, host := newTestService(t, res, &Config{
		ErrorReportDebounce: time.Millisecond,
	})
	ctx := context.Background()

	videoUrl := "https://cdn.example.com/movie.mp4"
	_, err := service.SetVideo(ctx, &SetVideoParams{
		RoomId:   "room1",
		SenderId: host.UserId,
		VideoUrl: videoUrl,
	})
	require.NoError(t, err)

	reportResp, err := service.HandleErrorReport(ctx, &ErrorReportParams{
		RoomId:      "room1",
		SenderId:    host.UserId,
		Code:        4,
		CurrentSrc:  videoUrl,
		CurrentTime: 42,
	})
	require.NoError(t, err)
	require.True(t, reportResp.FallbackApplied)
	assert.Equal(t, domain.DeliveryTypeFileProxy, reportResp.Meta.DeliveryType)
	assert.True(t, reportResp.Meta.RequiresProxy)
	assert.Contains(t, reportResp.Meta.PlaybackUrl, "proxy.local")
	assert.Contains(t, reportResp.Meta.DecisionReasons, "proxy-fallback")
	t.Log("proxy fallback applied")

	time.Sleep(5 * time.Millisecond)

	// a second report while already proxying is a no-op
	reportResp, err = service.HandleErrorReport(ctx, &ErrorReportParams{
		RoomId:     "room1",
		SenderId:   host.UserId,
		Code:       4,
		CurrentSrc: reportResp.Meta.PlaybackUrl,
	})
	require.NoError(t, err)
	assert.False(t, reportResp.FallbackApplied)
}

func TestErrorReportStaleAndDebounced(t *testing.T) {
	res := &stubResolver{meta: domain.VideoMeta{
		VideoType:       domain.VideoTypeMP4,
		DeliveryType:    domain.DeliveryTypeDirect,
		DecisionReasons: []string{"file-extension"},
	}}
	service, host := newTestService(t, res, &Config{
		ErrorReportDebounce: time.Hour,
	})
	ctx := context.Background()

	videoUrl := "https://cdn.example.com/movie.mp4"
	_, err := service.SetVideo(ctx, &SetVideoParams{
		RoomId:   "room1",
		SenderId: host.UserId,
		VideoUrl: videoUrl,
	})
	require.NoError(t, err)

	// report against a source that is no longer current
	reportResp, err := service.HandleErrorReport(ctx, &ErrorReportParams{
		RoomId:     "room1",
		SenderId:   host.UserId,
		CurrentSrc: "https://cdn.example.com/old.mp4",
	})
	require.NoError(t, err)
	assert.False(t, reportResp.FallbackApplied)

	// the failed attempt opened the debounce window; a valid report now
	// gets dropped by it
	reportResp, err = service.HandleErrorReport(ctx, &ErrorReportParams{
		RoomId:     "room1",
		SenderId:   host.UserId,
		CurrentSrc: videoUrl,
	})
	require.NoError(t, err)
	assert.False(t, reportResp.FallbackApplied)
}

func TestErrorReportReResolvesDirectRequired(t *testing.T) {
	res := &stubResolver{meta: domain.VideoMeta{
		VideoType:       domain.VideoTypeHLS,
		DeliveryType:    domain.DeliveryTypeHLS,
		DecisionReasons: []string{"hls-extension", "direct-required"},
	}}
	service, host := newTestService(t, res, &Config{
		ErrorReportDebounce: time.Millisecond,
	})
	ctx := context.Background()

	videoUrl := "https://stream.example.com/live.m3u8"
	_, err := service.SetVideo(ctx, &SetVideoParams{
		RoomId:   "room1",
		SenderId: host.UserId,
		VideoUrl: videoUrl,
	})
	require.NoError(t, err)

	// rotate the playback url the resolver would hand out
	res.meta.PlaybackUrl = "https://stream.example.com/live-rotated.m3u8"

	reportResp, err := service.HandleErrorReport(ctx, &ErrorReportParams{
		RoomId:     "room1",
		SenderId:   host.UserId,
		CurrentSrc: videoUrl,
	})
	require.NoError(t, err)
	require.True(t, reportResp.FallbackApplied, "direct-required source must re-resolve instead of proxying")
	assert.Equal(t, "https://stream.example.com/live-rotated.m3u8", reportResp.Meta.PlaybackUrl)
	assert.False(t, reportResp.Meta.RequiresProxy)
	assert.Contains(t, reportResp.Meta.DecisionReasons, "re-resolved")
	assert.Equal(t, 2, res.calls)

	time.Sleep(5 * time.Millisecond)

	// re-resolution that lands on the same url applies nothing
	reportResp, err = service.HandleErrorReport(ctx, &ErrorReportParams{
		RoomId:     "room1",
		SenderId:   host.UserId,
		CurrentSrc: "https://stream.example.com/live-rotated.m3u8",
	})
	require.NoError(t, err)
	assert.False(t, reportResp.FallbackApplied)
}
