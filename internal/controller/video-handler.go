package controller

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/video"
)

type SetVideoInput struct {
	VideoUrl string `json:"video_url" validate:"required,max=2048"`
}

func (c *controller) handleSetVideo(ctx context.Context, conn *websocket.Conn, input SetVideoInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.videoService.SetVideo(ctx, &video.SetVideoParams{
		RoomId:   session.RoomId,
		SenderId: session.UserId,
		VideoUrl: input.VideoUrl,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: "video-set",
		Payload: map[string]any{
			"video_url":  resp.VideoUrl,
			"video_type": resp.VideoType,
			"video_meta": resp.Meta,
		},
	})

	userName, nameErr := c.roomService.GetUserName(ctx, &room.GetUserNameParams{
		RoomId: session.RoomId,
		UserId: session.UserId,
	})
	if nameErr == nil {
		c.emitSystemMessage(ctx, session.RoomId, domain.SystemMessageVideoChange, session.UserId, userName, userName+" changed the video")
	}

	return nil
}

type PlaybackInput struct {
	CurrentTime float64 `json:"current_time"`
}

func (c *controller) handlePlayVideo(ctx context.Context, conn *websocket.Conn, input PlaybackInput) error {
	return c.handlePlayback(ctx, conn, input, "video-played", domain.SystemMessageVideoPlayed, c.videoService.PlayVideo)
}

func (c *controller) handlePauseVideo(ctx context.Context, conn *websocket.Conn, input PlaybackInput) error {
	return c.handlePlayback(ctx, conn, input, "video-paused", domain.SystemMessageVideoPaused, c.videoService.PauseVideo)
}

func (c *controller) handlePlayback(
	ctx context.Context,
	conn *websocket.Conn,
	input PlaybackInput,
	eventType, systemType string,
	update func(context.Context, *video.UpdatePlaybackParams) (video.UpdatePlaybackResponse, error),
) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := update(ctx, &video.UpdatePlaybackParams{
		RoomId:      session.RoomId,
		SenderId:    session.UserId,
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type:    eventType,
		Payload: resp.State,
	}, conn)

	if resp.EmitSystemMessage {
		userName, nameErr := c.roomService.GetUserName(ctx, &room.GetUserNameParams{
			RoomId: session.RoomId,
			UserId: session.UserId,
		})
		if nameErr == nil {
			verb := "resumed"
			if systemType == domain.SystemMessageVideoPaused {
				verb = "paused"
			}
			c.emitSystemMessage(ctx, session.RoomId, systemType, session.UserId, userName, userName+" "+verb+" the video")
		}
	}

	return nil
}

func (c *controller) handleSeekVideo(ctx context.Context, conn *websocket.Conn, input PlaybackInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.videoService.SeekVideo(ctx, &video.UpdatePlaybackParams{
		RoomId:      session.RoomId,
		SenderId:    session.UserId,
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type:    "video-seeked",
		Payload: resp.State,
	}, conn)

	return nil
}

type SyncCheckInput struct {
	CurrentTime float64 `json:"current_time"`
	IsPlaying   bool    `json:"is_playing"`
	Timestamp   int64   `json:"timestamp"`
}

func (c *controller) handleSyncCheck(ctx context.Context, conn *websocket.Conn, input SyncCheckInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.videoService.HandleSyncCheck(ctx, &video.SyncCheckParams{
		RoomId:      session.RoomId,
		SenderId:    session.UserId,
		CurrentTime: input.CurrentTime,
		IsPlaying:   input.IsPlaying,
		Timestamp:   input.Timestamp,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: "sync-update",
		Payload: map[string]any{
			"current_time": resp.CurrentTime,
			"is_playing":   resp.IsPlaying,
			"timestamp":    resp.Timestamp,
		},
	}, conn)

	return nil
}

type VideoErrorReportInput struct {
	Code        int     `json:"code"`
	CurrentSrc  string  `json:"current_src" validate:"required"`
	CurrentTime float64 `json:"current_time"`
}

// handleVideoErrorReport feeds the fallback machinery. When a fallback
// lands, the whole room gets the new delivery descriptor and clients resume
// near the reported position.
func (c *controller) handleVideoErrorReport(ctx context.Context, conn *websocket.Conn, input VideoErrorReportInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.videoService.HandleErrorReport(ctx, &video.ErrorReportParams{
		RoomId:      session.RoomId,
		SenderId:    session.UserId,
		Code:        input.Code,
		CurrentSrc:  input.CurrentSrc,
		CurrentTime: input.CurrentTime,
	})
	if err != nil {
		return err
	}

	if resp.FallbackApplied {
		c.broadcast(ctx, roomChannel(session.RoomId), &Output{
			Type: "video-fallback",
			Payload: map[string]any{
				"video_meta":   resp.Meta,
				"resume_time":  input.CurrentTime,
				"applied_at":   time.Now().UnixMilli(),
			},
		})
	}

	return c.writeToConn(ctx, conn, &Output{
		Type: "video-error-handled",
		Payload: map[string]bool{
			"fallback_applied": resp.FallbackApplied,
		},
	})
}
