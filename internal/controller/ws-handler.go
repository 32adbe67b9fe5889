package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/signal"
	"github.com/watchroom/server/pkg/ctxlogger"
)

// recountDelay lets in-flight disconnects settle before the corrected
// participant count is broadcast.
const recountDelay = 500 * time.Millisecond

func (c *controller) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to upgrade connection", "error", err)
		return
	}

	// the connection outlives the upgrade request
	ctx := ctxlogger.AppendCtx(context.Background(), slog.String("conn_id", generateTimeBasedId()))
	c.logger.DebugContext(ctx, "websocket connected", "remote_addr", r.RemoteAddr)

	if err := c.wsRouter.ServeConn(ctx, conn); err != nil {
		c.logger.DebugContext(ctx, "websocket closed", "error", err)
	}

	c.handleDisconnect(ctx, conn)
	conn.Close()
	c.writeMus.Delete(conn)
}

func (c *controller) handleDisconnect(ctx context.Context, conn *websocket.Conn) {
	session, err := c.connRepo.GetSession(conn)
	if err != nil {
		// connection never joined a room
		return
	}

	c.teardown(ctx, conn, session)
}

// teardown is the single exit path for a member: used on socket loss and on
// an explicit leave. Signaling channels are vacated before the roster
// mutation so peers stop addressing a dead connection.
func (c *controller) teardown(ctx context.Context, conn *websocket.Conn, session connection.Session) {
	for _, kind := range []string{signal.KindVoice, signal.KindVideoChat} {
		c.leaveSignalChannel(ctx, conn, session, kind)
	}

	c.connRepo.RemoveByConn(conn)

	resp, err := c.roomService.LeaveRoom(ctx, &room.LeaveRoomParams{
		RoomId: session.RoomId,
		UserId: session.UserId,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to leave room", "error", err, "room_id", session.RoomId)
		return
	}

	if resp.RoomClosed {
		c.closeRoom(ctx, session.RoomId)
		return
	}

	channel := roomChannel(session.RoomId)
	c.broadcast(ctx, channel, &Output{
		Type: "user-left",
		Payload: map[string]any{
			"user":  resp.LeftUser,
			"users": resp.Users,
		},
	})

	if resp.LeftUser.Name != "" {
		c.emitSystemMessage(ctx, session.RoomId, domain.SystemMessageLeave, resp.LeftUser.Id, resp.LeftUser.Name, resp.LeftUser.Name+" left the room")
	}
}

func (c *controller) leaveSignalChannel(ctx context.Context, conn *websocket.Conn, session connection.Session, kind string) {
	channel := signal.ChannelName(kind, session.RoomId)
	if !c.connRepo.IsInChannel(channel, conn) {
		return
	}

	resp, err := c.signalService.Leave(ctx, &signal.LeaveChannelParams{
		Kind:   kind,
		RoomId: session.RoomId,
		Conn:   conn,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to leave signal channel", "error", err, "channel", channel)
		return
	}

	c.broadcast(ctx, channel, &Output{
		Type: kind + "-peer-left",
		Payload: map[string]string{
			"user_id": session.UserId,
		},
	}, conn)

	c.announceCount(ctx, kind, session.RoomId, resp.Count)
	c.scheduleRecount(kind, session.RoomId)
}

func (c *controller) announceCount(ctx context.Context, kind, roomId string, count int) {
	c.broadcast(ctx, roomChannel(roomId), &Output{
		Type: kind + "-participant-count",
		Payload: map[string]int{
			"count": count,
		},
	})
}

// scheduleRecount broadcasts a corrected count once concurrent departures
// have settled.
func (c *controller) scheduleRecount(kind, roomId string) {
	time.AfterFunc(recountDelay, func() {
		ctx := context.Background()
		c.announceCount(ctx, kind, roomId, c.signalService.Count(ctx, kind, roomId))
	})
}

// closeRoom notifies every remaining member before evicting them. The room
// state in the store is already gone by the time this runs.
func (c *controller) closeRoom(ctx context.Context, roomId string) {
	c.videoService.EvictRoom(roomId)

	channel := roomChannel(roomId)
	c.broadcast(ctx, channel, &Output{
		Type: "room-closed",
		Payload: map[string]string{
			"room_id": roomId,
		},
	})

	for _, conn := range c.connRepo.ChannelConns(channel) {
		c.connRepo.RemoveByConn(conn)
		conn.Close()
		c.writeMus.Delete(conn)
	}

	c.logger.InfoContext(ctx, "room closed", "room_id", roomId)
}

// emitSystemMessage persists and broadcasts a system chat message;
// best-effort, a failure only logs.
func (c *controller) emitSystemMessage(ctx context.Context, roomId, systemType, userId, userName, text string) {
	resp, err := c.roomService.SendSystemMessage(ctx, &room.SendSystemMessageParams{
		RoomId:     roomId,
		SystemType: systemType,
		UserId:     userId,
		UserName:   userName,
		Message:    text,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to send system message", "error", err, "system_type", systemType)
		return
	}

	c.broadcast(ctx, roomChannel(roomId), &Output{
		Type:    "new-message",
		Payload: resp.Message,
	})
}
