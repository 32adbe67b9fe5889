package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"
	o "github.com/skewb1k/optional"

	"github.com/watchroom/server/internal/domain"
	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/signal"
	"github.com/watchroom/server/pkg/ctxlogger"
)

type CreateRoomInput struct {
	HostName string `json:"host_name" validate:"required,max=24"`
}

func (c *controller) handleCreateRoom(ctx context.Context, conn *websocket.Conn, input CreateRoomInput) error {
	if _, err := c.connRepo.GetSession(conn); err == nil {
		return fmt.Errorf("%w: already in a room", domain.ErrValidation)
	}

	resp, err := c.roomService.CreateRoom(ctx, &room.CreateRoomParams{
		HostName: input.HostName,
	})
	if err != nil {
		return err
	}

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", resp.RoomId))

	if err := c.connRepo.Add(conn, resp.Host.Id, resp.RoomId); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}
	c.connRepo.JoinChannel(roomChannel(resp.RoomId), conn)

	c.logger.InfoContext(ctx, "room created", "host_id", resp.Host.Id)

	return c.writeToConn(ctx, conn, &Output{
		Type: "room-created",
		Payload: map[string]any{
			"room_id":    resp.RoomId,
			"host_token": resp.HostToken,
			"user":       resp.Host,
			"room":       resp.Room,
		},
	})
}

type JoinRoomInput struct {
	RoomId    string `json:"room_id" validate:"required"`
	UserName  string `json:"user_name" validate:"required,max=24"`
	HostToken string `json:"host_token"`
}

func (c *controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, input JoinRoomInput) error {
	resp, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		RoomId:    input.RoomId,
		UserName:  input.UserName,
		HostToken: input.HostToken,
	})
	if err != nil {
		return err
	}

	return c.completeJoin(ctx, conn, input.RoomId, resp)
}

type VerifyPasscodeInput struct {
	RoomId    string `json:"room_id" validate:"required"`
	UserName  string `json:"user_name" validate:"required,max=24"`
	Passcode  string `json:"passcode" validate:"required,len=4,numeric"`
	HostToken string `json:"host_token"`
}

func (c *controller) handleVerifyPasscode(ctx context.Context, conn *websocket.Conn, input VerifyPasscodeInput) error {
	resp, err := c.roomService.VerifyPasscode(ctx, &room.VerifyPasscodeParams{
		RoomId:    input.RoomId,
		UserName:  input.UserName,
		Passcode:  input.Passcode,
		HostToken: input.HostToken,
	})
	if err != nil {
		return err
	}

	return c.completeJoin(ctx, conn, input.RoomId, resp)
}

// completeJoin registers the connection and fans out the join. The joiner
// gets the full room snapshot; everyone else gets the roster delta.
func (c *controller) completeJoin(ctx context.Context, conn *websocket.Conn, roomId string, resp room.JoinRoomResponse) error {
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))

	if err := c.connRepo.Add(conn, resp.JoinedUser.Id, roomId); err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}
	c.connRepo.JoinChannel(roomChannel(roomId), conn)

	if err := c.writeToConn(ctx, conn, &Output{
		Type: "room-joined",
		Payload: map[string]any{
			"room": resp.Room,
			"user": resp.JoinedUser,
		},
	}); err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(roomId), &Output{
		Type: "user-joined",
		Payload: map[string]any{
			"user":  resp.JoinedUser,
			"users": resp.Users,
		},
	}, conn)

	if resp.HostTransferred {
		c.broadcast(ctx, roomChannel(roomId), &Output{
			Type: "host-changed",
			Payload: map[string]any{
				"host_id":   resp.JoinedUser.Id,
				"host_name": resp.JoinedUser.Name,
			},
		}, conn)
	}

	c.emitSystemMessage(ctx, roomId, domain.SystemMessageJoin, resp.JoinedUser.Id, resp.JoinedUser.Name, resp.JoinedUser.Name+" joined the room")

	c.logger.InfoContext(ctx, "user joined", "user_id", resp.JoinedUser.Id, "is_host", resp.JoinedUser.IsHost)

	return nil
}

type LeaveRoomInput struct {
	RoomId string `json:"room_id"`
}

func (c *controller) handleLeaveRoom(ctx context.Context, conn *websocket.Conn, input LeaveRoomInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	c.teardown(ctx, conn, session)

	return nil
}

type PromoteUserInput struct {
	UserId string `json:"user_id" validate:"required"`
}

func (c *controller) handlePromoteUser(ctx context.Context, conn *websocket.Conn, input PromoteUserInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.roomService.PromoteUser(ctx, &room.PromoteUserParams{
		RoomId:     session.RoomId,
		SenderId:   session.UserId,
		PromotedId: input.UserId,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: "user-promoted",
		Payload: map[string]any{
			"user":  resp.PromotedUser,
			"users": resp.Users,
		},
	})

	c.emitSystemMessage(ctx, session.RoomId, domain.SystemMessagePromote, resp.PromotedUser.Id, resp.PromotedUser.Name, resp.PromotedUser.Name+" is now a host")

	return nil
}

type KickUserInput struct {
	UserId string `json:"user_id" validate:"required"`
}

// handleKickUser notifies the victim while their connection is still
// reachable, then vacates their signaling channels, then evicts them from
// the room channel and closes the socket.
func (c *controller) handleKickUser(ctx context.Context, conn *websocket.Conn, input KickUserInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	resp, err := c.roomService.KickUser(ctx, &room.KickUserParams{
		RoomId:   session.RoomId,
		SenderId: session.UserId,
		KickedId: input.UserId,
	})
	if err != nil {
		return err
	}
	if resp.AlreadyGone {
		return nil
	}

	// the victim hears about it while their socket is still registered
	c.unicast(ctx, resp.KickedUser.Id, &Output{
		Type: "user-kicked",
		Payload: map[string]any{
			"user":    resp.KickedUser,
			"room_id": session.RoomId,
		},
	})

	victimConn, connErr := c.connRepo.GetConn(resp.KickedUser.Id)
	if connErr == nil {
		victimSession := connection.Session{UserId: resp.KickedUser.Id, RoomId: session.RoomId}
		for _, kind := range []string{signal.KindVoice, signal.KindVideoChat} {
			c.leaveSignalChannel(ctx, victimConn, victimSession, kind)
		}

		c.connRepo.RemoveByUserId(resp.KickedUser.Id)
		victimConn.Close()
		c.writeMus.Delete(victimConn)
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: "user-kicked",
		Payload: map[string]any{
			"user":  resp.KickedUser,
			"users": resp.Users,
		},
	})

	c.emitSystemMessage(ctx, session.RoomId, domain.SystemMessageKick, resp.KickedUser.Id, resp.KickedUser.Name, resp.KickedUser.Name+" was kicked from the room")

	c.logger.InfoContext(ctx, "user kicked", "room_id", session.RoomId, "kicked_id", resp.KickedUser.Id)

	return nil
}

type UpdateRoomSettingsInput struct {
	IsLocked     *bool           `json:"is_locked"`
	Passcode     o.Field[string] `json:"passcode"`
	IsChatLocked *bool           `json:"is_chat_locked"`
}

func (c *controller) handleUpdateRoomSettings(ctx context.Context, conn *websocket.Conn, input UpdateRoomSettingsInput) error {
	session, err := c.getSession(conn)
	if err != nil {
		return err
	}

	if input.Passcode.Defined && input.Passcode.Value != nil && *input.Passcode.Value != "" {
		if errs, ok := c.validate.Validate(struct {
			Passcode string `json:"passcode" validate:"len=4,numeric"`
		}{Passcode: *input.Passcode.Value}); !ok {
			return fmt.Errorf("%w: %s", domain.ErrValidation, errs[0].Message)
		}
	}

	resp, err := c.roomService.UpdateSettings(ctx, &room.UpdateSettingsParams{
		RoomId:       session.RoomId,
		SenderId:     session.UserId,
		IsLocked:     input.IsLocked,
		Passcode:     input.Passcode,
		IsChatLocked: input.IsChatLocked,
	})
	if err != nil {
		return err
	}

	c.broadcast(ctx, roomChannel(session.RoomId), &Output{
		Type: "room-settings-updated",
		Payload: map[string]any{
			"settings": resp.Settings,
		},
	})

	return nil
}

// getSession resolves the caller's room membership; handlers for
// member-scoped events all start here.
func (c *controller) getSession(conn *websocket.Conn) (connection.Session, error) {
	session, err := c.connRepo.GetSession(conn)
	if err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return connection.Session{}, domain.ErrUserNotFound
		}
		return connection.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}
