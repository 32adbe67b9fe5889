package controller

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/service/signal"
)

type ChannelJoinInput struct{}

// handleChannelJoin returns the join handler for one sub-channel kind. The
// joiner gets the peer list to initiate offers toward; existing peers learn
// the newcomer's id and wait for those offers.
func (c *controller) handleChannelJoin(kind string) func(context.Context, *websocket.Conn, ChannelJoinInput) error {
	return func(ctx context.Context, conn *websocket.Conn, _ ChannelJoinInput) error {
		session, err := c.getSession(conn)
		if err != nil {
			return err
		}

		resp, err := c.signalService.Join(ctx, &signal.JoinChannelParams{
			Kind:   kind,
			RoomId: session.RoomId,
			UserId: session.UserId,
			Conn:   conn,
		})
		if err != nil {
			return err
		}

		if err := c.writeToConn(ctx, conn, &Output{
			Type: kind + "-existing-peers",
			Payload: map[string]any{
				"peers": resp.ExistingPeers,
			},
		}); err != nil {
			return err
		}

		if resp.AlreadyJoined {
			return nil
		}

		c.broadcast(ctx, signal.ChannelName(kind, session.RoomId), &Output{
			Type: kind + "-peer-joined",
			Payload: map[string]string{
				"user_id": session.UserId,
			},
		}, conn)

		c.announceCount(ctx, kind, session.RoomId, resp.Count)

		return nil
	}
}

type ChannelLeaveInput struct{}

func (c *controller) handleChannelLeave(kind string) func(context.Context, *websocket.Conn, ChannelLeaveInput) error {
	return func(ctx context.Context, conn *websocket.Conn, _ ChannelLeaveInput) error {
		session, err := c.getSession(conn)
		if err != nil {
			return err
		}

		c.leaveSignalChannel(ctx, conn, session, kind)

		return nil
	}
}

type SignalRelayInput struct {
	TargetUserId string          `json:"target_user_id" validate:"required"`
	Signal       json.RawMessage `json:"signal" validate:"required"`
}

// handleSignalRelay returns the store-and-forward handler for one signaling
// event type (offer, answer, ice-candidate). The payload is opaque; only
// addressing is interpreted.
func (c *controller) handleSignalRelay(kind, event string) func(context.Context, *websocket.Conn, SignalRelayInput) error {
	return func(ctx context.Context, conn *websocket.Conn, input SignalRelayInput) error {
		session, err := c.getSession(conn)
		if err != nil {
			return err
		}

		resp, err := c.signalService.Relay(ctx, &signal.RelayParams{
			RoomId:       session.RoomId,
			SenderId:     session.UserId,
			TargetUserId: input.TargetUserId,
		})
		if err != nil {
			return err
		}

		return c.writeToConn(ctx, resp.Conn, &Output{
			Type: kind + "-" + event + "-received",
			Payload: map[string]any{
				"from_user_id": session.UserId,
				"signal":       input.Signal,
			},
		})
	}
}
