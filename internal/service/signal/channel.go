package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/domain"
)

type JoinChannelParams struct {
	Kind   string
	RoomId string
	UserId string
	Conn   *websocket.Conn
}

type JoinChannelResponse struct {
	ExistingPeers []string
	Count         int
	AlreadyJoined bool
}

// Join admits a connection to a capacity-bounded sub-channel using
// read-prune-recheck: stale entries from ungraceful disconnects are dropped
// before the capacity comparison, and a full channel gets one retry tick
// before the hard capacity error. Joining an already-joined channel is
// idempotent.
func (s service) Join(ctx context.Context, params *JoinChannelParams) (JoinChannelResponse, error) {
	if err := s.checkCanJoin(ctx, params.RoomId, params.UserId); err != nil {
		return JoinChannelResponse{}, err
	}

	channel := ChannelName(params.Kind, params.RoomId)

	if s.connRepo.IsInChannel(channel, params.Conn) {
		peers := s.pruneAndList(channel, params.RoomId)
		return JoinChannelResponse{
			ExistingPeers: exclude(peers, params.UserId),
			Count:         len(peers),
			AlreadyJoined: true,
		}, nil
	}

	limit := s.limit(params.Kind)

	peers := s.pruneAndList(channel, params.RoomId)
	if len(peers) >= limit {
		// two back-to-back joins can both observe one free slot; one
		// recount after a short tick closes most of that window
		time.Sleep(s.retryTick)
		peers = s.pruneAndList(channel, params.RoomId)
		if len(peers) >= limit {
			return JoinChannelResponse{}, domain.ErrChannelFull
		}
	}

	s.connRepo.JoinChannel(channel, params.Conn)

	return JoinChannelResponse{
		ExistingPeers: peers,
		Count:         len(peers) + 1,
	}, nil
}

type LeaveChannelParams struct {
	Kind   string
	RoomId string
	Conn   *websocket.Conn
}

type LeaveChannelResponse struct {
	Count int
}

func (s service) Leave(ctx context.Context, params *LeaveChannelParams) (LeaveChannelResponse, error) {
	channel := ChannelName(params.Kind, params.RoomId)
	s.connRepo.LeaveChannel(channel, params.Conn)

	return LeaveChannelResponse{
		Count: len(s.pruneAndList(channel, params.RoomId)),
	}, nil
}

// Count reports the live occupancy of a sub-channel after pruning.
func (s service) Count(ctx context.Context, kind, roomId string) int {
	return len(s.pruneAndList(ChannelName(kind, roomId), roomId))
}

type RelayParams struct {
	RoomId       string
	SenderId     string
	TargetUserId string
}

type RelayResponse struct {
	Conn *websocket.Conn
}

// Relay resolves the target's live connection for store-and-forward
// signaling. A missing or mismatched mapping means the peer left between
// the sender reading the peer list and the packet arriving.
func (s service) Relay(ctx context.Context, params *RelayParams) (RelayResponse, error) {
	conn, err := s.connRepo.GetConn(params.TargetUserId)
	if err != nil {
		return RelayResponse{}, domain.ErrPeerNotFound
	}

	session, err := s.connRepo.GetSession(conn)
	if err != nil || session.UserId != params.TargetUserId || session.RoomId != params.RoomId {
		return RelayResponse{}, domain.ErrPeerNotFound
	}

	return RelayResponse{Conn: conn}, nil
}

// pruneAndList drops channel entries whose connection no longer maps to a
// valid session for this room and returns the remaining peer user ids.
func (s service) pruneAndList(channel, roomId string) []string {
	conns := s.connRepo.ChannelConns(channel)
	peers := make([]string, 0, len(conns))
	for _, conn := range conns {
		session, err := s.connRepo.GetSession(conn)
		if err != nil || session.RoomId != roomId {
			s.connRepo.LeaveChannel(channel, conn)
			continue
		}
		peers = append(peers, session.UserId)
	}

	return peers
}

func exclude(peers []string, userId string) []string {
	out := make([]string, 0, len(peers))
	for _, peer := range peers {
		if peer != userId {
			out = append(out, peer)
		}
	}

	return out
}
