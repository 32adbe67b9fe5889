package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/exp/maps"

	"github.com/watchroom/server/internal/repository/connection"
)

type repo struct {
	logger   *slog.Logger
	connList map[*websocket.Conn]connection.Session
	idList   map[string]*websocket.Conn
	channels map[string]map[*websocket.Conn]struct{}
	mu       sync.RWMutex
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		logger:   logger,
		connList: make(map[*websocket.Conn]connection.Session),
		idList:   make(map[string]*websocket.Conn),
		channels: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Add binds the connection to a (userId, roomId) session. A reconnect with
// the same user id overwrites the previous mapping.
func (r *repo) Add(conn *websocket.Conn, userId, roomId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug("connection.inmemory.Add", "user_id", userId, "room_id", roomId)
	if prev, ok := r.idList[userId]; ok && prev != conn {
		delete(r.connList, prev)
		r.removeFromChannels(prev)
	}

	r.connList[conn] = connection.Session{UserId: userId, RoomId: roomId}
	r.idList[userId] = conn

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) (connection.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.connList[conn]
	if !ok {
		return connection.Session{}, connection.ErrNotFound
	}

	delete(r.connList, conn)
	if r.idList[session.UserId] == conn {
		delete(r.idList, session.UserId)
	}
	r.removeFromChannels(conn)

	r.logger.Debug("connection.inmemory.RemoveByConn", "user_id", session.UserId)
	return session, nil
}

func (r *repo) RemoveByUserId(userId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[userId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, userId)
	r.removeFromChannels(conn)

	r.logger.Debug("connection.inmemory.RemoveByUserId", "user_id", userId)
	return nil
}

func (r *repo) GetConn(userId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[userId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) GetSession(conn *websocket.Conn) (connection.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.connList[conn]
	if !ok {
		return connection.Session{}, connection.ErrNotFound
	}

	return session, nil
}

func (r *repo) JoinChannel(channel string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns, ok := r.channels[channel]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		r.channels[channel] = conns
	}
	conns[conn] = struct{}{}
}

func (r *repo) LeaveChannel(channel string, conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveChannel(channel, conn)
}

func (r *repo) IsInChannel(channel string, conn *websocket.Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.channels[channel][conn]
	return ok
}

// ChannelConns returns a snapshot of the channel membership. The snapshot is
// safe to iterate while other goroutines mutate the registry.
func (r *repo) ChannelConns(channel string) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return maps.Keys(r.channels[channel])
}

func (r *repo) leaveChannel(channel string, conn *websocket.Conn) {
	conns, ok := r.channels[channel]
	if !ok {
		return
	}

	delete(conns, conn)
	if len(conns) == 0 {
		delete(r.channels, channel)
	}
}

func (r *repo) removeFromChannels(conn *websocket.Conn) {
	for channel := range r.channels {
		r.leaveChannel(channel, conn)
	}
}
