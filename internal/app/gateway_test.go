package app

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/controller"
	connInmemory "github.com/watchroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/watchroom/server/internal/repository/room/redis"
	"github.com/watchroom/server/internal/resolver"
	roomService "github.com/watchroom/server/internal/service/room"
	signalService "github.com/watchroom/server/internal/service/signal"
	videoService "github.com/watchroom/server/internal/service/video"
)

type wsEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsUser struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}

func newGatewayServer(t *testing.T) *httptest.Server {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	logger := slog.Default()
	roomRepo := roomRedis.NewRepo(rc, 24*time.Hour, logger)
	connRepo := connInmemory.NewRepo(logger)

	rooms := roomService.NewService(roomRepo, &roomService.Config{Secret: "test-secret"}, logger)
	videos := videoService.NewService(roomRepo, resolver.NewResolver(), resolver.NewProxyBuilder("https://proxy.local"), &videoService.Config{}, logger)
	signals := signalService.NewService(roomRepo, connRepo, &signalService.Config{
		VoiceLimit:     2,
		VideoChatLimit: 2,
		RetryTick:      time.Millisecond,
	}, logger)

	ctrl := controller.NewController(rooms, videos, signals, connRepo, logger)

	server := httptest.NewServer(ctrl.GetMux())
	t.Cleanup(server.Close)

	return server
}

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    eventType,
		"payload": payload,
	}))
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var ev wsEvent
	require.NoError(t, conn.ReadJSON(&ev))

	return ev
}

// waitForEvent drains events until the wanted type arrives. Used where the
// exact order of the intervening fan-out is not under test.
func waitForEvent(t *testing.T, conn *websocket.Conn, eventType string) wsEvent {
	t.Helper()

	for {
		ev := readEvent(t, conn)
		if ev.Type == eventType {
			return ev
		}
	}
}

// TestGatewayKickOrdering drives two real websocket clients through a kick
// and pins the victim's event order: the kick notice lands while the victim
// is still wired up, then their voice slot is vacated, then the socket dies.
func TestGatewayKickOrdering(t *testing.T) {
	server := newGatewayServer(t)
	host := dialWS(t, server)
	guest := dialWS(t, server)

	sendEvent(t, host, "create-room", map[string]any{"host_name": "alice"})
	created := readEvent(t, host)
	require.Equal(t, "room-created", created.Type)

	var createdPayload struct {
		RoomId string `json:"room_id"`
		User   wsUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(created.Payload, &createdPayload))
	t.Log("room created")

	sendEvent(t, guest, "join-room", map[string]any{
		"room_id":   createdPayload.RoomId,
		"user_name": "bob",
	})
	joined := readEvent(t, guest)
	require.Equal(t, "room-joined", joined.Type)

	var joinedPayload struct {
		User wsUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(joined.Payload, &joinedPayload))

	// guest takes a voice slot; draining up to the count settles both sides
	sendEvent(t, guest, "voice-join", map[string]any{})
	waitForEvent(t, guest, "voice-participant-count")
	waitForEvent(t, host, "voice-participant-count")
	t.Log("guest in voice")

	sendEvent(t, host, "kick-user", map[string]any{"user_id": joinedPayload.User.Id})

	// the notice must arrive first, on a still-open socket
	ev := readEvent(t, guest)
	require.Equal(t, "user-kicked", ev.Type)

	var kickedPayload struct {
		User   wsUser `json:"user"`
		RoomId string `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &kickedPayload))
	assert.Equal(t, joinedPayload.User.Id, kickedPayload.User.Id)
	assert.Equal(t, createdPayload.RoomId, kickedPayload.RoomId)

	// the voice slot is vacated only after the notice
	ev = readEvent(t, guest)
	require.Equal(t, "voice-participant-count", ev.Type)

	var countPayload struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &countPayload))
	assert.Equal(t, 0, countPayload.Count)

	// then the server closes the victim's socket
	require.NoError(t, guest.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := guest.ReadMessage()
	assert.Error(t, err)
	t.Log("victim notified, vacated, disconnected, in that order")

	roomKicked := waitForEvent(t, host, "user-kicked")
	var roomKickedPayload struct {
		Users []wsUser `json:"users"`
	}
	require.NoError(t, json.Unmarshal(roomKicked.Payload, &roomKickedPayload))
	assert.Len(t, roomKickedPayload.Users, 1)
}

// TestGatewayRoomClosureNotice verifies that guests of a dying room get the
// closure notice, not a departure event for the host.
func TestGatewayRoomClosureNotice(t *testing.T) {
	server := newGatewayServer(t)
	host := dialWS(t, server)
	guest := dialWS(t, server)

	sendEvent(t, host, "create-room", map[string]any{"host_name": "alice"})
	created := readEvent(t, host)
	require.Equal(t, "room-created", created.Type)

	var createdPayload struct {
		RoomId string `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(created.Payload, &createdPayload))

	sendEvent(t, guest, "join-room", map[string]any{
		"room_id":   createdPayload.RoomId,
		"user_name": "bob",
	})
	joined := readEvent(t, guest)
	require.Equal(t, "room-joined", joined.Type)
	waitForEvent(t, guest, "new-message")
	t.Log("guest joined")

	// the only host leaves, taking the room with it
	sendEvent(t, host, "leave-room", map[string]any{})

	ev := readEvent(t, guest)
	require.Equal(t, "room-closed", ev.Type, "a closing room announces closure, never a host departure")

	var closedPayload struct {
		RoomId string `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(ev.Payload, &closedPayload))
	assert.Equal(t, createdPayload.RoomId, closedPayload.RoomId)

	// remaining members are disconnected after the notice
	require.NoError(t, guest.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := guest.ReadMessage()
	assert.Error(t, err)
	t.Log("room closed")
}
