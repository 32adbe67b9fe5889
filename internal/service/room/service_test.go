package room

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	o "github.com/skewb1k/optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchroom/server/internal/domain"
	roomRedis "github.com/watchroom/server/internal/repository/room/redis"
)

func newTestService(t *testing.T) *service {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})

	roomRepo := roomRedis.NewRepo(rc, 24*time.Hour, slog.Default())

	return NewService(roomRepo, &Config{Secret: "test-secret"}, slog.Default())
}

func TestCreateAndJoinRoom(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, createResp.RoomId, "room id is empty")
	assert.NotEmpty(t, createResp.HostToken, "host token is empty")
	assert.True(t, createResp.Host.IsHost, "creator must be host")
	assert.Equal(t, "alice", createResp.Room.HostName)
	assert.Len(t, createResp.Room.Users, 1)
	t.Log("room created")

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	require.NoError(t, err)
	assert.False(t, joinResp.JoinedUser.IsHost, "guest must not be host")
	assert.Len(t, joinResp.Users, 2, "userlist must contain 2 users")
	t.Log("guest joined")

	// duplicate name is rejected
	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	assert.ErrorIs(t, err, domain.ErrNameConflict)

	// host name without the token is rejected too
	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "alice",
	})
	assert.ErrorIs(t, err, domain.ErrNameConflict)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   "nonexistent",
		UserName: "carol",
	})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	preview, err := service.GetRoomPreview(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.Equal(t, "alice", preview.HostName)
	assert.Equal(t, 2, preview.UserCount)
	assert.False(t, preview.Settings.HasPasscode)

	_, err = service.GetRoomPreview(ctx, "nonexistent")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestJoinLockedRoom(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	locked := true
	_, err = service.UpdateSettings(ctx, &UpdateSettingsParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		IsLocked: &locked,
	})
	require.NoError(t, err)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	assert.ErrorIs(t, err, domain.ErrRoomLocked)

	// the host token bypasses the lock
	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:    createResp.RoomId,
		UserName:  "alice",
		HostToken: createResp.HostToken,
	})
	require.NoError(t, err)
	assert.True(t, joinResp.JoinedUser.IsHost)
	assert.True(t, joinResp.HostTransferred)
}

func TestPasscodeFlow(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	passcodeVal := "1234"
	passcode := o.Field[string]{Defined: true, Value: &passcodeVal}
	settingsResp, err := service.UpdateSettings(ctx, &UpdateSettingsParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		Passcode: passcode,
	})
	require.NoError(t, err)
	assert.True(t, settingsResp.Settings.HasPasscode)

	// plain join gets redirected to the passcode prompt
	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	var passcodeErr domain.PasscodeRequiredError
	require.True(t, errors.As(err, &passcodeErr))
	assert.Equal(t, createResp.RoomId, passcodeErr.RoomId)

	_, err = service.VerifyPasscode(ctx, &VerifyPasscodeParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
		Passcode: "9999",
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	joinResp, err := service.VerifyPasscode(ctx, &VerifyPasscodeParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
		Passcode: "1234",
	})
	require.NoError(t, err)
	assert.Len(t, joinResp.Users, 2)
	t.Log("guest admitted through passcode")

	// clearing the passcode reopens the room
	clearedVal := ""
	cleared := o.Field[string]{Defined: true, Value: &clearedVal}
	settingsResp, err = service.UpdateSettings(ctx, &UpdateSettingsParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		Passcode: cleared,
	})
	require.NoError(t, err)
	assert.False(t, settingsResp.Settings.HasPasscode)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "carol",
	})
	require.NoError(t, err)
}

func TestPromoteAndKick(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	require.NoError(t, err)

	// guests cannot promote
	_, err = service.PromoteUser(ctx, &PromoteUserParams{
		RoomId:     createResp.RoomId,
		SenderId:   joinResp.JoinedUser.Id,
		PromotedId: joinResp.JoinedUser.Id,
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	promoteResp, err := service.PromoteUser(ctx, &PromoteUserParams{
		RoomId:     createResp.RoomId,
		SenderId:   createResp.Host.Id,
		PromotedId: joinResp.JoinedUser.Id,
	})
	require.NoError(t, err)
	assert.True(t, promoteResp.PromotedUser.IsHost)
	t.Log("guest promoted")

	// promoting a host again is a client mistake, not a server fault
	_, err = service.PromoteUser(ctx, &PromoteUserParams{
		RoomId:     createResp.RoomId,
		SenderId:   createResp.Host.Id,
		PromotedId: joinResp.JoinedUser.Id,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// hosts cannot be kicked
	_, err = service.KickUser(ctx, &KickUserParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		KickedId: joinResp.JoinedUser.Id,
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	// self-kick is rejected
	_, err = service.KickUser(ctx, &KickUserParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		KickedId: createResp.Host.Id,
	})
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	join2Resp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "carol",
	})
	require.NoError(t, err)

	kickResp, err := service.KickUser(ctx, &KickUserParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		KickedId: join2Resp.JoinedUser.Id,
	})
	require.NoError(t, err)
	assert.Equal(t, "carol", kickResp.KickedUser.Name)
	assert.Len(t, kickResp.Users, 2)

	// kicking again is a no-op
	kickResp, err = service.KickUser(ctx, &KickUserParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		KickedId: join2Resp.JoinedUser.Id,
	})
	require.NoError(t, err)
	assert.True(t, kickResp.AlreadyGone)
}

func TestLeaveRoomClosesWithoutHost(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	joinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	require.NoError(t, err)

	// guest leaving keeps the room alive
	leaveResp, err := service.LeaveRoom(ctx, &LeaveRoomParams{
		RoomId: createResp.RoomId,
		UserId: joinResp.JoinedUser.Id,
	})
	require.NoError(t, err)
	assert.False(t, leaveResp.RoomClosed)
	assert.Len(t, leaveResp.Users, 1)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	require.NoError(t, err)

	// the last host leaving destroys the room even with guests present
	leaveResp, err = service.LeaveRoom(ctx, &LeaveRoomParams{
		RoomId: createResp.RoomId,
		UserId: createResp.Host.Id,
	})
	require.NoError(t, err)
	assert.True(t, leaveResp.RoomClosed)
	t.Log("room closed")

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "carol",
	})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestHostRejoinReplacesStaleIdentity(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:   createResp.RoomId,
		UserName: "bob",
	})
	require.NoError(t, err)

	// the host rejoins with the token before the old entry was cleaned up
	rejoinResp, err := service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:    createResp.RoomId,
		UserName:  "alice",
		HostToken: createResp.HostToken,
	})
	require.NoError(t, err)
	assert.True(t, rejoinResp.JoinedUser.IsHost)
	assert.True(t, rejoinResp.HostTransferred)
	assert.NotEqual(t, createResp.Host.Id, rejoinResp.JoinedUser.Id, "rejoin must mint a new user id")
	assert.Len(t, rejoinResp.Users, 2, "stale host entry must be replaced, not duplicated")
	assert.Equal(t, rejoinResp.JoinedUser.Id, rejoinResp.Room.HostId)

	// a token minted for a different room is rejected
	otherResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	_, err = service.JoinRoom(ctx, &JoinRoomParams{
		RoomId:    otherResp.RoomId,
		UserName:  "alice",
		HostToken: createResp.HostToken,
	})
	assert.ErrorIs(t, err, domain.ErrNameConflict)
}

func TestChatMessagesAndReactions(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	createResp, err := service.CreateRoom(ctx, &CreateRoomParams{HostName: "alice"})
	require.NoError(t, err)

	sendResp, err := service.SendMessage(ctx, &SendMessageParams{
		RoomId:   createResp.RoomId,
		SenderId: createResp.Host.Id,
		Message:  "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", sendResp.Message.UserName)
	assert.Equal(t, domain.MessageTypeUser, sendResp.Message.Type)

	toggleResp, err := service.ToggleReaction(ctx, &ToggleReactionParams{
		RoomId:    createResp.RoomId,
		SenderId:  createResp.Host.Id,
		MessageId: sendResp.Message.Id,
		Emoji:     "👍",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{createResp.Host.Id}, toggleResp.Reactions["👍"])

	// toggling again removes the reaction and drops the empty key
	toggleResp, err = service.ToggleReaction(ctx, &ToggleReactionParams{
		RoomId:    createResp.RoomId,
		SenderId:  createResp.Host.Id,
		MessageId: sendResp.Message.Id,
		Emoji:     "👍",
	})
	require.NoError(t, err)
	assert.NotContains(t, toggleResp.Reactions, "👍")

	_, err = service.ToggleReaction(ctx, &ToggleReactionParams{
		RoomId:    createResp.RoomId,
		SenderId:  createResp.Host.Id,
		MessageId: "nonexistent",
		Emoji:     "👍",
	})
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}
