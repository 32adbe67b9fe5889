package controller

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/watchroom/server/internal/repository/connection"
	"github.com/watchroom/server/internal/service/room"
	"github.com/watchroom/server/internal/service/signal"
	"github.com/watchroom/server/internal/service/video"
	"github.com/watchroom/server/pkg/validator"
	"github.com/watchroom/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	VerifyPasscode(context.Context, *room.VerifyPasscodeParams) (room.JoinRoomResponse, error)
	LeaveRoom(context.Context, *room.LeaveRoomParams) (room.LeaveRoomResponse, error)
	PromoteUser(context.Context, *room.PromoteUserParams) (room.PromoteUserResponse, error)
	KickUser(context.Context, *room.KickUserParams) (room.KickUserResponse, error)
	UpdateSettings(context.Context, *room.UpdateSettingsParams) (room.UpdateSettingsResponse, error)
	SendMessage(context.Context, *room.SendMessageParams) (room.SendMessageResponse, error)
	SendSystemMessage(context.Context, *room.SendSystemMessageParams) (room.SendMessageResponse, error)
	ToggleReaction(context.Context, *room.ToggleReactionParams) (room.ToggleReactionResponse, error)
	GetUserName(context.Context, *room.GetUserNameParams) (string, error)
	GetRoomPreview(ctx context.Context, roomId string) (room.RoomPreview, error)
}

type iVideoService interface {
	SetVideo(context.Context, *video.SetVideoParams) (video.SetVideoResponse, error)
	PlayVideo(context.Context, *video.UpdatePlaybackParams) (video.UpdatePlaybackResponse, error)
	PauseVideo(context.Context, *video.UpdatePlaybackParams) (video.UpdatePlaybackResponse, error)
	SeekVideo(context.Context, *video.UpdatePlaybackParams) (video.UpdatePlaybackResponse, error)
	HandleSyncCheck(context.Context, *video.SyncCheckParams) (video.SyncCheckResponse, error)
	HandleErrorReport(context.Context, *video.ErrorReportParams) (video.ErrorReportResponse, error)
	EvictRoom(roomId string)
}

type iSignalService interface {
	Join(context.Context, *signal.JoinChannelParams) (signal.JoinChannelResponse, error)
	Leave(context.Context, *signal.LeaveChannelParams) (signal.LeaveChannelResponse, error)
	Count(ctx context.Context, kind, roomId string) int
	Relay(context.Context, *signal.RelayParams) (signal.RelayResponse, error)
}

type iConnRepo interface {
	Add(conn *websocket.Conn, userId, roomId string) error
	RemoveByConn(conn *websocket.Conn) (connection.Session, error)
	RemoveByUserId(userId string) error
	GetConn(userId string) (*websocket.Conn, error)
	GetSession(conn *websocket.Conn) (connection.Session, error)
	JoinChannel(channel string, conn *websocket.Conn)
	LeaveChannel(channel string, conn *websocket.Conn)
	IsInChannel(channel string, conn *websocket.Conn) bool
	ChannelConns(channel string) []*websocket.Conn
}

type controller struct {
	roomService   iRoomService
	videoService  iVideoService
	signalService iSignalService
	connRepo      iConnRepo
	upgrader      websocket.Upgrader
	validate      *validator.Validator
	logger        *slog.Logger
	wsRouter      *wsrouter.WSRouter

	// gorilla conns allow one concurrent writer; broadcasts from other
	// handlers must serialize per connection
	writeMus sync.Map
}

func NewController(roomService iRoomService, videoService iVideoService, signalService iSignalService, connRepo iConnRepo, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService:   roomService,
		videoService:  videoService,
		signalService: signalService,
		connRepo:      connRepo,
		validate:      validator.NewValidator(),
		logger:        logger,
	}
	c.wsRouter = c.getWSRouter()

	return &c
}

func roomChannel(roomId string) string {
	return "room:" + roomId
}
