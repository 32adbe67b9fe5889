package controller

import (
	"github.com/watchroom/server/internal/service/signal"
	"github.com/watchroom/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	r := wsrouter.New()

	r.Use(c.messageIdWSMw, c.loggingWSMw, c.validateWSMw)
	r.OnError(c.sendError)

	wsrouter.Handle(r, "create-room", c.handleCreateRoom)
	wsrouter.Handle(r, "join-room", c.handleJoinRoom)
	wsrouter.Handle(r, "verify-passcode", c.handleVerifyPasscode)
	wsrouter.Handle(r, "leave-room", c.handleLeaveRoom)
	wsrouter.Handle(r, "promote-host", c.handlePromoteUser)
	wsrouter.Handle(r, "kick-user", c.handleKickUser)
	wsrouter.Handle(r, "update-room-settings", c.handleUpdateRoomSettings)

	wsrouter.Handle(r, "send-message", c.handleSendMessage)
	wsrouter.Handle(r, "toggle-reaction", c.handleToggleReaction)
	wsrouter.Handle(r, "typing-start", c.handleTypingStart)
	wsrouter.Handle(r, "typing-stop", c.handleTypingStop)

	wsrouter.Handle(r, "set-video", c.handleSetVideo)
	wsrouter.Handle(r, "play-video", c.handlePlayVideo)
	wsrouter.Handle(r, "pause-video", c.handlePauseVideo)
	wsrouter.Handle(r, "seek-video", c.handleSeekVideo)
	wsrouter.Handle(r, "sync-check", c.handleSyncCheck)
	wsrouter.Handle(r, "video-error-report", c.handleVideoErrorReport)

	for _, kind := range []string{signal.KindVoice, signal.KindVideoChat} {
		wsrouter.Handle(r, kind+"-join", c.handleChannelJoin(kind))
		wsrouter.Handle(r, kind+"-leave", c.handleChannelLeave(kind))
		for _, event := range []string{"offer", "answer", "ice-candidate"} {
			wsrouter.Handle(r, kind+"-"+event, c.handleSignalRelay(kind, event))
		}
	}

	return r
}
