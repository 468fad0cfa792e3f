package controller

import (
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdMw())
	mux.Use(c.wsLoggerMw())
	mux.SetErrorHandler(c.writeWSError)

	// room
	wsrouter.Handle(mux, "room:join", c.handleJoinRoom)
	wsrouter.Handle(mux, "room:leave", c.handleLeaveRoom)

	// video
	wsrouter.Handle(mux, "video:play", c.handlePlay)
	wsrouter.Handle(mux, "video:pause", c.handlePause)
	wsrouter.Handle(mux, "video:seek", c.handleSeek)
	wsrouter.Handle(mux, "video:change", c.handleChangeVideo)
	wsrouter.Handle(mux, "video:requestSync", c.handleRequestSync)

	// chat
	wsrouter.Handle(mux, "chat:message", c.handleChatMessage)

	return mux
}
