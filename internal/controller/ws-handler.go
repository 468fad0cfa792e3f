package controller

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/service/sync"
	"github.com/watchparty/server/pkg/ctxlogger"
)

// serveWS upgrades the connection and, when a token is presented,
// binds the resolved identity to it. Connections without a token are
// served too; privileged events on them fail with an auth error.
func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	ctx := r.Context()

	if token := r.URL.Query().Get("token"); token != "" {
		identity, err := c.authService.Resolve(ctx, token)
		if err != nil {
			c.logger.DebugContext(ctx, "failed to resolve token", "error", err)
			c.writeWSError(ctx, conn, sync.ErrAuthRequired)
		} else {
			if err := c.syncService.Bind(conn, identity); err != nil {
				c.logger.WarnContext(ctx, "failed to bind identity", "error", err)
			}
			ctx = ctxlogger.AppendCtx(ctx, slog.String("user_id", identity.UserId.String()))
		}
	}

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "websocket connection closed", "error", err)
	}

	c.disconnect(ctx, conn)
}

// disconnect sweeps the connection's memberships and notifies each
// room, tagging the notification with reason disconnect.
func (c controller) disconnect(ctx context.Context, conn *websocket.Conn) {
	disconnectResponse, err := c.syncService.Disconnect(ctx, conn)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect", "error", err)
		return
	}

	for _, swept := range disconnectResponse.Swept {
		c.broadcast(ctx, swept.Others, &Output{
			Type:    "room:userLeft",
			Payload: userPayload(swept.RoomId.String(), disconnectResponse.Identity, "disconnect"),
		})
	}
}

func (c controller) validateInput(input any) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return fmt.Errorf("%w: %s", errValidation, validationErrors[0].Message)
	}

	return nil
}

type joinRoomInput struct {
	RoomId string `json:"roomId" validate:"required,uuid"`
}

func (c controller) handleJoinRoom(ctx context.Context, conn *websocket.Conn, input joinRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}
	roomId := uuid.MustParse(input.RoomId)

	joinRoomResponse, err := c.syncService.JoinRoom(ctx, &sync.JoinRoomParams{
		Conn:   conn,
		RoomId: roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	c.writeOutput(ctx, conn, &Output{
		Type:    "room:joined",
		Payload: map[string]any{"roomId": input.RoomId},
	})

	// joining always answers with a snapshot so reconnects resync
	c.writeOutput(ctx, conn, &Output{
		Type:    "sync:update",
		Payload: syncUpdatePayload(&joinRoomResponse.Update),
	})

	if joinRoomResponse.NewlyJoined {
		c.broadcast(ctx, joinRoomResponse.Others, &Output{
			Type:    "room:userJoined",
			Payload: userPayload(input.RoomId, joinRoomResponse.Identity, ""),
		})
	}

	return nil
}

type leaveRoomInput struct {
	RoomId string `json:"roomId" validate:"required,uuid"`
}

func (c controller) handleLeaveRoom(ctx context.Context, conn *websocket.Conn, input leaveRoomInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}
	roomId := uuid.MustParse(input.RoomId)

	leaveRoomResponse, err := c.syncService.LeaveRoom(ctx, &sync.LeaveRoomParams{
		Conn:   conn,
		RoomId: roomId,
	})
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if !leaveRoomResponse.Left {
		return nil
	}

	c.writeOutput(ctx, conn, &Output{
		Type:    "room:left",
		Payload: map[string]any{"roomId": input.RoomId},
	})

	c.broadcast(ctx, leaveRoomResponse.Others, &Output{
		Type:    "room:userLeft",
		Payload: userPayload(input.RoomId, leaveRoomResponse.Identity, ""),
	})

	return nil
}

type playInput struct {
	RoomId    string `json:"roomId" validate:"required,uuid"`
	Timestamp int64  `json:"timestamp" validate:"required,gt=0"`
}

func (c controller) handlePlay(ctx context.Context, conn *websocket.Conn, input playInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	playResponse, err := c.syncService.Play(ctx, &sync.PlayParams{
		Conn:      conn,
		RoomId:    uuid.MustParse(input.RoomId),
		Timestamp: input.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}

	if playResponse.Applied {
		c.broadcastSyncUpdate(ctx, playResponse.Conns, &playResponse.Update)
	}

	return nil
}

type pauseInput struct {
	RoomId    string `json:"roomId" validate:"required,uuid"`
	Timestamp int64  `json:"timestamp" validate:"required,gt=0"`
}

func (c controller) handlePause(ctx context.Context, conn *websocket.Conn, input pauseInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	pauseResponse, err := c.syncService.Pause(ctx, &sync.PauseParams{
		Conn:      conn,
		RoomId:    uuid.MustParse(input.RoomId),
		Timestamp: input.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}

	if pauseResponse.Applied {
		c.broadcastSyncUpdate(ctx, pauseResponse.Conns, &pauseResponse.Update)
	}

	return nil
}

type seekInput struct {
	RoomId    string  `json:"roomId" validate:"required,uuid"`
	Time      float64 `json:"time" validate:"gte=0"`
	Timestamp int64   `json:"timestamp" validate:"required,gt=0"`
}

func (c controller) handleSeek(ctx context.Context, conn *websocket.Conn, input seekInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	seekResponse, err := c.syncService.Seek(ctx, &sync.SeekParams{
		Conn:      conn,
		RoomId:    uuid.MustParse(input.RoomId),
		Time:      input.Time,
		Timestamp: input.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	if seekResponse.Applied {
		c.broadcastSyncUpdate(ctx, seekResponse.Conns, &seekResponse.Update)
	}

	return nil
}

type changeVideoInput struct {
	RoomId    string `json:"roomId" validate:"required,uuid"`
	VideoId   string `json:"videoId" validate:"required,uuid"`
	Timestamp int64  `json:"timestamp" validate:"required,gt=0"`
}

func (c controller) handleChangeVideo(ctx context.Context, conn *websocket.Conn, input changeVideoInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	changeVideoResponse, err := c.syncService.ChangeVideo(ctx, &sync.ChangeVideoParams{
		Conn:      conn,
		RoomId:    uuid.MustParse(input.RoomId),
		VideoId:   uuid.MustParse(input.VideoId),
		Timestamp: input.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to change video: %w", err)
	}

	// whole room, sender included
	c.broadcastSyncUpdate(ctx, changeVideoResponse.Conns, &changeVideoResponse.Update)

	return nil
}

type requestSyncInput struct {
	RoomId string `json:"roomId" validate:"required,uuid"`
}

func (c controller) handleRequestSync(ctx context.Context, conn *websocket.Conn, input requestSyncInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	update, err := c.syncService.RequestSync(ctx, &sync.RequestSyncParams{
		Conn:   conn,
		RoomId: uuid.MustParse(input.RoomId),
	})
	if err != nil {
		return fmt.Errorf("failed to request sync: %w", err)
	}

	c.writeOutput(ctx, conn, &Output{
		Type:    "sync:update",
		Payload: syncUpdatePayload(&update),
	})

	return nil
}

type chatMessageInput struct {
	RoomId  string `json:"roomId" validate:"required,uuid"`
	Message string `json:"message" validate:"required,min=1,max=2000"`
}

func (c controller) handleChatMessage(ctx context.Context, conn *websocket.Conn, input chatMessageInput) error {
	if err := c.validateInput(input); err != nil {
		return err
	}

	chatResponse, err := c.syncService.Chat(ctx, &sync.ChatParams{
		Conn:    conn,
		RoomId:  uuid.MustParse(input.RoomId),
		Message: input.Message,
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	c.broadcast(ctx, chatResponse.Conns, &Output{
		Type: "chat:newMessage",
		Payload: map[string]any{
			"messageId": chatResponse.Message.Id.String(),
			"message":   chatResponse.Message.Message,
			"userId":    chatResponse.Message.UserId.String(),
			"username":  chatResponse.Message.Username,
			"roomId":    chatResponse.Message.RoomId.String(),
			"timestamp": chatResponse.Message.Timestamp.UnixMilli(),
		},
	})

	return nil
}
