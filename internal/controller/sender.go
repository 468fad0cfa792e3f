package controller

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/service/sync"
	"github.com/watchparty/server/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorOutput struct {
	Message string `json:"message"`
}

// errValidation marks payload validation failures so they surface with
// their own message instead of the generic processing error.
var errValidation = errors.New("validation failed")

type syncUpdateOutput struct {
	RoomId             string  `json:"roomId"`
	CurrentVideoId     *string `json:"currentVideoId"`
	VideoUrl           *string `json:"videoUrl"`
	Title              *string `json:"title"`
	IsPlaying          bool    `json:"isPlaying"`
	Progress           float64 `json:"progress"`
	LastEventTimestamp int64   `json:"lastEventTimestamp"`
	UpdatedAt          int64   `json:"updatedAt"`
}

func syncUpdatePayload(update *sync.SyncUpdate) *syncUpdateOutput {
	out := syncUpdateOutput{
		RoomId:             update.State.RoomId.String(),
		IsPlaying:          update.State.IsPlaying,
		Progress:           update.State.Progress,
		LastEventTimestamp: update.State.LastEventTimestamp,
	}

	if !update.State.UpdatedAt.IsZero() {
		out.UpdatedAt = update.State.UpdatedAt.UnixMilli()
	}

	if update.State.CurrentVideoId != nil {
		videoId := update.State.CurrentVideoId.String()
		out.CurrentVideoId = &videoId
	}

	if update.Video != nil {
		out.VideoUrl = &update.Video.URL
		out.Title = &update.Video.Title
	}

	return &out
}

func (c controller) writeOutput(ctx context.Context, conn *websocket.Conn, output *Output) {
	if err := conn.WriteJSON(output); err != nil {
		c.logger.InfoContext(ctx, "failed to write message", "type", output.Type, "error", err)
	}
}

// broadcast delivers to every connection in the list. A failed write is
// logged and skipped; delivery to the rest continues.
func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) {
	for _, conn := range conns {
		c.writeOutput(ctx, conn, output)
	}
}

func (c controller) broadcastSyncUpdate(ctx context.Context, conns []*websocket.Conn, update *sync.SyncUpdate) {
	c.broadcast(ctx, conns, &Output{
		Type:    "sync:update",
		Payload: syncUpdatePayload(update),
	})
}

// writeWSError reports a rejected event to the originating connection
// only. The taxonomy errors map to stable user-facing messages, all
// else degrades to a generic processing error.
func (c controller) writeWSError(ctx context.Context, conn *websocket.Conn, err error) {
	var message string
	switch {
	case errors.Is(err, sync.ErrAuthRequired):
		message = "Authentication required"
	case errors.Is(err, sync.ErrRoomNotFound):
		message = "Room not found"
	case errors.Is(err, sync.ErrVideoNotFound):
		message = "Video not found"
	case errors.Is(err, errValidation):
		message = err.Error()
	case errors.Is(err, wsrouter.ErrUnknownMessageType):
		message = "Unknown message type"
	default:
		c.logger.WarnContext(ctx, "failed to process message", "error", err)
		message = "Failed to process event"
	}

	c.writeOutput(ctx, conn, &Output{
		Type:    "error",
		Payload: errorOutput{Message: message},
	})
}

type userOutput struct {
	RoomId   string `json:"roomId"`
	UserId   string `json:"userId"`
	Username string `json:"username"`
	Reason   string `json:"reason,omitempty"`
}

func userPayload(roomId string, identity domain.Identity, reason string) *userOutput {
	return &userOutput{
		RoomId:   roomId,
		UserId:   identity.UserId.String(),
		Username: identity.Username,
		Reason:   reason,
	}
}
