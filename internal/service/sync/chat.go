package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
)

type ChatParams struct {
	Conn    *websocket.Conn
	RoomId  uuid.UUID
	Message string
}

type ChatResponse struct {
	Message domain.ChatMessage
	Conns   []*websocket.Conn
}

// Chat relays a message to the whole room, sender included. Delivery is
// best-effort: nothing is persisted and no cross-sender ordering is
// guaranteed.
func (s service) Chat(ctx context.Context, params *ChatParams) (ChatResponse, error) {
	identity, err := s.identity(params.Conn)
	if err != nil {
		return ChatResponse{}, err
	}

	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return ChatResponse{}, err
	}

	return ChatResponse{
		Message: domain.ChatMessage{
			Id:        uuid.New(),
			RoomId:    params.RoomId,
			UserId:    identity.UserId,
			Username:  identity.Username,
			Message:   params.Message,
			Timestamp: time.Now(),
		},
		Conns: s.registry.RoomConns(params.RoomId),
	}, nil
}
