package sync

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
	"github.com/watchparty/server/internal/repository/syncstate"
)

var (
	ErrAuthRequired  = errors.New("authentication required")
	ErrRoomNotFound  = errors.New("room not found")
	ErrVideoNotFound = errors.New("video not found")
)

type iSyncStateRepo interface {
	Get(ctx context.Context, roomId string) (syncstate.State, bool, error)
	Upsert(ctx context.Context, params *syncstate.UpsertParams) (syncstate.State, error)
	ClearCurrentVideo(ctx context.Context, params *syncstate.ClearCurrentVideoParams) (bool, error)
	Remove(ctx context.Context, roomId string) error
}

type iRoomRepo interface {
	GetRoom(ctx context.Context, id uuid.UUID) (domain.Room, error)
	GetVideo(ctx context.Context, id uuid.UUID) (domain.Video, error)
	SetParticipant(ctx context.Context, params *postgres.SetParticipantParams) error
	RemoveParticipant(ctx context.Context, params *postgres.RemoveParticipantParams) error
}

type iRegistry interface {
	Bind(conn *websocket.Conn, identity domain.Identity) error
	Identity(conn *websocket.Conn) (domain.Identity, error)
	Join(conn *websocket.Conn, roomId uuid.UUID) bool
	Leave(conn *websocket.Conn, roomId uuid.UUID) bool
	RoomConns(roomId uuid.UUID) []*websocket.Conn
	Rooms(conn *websocket.Conn) []uuid.UUID
	Remove(conn *websocket.Conn) []uuid.UUID
}

type service struct {
	syncRepo iSyncStateRepo
	roomRepo iRoomRepo
	registry iRegistry
	logger   *slog.Logger
}

func NewService(syncRepo iSyncStateRepo, roomRepo iRoomRepo, registry iRegistry, logger *slog.Logger) *service {
	return &service{
		syncRepo: syncRepo,
		roomRepo: roomRepo,
		registry: registry,
		logger:   logger,
	}
}

// identity resolves the sender's identity or fails with ErrAuthRequired.
func (s service) identity(conn *websocket.Conn) (domain.Identity, error) {
	identity, err := s.registry.Identity(conn)
	if err != nil {
		return domain.Identity{}, ErrAuthRequired
	}

	return identity, nil
}

func (s service) getRoom(ctx context.Context, roomId uuid.UUID) (domain.Room, error) {
	room, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return domain.Room{}, ErrRoomNotFound
		}
		return domain.Room{}, err
	}

	return room, nil
}

// othersConns returns the room's connections excluding the sender.
func (s service) othersConns(roomId uuid.UUID, sender *websocket.Conn) []*websocket.Conn {
	conns := s.registry.RoomConns(roomId)
	others := make([]*websocket.Conn, 0, len(conns))
	for _, conn := range conns {
		if conn != sender {
			others = append(others, conn)
		}
	}

	return others
}

func toDomainState(roomId uuid.UUID, state syncstate.State) domain.SyncState {
	out := domain.SyncState{
		RoomId:             roomId,
		IsPlaying:          state.IsPlaying,
		Progress:           state.Progress,
		LastEventTimestamp: state.LastEventTimestamp,
		UpdatedAt:          time.UnixMilli(state.UpdatedAt),
	}

	if state.CurrentVideoId != "" {
		if videoId, err := uuid.Parse(state.CurrentVideoId); err == nil {
			out.CurrentVideoId = &videoId
		}
	}

	return out
}

func defaultState(roomId uuid.UUID) domain.SyncState {
	return domain.SyncState{
		RoomId:             roomId,
		CurrentVideoId:     nil,
		IsPlaying:          false,
		Progress:           0,
		LastEventTimestamp: 0,
	}
}
