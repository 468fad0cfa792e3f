package sync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
)

type JoinRoomParams struct {
	Conn   *websocket.Conn
	RoomId uuid.UUID
}

type JoinRoomResponse struct {
	Identity    domain.Identity
	NewlyJoined bool
	// Update is returned on every join, re-joins included, so a
	// reconnecting client always gets a fresh snapshot.
	Update SyncUpdate
	Others []*websocket.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	identity, err := s.identity(params.Conn)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return JoinRoomResponse{}, err
	}

	newlyJoined := s.registry.Join(params.Conn, params.RoomId)
	if newlyJoined {
		if err := s.roomRepo.SetParticipant(ctx, &postgres.SetParticipantParams{
			UserId: identity.UserId,
			RoomId: params.RoomId,
		}); err != nil {
			s.registry.Leave(params.Conn, params.RoomId)
			return JoinRoomResponse{}, fmt.Errorf("failed to set participant: %w", err)
		}
	}

	stored, found, err := s.syncRepo.Get(ctx, params.RoomId.String())
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get sync state: %w", err)
	}

	update := SyncUpdate{State: defaultState(params.RoomId)}
	if found {
		update = s.update(ctx, toDomainState(params.RoomId, stored))
	}

	return JoinRoomResponse{
		Identity:    identity,
		NewlyJoined: newlyJoined,
		Update:      update,
		Others:      s.othersConns(params.RoomId, params.Conn),
	}, nil
}

type LeaveRoomParams struct {
	Conn   *websocket.Conn
	RoomId uuid.UUID
}

type LeaveRoomResponse struct {
	Identity domain.Identity
	Left     bool
	Others   []*websocket.Conn
}

// LeaveRoom is a no-op when the connection is not a member; at most one
// transition happens no matter how many times it is called.
func (s service) LeaveRoom(ctx context.Context, params *LeaveRoomParams) (LeaveRoomResponse, error) {
	identity, err := s.registry.Identity(params.Conn)
	if err != nil {
		return LeaveRoomResponse{Left: false}, nil
	}

	if !s.registry.Leave(params.Conn, params.RoomId) {
		return LeaveRoomResponse{Identity: identity, Left: false}, nil
	}

	if err := s.roomRepo.RemoveParticipant(ctx, &postgres.RemoveParticipantParams{
		UserId: identity.UserId,
		RoomId: params.RoomId,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to remove participant", "error", err)
	}

	return LeaveRoomResponse{
		Identity: identity,
		Left:     true,
		Others:   s.registry.RoomConns(params.RoomId),
	}, nil
}

type SweptRoom struct {
	RoomId uuid.UUID
	Others []*websocket.Conn
}

type DisconnectResponse struct {
	Identity domain.Identity
	Swept    []SweptRoom
}

// Disconnect sweeps every room the connection belonged to, equivalent
// to leave with reason tagged "disconnect". Invariant under repeated
// invocation: a second sweep finds no memberships.
func (s service) Disconnect(ctx context.Context, conn *websocket.Conn) (DisconnectResponse, error) {
	identity, identityErr := s.registry.Identity(conn)

	rooms := s.registry.Remove(conn)

	swept := make([]SweptRoom, 0, len(rooms))
	for _, roomId := range rooms {
		if identityErr == nil {
			if err := s.roomRepo.RemoveParticipant(ctx, &postgres.RemoveParticipantParams{
				UserId: identity.UserId,
				RoomId: roomId,
			}); err != nil {
				s.logger.WarnContext(ctx, "failed to remove participant", "error", err)
			}
		}

		swept = append(swept, SweptRoom{
			RoomId: roomId,
			Others: s.registry.RoomConns(roomId),
		})
	}

	return DisconnectResponse{
		Identity: identity,
		Swept:    swept,
	}, nil
}

// Bind attaches a resolved identity to a connection before any
// privileged event is accepted on it.
func (s service) Bind(conn *websocket.Conn, identity domain.Identity) error {
	return s.registry.Bind(conn, identity)
}
