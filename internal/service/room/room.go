package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
)

type CreateRoomParams struct {
	Name      string
	CreatedBy uuid.UUID
}

func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (domain.Room, error) {
	room, err := s.roomRepo.CreateRoom(ctx, &postgres.CreateRoomParams{
		Id:        uuid.New(),
		Name:      params.Name,
		CreatedBy: params.CreatedBy,
	})
	if err != nil {
		return domain.Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (s service) ListRooms(ctx context.Context, limit, offset int) ([]domain.Room, error) {
	return s.roomRepo.ListRooms(ctx, limit, offset)
}

func (s service) MyRooms(ctx context.Context, userId uuid.UUID) ([]domain.Room, error) {
	return s.roomRepo.ListRoomsByParticipant(ctx, userId)
}

type RoomDetail struct {
	Room         domain.Room          `json:"room"`
	Videos       []domain.Video       `json:"videos"`
	Participants []domain.Participant `json:"participants"`
}

func (s service) GetRoomDetail(ctx context.Context, roomId uuid.UUID) (RoomDetail, error) {
	room, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return RoomDetail{}, ErrRoomNotFound
		}
		return RoomDetail{}, fmt.Errorf("failed to get room: %w", err)
	}

	videos, err := s.roomRepo.ListVideos(ctx, roomId)
	if err != nil {
		return RoomDetail{}, fmt.Errorf("failed to list videos: %w", err)
	}

	participants, err := s.roomRepo.ListParticipants(ctx, roomId)
	if err != nil {
		return RoomDetail{}, fmt.Errorf("failed to list participants: %w", err)
	}

	return RoomDetail{
		Room:         room,
		Videos:       videos,
		Participants: participants,
	}, nil
}

type InviteParticipantParams struct {
	RoomId uuid.UUID
	UserId uuid.UUID
}

func (s service) InviteParticipant(ctx context.Context, params *InviteParticipantParams) error {
	if _, err := s.roomRepo.GetRoom(ctx, params.RoomId); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to get room: %w", err)
	}

	if _, err := s.roomRepo.GetUser(ctx, params.UserId); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.roomRepo.SetParticipant(ctx, &postgres.SetParticipantParams{
		UserId: params.UserId,
		RoomId: params.RoomId,
	}); err != nil {
		return fmt.Errorf("failed to set participant: %w", err)
	}

	return nil
}

// RemoveRoom deletes the room, its videos and participants (cascade)
// and drops its sync state.
func (s service) RemoveRoom(ctx context.Context, roomId uuid.UUID) error {
	if err := s.roomRepo.RemoveRoom(ctx, roomId); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("failed to remove room: %w", err)
	}

	if err := s.syncRepo.Remove(ctx, roomId.String()); err != nil {
		s.logger.WarnContext(ctx, "failed to remove sync state", "error", err)
	}

	return nil
}
