package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
	"github.com/watchparty/server/internal/repository/syncstate"
)

type AddVideoParams struct {
	RoomId   uuid.UUID
	Title    string
	URL      string
	Duration *float64
	AddedBy  uuid.UUID
}

func (s service) AddVideo(ctx context.Context, params *AddVideoParams) (domain.Video, error) {
	if _, err := s.roomRepo.GetRoom(ctx, params.RoomId); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return domain.Video{}, ErrRoomNotFound
		}
		return domain.Video{}, fmt.Errorf("failed to get room: %w", err)
	}

	video, err := s.roomRepo.CreateVideo(ctx, &postgres.CreateVideoParams{
		Id:       uuid.New(),
		RoomId:   params.RoomId,
		Title:    params.Title,
		URL:      params.URL,
		Duration: params.Duration,
		AddedBy:  params.AddedBy,
	})
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to create video: %w", err)
	}

	return video, nil
}

func (s service) ListVideos(ctx context.Context, roomId uuid.UUID) ([]domain.Video, error) {
	if _, err := s.roomRepo.GetRoom(ctx, roomId); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return s.roomRepo.ListVideos(ctx, roomId)
}

type RemoveVideoParams struct {
	RoomId  uuid.UUID
	VideoId uuid.UUID
}

// RemoveVideo deletes the video and nulls the room's current-video
// pointer when it still references it, so the sync state never carries
// a dangling reference.
func (s service) RemoveVideo(ctx context.Context, params *RemoveVideoParams) error {
	video, err := s.roomRepo.GetVideo(ctx, params.VideoId)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to get video: %w", err)
	}
	if video.RoomId != params.RoomId {
		return ErrVideoNotFound
	}

	if err := s.roomRepo.RemoveVideo(ctx, params.VideoId); err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ErrVideoNotFound
		}
		return fmt.Errorf("failed to remove video: %w", err)
	}

	cleared, err := s.syncRepo.ClearCurrentVideo(ctx, &syncstate.ClearCurrentVideoParams{
		RoomId:  params.RoomId.String(),
		VideoId: params.VideoId.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to clear current video: %w", err)
	}
	if cleared {
		s.logger.InfoContext(ctx, "cleared current video pointer", "room_id", params.RoomId, "video_id", params.VideoId)
	}

	return nil
}
