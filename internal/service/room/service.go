package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
	"github.com/watchparty/server/internal/repository/syncstate"
)

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrVideoNotFound = errors.New("video not found")
	ErrUserNotFound  = errors.New("user not found")
)

type iRoomRepo interface {
	CreateRoom(context.Context, *postgres.CreateRoomParams) (domain.Room, error)
	GetRoom(context.Context, uuid.UUID) (domain.Room, error)
	ListRooms(ctx context.Context, limit, offset int) ([]domain.Room, error)
	ListRoomsByParticipant(context.Context, uuid.UUID) ([]domain.Room, error)
	RemoveRoom(context.Context, uuid.UUID) error
	CreateVideo(context.Context, *postgres.CreateVideoParams) (domain.Video, error)
	GetVideo(context.Context, uuid.UUID) (domain.Video, error)
	ListVideos(context.Context, uuid.UUID) ([]domain.Video, error)
	RemoveVideo(context.Context, uuid.UUID) error
	SetParticipant(context.Context, *postgres.SetParticipantParams) error
	ListParticipants(context.Context, uuid.UUID) ([]domain.Participant, error)
	GetUser(context.Context, uuid.UUID) (domain.User, error)
}

type iSyncStateRepo interface {
	ClearCurrentVideo(context.Context, *syncstate.ClearCurrentVideoParams) (bool, error)
	Remove(ctx context.Context, roomId string) error
}

type service struct {
	roomRepo iRoomRepo
	syncRepo iSyncStateRepo
	logger   *slog.Logger
}

func NewService(roomRepo iRoomRepo, syncRepo iSyncStateRepo, logger *slog.Logger) *service {
	return &service{
		roomRepo: roomRepo,
		syncRepo: syncRepo,
		logger:   logger,
	}
}
