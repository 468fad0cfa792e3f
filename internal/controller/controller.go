package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/service/auth"
	"github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/internal/service/sync"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
)

type iSyncService interface {
	Bind(conn *websocket.Conn, identity domain.Identity) error
	Play(context.Context, *sync.PlayParams) (sync.ControlResponse, error)
	Pause(context.Context, *sync.PauseParams) (sync.ControlResponse, error)
	Seek(context.Context, *sync.SeekParams) (sync.ControlResponse, error)
	ChangeVideo(context.Context, *sync.ChangeVideoParams) (sync.ControlResponse, error)
	RequestSync(context.Context, *sync.RequestSyncParams) (sync.SyncUpdate, error)
	JoinRoom(context.Context, *sync.JoinRoomParams) (sync.JoinRoomResponse, error)
	LeaveRoom(context.Context, *sync.LeaveRoomParams) (sync.LeaveRoomResponse, error)
	Disconnect(context.Context, *websocket.Conn) (sync.DisconnectResponse, error)
	Chat(context.Context, *sync.ChatParams) (sync.ChatResponse, error)
}

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (domain.Room, error)
	ListRooms(ctx context.Context, limit, offset int) ([]domain.Room, error)
	MyRooms(context.Context, uuid.UUID) ([]domain.Room, error)
	GetRoomDetail(context.Context, uuid.UUID) (room.RoomDetail, error)
	RemoveRoom(context.Context, uuid.UUID) error
	AddVideo(context.Context, *room.AddVideoParams) (domain.Video, error)
	ListVideos(context.Context, uuid.UUID) ([]domain.Video, error)
	RemoveVideo(context.Context, *room.RemoveVideoParams) error
	InviteParticipant(context.Context, *room.InviteParticipantParams) error
}

type iAuthService interface {
	Register(context.Context, *auth.RegisterParams) (domain.User, error)
	Login(context.Context, *auth.LoginParams) (auth.LoginResponse, error)
	Resolve(ctx context.Context, token string) (domain.Identity, error)
}

type controller struct {
	syncService iSyncService
	roomService iRoomService
	authService iAuthService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(syncService iSyncService, roomService iRoomService, authService iAuthService, logger *slog.Logger) *controller {
	c := controller{
		syncService: syncService,
		roomService: roomService,
		authService: authService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}

	c.wsmux = c.getWSRouter()

	return &c
}
