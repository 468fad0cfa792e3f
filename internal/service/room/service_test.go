package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
	"github.com/watchparty/server/internal/repository/syncstate"
	syncredis "github.com/watchparty/server/internal/repository/syncstate/redis"
)

type fakeRepo struct {
	users        map[uuid.UUID]domain.User
	rooms        map[uuid.UUID]domain.Room
	videos       map[uuid.UUID]domain.Video
	participants map[[2]uuid.UUID]struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:        make(map[uuid.UUID]domain.User),
		rooms:        make(map[uuid.UUID]domain.Room),
		videos:       make(map[uuid.UUID]domain.Video),
		participants: make(map[[2]uuid.UUID]struct{}),
	}
}

func (f *fakeRepo) CreateRoom(_ context.Context, params *postgres.CreateRoomParams) (domain.Room, error) {
	room := domain.Room{Id: params.Id, Name: params.Name, CreatedBy: params.CreatedBy, CreatedAt: time.Now()}
	f.rooms[params.Id] = room
	return room, nil
}

func (f *fakeRepo) GetRoom(_ context.Context, id uuid.UUID) (domain.Room, error) {
	room, ok := f.rooms[id]
	if !ok {
		return domain.Room{}, postgres.ErrNotFound
	}
	return room, nil
}

func (f *fakeRepo) ListRooms(_ context.Context, limit, offset int) ([]domain.Room, error) {
	rooms := make([]domain.Room, 0, len(f.rooms))
	for _, room := range f.rooms {
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func (f *fakeRepo) ListRoomsByParticipant(_ context.Context, userId uuid.UUID) ([]domain.Room, error) {
	var rooms []domain.Room
	for key := range f.participants {
		if key[0] == userId {
			rooms = append(rooms, f.rooms[key[1]])
		}
	}
	return rooms, nil
}

func (f *fakeRepo) RemoveRoom(_ context.Context, id uuid.UUID) error {
	if _, ok := f.rooms[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.rooms, id)
	for videoId, video := range f.videos {
		if video.RoomId == id {
			delete(f.videos, videoId)
		}
	}
	return nil
}

func (f *fakeRepo) CreateVideo(_ context.Context, params *postgres.CreateVideoParams) (domain.Video, error) {
	video := domain.Video{
		Id:       params.Id,
		RoomId:   params.RoomId,
		Title:    params.Title,
		URL:      params.URL,
		Duration: params.Duration,
		AddedBy:  params.AddedBy,
		AddedAt:  time.Now(),
	}
	f.videos[params.Id] = video
	return video, nil
}

func (f *fakeRepo) GetVideo(_ context.Context, id uuid.UUID) (domain.Video, error) {
	video, ok := f.videos[id]
	if !ok {
		return domain.Video{}, postgres.ErrNotFound
	}
	return video, nil
}

func (f *fakeRepo) ListVideos(_ context.Context, roomId uuid.UUID) ([]domain.Video, error) {
	videos := make([]domain.Video, 0)
	for _, video := range f.videos {
		if video.RoomId == roomId {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (f *fakeRepo) RemoveVideo(_ context.Context, id uuid.UUID) error {
	if _, ok := f.videos[id]; !ok {
		return postgres.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeRepo) SetParticipant(_ context.Context, params *postgres.SetParticipantParams) error {
	f.participants[[2]uuid.UUID{params.UserId, params.RoomId}] = struct{}{}
	return nil
}

func (f *fakeRepo) ListParticipants(_ context.Context, roomId uuid.UUID) ([]domain.Participant, error) {
	participants := make([]domain.Participant, 0)
	for key := range f.participants {
		if key[1] == roomId {
			participants = append(participants, domain.Participant{UserId: key[0], RoomId: roomId})
		}
	}
	return participants, nil
}

func (f *fakeRepo) GetUser(_ context.Context, id uuid.UUID) (domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return domain.User{}, postgres.ErrNotFound
	}
	return user, nil
}

type testEnv struct {
	service  *service
	repo     *fakeRepo
	syncRepo iSyncStateRepo
	rc       *redis.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})

	repo := newFakeRepo()
	syncRepo := syncredis.NewRepo(rc, time.Hour)

	return &testEnv{
		service:  NewService(repo, syncRepo, slog.Default()),
		repo:     repo,
		syncRepo: syncRepo,
		rc:       rc,
	}
}

func TestCreateAndGetRoomDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	room, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "movie night", CreatedBy: owner})
	require.NoError(t, err)
	assert.Equal(t, "movie night", room.Name)

	video, err := env.service.AddVideo(ctx, &AddVideoParams{
		RoomId:  room.Id,
		Title:   "intro",
		URL:     "https://example.com/intro.mp4",
		AddedBy: owner,
	})
	require.NoError(t, err)

	detail, err := env.service.GetRoomDetail(ctx, room.Id)
	require.NoError(t, err)
	assert.Equal(t, room.Id, detail.Room.Id)
	require.Len(t, detail.Videos, 1)
	assert.Equal(t, video.Id, detail.Videos[0].Id)
}

func TestGetRoomDetailNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.GetRoomDetail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestAddVideoUnknownRoom(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.AddVideo(context.Background(), &AddVideoParams{
		RoomId: uuid.New(),
		Title:  "intro",
		URL:    "https://example.com/intro.mp4",
	})
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRemoveVideoClearsCurrentVideoPointer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	room, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "room", CreatedBy: owner})
	require.NoError(t, err)
	video, err := env.service.AddVideo(ctx, &AddVideoParams{
		RoomId:  room.Id,
		Title:   "v",
		URL:     "https://example.com/v.mp4",
		AddedBy: owner,
	})
	require.NoError(t, err)

	// the room is currently playing this video
	videoId := video.Id.String()
	syncRepo := syncredis.NewRepo(env.rc, time.Hour)
	_, err = syncRepo.Upsert(ctx, &syncstate.UpsertParams{
		RoomId:         room.Id.String(),
		CurrentVideoId: &videoId,
	})
	require.NoError(t, err)

	require.NoError(t, env.service.RemoveVideo(ctx, &RemoveVideoParams{RoomId: room.Id, VideoId: video.Id}))

	stored, found, err := syncRepo.Get(ctx, room.Id.String())
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, stored.CurrentVideoId, "deleting the playing video must null the pointer")
}

func TestRemoveVideoKeepsPointerToOtherVideo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	room, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "room", CreatedBy: owner})
	require.NoError(t, err)
	playing, err := env.service.AddVideo(ctx, &AddVideoParams{
		RoomId: room.Id, Title: "a", URL: "https://example.com/a.mp4", AddedBy: owner,
	})
	require.NoError(t, err)
	other, err := env.service.AddVideo(ctx, &AddVideoParams{
		RoomId: room.Id, Title: "b", URL: "https://example.com/b.mp4", AddedBy: owner,
	})
	require.NoError(t, err)

	playingId := playing.Id.String()
	syncRepo := syncredis.NewRepo(env.rc, time.Hour)
	_, err = syncRepo.Upsert(ctx, &syncstate.UpsertParams{
		RoomId:         room.Id.String(),
		CurrentVideoId: &playingId,
	})
	require.NoError(t, err)

	require.NoError(t, env.service.RemoveVideo(ctx, &RemoveVideoParams{RoomId: room.Id, VideoId: other.Id}))

	stored, _, err := syncRepo.Get(ctx, room.Id.String())
	require.NoError(t, err)
	assert.Equal(t, playingId, stored.CurrentVideoId, "removing another video must not touch the pointer")
}

func TestRemoveVideoCrossRoom(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	roomA, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "a", CreatedBy: owner})
	require.NoError(t, err)
	roomB, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "b", CreatedBy: owner})
	require.NoError(t, err)
	video, err := env.service.AddVideo(ctx, &AddVideoParams{
		RoomId: roomB.Id, Title: "v", URL: "https://example.com/v.mp4", AddedBy: owner,
	})
	require.NoError(t, err)

	err = env.service.RemoveVideo(ctx, &RemoveVideoParams{RoomId: roomA.Id, VideoId: video.Id})
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, getErr := env.repo.GetVideo(ctx, video.Id)
	assert.NoError(t, getErr, "video in the other room must survive")
}

func TestRemoveRoomDropsSyncState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	room, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "room", CreatedBy: uuid.New()})
	require.NoError(t, err)

	isPlaying := true
	syncRepo := syncredis.NewRepo(env.rc, time.Hour)
	_, err = syncRepo.Upsert(ctx, &syncstate.UpsertParams{
		RoomId:    room.Id.String(),
		IsPlaying: &isPlaying,
	})
	require.NoError(t, err)

	require.NoError(t, env.service.RemoveRoom(ctx, room.Id))

	_, found, err := syncRepo.Get(ctx, room.Id.String())
	require.NoError(t, err)
	assert.False(t, found)

	err = env.service.RemoveRoom(ctx, room.Id)
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestInviteParticipant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	userId := uuid.New()
	env.repo.users[userId] = domain.User{Id: userId, Username: "alice"}

	room, err := env.service.CreateRoom(ctx, &CreateRoomParams{Name: "room", CreatedBy: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, env.service.InviteParticipant(ctx, &InviteParticipantParams{RoomId: room.Id, UserId: userId}))

	rooms, err := env.service.MyRooms(ctx, userId)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, room.Id, rooms[0].Id)

	err = env.service.InviteParticipant(ctx, &InviteParticipantParams{RoomId: room.Id, UserId: uuid.New()})
	assert.ErrorIs(t, err, ErrUserNotFound)
}
