package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/postgres"
	"github.com/watchparty/server/internal/repository/syncstate"
)

// SyncUpdate is the state snapshot broadcast to clients. Video carries
// the url and title of the current video when one is selected.
type SyncUpdate struct {
	State domain.SyncState
	Video *domain.Video
}

// ControlResponse reports whether a control event was accepted. Applied
// is false when the event lost the last-writer-wins race; that is a
// silent drop, not an error.
type ControlResponse struct {
	Applied bool
	Update  SyncUpdate
	Conns   []*websocket.Conn
}

// applyGuarded performs the ordered write for play/pause/seek: the
// incoming timestamp must be newer than the stored one, and after the
// write the record is read back in the same transaction. Broadcast is
// allowed only if the read-back still carries the timestamp just
// applied, which guards against a newer event racing in between.
func (s service) applyGuarded(ctx context.Context, roomId uuid.UUID, timestamp int64, patch *syncstate.UpsertParams) (domain.SyncState, bool, error) {
	stored, found, err := s.syncRepo.Get(ctx, roomId.String())
	if err != nil {
		return domain.SyncState{}, false, fmt.Errorf("failed to get sync state: %w", err)
	}

	if found && timestamp <= stored.LastEventTimestamp {
		return domain.SyncState{}, false, nil
	}

	patch.RoomId = roomId.String()
	patch.LastEventTimestamp = &timestamp

	after, err := s.syncRepo.Upsert(ctx, patch)
	if err != nil {
		return domain.SyncState{}, false, fmt.Errorf("failed to upsert sync state: %w", err)
	}

	if after.LastEventTimestamp != timestamp {
		return domain.SyncState{}, false, nil
	}

	return toDomainState(roomId, after), true, nil
}

// update joins the current video record onto a state snapshot. A
// dangling pointer (video deleted concurrently) degrades to a nil
// video rather than an error.
func (s service) update(ctx context.Context, state domain.SyncState) SyncUpdate {
	out := SyncUpdate{State: state}

	if state.CurrentVideoId != nil {
		video, err := s.roomRepo.GetVideo(ctx, *state.CurrentVideoId)
		if err != nil {
			if !errors.Is(err, postgres.ErrNotFound) {
				s.logger.WarnContext(ctx, "failed to get current video", "error", err)
			}
			return out
		}
		out.Video = &video
	}

	return out
}

type PlayParams struct {
	Conn      *websocket.Conn
	RoomId    uuid.UUID
	Timestamp int64
}

func (s service) Play(ctx context.Context, params *PlayParams) (ControlResponse, error) {
	if _, err := s.identity(params.Conn); err != nil {
		return ControlResponse{}, err
	}

	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return ControlResponse{}, err
	}

	isPlaying := true
	state, applied, err := s.applyGuarded(ctx, params.RoomId, params.Timestamp, &syncstate.UpsertParams{
		IsPlaying: &isPlaying,
	})
	if err != nil {
		return ControlResponse{}, err
	}
	if !applied {
		return ControlResponse{}, nil
	}

	return ControlResponse{
		Applied: true,
		Update:  s.update(ctx, state),
		Conns:   s.othersConns(params.RoomId, params.Conn),
	}, nil
}

type PauseParams struct {
	Conn      *websocket.Conn
	RoomId    uuid.UUID
	Timestamp int64
}

func (s service) Pause(ctx context.Context, params *PauseParams) (ControlResponse, error) {
	if _, err := s.identity(params.Conn); err != nil {
		return ControlResponse{}, err
	}

	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return ControlResponse{}, err
	}

	isPlaying := false
	state, applied, err := s.applyGuarded(ctx, params.RoomId, params.Timestamp, &syncstate.UpsertParams{
		IsPlaying: &isPlaying,
	})
	if err != nil {
		return ControlResponse{}, err
	}
	if !applied {
		return ControlResponse{}, nil
	}

	return ControlResponse{
		Applied: true,
		Update:  s.update(ctx, state),
		Conns:   s.othersConns(params.RoomId, params.Conn),
	}, nil
}

type SeekParams struct {
	Conn      *websocket.Conn
	RoomId    uuid.UUID
	Time      float64
	Timestamp int64
}

// Seek patches only progress, leaving is_playing to whichever event
// last touched it.
func (s service) Seek(ctx context.Context, params *SeekParams) (ControlResponse, error) {
	if _, err := s.identity(params.Conn); err != nil {
		return ControlResponse{}, err
	}

	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return ControlResponse{}, err
	}

	state, applied, err := s.applyGuarded(ctx, params.RoomId, params.Timestamp, &syncstate.UpsertParams{
		Progress: &params.Time,
	})
	if err != nil {
		return ControlResponse{}, err
	}
	if !applied {
		return ControlResponse{}, nil
	}

	return ControlResponse{
		Applied: true,
		Update:  s.update(ctx, state),
		Conns:   s.othersConns(params.RoomId, params.Conn),
	}, nil
}

type ChangeVideoParams struct {
	Conn      *websocket.Conn
	RoomId    uuid.UUID
	VideoId   uuid.UUID
	Timestamp int64
}

// ChangeVideo is authoritative: a video switch always wins and always
// broadcasts, to the whole room including the sender, regardless of
// timestamp ordering.
func (s service) ChangeVideo(ctx context.Context, params *ChangeVideoParams) (ControlResponse, error) {
	if _, err := s.identity(params.Conn); err != nil {
		return ControlResponse{}, err
	}

	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return ControlResponse{}, err
	}

	video, err := s.roomRepo.GetVideo(ctx, params.VideoId)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return ControlResponse{}, ErrVideoNotFound
		}
		return ControlResponse{}, fmt.Errorf("failed to get video: %w", err)
	}
	if video.RoomId != params.RoomId {
		return ControlResponse{}, ErrVideoNotFound
	}

	videoId := params.VideoId.String()
	isPlaying := false
	progress := 0.0
	after, err := s.syncRepo.Upsert(ctx, &syncstate.UpsertParams{
		RoomId:             params.RoomId.String(),
		CurrentVideoId:     &videoId,
		IsPlaying:          &isPlaying,
		Progress:           &progress,
		LastEventTimestamp: &params.Timestamp,
	})
	if err != nil {
		return ControlResponse{}, fmt.Errorf("failed to upsert sync state: %w", err)
	}

	return ControlResponse{
		Applied: true,
		Update: SyncUpdate{
			State: toDomainState(params.RoomId, after),
			Video: &video,
		},
		Conns: s.registry.RoomConns(params.RoomId),
	}, nil
}

type RequestSyncParams struct {
	Conn   *websocket.Conn
	RoomId uuid.UUID
}

// RequestSync is read-only: a room with no prior control events yields
// the default state without creating a record as a side effect.
func (s service) RequestSync(ctx context.Context, params *RequestSyncParams) (SyncUpdate, error) {
	if _, err := s.getRoom(ctx, params.RoomId); err != nil {
		return SyncUpdate{}, err
	}

	stored, found, err := s.syncRepo.Get(ctx, params.RoomId.String())
	if err != nil {
		return SyncUpdate{}, fmt.Errorf("failed to get sync state: %w", err)
	}

	if !found {
		return SyncUpdate{State: defaultState(params.RoomId)}, nil
	}

	return s.update(ctx, toDomainState(params.RoomId, stored)), nil
}
