package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/watchparty/server/internal/repository/syncstate"
)

type repo struct {
	rc               *redis.Client
	expireDuration   time.Duration
	clearVideoScript string
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
		clearVideoScript: rc.ScriptLoad(context.Background(), `
			if redis.call('HGET', KEYS[1], 'current_video_id') == ARGV[1] then
				redis.call('HSET', KEYS[1], 'current_video_id', '')
				return 1
			end
			return 0
		`).Val(),
	}
}

func (r repo) getSyncKey(roomId string) string {
	return "room:" + roomId + ":sync"
}

// Get returns the stored state and whether it exists. A missing record
// is not an error and the read never creates one.
func (r repo) Get(ctx context.Context, roomId string) (syncstate.State, bool, error) {
	syncKey := r.getSyncKey(roomId)
	res, err := r.rc.Exists(ctx, syncKey).Result()
	if err != nil {
		return syncstate.State{}, false, fmt.Errorf("failed to check if sync state exists: %w", err)
	}

	if res == 0 {
		return syncstate.State{}, false, nil
	}

	var state syncstate.State
	if err := r.rc.HGetAll(ctx, syncKey).Scan(&state); err != nil {
		return syncstate.State{}, false, fmt.Errorf("failed to get sync state: %w", err)
	}

	return state, true, nil
}

// Upsert patches the provided fields, stamps updated_at with server
// time and returns the full record as read back in the same
// transaction. The read-back lets callers detect a lost write race by
// comparing last_event_timestamp.
func (r repo) Upsert(ctx context.Context, params *syncstate.UpsertParams) (syncstate.State, error) {
	syncKey := r.getSyncKey(params.RoomId)

	fields := map[string]interface{}{
		"updated_at": time.Now().UnixMilli(),
	}
	if params.CurrentVideoId != nil {
		fields["current_video_id"] = *params.CurrentVideoId
	}
	if params.IsPlaying != nil {
		fields["is_playing"] = *params.IsPlaying
	}
	if params.Progress != nil {
		fields["progress"] = *params.Progress
	}
	if params.LastEventTimestamp != nil {
		fields["last_event_timestamp"] = *params.LastEventTimestamp
	}

	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, syncKey, fields)
	getCmd := pipe.HGetAll(ctx, syncKey)
	pipe.Expire(ctx, syncKey, r.expireDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		return syncstate.State{}, fmt.Errorf("failed to upsert sync state: %w", err)
	}

	var state syncstate.State
	if err := getCmd.Scan(&state); err != nil {
		return syncstate.State{}, fmt.Errorf("failed to scan sync state: %w", err)
	}

	return state, nil
}

// ClearCurrentVideo nulls the current video pointer only if it still
// references the given video, so a concurrent video switch is not
// clobbered. Reports whether the pointer was cleared.
func (r repo) ClearCurrentVideo(ctx context.Context, params *syncstate.ClearCurrentVideoParams) (bool, error) {
	syncKey := r.getSyncKey(params.RoomId)
	res, err := r.rc.EvalSha(ctx, r.clearVideoScript, []string{syncKey}, params.VideoId).Int()
	if err != nil {
		return false, fmt.Errorf("failed to clear current video: %w", err)
	}

	return res == 1, nil
}

func (r repo) Remove(ctx context.Context, roomId string) error {
	syncKey := r.getSyncKey(roomId)
	if err := r.rc.Del(ctx, syncKey).Err(); err != nil {
		return fmt.Errorf("failed to remove sync state: %w", err)
	}

	return nil
}
