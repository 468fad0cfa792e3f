package syncstate

// State is the stored playback record for a room. CurrentVideoId is
// empty when no video is selected. UpdatedAt is server unix
// milliseconds, LastEventTimestamp is the client-supplied logical time
// of the last accepted control event.
type State struct {
	CurrentVideoId     string  `redis:"current_video_id"`
	IsPlaying          bool    `redis:"is_playing"`
	Progress           float64 `redis:"progress"`
	LastEventTimestamp int64   `redis:"last_event_timestamp"`
	UpdatedAt          int64   `redis:"updated_at"`
}
