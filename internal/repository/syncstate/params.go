package syncstate

// UpsertParams is a per-field patch. Nil fields are left untouched so
// that concurrent events only contend on the fields they actually
// write. UpdatedAt is always stamped by the repository.
type UpsertParams struct {
	RoomId             string
	CurrentVideoId     *string
	IsPlaying          *bool
	Progress           *float64
	LastEventTimestamp *int64
}

type ClearCurrentVideoParams struct {
	RoomId  string
	VideoId string
}
