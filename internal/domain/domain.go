package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is a resolved bearer credential.
type Identity struct {
	UserId   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

type Room struct {
	Id        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Video is immutable once created. It is owned by its room and weakly
// referenced by the room's sync state.
type Video struct {
	Id       uuid.UUID `json:"id"`
	RoomId   uuid.UUID `json:"room_id"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Duration *float64  `json:"duration"`
	AddedBy  uuid.UUID `json:"added_by"`
	AddedAt  time.Time `json:"added_at"`
}

type Participant struct {
	UserId   uuid.UUID `json:"user_id"`
	RoomId   uuid.UUID `json:"room_id"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
}

// SyncState is the authoritative playback state of a room.
// LastEventTimestamp is the client-supplied logical time of the most
// recently accepted control event, not a server clock.
type SyncState struct {
	RoomId             uuid.UUID  `json:"room_id"`
	CurrentVideoId     *uuid.UUID `json:"current_video_id"`
	IsPlaying          bool       `json:"is_playing"`
	Progress           float64    `json:"progress"`
	LastEventTimestamp int64      `json:"last_event_timestamp"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ChatMessage is an ephemeral fan-out payload, never persisted.
type ChatMessage struct {
	Id        uuid.UUID `json:"message_id"`
	RoomId    uuid.UUID `json:"room_id"`
	UserId    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
