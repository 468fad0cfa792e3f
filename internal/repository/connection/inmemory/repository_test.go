package inmemory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/connection"
)

func TestBind(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}
	identity := domain.Identity{UserId: uuid.New(), Username: "alice"}

	require.NoError(t, r.Bind(conn, identity))

	got, err := r.Identity(conn)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	err = r.Bind(conn, identity)
	assert.ErrorIs(t, err, connection.ErrAlreadyExists)
}

func TestIdentityUnbound(t *testing.T) {
	r := NewRepo()

	_, err := r.Identity(&websocket.Conn{})
	assert.ErrorIs(t, err, connection.ErrNotFound)
}

func TestJoinLeave(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}
	roomId := uuid.New()

	assert.True(t, r.Join(conn, roomId), "first join creates the edge")
	assert.False(t, r.Join(conn, roomId), "re-join is a no-op")
	assert.True(t, r.IsMember(conn, roomId))

	assert.True(t, r.Leave(conn, roomId))
	assert.False(t, r.Leave(conn, roomId), "second leave finds no edge")
	assert.False(t, r.IsMember(conn, roomId))
	assert.Empty(t, r.RoomConns(roomId))
}

func TestRoomConns(t *testing.T) {
	r := NewRepo()
	roomId := uuid.New()
	a := &websocket.Conn{}
	b := &websocket.Conn{}

	r.Join(a, roomId)
	r.Join(b, roomId)
	r.Join(a, uuid.New())

	conns := r.RoomConns(roomId)
	assert.Len(t, conns, 2)
	assert.Contains(t, conns, a)
	assert.Contains(t, conns, b)
}

func TestRemoveSweepsAllRooms(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}
	other := &websocket.Conn{}
	roomA := uuid.New()
	roomB := uuid.New()

	require.NoError(t, r.Bind(conn, domain.Identity{UserId: uuid.New(), Username: "bob"}))
	r.Join(conn, roomA)
	r.Join(conn, roomB)
	r.Join(other, roomA)

	swept := r.Remove(conn)
	assert.ElementsMatch(t, []uuid.UUID{roomA, roomB}, swept)

	assert.False(t, r.IsMember(conn, roomA))
	assert.False(t, r.IsMember(conn, roomB))
	assert.Len(t, r.RoomConns(roomA), 1, "other members stay")

	_, err := r.Identity(conn)
	assert.ErrorIs(t, err, connection.ErrNotFound)

	assert.Empty(t, r.Remove(conn), "second sweep finds nothing")
}

func TestRooms(t *testing.T) {
	r := NewRepo()
	conn := &websocket.Conn{}
	roomA := uuid.New()
	roomB := uuid.New()

	r.Join(conn, roomA)
	r.Join(conn, roomB)

	assert.ElementsMatch(t, []uuid.UUID{roomA, roomB}, r.Rooms(conn))
}
