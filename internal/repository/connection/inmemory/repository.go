package inmemory

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/watchparty/server/internal/domain"
	"github.com/watchparty/server/internal/repository/connection"
)

// repo maps each live connection to its resolved identity and the set of
// rooms it joined, and each room to its set of live connections. All
// operations are O(1) in the number of rooms per connection.
type repo struct {
	identities map[*websocket.Conn]domain.Identity
	connRooms  map[*websocket.Conn]map[uuid.UUID]struct{}
	roomConns  map[uuid.UUID]map[*websocket.Conn]struct{}
	mu         sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		identities: make(map[*websocket.Conn]domain.Identity),
		connRooms:  make(map[*websocket.Conn]map[uuid.UUID]struct{}),
		roomConns:  make(map[uuid.UUID]map[*websocket.Conn]struct{}),
	}
}

func (r *repo) Bind(conn *websocket.Conn, identity domain.Identity) error {
	funcName := "connection.inmemory.Bind"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "user_id", identity.UserId)
	if _, ok := r.identities[conn]; ok {
		slog.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.identities[conn] = identity

	return nil
}

func (r *repo) Identity(conn *websocket.Conn) (domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[conn]
	if !ok {
		return domain.Identity{}, connection.ErrNotFound
	}

	return identity, nil
}

// Join adds the membership edge and reports whether it was newly created.
// Re-joining an already joined room is a no-op.
func (r *repo) Join(conn *websocket.Conn, roomId uuid.UUID) bool {
	funcName := "connection.inmemory.Join"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "room_id", roomId)
	if _, ok := r.connRooms[conn][roomId]; ok {
		return false
	}

	if r.connRooms[conn] == nil {
		r.connRooms[conn] = make(map[uuid.UUID]struct{})
	}
	r.connRooms[conn][roomId] = struct{}{}

	if r.roomConns[roomId] == nil {
		r.roomConns[roomId] = make(map[*websocket.Conn]struct{})
	}
	r.roomConns[roomId][conn] = struct{}{}

	return true
}

// Leave removes the membership edge and reports whether it existed.
func (r *repo) Leave(conn *websocket.Conn, roomId uuid.UUID) bool {
	funcName := "connection.inmemory.Leave"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName, "room_id", roomId)
	if _, ok := r.connRooms[conn][roomId]; !ok {
		return false
	}

	r.removeEdge(conn, roomId)

	return true
}

func (r *repo) IsMember(conn *websocket.Conn, roomId uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.connRooms[conn][roomId]

	return ok
}

// RoomConns returns all live connections registered to the room.
func (r *repo) RoomConns(roomId uuid.UUID) []*websocket.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(r.roomConns[roomId]))
	for conn := range r.roomConns[roomId] {
		conns = append(conns, conn)
	}

	return conns
}

func (r *repo) Rooms(conn *websocket.Conn) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]uuid.UUID, 0, len(r.connRooms[conn]))
	for roomId := range r.connRooms[conn] {
		rooms = append(rooms, roomId)
	}

	return rooms
}

// Remove unbinds the connection and sweeps all its memberships,
// returning the rooms it belonged to. Safe to call repeatedly: a second
// call finds nothing to sweep.
func (r *repo) Remove(conn *websocket.Conn) []uuid.UUID {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	slog.Debug(funcName)
	rooms := make([]uuid.UUID, 0, len(r.connRooms[conn]))
	for roomId := range r.connRooms[conn] {
		rooms = append(rooms, roomId)
	}

	for _, roomId := range rooms {
		r.removeEdge(conn, roomId)
	}
	delete(r.identities, conn)

	return rooms
}

// removeEdge must be called with the write lock held.
func (r *repo) removeEdge(conn *websocket.Conn, roomId uuid.UUID) {
	delete(r.connRooms[conn], roomId)
	if len(r.connRooms[conn]) == 0 {
		delete(r.connRooms, conn)
	}

	delete(r.roomConns[roomId], conn)
	if len(r.roomConns[roomId]) == 0 {
		delete(r.roomConns, roomId)
	}
}
