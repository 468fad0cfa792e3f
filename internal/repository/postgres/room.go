package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/watchparty/server/internal/domain"
)

type CreateRoomParams struct {
	Id        uuid.UUID
	Name      string
	CreatedBy uuid.UUID
}

func (r repo) CreateRoom(ctx context.Context, params *CreateRoomParams) (domain.Room, error) {
	query := `
		INSERT INTO rooms (id, name, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, name, created_by, created_at
	`

	var room domain.Room
	err := r.db.QueryRow(ctx, query, params.Id, params.Name, params.CreatedBy).
		Scan(&room.Id, &room.Name, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		return domain.Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (r repo) GetRoom(ctx context.Context, id uuid.UUID) (domain.Room, error) {
	query := `
		SELECT id, name, created_by, created_at
		FROM rooms
		WHERE id = $1
	`

	var room domain.Room
	err := r.db.QueryRow(ctx, query, id).
		Scan(&room.Id, &room.Name, &room.CreatedBy, &room.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, ErrNotFound
		}
		return domain.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (r repo) ListRooms(ctx context.Context, limit, offset int) ([]domain.Room, error) {
	query := `
		SELECT id, name, created_by, created_at
		FROM rooms
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.Id, &room.Name, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r repo) ListRoomsByParticipant(ctx context.Context, userId uuid.UUID) ([]domain.Room, error) {
	query := `
		SELECT r.id, r.name, r.created_by, r.created_at
		FROM rooms r
		JOIN room_participants p ON p.room_id = r.id
		WHERE p.user_id = $1
		ORDER BY p.joined_at DESC
	`

	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms by participant: %w", err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.Id, &room.Name, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r repo) RemoveRoom(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove room: %w", err)
	}

	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
