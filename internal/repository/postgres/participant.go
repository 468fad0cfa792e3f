package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/watchparty/server/internal/domain"
)

type SetParticipantParams struct {
	UserId uuid.UUID
	RoomId uuid.UUID
}

// SetParticipant is idempotent: one active record per (user, room) pair.
func (r repo) SetParticipant(ctx context.Context, params *SetParticipantParams) error {
	query := `
		INSERT INTO room_participants (user_id, room_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, room_id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, params.UserId, params.RoomId); err != nil {
		return fmt.Errorf("failed to set participant: %w", err)
	}

	return nil
}

type RemoveParticipantParams struct {
	UserId uuid.UUID
	RoomId uuid.UUID
}

// RemoveParticipant is a no-op when the record is already gone, since a
// disconnect sweep can race with a manual leave.
func (r repo) RemoveParticipant(ctx context.Context, params *RemoveParticipantParams) error {
	query := `DELETE FROM room_participants WHERE user_id = $1 AND room_id = $2`

	if _, err := r.db.Exec(ctx, query, params.UserId, params.RoomId); err != nil {
		return fmt.Errorf("failed to remove participant: %w", err)
	}

	return nil
}

func (r repo) ListParticipants(ctx context.Context, roomId uuid.UUID) ([]domain.Participant, error) {
	query := `
		SELECT p.user_id, p.room_id, u.username, p.joined_at
		FROM room_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.joined_at
	`

	rows, err := r.db.Query(ctx, query, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	participants := make([]domain.Participant, 0)
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserId, &p.RoomId, &p.Username, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}
