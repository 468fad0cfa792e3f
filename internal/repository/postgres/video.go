package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/watchparty/server/internal/domain"
)

type CreateVideoParams struct {
	Id       uuid.UUID
	RoomId   uuid.UUID
	Title    string
	URL      string
	Duration *float64
	AddedBy  uuid.UUID
}

func (r repo) CreateVideo(ctx context.Context, params *CreateVideoParams) (domain.Video, error) {
	query := `
		INSERT INTO videos (id, room_id, title, url, duration, added_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, room_id, title, url, duration, added_by, added_at
	`

	var video domain.Video
	err := r.db.QueryRow(ctx, query,
		params.Id, params.RoomId, params.Title, params.URL, params.Duration, params.AddedBy,
	).Scan(&video.Id, &video.RoomId, &video.Title, &video.URL, &video.Duration, &video.AddedBy, &video.AddedAt)
	if err != nil {
		return domain.Video{}, fmt.Errorf("failed to create video: %w", err)
	}

	return video, nil
}

func (r repo) GetVideo(ctx context.Context, id uuid.UUID) (domain.Video, error) {
	query := `
		SELECT id, room_id, title, url, duration, added_by, added_at
		FROM videos
		WHERE id = $1
	`

	var video domain.Video
	err := r.db.QueryRow(ctx, query, id).
		Scan(&video.Id, &video.RoomId, &video.Title, &video.URL, &video.Duration, &video.AddedBy, &video.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Video{}, ErrNotFound
		}
		return domain.Video{}, fmt.Errorf("failed to get video: %w", err)
	}

	return video, nil
}

func (r repo) ListVideos(ctx context.Context, roomId uuid.UUID) ([]domain.Video, error) {
	query := `
		SELECT id, room_id, title, url, duration, added_by, added_at
		FROM videos
		WHERE room_id = $1
		ORDER BY added_at
	`

	rows, err := r.db.Query(ctx, query, roomId)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]domain.Video, 0)
	for rows.Next() {
		var video domain.Video
		if err := rows.Scan(&video.Id, &video.RoomId, &video.Title, &video.URL,
			&video.Duration, &video.AddedBy, &video.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}

	return videos, rows.Err()
}

func (r repo) RemoveVideo(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	if res.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
