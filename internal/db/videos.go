package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ydssx/ai-video-maker/internal/models"
)

// VideoRecord is the persisted shape of a render job.
type VideoRecord struct {
	ID            uuid.UUID
	Title         string
	Status        models.JobStatus
	Progress      int
	OutputPath    sql.NullString
	ThumbnailPath sql.NullString
	Duration      sql.NullFloat64
	Error         sql.NullString
}

// SaveVideo inserts the initial record for a newly submitted job.
func (db *DB) SaveVideo(ctx context.Context, job models.Job, title string) error {
	query := `
		INSERT INTO videos (
			id, title, status, progress, created_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := db.ExecContext(ctx, query, job.ID, title, job.Status, job.Progress, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}
	return nil
}

// UpdateVideo mirrors the current job state onto the record.
func (db *DB) UpdateVideo(ctx context.Context, job models.Job) error {
	query := `
		UPDATE videos
		SET status = $2, progress = $3, output_path = $4,
		    thumbnail_path = $5, duration = $6, error_message = $7
		WHERE id = $1
	`

	_, err := db.ExecContext(
		ctx, query,
		job.ID, job.Status, job.Progress,
		nullString(job.OutputPath), nullString(job.ThumbnailPath),
		nullFloat(job.Duration), nullString(job.Error),
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}
	return nil
}

// GetVideo loads one record, for inspection of past renders.
func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*VideoRecord, error) {
	query := `
		SELECT id, title, status, progress, output_path,
		       thumbnail_path, duration, error_message
		FROM videos
		WHERE id = $1
	`

	rec := &VideoRecord{}
	err := db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.Title, &rec.Status, &rec.Progress,
		&rec.OutputPath, &rec.ThumbnailPath, &rec.Duration, &rec.Error,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}
