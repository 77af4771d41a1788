package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tOgg1/busview/internal/models"
)

// Capture repository errors.
var (
	ErrCaptureNotFound = errors.New("capture not found")
	ErrInvalidEvent    = errors.New("invalid event")
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// CaptureRepository persists captures and their events.
type CaptureRepository struct {
	db *DB
}

// NewCaptureRepository creates a new CaptureRepository.
func NewCaptureRepository(db *DB) *CaptureRepository {
	return &CaptureRepository{db: db}
}

// Create inserts a capture, assigning an ID and creation time when unset.
func (r *CaptureRepository) Create(ctx context.Context, capture *models.Capture) error {
	if strings.TrimSpace(capture.Name) == "" {
		return fmt.Errorf("capture name is required")
	}
	if capture.ID == "" {
		capture.ID = uuid.New().String()
	}
	if capture.CreatedAt.IsZero() {
		capture.CreatedAt = time.Now().UTC()
	}

	var sourcePath *string
	if capture.SourcePath != "" {
		sourcePath = &capture.SourcePath
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO captures (id, name, source_path, created_at) VALUES (?, ?, ?, ?)
	`, capture.ID, capture.Name, sourcePath, capture.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("failed to insert capture: %w", err)
	}
	return nil
}

// AppendEvents stores events after the capture's existing ones, in order.
func (r *CaptureRepository) AppendEvents(ctx context.Context, captureID string, events []*models.CanEvent) error {
	for i, e := range events {
		if e == nil {
			return fmt.Errorf("%w: event %d is nil", ErrInvalidEvent, i)
		}
		if err := e.Validate(); err != nil {
			return fmt.Errorf("%w: event %d: %w", ErrInvalidEvent, i, err)
		}
	}

	return r.db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		var next int64
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(seq) + 1, 0) FROM can_events WHERE capture_id = ?
		`, captureID).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read event sequence: %w", err)
		}

		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM captures WHERE id = ?`, captureID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to look up capture: %w", err)
		}
		if exists == 0 {
			return ErrCaptureNotFound
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO can_events (capture_id, seq, source, address, mono_time, data)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare event insert: %w", err)
		}
		defer stmt.Close()

		for _, e := range events {
			data := e.Data
			if data == nil {
				data = []byte{}
			}
			if _, err := stmt.ExecContext(ctx, captureID, next, int64(e.Source), int64(e.Address), int64(e.MonoTime), data); err != nil {
				return fmt.Errorf("failed to insert event: %w", err)
			}
			next++
		}
		return nil
	})
}

// Get retrieves a capture by ID.
func (r *CaptureRepository) Get(ctx context.Context, id string) (*models.Capture, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.source_path, c.created_at,
			(SELECT COUNT(1) FROM can_events e WHERE e.capture_id = c.id)
		FROM captures c WHERE c.id = ?
	`, id)
	return scanCapture(row)
}

// Latest returns the most recently created capture.
func (r *CaptureRepository) Latest(ctx context.Context) (*models.Capture, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.source_path, c.created_at,
			(SELECT COUNT(1) FROM can_events e WHERE e.capture_id = c.id)
		FROM captures c ORDER BY c.created_at DESC, c.rowid DESC LIMIT 1
	`)
	return scanCapture(row)
}

// List returns every capture, oldest first.
func (r *CaptureRepository) List(ctx context.Context) ([]*models.Capture, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.source_path, c.created_at,
			(SELECT COUNT(1) FROM can_events e WHERE e.capture_id = c.id)
		FROM captures c ORDER BY c.created_at, c.rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query captures: %w", err)
	}
	defer rows.Close()

	var captures []*models.Capture
	for rows.Next() {
		capture, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		captures = append(captures, capture)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating captures: %w", err)
	}
	return captures, nil
}

// LoadEvents returns every event of a capture in recorded order.
func (r *CaptureRepository) LoadEvents(ctx context.Context, captureID string) ([]*models.CanEvent, error) {
	if _, err := r.Get(ctx, captureID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT source, address, mono_time, data
		FROM can_events WHERE capture_id = ?
		ORDER BY mono_time, seq
	`, captureID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.CanEvent
	for rows.Next() {
		var source, address, mono int64
		var data []byte
		if err := rows.Scan(&source, &address, &mono, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &models.CanEvent{
			Source:   uint8(source),
			Address:  uint32(address),
			MonoTime: uint64(mono),
			Data:     data,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Delete removes a capture and its events.
func (r *CaptureRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete capture: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrCaptureNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCapture(row rowScanner) (*models.Capture, error) {
	var capture models.Capture
	var sourcePath sql.NullString
	var createdAt string

	if err := row.Scan(&capture.ID, &capture.Name, &sourcePath, &createdAt, &capture.EventCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCaptureNotFound
		}
		return nil, fmt.Errorf("failed to scan capture: %w", err)
	}
	if sourcePath.Valid {
		capture.SourcePath = sourcePath.String
	}
	if parsed, err := time.Parse(timeFormat, createdAt); err == nil {
		capture.CreatedAt = parsed
	}
	return &capture, nil
}
