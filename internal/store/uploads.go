package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

// Upload is a dataset file persisted for one visualizer session.
type Upload struct {
	ID         uuid.UUID
	Name       string
	Content    []byte
	UploadedAt time.Time
}

// SaveUpload stores an uploaded file under the session id, replacing any
// previous upload for that session.
func (s *Store) SaveUpload(ctx context.Context, id uuid.UUID, name string, content []byte) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO uploads (id, name, content, uploaded_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			content = excluded.content,
			uploaded_at = CURRENT_TIMESTAMP
	`, id.String(), name, content)
	if err != nil {
		return fmt.Errorf("store: save upload %s: %w", id, err)
	}
	return nil
}

// GetUpload fetches the upload for a session id.
func (s *Store) GetUpload(ctx context.Context, id uuid.UUID) (*Upload, error) {
	row := s.QueryRowContext(ctx, `
		SELECT name, content, uploaded_at FROM uploads WHERE id = ?
	`, id.String())

	u := &Upload{ID: id}
	err := row.Scan(&u.Name, &u.Content, &u.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get upload %s: %w", id, err)
	}
	return u, nil
}

// DeleteUpload removes a session's upload. Deleting an absent row is not an
// error.
func (s *Store) DeleteUpload(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ExecContext(ctx, `DELETE FROM uploads WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("store: delete upload %s: %w", id, err)
	}
	return nil
}

// PruneUploads deletes uploads older than the cutoff and reports how many
// rows were removed.
func (s *Store) PruneUploads(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.ExecContext(ctx, `DELETE FROM uploads WHERE uploaded_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("store: prune uploads: %w", err)
	}
	return res.RowsAffected()
}
