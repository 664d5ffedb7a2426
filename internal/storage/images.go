package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a storage id has no stored image.
var ErrNotFound = errors.New("storage: image not found")

// Resolver turns a storage id into a fetchable URL.
type Resolver interface {
	ResolveURL(ctx context.Context, id string) (string, error)
}

const imagesSchema = `
CREATE TABLE IF NOT EXISTS stored_images (
    id           TEXT PRIMARY KEY,
    url          TEXT NOT NULL,
    content_type TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL
);
`

// ImageStore records uploaded images and resolves their ids back to URLs.
// It shares the catalog's database.
type ImageStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewImageStore ensures the stored_images table exists on db.
func NewImageStore(db *sqlx.DB, logger *slog.Logger) (*ImageStore, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: db is nil")
	}
	if _, err := db.Exec(imagesSchema); err != nil {
		return nil, fmt.Errorf("failed to apply image storage schema: %w", err)
	}
	return &ImageStore{db: db, logger: logger}, nil
}

// Put records an image URL and returns its generated storage id.
func (s *ImageStore) Put(ctx context.Context, url, contentType string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stored_images (id, url, content_type, created_at) VALUES (?, ?, ?, ?)`,
		id, url, contentType, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	s.logger.Info("Stored image", "id", id, "content_type", contentType)
	return id, nil
}

// ResolveURL returns the URL for a storage id, or ErrNotFound.
func (s *ImageStore) ResolveURL(ctx context.Context, id string) (string, error) {
	var url string
	err := s.db.GetContext(ctx, &url, `SELECT url FROM stored_images WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to resolve image %q: %w", id, err)
	}
	return url, nil
}
