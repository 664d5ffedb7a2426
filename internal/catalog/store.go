package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by point lookups when no row matches.
var ErrNotFound = errors.New("catalog: not found")

const schema = `
CREATE TABLE IF NOT EXISTS categories (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL UNIQUE,
    slug        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS product_embeddings (
    id              TEXT PRIMARY KEY,
    text_embedding  BLOB NOT NULL,
    image_embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    brand        TEXT NOT NULL DEFAULT '',
    description  TEXT NOT NULL DEFAULT '',
    price        REAL NOT NULL CHECK (price >= 0),
    category_id  TEXT NOT NULL REFERENCES categories(id),
    image_url    TEXT NOT NULL DEFAULT '',
    embedding_id TEXT NOT NULL UNIQUE REFERENCES product_embeddings(id),
    created_at   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_category_name ON products(category_id, name);
`

// Store is the SQLite-backed catalog: categories, products, and their
// embedding records, with nearest-neighbor search over the two vector
// columns via the registered vec_cosine function.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the catalog database at path. Pass
// ":memory:" for an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	registerVectorFunctions()

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	// Single writer keeps SQLite happy and keeps :memory: databases on one
	// connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply catalog schema: %w", err)
	}

	logger.Info("Opened catalog database", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// DB exposes the underlying connection so collaborators (e.g. the image
// store) can share the same database file.
func (s *Store) DB() *sqlx.DB { return s.db }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// InsertCategory adds a category and returns its generated id.
func (s *Store) InsertCategory(ctx context.Context, name, slug, description string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, slug, description) VALUES (?, ?, ?, ?)`,
		id, name, slug, description)
	if err != nil {
		return "", fmt.Errorf("failed to insert category %q: %w", name, err)
	}
	s.logger.Info("Inserted category", "id", id, "name", name, "slug", slug)
	return id, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.SelectContext(ctx, &categories,
		`SELECT id, name, slug, description FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CategoryByID returns the category with the given id, or ErrNotFound.
func (s *Store) CategoryByID(ctx context.Context, id string) (*Category, error) {
	return s.categoryWhere(ctx, "id", id)
}

// CategoryBySlug returns the category with the given slug, or ErrNotFound.
func (s *Store) CategoryBySlug(ctx context.Context, slug string) (*Category, error) {
	return s.categoryWhere(ctx, "slug", slug)
}

// CategoryByName returns the category with the given name, or ErrNotFound.
func (s *Store) CategoryByName(ctx context.Context, name string) (*Category, error) {
	return s.categoryWhere(ctx, "name", name)
}

func (s *Store) categoryWhere(ctx context.Context, column, value string) (*Category, error) {
	var category Category
	query := fmt.Sprintf(`SELECT id, name, slug, description FROM categories WHERE %s = ?`, column)
	if err := s.db.GetContext(ctx, &category, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up category by %s: %w", column, err)
	}
	return &category, nil
}

// InsertProduct inserts a product together with its embedding record in one
// transaction, so the 1:1 product/embedding relation can never be observed
// half-written. Both vectors must have length EmbeddingDim.
func (s *Store) InsertProduct(ctx context.Context, in ProductInput) (string, error) {
	if len(in.TextEmbedding) != EmbeddingDim {
		return "", fmt.Errorf("catalog: text embedding has %d dimensions, want %d", len(in.TextEmbedding), EmbeddingDim)
	}
	if len(in.ImageEmbedding) != EmbeddingDim {
		return "", fmt.Errorf("catalog: image embedding has %d dimensions, want %d", len(in.ImageEmbedding), EmbeddingDim)
	}
	if in.Price < 0 {
		return "", fmt.Errorf("catalog: negative price %v", in.Price)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	embeddingID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO product_embeddings (id, text_embedding, image_embedding) VALUES (?, ?, ?)`,
		embeddingID, EncodeVector(in.TextEmbedding), EncodeVector(in.ImageEmbedding)); err != nil {
		return "", fmt.Errorf("failed to insert embedding: %w", err)
	}

	productID := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO products (id, name, brand, description, price, category_id, image_url, embedding_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		productID, in.Name, in.Brand, in.Description, in.Price, in.CategoryID, in.ImageURL,
		embeddingID, time.Now().UnixMilli()); err != nil {
		return "", fmt.Errorf("failed to insert product %q: %w", in.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit product insert: %w", err)
	}

	s.logger.Info("Inserted product", "id", productID, "name", in.Name, "category_id", in.CategoryID)
	return productID, nil
}

// ProductByName returns the product with the given name within a category,
// or ErrNotFound. Used to keep seeding idempotent.
func (s *Store) ProductByName(ctx context.Context, categoryID, name string) (*Product, error) {
	var product Product
	err := s.db.GetContext(ctx, &product, `
		SELECT p.id, p.name, p.brand, p.description, p.price, p.category_id,
		       c.name AS category_name, p.image_url, p.embedding_id, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.category_id = ? AND p.name = ?`, categoryID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up product %q: %w", name, err)
	}
	return &product, nil
}

// ProductsByEmbeddingIDs hydrates embedding record ids into full products in
// a single batched query. Ids with no owning product are simply absent from
// the result.
func (s *Store) ProductsByEmbeddingIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT p.id, p.name, p.brand, p.description, p.price, p.category_id,
		       c.name AS category_name, p.image_url, p.embedding_id, p.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		WHERE p.embedding_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build hydration query: %w", err)
	}
	var products []Product
	if err := s.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("failed to hydrate products: %w", err)
	}
	return products, nil
}

// VectorSearch runs a nearest-neighbor search against one of the two vector
// columns and returns up to limit candidates ordered by descending
// similarity. When categoryID is non-empty the category filter is pushed
// into the query so the candidate pool is not wasted on other categories.
func (s *Store) VectorSearch(ctx context.Context, index VectorIndex, queryVec []float32, limit int, categoryID string) ([]Candidate, error) {
	var column string
	switch index {
	case IndexText:
		column = "text_embedding"
	case IndexImage:
		column = "image_embedding"
	default:
		return nil, fmt.Errorf("catalog: unknown vector index %q", index)
	}
	if len(queryVec) != EmbeddingDim {
		return nil, fmt.Errorf("catalog: query vector has %d dimensions, want %d", len(queryVec), EmbeddingDim)
	}
	if limit <= 0 {
		return nil, nil
	}

	blob := EncodeVector(queryVec)

	var (
		candidates []Candidate
		err        error
	)
	if categoryID == "" {
		err = s.db.SelectContext(ctx, &candidates, fmt.Sprintf(`
			SELECT e.id AS id, vec_cosine(e.%s, ?) AS score
			FROM product_embeddings e
			ORDER BY score DESC
			LIMIT ?`, column), blob, limit)
	} else {
		err = s.db.SelectContext(ctx, &candidates, fmt.Sprintf(`
			SELECT e.id AS id, vec_cosine(e.%s, ?) AS score
			FROM product_embeddings e
			JOIN products p ON p.embedding_id = e.id
			WHERE p.category_id = ?
			ORDER BY score DESC
			LIMIT ?`, column), blob, categoryID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search on %s failed: %w", index, err)
	}

	s.logger.Debug("Vector search completed", "index", index, "candidates", len(candidates), "limit", limit)
	return candidates, nil
}
