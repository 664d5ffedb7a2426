package search

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/Astatine-213-Tian/commerce-agent/internal/catalog"
	"github.com/Astatine-213-Tian/commerce-agent/internal/embedding"
	"github.com/Astatine-213-Tian/commerce-agent/internal/storage"
)

// Store is the read-only slice of the catalog the engine needs.
type Store interface {
	VectorSearch(ctx context.Context, index catalog.VectorIndex, queryVec []float32, limit int, categoryID string) ([]catalog.Candidate, error)
	ProductsByEmbeddingIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// Config holds the engine's ranking policy knobs.
type Config struct {
	// ResultLimit caps the returned result list.
	ResultLimit int
	// PoolMultiplier sizes the candidate pool as a multiple of ResultLimit,
	// leaving headroom for threshold and price/category losses.
	PoolMultiplier int
	// TextThreshold is the minimum similarity score for text search results.
	TextThreshold float64
	// ImageThreshold is the minimum similarity score for image search
	// results. Higher than text: caption-mediated similarity is noisier.
	ImageThreshold float64
	// ProviderTimeout bounds each embedding/caption call.
	ProviderTimeout time.Duration
}

// DefaultConfig returns the stock ranking policy.
func DefaultConfig() Config {
	return Config{
		ResultLimit:     10,
		PoolMultiplier:  3,
		TextThreshold:   0.3,
		ImageThreshold:  0.5,
		ProviderTimeout: 30 * time.Second,
	}
}

// Options are the optional per-search filters.
type Options struct {
	MinPrice   *float64
	MaxPrice   *float64
	CategoryID string
}

// Result is one ranked search hit. Score is the raw similarity from the
// vector index; higher is better.
type Result struct {
	ProductID   string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl"`
	Score       float64 `json:"score"`
}

// Engine is the similarity search engine: query vector derivation,
// nearest-neighbor retrieval, hydration, threshold gating, price/category
// filtering, and truncation. It is stateless; concurrent searches are fully
// independent.
type Engine struct {
	store    Store
	provider embedding.Provider
	images   storage.Resolver
	cfg      Config
	logger   *slog.Logger
}

// New creates an engine. images may be nil when bare storage ids are never
// passed to SearchByImage. Zero config fields fall back to DefaultConfig.
func New(store Store, provider embedding.Provider, images storage.Resolver, cfg Config, logger *slog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = def.ResultLimit
	}
	if cfg.PoolMultiplier <= 0 {
		cfg.PoolMultiplier = def.PoolMultiplier
	}
	if cfg.TextThreshold == 0 {
		cfg.TextThreshold = def.TextThreshold
	}
	if cfg.ImageThreshold == 0 {
		cfg.ImageThreshold = def.ImageThreshold
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = def.ProviderTimeout
	}
	return &Engine{store: store, provider: provider, images: images, cfg: cfg, logger: logger}
}

// SearchByText embeds the query and runs the shared pipeline against the
// text-embedding index.
func (e *Engine) SearchByText(ctx context.Context, query string, opts Options) ([]Result, error) {
	const op = "search.SearchByText"

	if strings.TrimSpace(query) == "" {
		return nil, newError(KindInvalidArgument, op, fmt.Errorf("empty query"))
	}

	queryVec, err := e.embedText(ctx, query)
	if err != nil {
		return nil, newError(KindProviderFailure, op, err)
	}

	results, err := e.run(ctx, op, catalog.IndexText, queryVec, e.cfg.TextThreshold, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Text search completed", "query", query, "results", len(results))
	return results, nil
}

// SearchByImage resolves the image reference, captions it, embeds the
// caption, and runs the shared pipeline against the image-embedding index.
// The query image is matched against other images' semantic descriptions,
// not raw pixels.
func (e *Engine) SearchByImage(ctx context.Context, imageRef string, opts Options) ([]Result, error) {
	const op = "search.SearchByImage"

	if strings.TrimSpace(imageRef) == "" {
		return nil, newError(KindInvalidArgument, op, fmt.Errorf("empty image reference"))
	}

	imageURL, err := e.resolveImageURL(ctx, imageRef)
	if err != nil {
		return nil, newError(KindNotFound, op, err)
	}

	deadline, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	caption, err := e.provider.DescribeImage(deadline, imageURL)
	cancel()
	if err != nil {
		return nil, newError(KindProviderFailure, op, fmt.Errorf("image captioning failed: %w", err))
	}

	queryVec, err := e.embedText(ctx, caption)
	if err != nil {
		return nil, newError(KindProviderFailure, op, err)
	}

	results, err := e.run(ctx, op, catalog.IndexImage, queryVec, e.cfg.ImageThreshold, opts)
	if err != nil {
		return nil, err
	}
	e.logger.Info("Image search completed", "image_url", imageURL, "results", len(results))
	return results, nil
}

// ListCategories is a pass-through read so callers can resolve category ids
// before filtering.
func (e *Engine) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	categories, err := e.store.ListCategories(ctx)
	if err != nil {
		return nil, newError(KindStoreFailure, "search.ListCategories", err)
	}
	return categories, nil
}

// run is the shared retrieve → hydrate → gate → filter → truncate pipeline.
// Candidate order from the index (descending similarity) is preserved
// throughout; no re-sorting happens.
func (e *Engine) run(ctx context.Context, op string, index catalog.VectorIndex, queryVec []float32, threshold float64, opts Options) ([]Result, error) {
	poolSize := e.cfg.ResultLimit * e.cfg.PoolMultiplier

	candidates, err := e.store.VectorSearch(ctx, index, queryVec, poolSize, opts.CategoryID)
	if err != nil {
		return nil, newError(KindStoreFailure, op, err)
	}
	if len(candidates) == 0 {
		return []Result{}, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.EmbeddingID
	}
	products, err := e.store.ProductsByEmbeddingIDs(ctx, ids)
	if err != nil {
		return nil, newError(KindStoreFailure, op, err)
	}
	byEmbedding := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byEmbedding[p.EmbeddingID] = p
	}

	results := make([]Result, 0, e.cfg.ResultLimit)
	dropped := 0
	for _, c := range candidates {
		if len(results) == e.cfg.ResultLimit {
			break
		}
		product, ok := byEmbedding[c.EmbeddingID]
		if !ok {
			// Orphaned embedding record; tolerated, not an error.
			dropped++
			continue
		}
		if c.Score < threshold {
			continue
		}
		if !matchesPrice(product.Price, opts.MinPrice, opts.MaxPrice) {
			continue
		}
		if opts.CategoryID != "" && product.CategoryID != opts.CategoryID {
			continue
		}
		results = append(results, Result{
			ProductID:   product.ID,
			Name:        product.Name,
			Brand:       product.Brand,
			Price:       product.Price,
			Category:    product.CategoryName,
			Description: product.Description,
			ImageURL:    product.ImageURL,
			Score:       c.Score,
		})
	}

	if dropped > 0 {
		e.logger.Warn("Dropped orphaned embedding candidates", "count", dropped, "index", index)
	}
	return results, nil
}

func (e *Engine) embedText(ctx context.Context, text string) ([]float32, error) {
	deadline, cancel := context.WithTimeout(ctx, e.cfg.ProviderTimeout)
	defer cancel()

	vec, err := e.provider.EmbedText(deadline, text)
	if err != nil {
		return nil, fmt.Errorf("text embedding failed: %w", err)
	}
	if len(vec) != embedding.Dimension {
		return nil, fmt.Errorf("provider returned %d-dimensional vector, want %d", len(vec), embedding.Dimension)
	}
	return vec, nil
}

// resolveImageURL passes absolute http(s) URLs through and resolves bare
// storage ids via the image resolver.
func (e *Engine) resolveImageURL(ctx context.Context, imageRef string) (string, error) {
	if u, err := url.Parse(imageRef); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return imageRef, nil
	}
	if e.images == nil {
		return "", fmt.Errorf("image reference %q is not a URL and no image store is configured", imageRef)
	}
	resolved, err := e.images.ResolveURL(ctx, imageRef)
	if err != nil {
		return "", fmt.Errorf("failed to resolve image %q: %w", imageRef, err)
	}
	return resolved, nil
}

func matchesPrice(price float64, minPrice, maxPrice *float64) bool {
	if minPrice != nil && price < *minPrice {
		return false
	}
	if maxPrice != nil && price > *maxPrice {
		return false
	}
	return true
}
