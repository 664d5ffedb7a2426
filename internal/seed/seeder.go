package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Astatine-213-Tian/commerce-agent/internal/catalog"
	"github.com/Astatine-213-Tian/commerce-agent/internal/embedding"
)

// Seeder ingests the seed catalog: per product it derives the text vector
// from name + description, captions the product image and embeds the
// caption for the image vector, then inserts product and embedding
// atomically. Re-running is idempotent; existing products are skipped.
type Seeder struct {
	store    *catalog.Store
	provider embedding.Provider
	logger   *slog.Logger
}

// NewSeeder creates a seeder over the given store and provider.
func NewSeeder(store *catalog.Store, provider embedding.Provider, logger *slog.Logger) *Seeder {
	return &Seeder{store: store, provider: provider, logger: logger}
}

// Summary reports what a seeding run did.
type Summary struct {
	Inserted int
	Skipped  int
	Failed   int
}

// Run seeds categories and products. Individual product failures are logged
// and counted but do not abort the run.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	categoryIDs, err := s.ensureCategories(ctx)
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for i, product := range Products {
		s.logger.Info("Seeding product", "index", i+1, "total", len(Products), "name", product.Name)

		categoryID, ok := categoryIDs[product.CategorySlug]
		if !ok {
			s.logger.Warn("Skipping product with unknown category", "name", product.Name, "category", product.CategorySlug)
			summary.Failed++
			continue
		}

		inserted, err := s.seedProduct(ctx, categoryID, product)
		switch {
		case err != nil:
			s.logger.Warn("Failed to seed product", "name", product.Name, "error", err)
			summary.Failed++
		case inserted:
			summary.Inserted++
		default:
			summary.Skipped++
		}
	}

	s.logger.Info("Seeding finished",
		"inserted", summary.Inserted, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// ensureCategories inserts missing categories and returns slug -> id.
func (s *Seeder) ensureCategories(ctx context.Context) (map[string]string, error) {
	ids := make(map[string]string, len(Categories))
	for _, c := range Categories {
		existing, err := s.store.CategoryBySlug(ctx, c.Slug)
		if err == nil {
			ids[c.Slug] = existing.ID
			continue
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("failed to check category %q: %w", c.Slug, err)
		}
		id, err := s.store.InsertCategory(ctx, c.Name, c.Slug, c.Description)
		if err != nil {
			return nil, err
		}
		ids[c.Slug] = id
	}
	return ids, nil
}

func (s *Seeder) seedProduct(ctx context.Context, categoryID string, product SeedProduct) (bool, error) {
	_, err := s.store.ProductByName(ctx, categoryID, product.Name)
	if err == nil {
		s.logger.Info("Product already seeded", "name", product.Name)
		return false, nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return false, fmt.Errorf("failed to check for existing product: %w", err)
	}

	textVec, err := s.provider.EmbedText(ctx, product.Name+". "+product.Description)
	if err != nil {
		return false, fmt.Errorf("text embedding failed: %w", err)
	}

	caption, err := s.provider.DescribeImage(ctx, product.ImageURL)
	if err != nil {
		return false, fmt.Errorf("image captioning failed: %w", err)
	}
	imageVec, err := s.provider.EmbedText(ctx, caption)
	if err != nil {
		return false, fmt.Errorf("caption embedding failed: %w", err)
	}

	_, err = s.store.InsertProduct(ctx, catalog.ProductInput{
		Name:           product.Name,
		Brand:          product.Brand,
		Description:    product.Description,
		Price:          product.Price,
		CategoryID:     categoryID,
		ImageURL:       product.ImageURL,
		TextEmbedding:  textVec,
		ImageEmbedding: imageVec,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
