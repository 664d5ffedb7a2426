package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Astatine-213-Tian/commerce-agent/internal/catalog"
	"github.com/Astatine-213-Tian/commerce-agent/internal/search"
)

// Searcher is the slice of the search engine the shopping tools call.
type Searcher interface {
	SearchByText(ctx context.Context, query string, opts search.Options) ([]search.Result, error)
	SearchByImage(ctx context.Context, imageRef string, opts search.Options) ([]search.Result, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
}

// RegisterShoppingTools registers the three product tools on the registry:
// searchProductsByText, searchProductsByImage, and listCategories.
func RegisterShoppingTools(registry *Registry, engine Searcher) error {
	shopping := &shoppingTools{engine: engine}

	toolset := []*Tool{
		{
			Name: "searchProductsByText",
			Description: "Search for products using a text description. Returns up to 10 products " +
				"ranked by relevance with name, brand, price, category, description, and image URL.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"textQuery":  map[string]any{"type": "string", "description": "The search query (e.g., 'wireless headphones', 'red sneakers')"},
					"minPrice":   map[string]any{"type": "number", "description": "Optional minimum price filter in dollars (inclusive)"},
					"maxPrice":   map[string]any{"type": "number", "description": "Optional maximum price filter in dollars (inclusive)"},
					"categoryId": map[string]any{"type": "string", "description": "Optional category id to restrict results to"},
					"category":   map[string]any{"type": "string", "description": "Optional category name; resolved against the catalog, tolerating small transcription errors"},
				},
				"required": []string{"textQuery"},
			},
			Handler: shopping.handleTextSearch,
		},
		{
			Name: "searchProductsByImage",
			Description: "Search for products similar to an uploaded image. Accepts an image URL or " +
				"a storage id of a previously uploaded image. Returns up to 10 similar products with details.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"imageUrl":   map[string]any{"type": "string", "description": "URL or storage id of the query image"},
					"minPrice":   map[string]any{"type": "number", "description": "Optional minimum price filter in dollars (inclusive)"},
					"maxPrice":   map[string]any{"type": "number", "description": "Optional maximum price filter in dollars (inclusive)"},
					"categoryId": map[string]any{"type": "string", "description": "Optional category id to restrict results to"},
					"category":   map[string]any{"type": "string", "description": "Optional category name; resolved against the catalog"},
				},
				"required": []string{"imageUrl"},
			},
			Handler: shopping.handleImageSearch,
		},
		{
			Name:        "listCategories",
			Description: "List all product categories with their ids, names, and descriptions.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
			Handler: shopping.handleListCategories,
		},
	}

	for _, tool := range toolset {
		if err := registry.Register(tool); err != nil {
			return fmt.Errorf("failed to register %s: %w", tool.Name, err)
		}
	}
	return nil
}

type shoppingTools struct {
	engine Searcher
}

func (t *shoppingTools) handleTextSearch(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, err := requiredString(args, "textQuery")
	if err != nil {
		return nil, err
	}
	opts, err := t.searchOptions(ctx, args)
	if err != nil {
		return nil, err
	}

	results, err := t.engine.SearchByText(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results, "count": len(results)}, nil
}

func (t *shoppingTools) handleImageSearch(ctx context.Context, args map[string]any) (map[string]any, error) {
	imageRef, err := requiredString(args, "imageUrl")
	if err != nil {
		return nil, err
	}
	opts, err := t.searchOptions(ctx, args)
	if err != nil {
		return nil, err
	}

	results, err := t.engine.SearchByImage(ctx, imageRef, opts)
	if err != nil {
		return nil, err
	}
	return map[string]any{"results": results, "count": len(results)}, nil
}

func (t *shoppingTools) handleListCategories(ctx context.Context, _ map[string]any) (map[string]any, error) {
	categories, err := t.engine.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"categories": categories, "count": len(categories)}, nil
}

// searchOptions extracts the optional price and category filters shared by
// both search tools.
func (t *shoppingTools) searchOptions(ctx context.Context, args map[string]any) (search.Options, error) {
	var opts search.Options
	var err error

	if opts.MinPrice, err = optionalNumber(args, "minPrice"); err != nil {
		return opts, err
	}
	if opts.MaxPrice, err = optionalNumber(args, "maxPrice"); err != nil {
		return opts, err
	}
	if opts.CategoryID, err = t.resolveCategory(ctx, args); err != nil {
		return opts, err
	}
	return opts, nil
}

// resolveCategory produces a category id from either an explicit categoryId
// argument or a spoken category name. Name resolution tries exact name and
// slug matches first, then falls back to fuzzy matching.
func (t *shoppingTools) resolveCategory(ctx context.Context, args map[string]any) (string, error) {
	if id, ok := args["categoryId"].(string); ok && id != "" {
		return id, nil
	}
	name, ok := args["category"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", nil
	}

	categories, err := t.engine.ListCategories(ctx)
	if err != nil {
		return "", err
	}

	for _, c := range categories {
		if strings.EqualFold(c.Name, name) || strings.EqualFold(c.Slug, name) {
			return c.ID, nil
		}
	}
	for _, c := range categories {
		if fuzzyMatch(name, c.Name) || fuzzyMatch(name, c.Slug) {
			return c.ID, nil
		}
	}
	return "", &search.Error{
		Kind: search.KindInvalidArgument,
		Op:   "tools.resolveCategory",
		Err:  fmt.Errorf("unknown category %q", name),
	}
}

func requiredString(args map[string]any, key string) (string, error) {
	value, ok := args[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", &search.Error{
			Kind: search.KindInvalidArgument,
			Op:   "tools." + key,
			Err:  fmt.Errorf("%s is required", key),
		}
	}
	return value, nil
}

func optionalNumber(args map[string]any, key string) (*float64, error) {
	raw, present := args[key]
	if !present || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		return &v, nil
	case int:
		f := float64(v)
		return &f, nil
	default:
		return nil, &search.Error{
			Kind: search.KindInvalidArgument,
			Op:   "tools." + key,
			Err:  fmt.Errorf("%s must be a number, got %T", key, raw),
		}
	}
}
