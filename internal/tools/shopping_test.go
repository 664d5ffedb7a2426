package tools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Astatine-213-Tian/commerce-agent/internal/catalog"
	"github.com/Astatine-213-Tian/commerce-agent/internal/search"
)

// fakeSearcher records the options each search was invoked with.
type fakeSearcher struct {
	results    []search.Result
	categories []catalog.Category
	searchErr  error

	lastQuery    string
	lastImageRef string
	lastOpts     search.Options
}

func (f *fakeSearcher) SearchByText(_ context.Context, query string, opts search.Options) ([]search.Result, error) {
	f.lastQuery = query
	f.lastOpts = opts
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeSearcher) SearchByImage(_ context.Context, imageRef string, opts search.Options) ([]search.Result, error) {
	f.lastImageRef = imageRef
	f.lastOpts = opts
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeSearcher) ListCategories(_ context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}

type ShoppingToolsTestSuite struct {
	suite.Suite
	registry *Registry
	searcher *fakeSearcher
	ctx      context.Context
}

func TestShoppingToolsTestSuite(t *testing.T) {
	suite.Run(t, new(ShoppingToolsTestSuite))
}

func (s *ShoppingToolsTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	s.searcher = &fakeSearcher{
		results: []search.Result{
			{ProductID: "prod-1", Name: "Red Sneakers", Price: 40, Category: "Footwear", Score: 0.9},
		},
		categories: []catalog.Category{
			{ID: "cat-footwear", Name: "Footwear", Slug: "footwear"},
			{ID: "cat-electronics", Name: "Electronics", Slug: "electronics"},
			{ID: "cat-outdoors", Name: "Sports & Outdoors", Slug: "sports-outdoors"},
		},
	}
	s.registry = NewRegistry(logger)
	require.NoError(s.T(), RegisterShoppingTools(s.registry, s.searcher))
	s.ctx = context.Background()
}

func (s *ShoppingToolsTestSuite) TestAllToolsRegistered() {
	require.Len(s.T(), s.registry.ListAll(), 3)
	for _, name := range []string{"searchProductsByText", "searchProductsByImage", "listCategories"} {
		_, err := s.registry.Get(name)
		require.NoError(s.T(), err)
	}
}

func (s *ShoppingToolsTestSuite) TestTextSearch() {
	result, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery": "red sneakers",
		"minPrice":  10.0,
		"maxPrice":  50.0,
	})
	require.NoError(s.T(), err)
	require.True(s.T(), result.Success)
	require.Equal(s.T(), 1, result.Result["count"])
	require.Equal(s.T(), "red sneakers", s.searcher.lastQuery)
	require.Equal(s.T(), 10.0, *s.searcher.lastOpts.MinPrice)
	require.Equal(s.T(), 50.0, *s.searcher.lastOpts.MaxPrice)
}

func (s *ShoppingToolsTestSuite) TestTextSearch_MissingQuery() {
	result, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{})
	require.NoError(s.T(), err)
	require.False(s.T(), result.Success)
	require.Equal(s.T(), "invalid_argument", result.ErrorType)
}

func (s *ShoppingToolsTestSuite) TestTextSearch_BadPriceType() {
	result, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery": "sneakers",
		"maxPrice":  "fifty",
	})
	require.NoError(s.T(), err)
	require.False(s.T(), result.Success)
	require.Equal(s.T(), "invalid_argument", result.ErrorType)
}

func (s *ShoppingToolsTestSuite) TestTextSearch_CategoryID() {
	_, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery":  "sneakers",
		"categoryId": "cat-footwear",
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "cat-footwear", s.searcher.lastOpts.CategoryID)
}

func (s *ShoppingToolsTestSuite) TestTextSearch_CategoryNameResolution() {
	_, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery": "sneakers",
		"category":  "footwear",
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "cat-footwear", s.searcher.lastOpts.CategoryID)
}

func (s *ShoppingToolsTestSuite) TestTextSearch_CategoryNameFuzzyResolution() {
	// Voice transcription mangles the category name slightly.
	_, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery": "sneakers",
		"category":  "footware",
	})
	require.NoError(s.T(), err)
	require.Equal(s.T(), "cat-footwear", s.searcher.lastOpts.CategoryID)
}

func (s *ShoppingToolsTestSuite) TestTextSearch_UnknownCategory() {
	result, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery": "sneakers",
		"category":  "vehicles",
	})
	require.NoError(s.T(), err)
	require.False(s.T(), result.Success)
	require.Equal(s.T(), "invalid_argument", result.ErrorType)
}

func (s *ShoppingToolsTestSuite) TestImageSearch() {
	result, err := s.registry.Execute(s.ctx, "searchProductsByImage", map[string]any{
		"imageUrl": "https://img/query.png",
	})
	require.NoError(s.T(), err)
	require.True(s.T(), result.Success)
	require.Equal(s.T(), "https://img/query.png", s.searcher.lastImageRef)
}

func (s *ShoppingToolsTestSuite) TestImageSearch_MissingURL() {
	result, err := s.registry.Execute(s.ctx, "searchProductsByImage", map[string]any{})
	require.NoError(s.T(), err)
	require.False(s.T(), result.Success)
	require.Equal(s.T(), "invalid_argument", result.ErrorType)
}

func (s *ShoppingToolsTestSuite) TestSearchFailure_StructuredPayload() {
	s.searcher.searchErr = &search.Error{
		Kind: search.KindProviderFailure,
		Op:   "search.SearchByText",
		Err:  fmt.Errorf("rate limited"),
	}
	result, err := s.registry.Execute(s.ctx, "searchProductsByText", map[string]any{
		"textQuery": "sneakers",
	})
	require.NoError(s.T(), err)
	require.False(s.T(), result.Success)
	require.Equal(s.T(), "provider_failure", result.ErrorType)
	require.Contains(s.T(), result.Error, "rate limited")
}

func (s *ShoppingToolsTestSuite) TestListCategories() {
	result, err := s.registry.Execute(s.ctx, "listCategories", map[string]any{})
	require.NoError(s.T(), err)
	require.True(s.T(), result.Success)
	require.Equal(s.T(), 3, result.Result["count"])
}
