package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Astatine-213-Tian/commerce-agent/internal/catalog"
	"github.com/Astatine-213-Tian/commerce-agent/internal/embedding"
	"github.com/Astatine-213-Tian/commerce-agent/internal/search"
	"github.com/Astatine-213-Tian/commerce-agent/internal/storage"
	"github.com/Astatine-213-Tian/commerce-agent/internal/tools"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config represents the complete commerce-agent configuration
type Config struct {
	Settings Settings `json:"settings"`
}

// Settings represents commerce-agent settings
type Settings struct {
	DatabasePath             string  `json:"databasePath"`             // Catalog database path (default: commerce-agent.db)
	ResultLimit              int     `json:"resultLimit"`              // Max results per search (default: 10)
	SearchPoolMultiplier     int     `json:"searchPoolMultiplier"`     // Candidate pool as a multiple of the limit (default: 3)
	TextSimilarityThreshold  float64 `json:"textSimilarityThreshold"`  // Minimum score for text search (default: 0.3)
	ImageSimilarityThreshold float64 `json:"imageSimilarityThreshold"` // Minimum score for image search (default: 0.5)
	ProviderTimeoutSeconds   int     `json:"providerTimeoutSeconds"`   // Deadline per embedding/caption call (default: 30)
}

// AgentServer exposes the product search tools over MCP so the realtime
// voice agent can call them.
type AgentServer struct {
	server   *mcp.Server
	logger   *slog.Logger
	registry *tools.Registry
	engine   *search.Engine
	store    *catalog.Store
	images   *storage.ImageStore
}

// NewAgentServer wires the catalog store, image store, and search engine
// behind the tool registry, and registers the tools on an MCP server. The
// embedding provider is injected so callers control credentials and tests
// can substitute fakes.
func NewAgentServer(name, version string, provider embedding.Provider, logger *slog.Logger) (*AgentServer, error) {
	config, err := loadConfig(logger)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", "error", err)
		config = &Config{}
	}

	dbPath := config.Settings.DatabasePath
	if dbPath == "" {
		dbPath = "commerce-agent.db"
	}

	store, err := catalog.Open(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	images, err := storage.NewImageStore(store.DB(), logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to open image store: %w", err)
	}

	engine := search.New(store, provider, images, engineConfig(config.Settings), logger)

	registry := tools.NewRegistry(logger)
	if err := tools.RegisterShoppingTools(registry, engine); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to register shopping tools: %w", err)
	}

	agent := &AgentServer{
		logger:   logger,
		registry: registry,
		engine:   engine,
		store:    store,
		images:   images,
	}

	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    name,
			Version: version,
		},
		nil,
	)
	agent.registerTools(server)
	agent.server = server

	return agent, nil
}

// loadConfig loads the .commerce-agent.json configuration file
func loadConfig(logger *slog.Logger) (*Config, error) {
	configPath := os.Getenv("COMMERCE_AGENT_CONFIG")
	if configPath == "" {
		configPath = ".commerce-agent.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("No config found, using defaults", "path", configPath)
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	logger.Info("Found config", "path", configPath, "size_bytes", len(data))

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func engineConfig(s Settings) search.Config {
	cfg := search.Config{
		ResultLimit:    s.ResultLimit,
		PoolMultiplier: s.SearchPoolMultiplier,
		TextThreshold:  s.TextSimilarityThreshold,
		ImageThreshold: s.ImageSimilarityThreshold,
	}
	if s.ProviderTimeoutSeconds > 0 {
		cfg.ProviderTimeout = time.Duration(s.ProviderTimeoutSeconds) * time.Second
	}
	return cfg
}

// Close releases the underlying database.
func (s *AgentServer) Close() error {
	return s.store.Close()
}

// Run starts the MCP server with the given transport
func (s *AgentServer) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// === TOOL REGISTRATION ===

func (s *AgentServer) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "searchProductsByText",
		Description: "Search for products using a text description. Returns up to 10 products " +
			"ranked by relevance with name, brand, price, category, description, and image URL.",
	}, s.handleTextSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name: "searchProductsByImage",
		Description: "Search for products similar to an uploaded image. Accepts an image URL or a " +
			"storage id of a previously uploaded image. Returns up to 10 similar products with details.",
	}, s.handleImageSearch)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "listCategories",
		Description: "List all product categories with their ids, names, slugs, and descriptions.",
	}, s.handleListCategories)
}

// === TOOL HANDLERS ===

// TextSearchInput defines the input for searchProductsByText
type TextSearchInput struct {
	TextQuery  string   `json:"textQuery" jsonschema:"The search query (e.g., 'wireless headphones', 'red sneakers')"`
	MinPrice   *float64 `json:"minPrice,omitempty" jsonschema:"Optional minimum price filter in dollars (inclusive)"`
	MaxPrice   *float64 `json:"maxPrice,omitempty" jsonschema:"Optional maximum price filter in dollars (inclusive)"`
	CategoryID string   `json:"categoryId,omitempty" jsonschema:"Optional category id to restrict results to"`
	Category   string   `json:"category,omitempty" jsonschema:"Optional category name; resolved against the catalog, tolerating small transcription errors"`
}

// ImageSearchInput defines the input for searchProductsByImage
type ImageSearchInput struct {
	ImageURL   string   `json:"imageUrl" jsonschema:"URL or storage id of the query image"`
	MinPrice   *float64 `json:"minPrice,omitempty" jsonschema:"Optional minimum price filter in dollars (inclusive)"`
	MaxPrice   *float64 `json:"maxPrice,omitempty" jsonschema:"Optional maximum price filter in dollars (inclusive)"`
	CategoryID string   `json:"categoryId,omitempty" jsonschema:"Optional category id to restrict results to"`
	Category   string   `json:"category,omitempty" jsonschema:"Optional category name; resolved against the catalog"`
}

// ListCategoriesInput defines the (empty) input for listCategories
type ListCategoriesInput struct{}

func (s *AgentServer) handleTextSearch(ctx context.Context, req *mcp.CallToolRequest, input TextSearchInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{"textQuery": input.TextQuery}
	addFilterArgs(args, input.MinPrice, input.MaxPrice, input.CategoryID, input.Category)
	return s.execute(ctx, "searchProductsByText", args)
}

func (s *AgentServer) handleImageSearch(ctx context.Context, req *mcp.CallToolRequest, input ImageSearchInput) (*mcp.CallToolResult, any, error) {
	args := map[string]any{"imageUrl": input.ImageURL}
	addFilterArgs(args, input.MinPrice, input.MaxPrice, input.CategoryID, input.Category)
	return s.execute(ctx, "searchProductsByImage", args)
}

func (s *AgentServer) handleListCategories(ctx context.Context, req *mcp.CallToolRequest, input ListCategoriesInput) (*mcp.CallToolResult, any, error) {
	return s.execute(ctx, "listCategories", map[string]any{})
}

// execute routes a tool call through the registry and serializes the
// structured ExecutionResult as the MCP tool result.
func (s *AgentServer) execute(ctx context.Context, toolName string, args map[string]any) (*mcp.CallToolResult, any, error) {
	result, err := s.registry.Execute(ctx, toolName, args)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: err.Error()},
			},
		}, nil, nil
	}

	resultJSON, _ := json.Marshal(result)

	return &mcp.CallToolResult{
		IsError: !result.Success,
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(resultJSON)},
		},
	}, nil, nil
}

func addFilterArgs(args map[string]any, minPrice, maxPrice *float64, categoryID, category string) {
	if minPrice != nil {
		args["minPrice"] = *minPrice
	}
	if maxPrice != nil {
		args["maxPrice"] = *maxPrice
	}
	if categoryID != "" {
		args["categoryId"] = categoryID
	}
	if category != "" {
		args["category"] = category
	}
}
