package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/Astatine-213-Tian/commerce-agent/internal/catalog"
	"github.com/Astatine-213-Tian/commerce-agent/internal/embedding"
	"github.com/Astatine-213-Tian/commerce-agent/internal/mcp"
	"github.com/Astatine-213-Tian/commerce-agent/internal/seed"
)

var (
	// version is set at build time
	version = "dev"

	// CLI flags
	dbPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "commerce-agent",
		Short:   "Voice shopping assistant backend",
		Long:    "commerce-agent serves product similarity search tools to a realtime voice agent over MCP",
		Version: version,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the product search tools over MCP stdio",
		RunE:  runServe,
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the catalog with the built-in product set",
		RunE:  runSeed,
	}
	seedCmd.Flags().StringVar(&dbPath, "db", "commerce-agent.db", "Path to the catalog database")

	rootCmd.AddCommand(serveCmd, seedCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, closeLog := newLogger()
	defer closeLog()

	// Pull OPENAI_API_KEY from .env when present
	_ = godotenv.Load()

	provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey: os.Getenv("OPENAI_API_KEY"),
	}, logger)
	if err != nil {
		logger.Error("Failed to create embedding provider", "error", err)
		return err
	}

	server, err := mcp.NewAgentServer("commerce-agent", version, provider, logger)
	if err != nil {
		logger.Error("Failed to create commerce-agent server", "error", err)
		return err
	}
	defer server.Close()

	ctx := context.Background()
	logger.Info("Starting commerce-agent server over stdio...", "version", version)
	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil {
		logger.Error("commerce-agent server failed", "error", err)
		return err
	}
	logger.Info("commerce-agent server finished")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	logger, closeLog := newLogger()
	defer closeLog()

	_ = godotenv.Load()

	provider, err := embedding.NewOpenAIProvider(embedding.OpenAIConfig{
		APIKey: os.Getenv("OPENAI_API_KEY"),
	}, logger)
	if err != nil {
		color.Red("OPENAI_API_KEY is required to seed the catalog")
		return err
	}

	store, err := catalog.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	color.Cyan("Seeding catalog at %s (%d products)...", dbPath, len(seed.Products))

	summary, err := seed.NewSeeder(store, provider, logger).Run(cmd.Context())
	if err != nil {
		color.Red("Seeding failed: %v", err)
		return err
	}

	color.Green("Done: %d inserted, %d skipped, %d failed", summary.Inserted, summary.Skipped, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d products failed to seed", summary.Failed)
	}
	return nil
}

// newLogger builds the process logger. Logs go to the file named by
// COMMERCE_AGENT_LOG_FILE, falling back to stderr, so stdout stays free for
// the MCP stdio transport.
func newLogger() (*slog.Logger, func()) {
	logPath := os.Getenv("COMMERCE_AGENT_LOG_FILE")
	if logPath == "" {
		logPath = "/tmp/commerce-agent.log"
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	closeFn := func() {}
	if err != nil {
		logFile = os.Stderr
	} else {
		closeFn = func() { logFile.Close() }
	}

	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	return logger, closeFn
}
