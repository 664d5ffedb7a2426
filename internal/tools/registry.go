package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Astatine-213-Tian/commerce-agent/internal/search"
)

// Registry manages all available tools and their execution.
type Registry struct {
	tools  map[string]*Tool
	logger *slog.Logger
}

// NewRegistry creates a new tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*Tool),
		logger: logger,
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool *Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}
	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool %s already registered", tool.Name)
	}

	r.tools[tool.Name] = tool
	r.logger.Info("Registered tool", "name", tool.Name)
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (*Tool, error) {
	tool, exists := r.tools[name]
	if !exists {
		return nil, fmt.Errorf("tool not found: %s", name)
	}
	return tool, nil
}

// Execute runs a tool with the given arguments. Every invocation logs its
// arguments and either its result count or its error before returning.
func (r *Registry) Execute(ctx context.Context, toolName string, arguments map[string]any) (*ExecutionResult, error) {
	start := time.Now()

	tool, err := r.Get(toolName)
	if err != nil {
		return &ExecutionResult{
			Success:         false,
			ToolName:        toolName,
			Error:           err.Error(),
			ErrorType:       "tool_not_found",
			ExecutionTimeMs: time.Since(start).Milliseconds(),
		}, nil
	}

	r.logger.InfoContext(ctx, "Executing tool", "name", toolName, "arguments", arguments)

	result, execErr := tool.Handler(ctx, arguments)
	executionTime := time.Since(start).Milliseconds()

	if execErr != nil {
		errorType := string(search.KindOf(execErr))
		if errorType == "" {
			errorType = "execution_error"
		}
		r.logger.ErrorContext(ctx, "Tool execution failed",
			"name", toolName, "error", execErr, "error_type", errorType)
		return &ExecutionResult{
			Success:         false,
			ToolName:        toolName,
			Error:           execErr.Error(),
			ErrorType:       errorType,
			ExecutionTimeMs: executionTime,
		}, nil
	}

	r.logger.InfoContext(ctx, "Tool execution successful",
		"name", toolName, "count", result["count"], "execution_time_ms", executionTime)

	return &ExecutionResult{
		Success:         true,
		ToolName:        toolName,
		Result:          result,
		ExecutionTimeMs: executionTime,
	}, nil
}

// ListAll returns all registered tools.
func (r *Registry) ListAll() []*Tool {
	tools := make([]*Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	return tools
}
