package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	defaultEmbedModel  = "text-embedding-3-small"
	defaultVisionModel = "gpt-4o-mini"
	defaultTimeout     = 30 * time.Second

	captionPrompt = "Describe this product image in detail, focusing on visual features, colors, materials, and overall appearance. Be concise but thorough for search purposes."
)

// OpenAIConfig configures the OpenAI-backed provider. Zero values fall back
// to sensible defaults; only APIKey is required.
type OpenAIConfig struct {
	APIKey      string
	EmbedModel  string
	VisionModel string
	BaseURL     string
	Timeout     time.Duration
}

// OpenAIProvider implements Provider against the OpenAI embeddings and chat
// completion (vision) endpoints.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	client *http.Client
	logger *slog.Logger
}

// NewOpenAIProvider creates a provider from the given configuration.
func NewOpenAIProvider(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultVisionModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	logger.Info("Created OpenAI embedding provider",
		"embed_model", cfg.EmbedModel,
		"vision_model", cfg.VisionModel)

	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// EmbedText generates an embedding for the given text.
func (p *OpenAIProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]any{
		"model": p.cfg.EmbedModel,
		"input": text,
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := p.post(ctx, "/embeddings", reqBody, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, fmt.Errorf("embeddings response contained no data")
	}

	embedding := result.Data[0].Embedding
	if len(embedding) != Dimension {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(embedding), Dimension)
	}
	return embedding, nil
}

// DescribeImage captions the image at imageURL via the vision-capable chat
// endpoint.
func (p *OpenAIProvider) DescribeImage(ctx context.Context, imageURL string) (string, error) {
	reqBody := map[string]any{
		"model": p.cfg.VisionModel,
		"messages": []map[string]any{
			{
				"role": "user",
				"content": []map[string]any{
					{"type": "text", "text": captionPrompt},
					{"type": "image_url", "image_url": map[string]any{"url": imageURL}},
				},
			},
		},
		"max_tokens": 300,
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := p.post(ctx, "/chat/completions", reqBody, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("vision response contained no caption")
	}

	caption := result.Choices[0].Message.Content
	p.logger.Debug("Generated image caption", "url", imageURL, "caption_len", len(caption))
	return caption, nil
}

func (p *OpenAIProvider) post(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("OpenAI API error (%d): %s", resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
