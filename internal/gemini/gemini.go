// Package gemini wraps the Google GenAI SDK behind the narrow capabilities
// the pipeline needs: document/query embeddings, low-temperature grounded
// generation, and image OCR.
//
// The client is constructed once at startup and shared; it holds no mutable
// state beyond the underlying SDK client and is safe for concurrent use.
package gemini

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/substrat-dev/ragd/internal/log"
)

// embeddingDimension is the fixed process-wide vector size. The embedding
// model is truncated to this via OutputDimensionality; it must match the
// vector(768) column in the chunks table.
const embeddingDimension = 768

const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Query embeddings retry on transient upstream failure; document embeddings
// fail fast so ingestion never commits a partial chunk set built on retries.
const (
	queryEmbedAttempts = 3
	queryEmbedBaseWait = time.Second
)

// ocrPrompt asks the vision model for the text content of an image, falling
// back to a description so image-only uploads still become searchable.
const ocrPrompt = "Extract all text from this image. If there is no text, describe what you see in detail."

// Config holds model selection and credentials for the client.
type Config struct {
	APIKey         string
	Model          string // generation + vision model
	EmbeddingModel string
}

// Client talks to the Gemini API. Create it with New and reuse it.
type Client struct {
	genai          *genai.Client
	model          string
	embeddingModel string
	logger         log.Logger
}

// New creates a Gemini client. The API key must be non-empty.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Client{
		genai:          c,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger,
	}, nil
}

// EmbedDocument embeds text for retrieval (document side of the space).
// Fails fast on upstream error; the caller decides whether the whole
// ingestion aborts.
func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskRetrievalDocument)
}

// EmbedQuery embeds a search query. Both intents land in the same vector
// space, so query and document vectors are comparable by distance.
// Transient upstream failures are retried with doubling backoff.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return retryEmbed(ctx, queryEmbedAttempts, queryEmbedBaseWait, c.logger, func(ctx context.Context) ([]float32, error) {
		return c.embed(ctx, text, taskRetrievalQuery)
	})
}

func (c *Client) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	resp, err := c.genai.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: genai.Ptr[int32](embeddingDimension),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("empty embedding returned")
	}
	vec := resp.Embeddings[0].Values
	if len(vec) != embeddingDimension {
		return nil, fmt.Errorf("embedding dimension %d, want %d", len(vec), embeddingDimension)
	}
	return vec, nil
}

// Generate runs the model over prompt with low-temperature decoding tuned for
// factual consistency. An empty model response returns ("", nil); upstream
// failures return an error.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.3),
		TopP:            genai.Ptr[float32](0.8),
		TopK:            genai.Ptr[float32](40),
		MaxOutputTokens: 1024,
		SafetySettings: []*genai.SafetySetting{
			{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
			{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return resp.Text(), nil
}

// ExtractImageText performs OCR on image data via the vision-capable model.
// mimeType must be one of the supported image types (jpeg, png, webp).
func (c *Client) ExtractImageText(ctx context.Context, data []byte, mimeType string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(ocrPrompt),
		genai.NewPartFromBytes(data, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("extracting image text: %w", err)
	}
	return resp.Text(), nil
}
