package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Default values for the Gemini provider.
const (
	defaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel          = "gemini-2.0-flash"
	defaultGeminiMaxTokens      = 4096
	defaultGeminiEmbeddingModel = "text-embedding-004"
	defaultGeminiRetryDelay     = 2 * time.Second
)

// geminiRequest represents the generateContent request body.
type geminiRequest struct {
	Contents          []geminiContent   `json:"contents"`
	SystemInstruction *geminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

// geminiContent is a message with a role and text parts.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is a single text part.
type geminiPart struct {
	Text string `json:"text"`
}

// generationConfig holds sampling parameters for generateContent.
type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// geminiResponse represents the generateContent response body.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

// geminiCandidate is a single generated candidate.
type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// geminiEmbedRequest represents a batchEmbedContents request body.
type geminiEmbedRequest struct {
	Requests []geminiEmbedItem `json:"requests"`
}

// geminiEmbedItem is one embedding request in a batch.
type geminiEmbedItem struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

// geminiEmbedResponse represents a batchEmbedContents response body.
type geminiEmbedResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

// geminiEmbedding is a single embedding vector.
type geminiEmbedding struct {
	Values []float32 `json:"values"`
}

// GeminiClient implements Client using the Gemini generateContent API.
type GeminiClient struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	maxRetries  int
	retryDelay  time.Duration
}

// GeminiConfig holds the parameters needed to create Gemini clients.
// This is defined in the llm package to avoid importing the config package.
type GeminiConfig struct {
	// APIKey is the Gemini API key.
	APIKey string
	// Model is the model identifier (e.g., "gemini-2.0-flash").
	Model string
	// BaseURL is the API base URL (empty means default).
	BaseURL string
}

// NewGeminiClient creates a new Gemini completion client. Transient API
// errors (5xx, 429, network) are retried up to maxRetries times.
func NewGeminiClient(cfg GeminiConfig, temperature float64, timeout time.Duration, maxRetries int) *GeminiClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	if maxRetries < 0 {
		maxRetries = 0
	}

	return &GeminiClient{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
		maxRetries:  maxRetries,
		retryDelay:  defaultGeminiRetryDelay,
	}
}

// Complete sends the request to generateContent and returns the
// concatenated candidate text.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultGeminiMaxTokens
	}

	genReq := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.Prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if req.System != "" {
		genReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	if req.JSONOutput {
		genReq.GenerationConfig.ResponseMimeType = "application/json"
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("gemini: context cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		text, err := c.doRequest(ctx, genReq)
		if err == nil {
			return text, nil
		}

		if !Retryable(err) {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("gemini: exhausted %d retries: %w", c.maxRetries, lastErr)
}

// Provider returns the name of the LLM provider.
func (c *GeminiClient) Provider() string {
	return "gemini"
}

// Model returns the model identifier being used.
func (c *GeminiClient) Model() string {
	return c.model
}

// doRequest performs a single generateContent call.
func (c *GeminiClient) doRequest(ctx context.Context, genReq geminiRequest) (string, error) {
	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	respBody, err := postJSON(ctx, c.httpClient, endpoint, map[string]string{
		"x-goog-api-key": c.apiKey,
	}, genReq, "gemini")
	if err != nil {
		return "", err
	}

	var genResp geminiResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", fmt.Errorf("gemini: failed to unmarshal response: %w", err)
	}

	if len(genResp.Candidates) == 0 {
		return "", fmt.Errorf("gemini: empty candidates in response")
	}

	text := ""
	for _, part := range genResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", fmt.Errorf("gemini: candidate contained no text")
	}
	return text, nil
}

// GeminiEmbedder implements Embedder using batchEmbedContents.
type GeminiEmbedder struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// NewGeminiEmbedder creates an embedding client. An empty model selects
// text-embedding-004.
func NewGeminiEmbedder(cfg GeminiConfig, model string, timeout time.Duration) *GeminiEmbedder {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &GeminiEmbedder{
		httpClient: &http.Client{Timeout: timeout},
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
	}
}

// Embed returns one vector per input text, in input order.
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	items := make([]geminiEmbedItem, len(texts))
	for i, t := range texts {
		items[i] = geminiEmbedItem{
			Model:   "models/" + e.model,
			Content: geminiContent{Parts: []geminiPart{{Text: t}}},
		}
	}

	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", e.baseURL, e.model)
	respBody, err := postJSON(ctx, e.httpClient, endpoint, map[string]string{
		"x-goog-api-key": e.apiKey,
	}, geminiEmbedRequest{Requests: items}, "gemini")
	if err != nil {
		return nil, err
	}

	var embResp geminiEmbedResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("gemini: failed to unmarshal embeddings: %w", err)
	}
	if len(embResp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(embResp.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range embResp.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}
