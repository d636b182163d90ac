package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wispcompanion/core/internal/httputil"
)

const (
	DefaultGeminiBaseURL        = "https://generativelanguage.googleapis.com/v1beta"
	DefaultGeminiEmbeddingModel = "gemini-embedding-001"
	geminiTimeout               = 30 * time.Second
)

func NormalizeGeminiModel(model string) string {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" {
		return DefaultGeminiEmbeddingModel
	}
	withoutPrefix := strings.TrimPrefix(trimmed, "models/")
	if after, ok := strings.CutPrefix(withoutPrefix, "gemini/"); ok {
		return after
	}
	if after, ok := strings.CutPrefix(withoutPrefix, "google/"); ok {
		return after
	}
	return withoutPrefix
}

type geminiClient struct {
	baseURL   string
	headers   map[string]string
	modelPath string
}

func buildGeminiModelPath(model string) string {
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

// NewGeminiProvider talks to the bare Gemini embedContent/batchEmbedContents
// REST endpoints directly over net/http — there is no Go SDK dependency
// here, just JSON in and out.
func NewGeminiProvider(apiKey, baseURL, model string, headers map[string]string) (Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini embeddings require api_key")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultGeminiBaseURL
	}
	normalized := NormalizeGeminiModel(model)
	client := &geminiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		headers:   httputil.MergeHeaders(map[string]string{"x-goog-api-key": apiKey}, headers),
		modelPath: buildGeminiModelPath(normalized),
	}

	embedQuery := func(ctx context.Context, text string) ([]float32, error) {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		body := map[string]any{
			"content":  map[string]any{"parts": []map[string]any{{"text": text}}},
			"taskType": "RETRIEVAL_QUERY",
		}
		resp, _, err := httputil.PostJSON(ctx, client.embedURL(), client.headers, body, geminiTimeout)
		if err != nil {
			return nil, err
		}
		var payload struct {
			Embedding struct {
				Values []float64 `json:"values"`
			} `json:"embedding"`
		}
		if err := json.Unmarshal(resp, &payload); err != nil {
			return nil, err
		}
		return NormalizeEmbedding(toFloat32(payload.Embedding.Values)), nil
	}

	embedBatch := func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}
		requests := make([]map[string]any, 0, len(texts))
		for _, text := range texts {
			requests = append(requests, map[string]any{
				"model":    client.modelPath,
				"content":  map[string]any{"parts": []map[string]any{{"text": text}}},
				"taskType": "RETRIEVAL_DOCUMENT",
			})
		}
		resp, _, err := httputil.PostJSON(ctx, client.batchURL(), client.headers, map[string]any{"requests": requests}, geminiTimeout)
		if err != nil {
			return nil, err
		}
		var payload struct {
			Embeddings []struct {
				Values []float64 `json:"values"`
			} `json:"embeddings"`
		}
		if err := json.Unmarshal(resp, &payload); err != nil {
			return nil, err
		}
		out := make([][]float32, 0, len(texts))
		for i := range texts {
			if i < len(payload.Embeddings) {
				out = append(out, NormalizeEmbedding(toFloat32(payload.Embeddings[i].Values)))
			} else {
				out = append(out, nil)
			}
		}
		return out, nil
	}

	return &closureProvider{
		id:         "gemini",
		model:      normalized,
		embedQuery: embedQuery,
		embedBatch: embedBatch,
	}, nil
}

func (c *geminiClient) embedURL() string {
	return c.baseURL + "/" + c.modelPath + ":embedContent"
}

func (c *geminiClient) batchURL() string {
	return c.baseURL + "/" + c.modelPath + ":batchEmbedContents"
}
