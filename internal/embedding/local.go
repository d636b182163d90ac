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
	DefaultLocalEmbeddingModel = "text-embedding-3-small"
	localTimeout               = 30 * time.Second
)

func normalizeOpenAIEndpoint(baseURL string) string {
	trimmed := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(trimmed, "/embeddings") {
		return trimmed
	}
	if strings.HasSuffix(trimmed, "/v1") || strings.HasSuffix(trimmed, "/openai/v1") {
		return trimmed + "/embeddings"
	}
	return trimmed + "/v1/embeddings"
}

// NewLocalProvider talks to a locally-hosted OpenAI-compatible embeddings
// endpoint (llama.cpp server, LM Studio, etc) so the core can run fully
// offline when no remote API key is configured.
func NewLocalProvider(baseURL, apiKey, model string, headers map[string]string) (Provider, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("local embeddings require base_url")
	}
	normalizedModel := strings.TrimSpace(model)
	if normalizedModel == "" {
		normalizedModel = DefaultLocalEmbeddingModel
	}
	endpoint := normalizeOpenAIEndpoint(baseURL)

	reqHeaders := httputil.MergeHeaders(nil, headers)
	if strings.TrimSpace(apiKey) != "" {
		reqHeaders = httputil.MergeHeaders(reqHeaders, map[string]string{"Authorization": "Bearer " + strings.TrimSpace(apiKey)})
	}

	embedBatch := func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return nil, nil
		}
		payload := map[string]any{"model": normalizedModel, "input": texts}
		data, _, err := httputil.PostJSON(ctx, endpoint, reqHeaders, payload, localTimeout)
		if err != nil {
			return nil, err
		}
		var resp struct {
			Data []struct {
				Embedding []float64 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, err
		}
		out := make([][]float32, 0, len(resp.Data))
		for _, entry := range resp.Data {
			out = append(out, NormalizeEmbedding(toFloat32(entry.Embedding)))
		}
		return out, nil
	}

	return &closureProvider{
		id:    "local",
		model: normalizedModel,
		embedQuery: func(ctx context.Context, text string) ([]float32, error) {
			results, err := embedBatch(ctx, []string{text})
			if err != nil {
				return nil, err
			}
			if len(results) == 0 {
				return nil, nil
			}
			return results[0], nil
		},
		embedBatch: embedBatch,
	}, nil
}
